package cmd

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/atikulmunna/flowscope/internal/flatten"
	"github.com/atikulmunna/flowscope/internal/output"
	"github.com/atikulmunna/flowscope/internal/report"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// DefaultInput is read when no path is given.
const DefaultInput = "flowlog.json"

var cfgFile string

// rootCmd prints the allowed/denied report when called without subcommands.
var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "flowscope [file]",
		Short: "Print allowed and denied traffic from a flow log export",
		Long: `flowscope reads a firewall flow log export (JSON), flattens every flow
tuple into a row and prints allowed and denied traffic as aligned tables.

Examples:
  flowscope
  flowscope exports/nsg-2024-01-01.json
  flowscope flowlog.json --output json --skip-malformed`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runReport,
	}

	root.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default: $HOME/.flowscope.yaml)")
	root.PersistentFlags().StringP("output", "o", "text", "output format: text, json")
	root.PersistentFlags().Bool("skip-malformed", false, "skip malformed tuples with a warning instead of failing")
	root.PersistentFlags().Bool("show-unclassified", false, "print rows with unrecognized action codes in a third section")
	root.PersistentFlags().Bool("color", false, "colorize section headings")

	for key, flag := range map[string]string{
		"output":            "output",
		"skip_malformed":    "skip-malformed",
		"show_unclassified": "show-unclassified",
		"color":             "color",
	} {
		cobra.CheckErr(viper.BindPFlag(key, root.PersistentFlags().Lookup(flag)))
	}
	viper.SetDefault("input", DefaultInput)

	root.AddCommand(newWatchCmd(), newServeCmd())
	return root
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigName(".flowscope")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("flowscope")
	viper.AutomaticEnv()
	_ = viper.ReadInConfig()
}

// settings is the resolved configuration for one invocation.
type settings struct {
	output           string
	skipMalformed    bool
	showUnclassified bool
	color            bool
}

func loadSettings() settings {
	return settings{
		output:           viper.GetString("output"),
		skipMalformed:    viper.GetBool("skip_malformed"),
		showUnclassified: viper.GetBool("show_unclassified"),
		color:            viper.GetBool("color"),
	}
}

func (s settings) reportOptions() report.Options {
	if s.skipMalformed {
		return report.Options{Mode: flatten.SkipMalformed}
	}
	return report.Options{Mode: flatten.FailFast}
}

func (s settings) textOptions() output.TextOptions {
	return output.TextOptions{Color: s.color, ShowUnclassified: s.showUnclassified}
}

// inputPath returns the positional path or the configured default.
func inputPath(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return viper.GetString("input")
}

func runReport(cmd *cobra.Command, args []string) error {
	return renderFile(cmd.OutOrStdout(), inputPath(args), loadSettings())
}

// renderFile builds the report for path and writes it to w. Nothing is
// written unless the whole document loaded and flattened.
func renderFile(w io.Writer, path string, s settings) error {
	renderer, err := output.New(s.output, w, s.textOptions())
	if err != nil {
		return err
	}

	rep, err := report.FromFile(path, s.reportOptions())
	if err != nil {
		return err
	}
	warn(rep)

	return renderer.Render(rep)
}

// warn logs rows that did not make it into the allowed/denied tables.
func warn(rep *report.Report) {
	for _, sk := range rep.Skipped {
		log.Printf("warning: skipped %s: %s", sk.Location, sk.Error)
	}
	if n := len(rep.Unclassified); n > 0 {
		log.Printf("warning: %d row(s) in %s with unrecognized action codes are not in the allowed or denied tables", n, rep.Source)
	}
}
