package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/atikulmunna/logformat/internal/config"
	"github.com/atikulmunna/logformat/internal/logging"
	"github.com/atikulmunna/logformat/internal/output"
	"github.com/atikulmunna/logformat/internal/record"
	"github.com/atikulmunna/logformat/internal/store"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	cfg     config.Config
)

// rootCmd is the base command when called without subcommands.
var rootCmd = &cobra.Command{
	Use:   "logformat",
	Short: "Extract structured objects from log messages",
	Long: `logformat finds object literals such as MyClass(name = test, ref = Other(id = 1))
inside otherwise free-form log messages, replaces them with numbered placeholders
and renders each object as JSON or as an indented debug form.

Input lines may be plain text or JSON records; for JSON records the message is
read from --field and the result is written back into the same record.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(viper.GetViper())
		if err != nil {
			return err
		}
		cfg = loaded
		logging.Init(os.Stderr, cfg.Output == "json", logging.ParseLevel(cfg.LogLevel))
		return nil
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	config.SetDefaults(viper.GetViper())

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&cfgFile, "config", "c", "", "config file (default: $HOME/.logformat.yaml)")
	flags.StringP("output", "o", "text", "output format: text, json")
	flags.StringP("mode", "m", "json", "entity rendering: json, pretty")
	flags.IntP("indent", "i", 2, "spaces per nesting level")
	flags.StringP("field", "f", "message", "JSON field holding the log message")
	flags.String("entities-key", "log_entities", "JSON field receiving the rendered entities")
	flags.String("log-level", "info", "diagnostic log level: debug, info, warn, error")
	flags.String("db", "", "also store formatted entries in this SQLite database")
	flags.Bool("no-color", false, "disable colors in text output")
	cobra.CheckErr(viper.BindPFlags(flags))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigName(".logformat")
		viper.SetConfigType("yaml")
	}

	_ = viper.ReadInConfig()
}

// newFormatter builds the line formatter from the loaded configuration.
func newFormatter() *record.LineFormatter {
	return record.NewLineFormatter(record.Options{
		Field:       cfg.Field,
		EntitiesKey: cfg.EntitiesKey,
		Mode:        cfg.Mode,
		Indent:      cfg.Indent,
	})
}

// newRenderer builds the output sink for w, adding the SQLite store when
// configured. The returned close function must be called when done.
func newRenderer(w io.Writer) (output.Renderer, func(), error) {
	var r output.Renderer
	switch cfg.Output {
	case "json":
		r = output.NewJSONRenderer(w)
	default:
		r = output.NewTextRenderer(w, !cfg.NoColor)
	}

	if cfg.DB == "" {
		return r, func() {}, nil
	}
	st, err := store.Open(cfg.DB)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open store: %w", err)
	}
	return output.Multi{r, st}, func() { st.Close() }, nil
}
