package main

import (
	"fmt"

	"github.com/ankit-chaubey/promptscope/core"
	"github.com/ankit-chaubey/promptscope/core/config"
	"github.com/ankit-chaubey/promptscope/core/image"
	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var version = "dev"

var (
	flagJSON      bool
	flagKnownOnly bool
	flagStrategy  string
	flagNoMmap    bool
	flagConfig    string
	flagVerbose   bool
)

var rootCmd = &cobra.Command{
	Use:   "promptscope <file>...",
	Short: "Show AI generation metadata embedded in images",
	Long: `promptscope prints the prompts, workflows and generation settings that
image generators embed in PNG, WebP, JPEG and AVIF files.

Sources:
  PNG   tEXt, iTXt and zTXt chunks (A1111 parameters, ComfyUI prompt/workflow,
        NovelAI Description/Comment) and the eXIf chunk
  WebP  EXIF chunk UserComment
  JPEG  EXIF UserComment in the first 64 KiB
  AVIF  EXIF UserComment in the first 64 KiB

Environment:
  PROMPTSCOPE_LOG_LEVEL   log level (debug, info, warn, error)
  PROMPTSCOPE_JSON=true   JSON output

Examples:
  promptscope image.png
  promptscope --json a.png b.webp
  promptscope --exif-strategy scan photo.jpg`,
	Args:              cobra.MinimumNArgs(1),
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setupLogging,
	RunE:              runView,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "promptscope %s\n", version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "config file path (default ~/.promptscope/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "log skipped chunks and records")
	rootCmd.Flags().BoolVar(&flagJSON, "json", false, "print JSON instead of text sections")
	rootCmd.Flags().BoolVar(&flagKnownOnly, "known-only", false, "only print keywords with a known label")
	rootCmd.Flags().StringVar(&flagStrategy, "exif-strategy", "", "UserComment lookup: structural or scan")
	rootCmd.Flags().BoolVar(&flagNoMmap, "no-mmap", false, "read files into memory instead of mapping them")

	rootCmd.AddCommand(versionCmd)
}

// SetVersion sets the version string reported by the version command.
func SetVersion(v string) {
	version = v
}

func setupLogging(cmd *cobra.Command, _ []string) error {
	level, err := zerolog.ParseLevel(config.GetEnvOrDefault("PROMPTSCOPE_LOG_LEVEL", "warn"))
	if err != nil {
		return fmt.Errorf("invalid PROMPTSCOPE_LOG_LEVEL: %w", err)
	}
	if flagVerbose {
		level = zerolog.DebugLevel
	}
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: cmd.ErrOrStderr(), NoColor: true}).
		Level(level).
		With().Timestamp().Logger()
	return nil
}

func loaderFor(path string) (*config.Loader, error) {
	if path != "" {
		return config.NewLoaderWithPath(path), nil
	}
	return config.NewLoader()
}

// loadConfig reads the config file and applies environment and flag
// overrides on top of it.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	loader, err := loaderFor(flagConfig)
	if err != nil {
		return nil, err
	}
	cfg, err := loader.Load()
	if err != nil {
		return nil, err
	}

	if config.GetEnvBool("PROMPTSCOPE_JSON") {
		cfg.Output.Format = config.FormatJSON
	}
	flags := cmd.Flags()
	if flags.Changed("json") && flagJSON {
		cfg.Output.Format = config.FormatJSON
	}
	if flags.Changed("known-only") {
		cfg.Output.KnownOnly = flagKnownOnly
	}
	if flags.Changed("exif-strategy") {
		cfg.EXIF.Strategy = flagStrategy
	}
	if flags.Changed("no-mmap") {
		cfg.Source.Mmap = !flagNoMmap
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runView(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	opts, err := cfg.ExtractOptions()
	if err != nil {
		return err
	}

	ex := image.New(core.NewSource(cfg.Source.Mmap), opts)
	p := core.NewPrinter(cfg.Output.Format == config.FormatJSON, core.NewRenderer(cfg.Rules(), cfg.Output.KnownOnly))
	p.Out = cmd.OutOrStdout()
	p.Err = cmd.ErrOrStderr()

	var result *multierror.Error
	for _, path := range args {
		m, err := ex.View(path)
		if err != nil {
			result = multierror.Append(result, fmt.Errorf("%s: %w", path, err))
			continue
		}
		log.Debug().Str("path", path).Str("format", string(m.Format)).Int("records", len(m.Records)).Msg("extracted")
		if err := p.PrintMetadata(m); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return result.ErrorOrNil()
}
