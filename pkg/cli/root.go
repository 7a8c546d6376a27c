package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/TanyaEf/rest-client/pkg/archive"
	"github.com/TanyaEf/rest-client/pkg/config"
	"github.com/TanyaEf/rest-client/pkg/logging"
	"github.com/TanyaEf/rest-client/pkg/scratch"
)

// app carries what every subcommand needs once flags and config are resolved.
type app struct {
	info BuildInfo

	// flags
	configPath string
	logLevel   string
	logFormat  string
	scratchDir string
	jsonOutput bool

	cfg     config.Config
	logger  *slog.Logger
	codec   *archive.Codec
	logFile io.Closer
	getenv  func(string) string
}

// NewRootCommand builds the restclient command tree.
func NewRootCommand(info BuildInfo) *cobra.Command {
	return newRootCommand(info, os.Getenv)
}

func newRootCommand(info BuildInfo, getenv func(string) string) *cobra.Command {
	a := &app{info: info, getenv: getenv}

	root := &cobra.Command{
		Use:   "restclient",
		Short: "Pack and unpack saved REST requests and responses",
		Long: `restclient manages request/response archives (.rcc files).

An archive is a zip container holding a saved request (request.rcq) and the
response it produced (response.rcs), both as XML documents.

Configuration can be provided via flags, RESTCLIENT_* environment variables,
or a configuration file. By default restclient reads
$XDG_CONFIG_HOME/restclient/config.yaml when it exists.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if a.logFile != nil {
				return a.logFile.Close()
			}
			return nil
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "Config file (default: "+config.DefaultPath()+")")
	flags.StringVar(&a.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	flags.StringVar(&a.logFormat, "log-format", "", "Log format: text or json")
	flags.StringVar(&a.scratchDir, "scratch-dir", "", "Directory for intermediate files (default: system temp dir)")
	flags.BoolVar(&a.jsonOutput, "json", false, "Output command results in JSON format")

	root.AddCommand(
		newPackCmd(a),
		newUnpackCmd(a),
		newInspectCmd(a),
		newStatusCodeCmd(a),
		newCharsetCmd(a),
		newConfigCmd(a),
		newVersionCmd(a),
	)
	return root
}

// Execute runs the command tree with os.Args and returns the process exit code.
func Execute(ctx context.Context, info BuildInfo) int {
	root := NewRootCommand(info)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// setup resolves configuration in priority order: file, env, flags.
func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if err := config.ApplyEnv(&cfg, a.getenv); err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.Log.Level = a.logLevel
	}
	if flags.Changed("log-format") {
		cfg.Log.Format = a.logFormat
	}
	if flags.Changed("scratch-dir") {
		cfg.ScratchDir = a.scratchDir
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg

	handler := logging.NewHandler(logging.Config{
		Level:  logging.ParseLevel(cfg.Log.Level),
		Format: logging.ParseFormat(cfg.Log.Format),
		Output: cmd.ErrOrStderr(),
	})
	if cfg.Log.File != "" {
		f, err := os.OpenFile(cfg.Log.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		a.logFile = f
		handler = logging.Tee(handler, logging.NewHandler(logging.Config{
			Level:  logging.LevelDebug,
			Format: logging.FormatJSON,
			Output: f,
		}))
	}
	a.logger = slog.New(handler)

	store := scratch.System()
	if cfg.ScratchDir != "" {
		ds, err := scratch.NewDirStore(cfg.ScratchDir)
		if err != nil {
			return err
		}
		store = ds
	}

	a.codec = archive.New(
		archive.WithScratch(store),
		archive.WithLogger(a.logger),
		archive.WithMaxEntrySize(cfg.MaxEntrySize),
	)
	a.logger.Debug("configuration resolved", "scratchDir", cfg.ScratchDir, "maxEntrySize", cfg.MaxEntrySize)
	return nil
}
