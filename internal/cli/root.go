package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/vettahq/vetta/internal/config"
	"github.com/vettahq/vetta/internal/ingest"
	"github.com/vettahq/vetta/internal/logging"
	"github.com/vettahq/vetta/internal/stt"
	"github.com/vettahq/vetta/internal/version"
)

type appState struct {
	configFile string
	socket     string
	strategy   string
	verbose    bool
	jsonLogs   bool
	noProgress bool

	logger *zap.Logger
	now    func() time.Time
	out    io.Writer

	// Swapped in tests.
	loadConfigFn  func(file string) (config.Config, error)
	newStrategyFn func(cfg stt.Config, logger *zap.Logger) (stt.Strategy, error)
}

func NewRootCmd() *cobra.Command {
	app := &appState{
		now: time.Now,
		out: os.Stdout,
	}
	app.loadConfigFn = config.Load
	app.newStrategyFn = stt.NewStrategy

	cmd := &cobra.Command{
		Use:           "vetta",
		Short:         "Transcribe and process earnings-call recordings",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version.Resolve(),
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			logger, err := logging.New(logging.Options{Verbose: app.verbose, JSON: app.jsonLogs})
			if err != nil {
				return fmt.Errorf("initialize logger: %w", err)
			}
			app.logger = logger
			return nil
		},
	}

	cmd.SetVersionTemplate("{{.Name}} v{{.Version}}\n")

	bindGlobalFlags(cmd, app)

	cmd.AddCommand(newEarningsCmd(app))
	cmd.AddCommand(newVersionCmd())

	return cmd
}

func bindGlobalFlags(cmd *cobra.Command, app *appState) {
	cmd.PersistentFlags().StringVar(&app.configFile, "config", "", "Config file (default ./vetta.yaml)")
	cmd.PersistentFlags().StringVar(&app.socket, "socket", "", "Worker socket path (defaults from config, VETTA_STT_SOCKET or WHISPER_SOCK)")
	cmd.PersistentFlags().StringVar(&app.strategy, "strategy", "", "Transcription strategy (local)")
	cmd.PersistentFlags().BoolVar(&app.verbose, "verbose", app.verbose, "Enable verbose logs")
	cmd.PersistentFlags().BoolVar(&app.jsonLogs, "json", app.jsonLogs, "Enable JSON logging")
	cmd.PersistentFlags().BoolVar(&app.noProgress, "no-progress", app.noProgress, "Disable progress indicators")
}

// resolveConfig merges the config file with command-line overrides;
// flags win when set.
func (a *appState) resolveConfig() (config.Config, error) {
	cfg, err := a.loadConfigFn(a.configFile)
	if err != nil {
		return config.Config{}, err
	}
	if a.socket != "" {
		cfg.SocketPath = a.socket
	}
	if a.strategy != "" {
		cfg.Strategy = a.strategy
	}
	return cfg, nil
}

func (a *appState) buildStrategy(cfg config.Config) (stt.Strategy, error) {
	return a.newStrategyFn(stt.Config{
		Kind:        cfg.Strategy,
		SocketPath:  cfg.SocketPath,
		DialTimeout: cfg.DialTimeout,
	}, a.log())
}

func (a *appState) log() *zap.Logger {
	if a.logger == nil {
		return zap.NewNop()
	}
	return a.logger
}

func (a *appState) progressEnabled() bool {
	if a.noProgress {
		return false
	}
	return term.IsTerminal(int(os.Stderr.Fd()))
}

func (a *appState) outWriter() io.Writer {
	if a.out == nil {
		return os.Stdout
	}
	return a.out
}

// withHint appends a strategy or validation remedy to an error so the
// operator sees the fix next to the failure.
func withHint(err error) error {
	if err == nil {
		return nil
	}
	if remedy := stt.RemedyOf(err); remedy != "" {
		return fmt.Errorf("%w\nhint: %s", err, remedy)
	}
	var ie *ingest.Error
	if errors.As(err, &ie) && ie.Remedy != "" {
		return fmt.Errorf("%w\nhint: %s", err, ie.Remedy)
	}
	return err
}
