// Package cli provides the command-line interface for dataconsole.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joacominatel/dataconsole/internal/app"
	"github.com/joacominatel/dataconsole/internal/config"
	"github.com/joacominatel/dataconsole/internal/dataset"
	"github.com/joacominatel/dataconsole/internal/dataset/remote"
	"github.com/joacominatel/dataconsole/internal/export"
	"github.com/joacominatel/dataconsole/internal/tui"
	"github.com/spf13/cobra"
)

// Version information (set at build time).
var Version = "0.1.0"

// runtime holds what PersistentPreRunE prepares for the subcommands.
type runtime struct {
	configPath string
	datasetID  string

	cfg       *config.Config
	engine    dataset.Engine
	logCloser io.Closer

	// newEngine is replaced in tests.
	newEngine func(baseURL string) (dataset.Engine, error)
}

func defaultEngine(baseURL string) (dataset.Engine, error) {
	return remote.New(baseURL)
}

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	return newRootCmd(&runtime{newEngine: defaultEngine})
}

func newRootCmd(rt *runtime) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "dataconsole",
		Short: "SQL console for remote datasets",
		Long: `dataconsole opens an interactive SQL console on a dataset served by a
remote query engine. Use the keyword DATASET in queries to refer to the
dataset's table.

Without a subcommand it starts the terminal UI.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}
			return rt.setup(cmd)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return rt.runTUI()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&rt.configPath, "config", "", "config file (default: ~/.dataconsole/config.yaml)")
	flags.StringVarP(&rt.datasetID, "dataset", "d", "", "dataset id to open")
	flags.String("base-url", "", "query engine base URL")
	flags.Duration("timeout", 0, "per-request timeout")
	flags.String("export-dir", "", "directory Modified.csv is written to")
	flags.String("log-level", "", "log level (DEBUG, INFO, WARNING, ERROR)")
	flags.String("log-file", "", "log file")

	rootCmd.AddCommand(newQueryCmd(rt))
	rootCmd.AddCommand(newResetCmd(rt))
	rootCmd.AddCommand(newExportCmd(rt))
	rootCmd.AddCommand(newDatasetsCmd(rt))

	return rootCmd
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	rt := &runtime{newEngine: defaultEngine}
	return execute(ctx, rt, newRootCmd(rt))
}

// execute runs cmd and releases the log file afterwards. Cobra skips post-run
// hooks when a command fails, so the file is closed here.
func execute(ctx context.Context, rt *runtime, cmd *cobra.Command) error {
	defer rt.closeLog()
	return cmd.ExecuteContext(ctx)
}

func (rt *runtime) closeLog() {
	if rt.logCloser == nil {
		return
	}
	if err := rt.logCloser.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "close log: %v\n", err)
	}
}

func (rt *runtime) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(rt.configPath, cmd.Flags())
	if err != nil {
		return &app.ErrConfig{Cause: err}
	}

	closer, err := InitLogger(cfg.Preferences.LogLevel, cfg.Preferences.LogFile)
	if err != nil {
		return &app.ErrConfig{Cause: fmt.Errorf("logger: %w", err)}
	}

	engine, err := rt.newEngine(cfg.Server.BaseURL)
	if err != nil {
		_ = closer.Close()
		return &app.ErrConfig{Cause: err}
	}

	rt.cfg = cfg
	rt.engine = engine
	rt.logCloser = closer
	log.Debugf("config loaded from %s, engine %s", cfg.Path(), cfg.Server.BaseURL)
	return nil
}

func (rt *runtime) runTUI() error {
	model := tui.NewModel(rt.engine, rt.cfg, tui.Options{
		DatasetID: rt.datasetID,
		Exporter:  export.FileExporter{Dir: rt.cfg.Preferences.ExportDir},
	})
	p := tea.NewProgram(model,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run ui: %w", err)
	}
	return nil
}

// service returns a service bound to the selected dataset.
func (rt *runtime) service() (*app.Service, error) {
	id := strings.TrimSpace(rt.datasetID)
	if id == "" {
		if d := rt.cfg.DefaultDataset(); d != nil {
			id = d.ID
		}
	}
	if id == "" {
		return nil, errors.New("no dataset: pass --dataset or save one in the config")
	}
	return app.NewService(rt.engine, id), nil
}

func (rt *runtime) context(parent context.Context) (context.Context, context.CancelFunc) {
	timeout := rt.cfg.Server.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return context.WithTimeout(parent, timeout)
}
