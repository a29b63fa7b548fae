package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/huh/spinner"
	"github.com/charmbracelet/log"
	"github.com/desertthunder/chronolist/internal/formatter"
	"github.com/desertthunder/chronolist/internal/repositories"
	"github.com/desertthunder/chronolist/internal/services"
	"github.com/desertthunder/chronolist/internal/shared"
	"github.com/desertthunder/chronolist/internal/tasks"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
	"golang.org/x/term"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	service    services.PlaylistService
	pacer      tasks.Pacer
	db         *sql.DB
	logger     *log.Logger
	output     io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Service    services.PlaylistService // built from saved credentials when nil
	Pacer      tasks.Pacer              // built from reorder config when nil
	DB         *sql.DB                  // opened from database config when nil
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		service:    opts.Service,
		pacer:      opts.Pacer,
		db:         opts.DB,
		logger:     opts.Logger,
		output:     opts.Output,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, playlistsCommand, previewCommand, reorderCommand, historyCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// before loads config.toml and .env ahead of every command.
//
// A missing config file is not an error; defaults and environment variables are used instead.
func (r *Runner) before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if cmd.Bool("verbose") {
		shared.SetLogLevel(r.logger, log.DebugLevel)
	}

	r.configPath = cmd.String("config")
	if _, err := os.Stat(r.configPath); err == nil {
		config, err := shared.LoadConfig(r.configPath)
		if err != nil {
			return ctx, err
		}
		r.config = config
	} else {
		r.logger.Debug("config file not found, using defaults", "path", r.configPath)
	}

	if err := r.config.ApplyEnv(cmd.String("env")); err != nil {
		return ctx, err
	}
	return ctx, nil
}

// SetLogger replaces the logger, e.g. with a file logger while the TUI owns the terminal.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
}

// playlistService returns the configured service, building a Spotify client from saved tokens on first use.
//
// Refreshed tokens are written back to the config file.
func (r *Runner) playlistService(ctx context.Context) (services.PlaylistService, error) {
	if r.service != nil {
		return r.service, nil
	}

	if err := r.config.Validate(); err != nil {
		return nil, err
	}

	creds := r.config.Credentials.Spotify
	svc, err := services.NewSpotifyService(ctx,
		services.NewOAuthConfig(creds),
		services.TokenFromConfig(creds),
		services.WithTokenRefresh(func(token *oauth2.Token) {
			if err := r.saveTokens(token); err != nil {
				r.logger.Warn("failed to persist refreshed token", "error", err)
			}
		}),
	)
	if err != nil {
		return nil, err
	}

	r.service = svc
	return svc, nil
}

// ledger opens the run ledger, applying migrations if needed. A nil repository means recording is disabled.
func (r *Runner) ledger(ctx context.Context) *repositories.RunRepository {
	db, err := r.openDatabase()
	if err != nil {
		r.logger.Warn("run ledger unavailable", "error", err)
		return nil
	}

	if err := shared.RunMigrations(ctx, db); err != nil {
		r.logger.Warn("run ledger unavailable", "error", err)
		return nil
	}
	return repositories.NewRunRepository(db)
}

// engine wires a [tasks.ReorderEngine] from config.
func (r *Runner) engine(ctx context.Context, svc services.PlaylistService, dryRun bool, concurrency int) (*tasks.ReorderEngine, error) {
	pacer := r.pacer
	if pacer == nil {
		p, err := tasks.NewPacer(r.config.Reorder)
		if err != nil {
			return nil, err
		}
		pacer = p
	}

	if concurrency <= 0 {
		concurrency = r.config.Reorder.Concurrency
	}

	opts := tasks.EngineOpts{
		DryRun:      dryRun,
		Concurrency: concurrency,
		Logger:      r.logger,
	}
	if repo := r.ledger(ctx); repo != nil {
		opts.Recorder = repo
	}

	return tasks.NewReorderEngine(svc, formatter.NewBackupWriter(r.config.Reorder.BackupDir), pacer, opts), nil
}

// saveTokens stores token in the config and writes it to configPath when set.
func (r *Runner) saveTokens(token *oauth2.Token) error {
	if r.config == nil {
		return fmt.Errorf("config is nil")
	}

	if err := r.config.Credentials.Spotify.Update(token); err != nil {
		return fmt.Errorf("failed to update spotify configuration: %w", err)
	}

	if r.configPath == "" {
		return nil
	}

	if err := shared.SaveConfig(r.configPath, r.config); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	return nil
}

// close releases the ledger database if one was opened.
func (r *Runner) close() {
	if r.db != nil {
		r.db.Close()
	}
}

// withSpinner runs fn behind a spinner when output is a terminal, and directly otherwise.
func (r *Runner) withSpinner(ctx context.Context, title string, fn func(context.Context) error) error {
	if !isTerminal(r.output) {
		return fn(ctx)
	}
	return spinner.New().Title(title).Context(ctx).ActionWithErr(fn).Run()
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
