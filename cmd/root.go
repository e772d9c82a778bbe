package cmd

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jsp88/jsp/internal/api"
	"github.com/jsp88/jsp/internal/config"
	"github.com/jsp88/jsp/internal/logger"
	"github.com/jsp88/jsp/internal/screen"
	"github.com/jsp88/jsp/internal/store"
)

var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "jsp",
		Short:         "Terminal client for the JSP trainee portal",
		Long:          "Quizzes, courses and planning of the Jeunes Sapeurs-Pompiers portal, from the terminal.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApp(cmd, nil)
		},
	}

	root.PersistentFlags().String("config", "", "Path to a jsp.yaml config file")
	root.PersistentFlags().String("db", "", "Path to SQLite database file (overrides JSP_DB env var)")
	root.PersistentFlags().String("api-url", "", "Portal API base URL (overrides JSP_API_URL env var)")
	root.PersistentFlags().BoolP("verbose", "v", false, "Log debug output")

	root.AddCommand(
		newLoginCmd(),
		newLogoutCmd(),
		newStatusCmd(),
		newMeCmd(),
		newCoursesCmd(),
		newQuizCmd(),
		newEventsCmd(),
		newDevServerCmd(),
		newVersionCmd(),
	)
	return root
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// runtime holds what every command needs once flags are parsed.
type runtime struct {
	cfg    *config.Config
	log    *zap.Logger
	store  *store.Store
	client *api.Client
	retry  api.RetryConfig
}

// newRuntime loads configuration, opens the store and builds the client.
// In TUI mode logs go to a file so the terminal stays clean.
func newRuntime(cmd *cobra.Command, tui bool) (*runtime, error) {
	flags := cmd.Flags()
	cfgFile, _ := flags.GetString("config")
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	if u, _ := flags.GetString("api-url"); u != "" {
		cfg.APIURL = u
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}

	dbPath, err := resolveDBPath(cmd, cfg)
	if err != nil {
		return nil, fmt.Errorf("resolve DB path: %w", err)
	}

	logPath := ""
	if tui {
		logPath = cfg.LogFile
		if logPath == "" {
			logPath = filepath.Join(filepath.Dir(dbPath), "jsp.log")
		}
	}
	verbose, _ := flags.GetBool("verbose")
	log, err := logger.New(cfg, logPath, verbose)
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}

	st, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	doer := api.WithLogging(&http.Client{Timeout: cfg.Timeout}, log.Named("http"))
	opts := []api.Option{api.WithDoer(doer), api.WithLogger(log.Named("api"))}
	if cfg.Origin != "" {
		opts = append(opts, api.WithOrigin(cfg.Origin))
	}

	log.Debug("runtime ready",
		zap.String("env", cfg.Env),
		zap.String("api_url", cfg.APIURL),
		zap.String("db", dbPath))

	return &runtime{
		cfg:    cfg,
		log:    log,
		store:  st,
		client: api.NewClient(cfg.APIURL, st.CredentialRepo(), opts...),
		retry: api.RetryConfig{
			MaxAttempts: cfg.Retry.MaxAttempts,
			InitialWait: cfg.Retry.InitialWait,
			MaxWait:     cfg.Retry.MaxWait,
			Multiplier:  cfg.Retry.Multiplier,
		},
	}, nil
}

// Close releases the store and flushes the logger.
func (r *runtime) Close() error {
	_ = r.log.Sync()
	return r.store.Close()
}

// env builds the environment shared by the TUI screens.
func (r *runtime) env() *screen.Env {
	return &screen.Env{
		Client:      r.client,
		Attempts:    r.store.AttemptRepo(),
		KV:          r.store.KV(),
		DownloadURL: r.cfg.DownloadURL,
		DownloadDir: ".",
		Timeout:     r.cfg.Timeout,
		Logger:      r.log,
	}
}

// requireLogin fails early with a readable message when no token is stored.
func (r *runtime) requireLogin(ctx context.Context) error {
	if !r.client.IsAuthenticated(ctx) {
		return errNotSignedIn
	}
	return nil
}

// resolveDBPath returns the database path using --db flag (highest priority),
// then the db config key, then the default XDG path.
func resolveDBPath(cmd *cobra.Command, cfg *config.Config) (string, error) {
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		return p, store.EnsureDir(p)
	}
	if cfg.DB != "" {
		return cfg.DB, store.EnsureDir(cfg.DB)
	}
	return store.DefaultDBPath()
}

// withRuntime adapts a command body that needs a runtime.
func withRuntime(fn func(cmd *cobra.Command, args []string, rt *runtime) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		rt, err := newRuntime(cmd, false)
		if err != nil {
			return err
		}
		defer rt.Close()
		return fn(cmd, args, rt)
	}
}
