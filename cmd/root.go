package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cognifood/shelf-life-api/api"
	"github.com/cognifood/shelf-life-api/config"
	"github.com/cognifood/shelf-life-api/logger"
	"github.com/cognifood/shelf-life-api/model"
	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

const (
	shutdownTimeout   = 5 * time.Second
	readHeaderTimeout = 10 * time.Second
)

type options struct {
	configPath   string
	port         int
	artifactsDir string
	logLevel     string
}

func newRootCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "shelf-life-api",
		Short:         "Serve shelf-life predictions over HTTP",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			logger.Setup(cfg.Log.Level, cfg.Log.Format, nil)

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			predictor, err := loadPredictor(ctx, cfg)
			if err != nil {
				return err
			}
			return serve(ctx, cfg, predictor)
		},
	}

	cmd.Flags().StringVar(&opts.configPath, "config", "", "path to the YAML config file (default config.yaml or $CONFIG_PATH)")
	cmd.Flags().IntVarP(&opts.port, "port", "p", 0, "port to listen on (overrides config and $PORT)")
	cmd.Flags().StringVar(&opts.artifactsDir, "artifacts-dir", "", "directory holding the model artifacts")
	cmd.Flags().StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn, error")
	return cmd
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := newRootCmd(&options{}).Execute(); err != nil {
		logger.Errorf("fatal: %v", err)
		os.Exit(1)
	}
}

func loadConfig(cmd *cobra.Command, opts *options) (*config.Config, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}
	if cmd.Flags().Changed("port") {
		cfg.Server.Port = opts.port
	}
	if cmd.Flags().Changed("artifacts-dir") {
		cfg.Artifacts.Dir = opts.artifactsDir
	}
	if cmd.Flags().Changed("log-level") {
		cfg.Log.Level = opts.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}
	return cfg, nil
}

func loadPredictor(ctx context.Context, cfg *config.Config) (*model.Predictor, error) {
	a, err := model.LoadArtifacts(ctx, model.ArtifactSources{
		Dir:             cfg.Artifacts.Dir,
		Model:           cfg.Artifacts.Model,
		FoodEncoder:     cfg.Artifacts.FoodEncoder,
		CategoryEncoder: cfg.Artifacts.CategoryEncoder,
		StorageEncoder:  cfg.Artifacts.StorageEncoder,
		Scaler:          cfg.Artifacts.Scaler,
		FetchTimeout:    cfg.Artifacts.FetchTimeout,
	})
	if err != nil {
		return nil, err
	}
	p, err := model.NewPredictor(a)
	if err != nil {
		return nil, err
	}
	vocab := p.Vocabulary()
	logger.Get().Info().
		Str("dir", cfg.Artifacts.Dir).
		Int("foods", len(vocab[model.FieldFood])).
		Int("categories", len(vocab[model.FieldCategory])).
		Int("storage_methods", len(vocab[model.FieldStorage])).
		Msg("artifacts loaded")
	return p, nil
}

func serve(ctx context.Context, cfg *config.Config, p *model.Predictor) error {
	gin.SetMode(cfg.Server.Mode)
	r := api.NewRouter(api.RouterOptions{
		Predictor:   p,
		Echo:        cfg.Response.Echo,
		CORSEnabled: cfg.CORS.IsEnabled(),
		Origins:     cfg.CORS.AllowedOrigins,
		Metrics:     api.NewMetrics(),
	})

	s := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           r,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.ListenAndServe()
	}()
	logger.Infof("server started on %s", s.Addr)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
