package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jsp88/jsp/internal/config"
	"github.com/jsp88/jsp/internal/fakeapi"
	"github.com/jsp88/jsp/internal/logger"
)

func newDevServerCmd() *cobra.Command {
	var (
		addr   string
		origin string
	)
	cmd := &cobra.Command{
		Use:   "devserver",
		Short: "Serve an in-memory portal with demo data",
		Long: fmt.Sprintf(`Serve an in-memory portal with demo data for local testing.

Sign in with %s / %s, and point the client at it with
--api-url http://<addr>/api.`, fakeapi.DemoEmail, fakeapi.DemoPassword),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := &config.Config{Env: "local"}
			verbose, _ := cmd.Flags().GetBool("verbose")
			log, err := logger.New(cfg, "", verbose)
			if err != nil {
				return err
			}
			defer log.Sync()

			opts := []fakeapi.Option{fakeapi.WithLogger(log.Named("devserver"))}
			if origin != "" {
				opts = append(opts, fakeapi.WithAllowedOrigin(origin))
			}
			srv := &http.Server{
				Addr:              addr,
				Handler:           fakeapi.New(opts...).Handler(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() { errCh <- srv.ListenAndServe() }()
			fmt.Fprintf(cmd.OutOrStdout(), "Serving demo portal on http://%s/api\n", addr)

			select {
			case err := <-errCh:
				if !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			case <-ctx.Done():
			}

			log.Info("shutting down", zap.String("addr", addr))
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8088", "Listen address")
	cmd.Flags().StringVar(&origin, "origin", "", "Only allow this CORS origin")
	return cmd
}
