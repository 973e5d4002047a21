package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/Mohsinsiddi/fundme/internal/api"
	"github.com/Mohsinsiddi/fundme/internal/config"
	"github.com/Mohsinsiddi/fundme/internal/ui"
	"github.com/spf13/cobra"
)

var servePort uint16

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the campaign over HTTP",
	Long: `Hold the campaign store open and serve it over HTTP. Other fundme commands
reach it with --api http://127.0.0.1:<port>.

Routes:
  GET  /healthz
  GET  /api/v1/campaign
  GET  /api/v1/contributions/{addr}
  GET  /api/v1/events?from=N
  POST /api/v1/calls            signed call`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if apiFlag != "" {
			return errors.New("serve cannot be combined with --api")
		}
		n, err := activeNetwork()
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		s, err := openSession(ctx, n)
		if err != nil {
			return err
		}
		defer s.Close()

		port := cfg.Env.HTTP.Port
		if cmd.Flags().Changed("port") {
			port = servePort
		}
		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: api.NewHandler(s.engine, logger).Router(),
		}

		errCh := make(chan error, 1)
		go func() {
			logger.Info("server listening", slog.Int("port", int(port)), slog.String("campaign", s.engine.Campaign().Address().Hex()))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
			close(errCh)
		}()
		fmt.Println(ui.Info(fmt.Sprintf("Serving %s on :%d (ctrl+c to stop)", n.Name, port)))

		select {
		case err := <-errCh:
			return err
		case <-ctx.Done():
		}

		sctx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(sctx); err != nil {
			logger.Error("server shutdown error", slog.Any("error", err))
			return err
		}
		logger.Info("server gracefully stopped")
		return nil
	},
}

func init() {
	serveCmd.Flags().Uint16Var(&servePort, "port", 0, "listen port (overrides HTTP_PORT)")
}
