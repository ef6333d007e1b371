package cmd

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/jmbish04/lightbulb-aquarium/internal/gateway"
	"github.com/jmbish04/lightbulb-aquarium/internal/sessionmux"
	"github.com/jmbish04/lightbulb-aquarium/internal/specialist"
	"github.com/jmbish04/lightbulb-aquarium/internal/specialists"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the gateway and session servers",
	Long: `Serve starts both client-facing surfaces: the gateway, which accepts
persistent connections carrying newline-delimited JSON tool invocations, and
the session server, which streams events for a pinned specialist instance
addressed by session id. Metrics and health endpoints mount on the session
server.

Example:
  lba serve
  lba serve --gateway-addr :7700 --session-addr :7780`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("gateway-addr", ":7700", "gateway listen address")
	serveCmd.Flags().String("session-addr", ":7780", "session/metrics HTTP listen address")
	serveCmd.Flags().StringSlice("cors-origins", nil, "allowed CORS origins (default: any)")
	_ = viper.BindPFlag("gateway-addr", serveCmd.Flags().Lookup("gateway-addr"))
	_ = viper.BindPFlag("session-addr", serveCmd.Flags().Lookup("session-addr"))
	_ = viper.BindPFlag("cors-origins", serveCmd.Flags().Lookup("cors-origins"))
}

func runServe(cmd *cobra.Command, args []string) error {
	logger := GetLogger()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	collab, err := buildCollaborators(ctx, logger)
	if err != nil {
		return err
	}
	defer collab.Close()

	registry := specialist.NewRegistry(logger)
	specialists.RegisterAll(registry, collab.orch, collab.gen)

	gatewayAddr := viper.GetString("gateway-addr")
	sessionAddr := viper.GetString("session-addr")

	ln, err := net.Listen("tcp", gatewayAddr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", gatewayAddr, err)
	}

	gw := gateway.New(registry, logger)
	mux := sessionmux.NewServer(registry, viper.GetStringSlice("cors-origins"), logger)
	httpSrv := &http.Server{
		Addr:    sessionAddr,
		Handler: mux.Router(),
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return gw.Serve(ctx, ln)
	})

	g.Go(func() error {
		logger.Info("session server listening", "addr", sessionAddr)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("session server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	})

	logger.Info("serving", "specialists", registry.Names())

	if err := g.Wait(); err != nil && ctx.Err() == nil {
		return err
	}
	logger.Info("shutdown complete")
	return nil
}
