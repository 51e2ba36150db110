package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	httpapi "github.com/moonpalace/concierge/internal/http"
	"github.com/moonpalace/concierge/internal/observability"
	"github.com/moonpalace/concierge/internal/widget"
)

const sweepInterval = time.Minute

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the chat widget API to the storefront",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx)
		},
	}
}

func (a *app) serve(ctx context.Context) error {
	shutdownTracing, err := observability.Setup(ctx, a.cfg.OTEL, version)
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			a.log.Warn().Err(err).Msg("tracing shutdown")
		}
	}()

	d, err := a.openDeps(ctx)
	if err != nil {
		return err
	}
	defer d.close()

	reg := widget.NewRegistry(a.cfg.Widget.IdleTTL, a.factory(d))
	go reg.Run(ctx, sweepInterval)

	gin.SetMode(a.cfg.GinMode)
	r := gin.New()
	httpapi.RegisterRoutes(r, reg, a.cfg)

	srv := &http.Server{
		Addr:              net.JoinHostPort("", a.cfg.Port),
		Handler:           r,
		ReadTimeout:       a.cfg.ReadTimeout,
		ReadHeaderTimeout: a.cfg.ReadHeaderTimeout,
		WriteTimeout:      a.cfg.WriteTimeout,
		IdleTimeout:       a.cfg.IdleTimeout,
		MaxHeaderBytes:    a.cfg.MaxHeaderBytes,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errc := make(chan error, 1)
	go func() {
		a.log.Info().
			Str("addr", srv.Addr).
			Str("store", a.cfg.Store.Backend).
			Str("hotel_api", a.cfg.HotelAPI.BaseURL).
			Msg("concierge listening")
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	a.log.Info().Msg("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		return err
	}
	return nil
}
