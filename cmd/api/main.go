// cmd/api/main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"go.uber.org/zap"

	appcfg "campusmarket/internal/infra/config"
	"campusmarket/internal/infra/logger"
	marketDI "campusmarket/internal/platform/di/market"
	shared "campusmarket/internal/platform/di/shared"
)

// atomicHandler allows swapping the underlying handler at runtime safely.
type atomicHandler struct {
	v atomic.Value // stores http.Handler
}

func newAtomicHandler(initial http.Handler) *atomicHandler {
	ah := &atomicHandler{}
	if initial == nil {
		initial = http.NotFoundHandler()
	}
	ah.v.Store(initial)
	return ah
}

func (h *atomicHandler) Store(next http.Handler) {
	if next == nil {
		return
	}
	h.v.Store(next)
}

func (h *atomicHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.v.Load().(http.Handler).ServeHTTP(w, r)
}

func healthz(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func main() {
	cfg, err := appcfg.Load()
	if err != nil {
		// logger config depends on cfg; fall back to a production logger
		logger.Must(appcfg.EnvProduction).Fatal("config", zap.Error(err))
	}
	log := logger.Must(cfg.AppEnv)
	defer func() { _ = log.Sync() }()

	// ─────────────────────────────────────────────────────────────
	// Start listening ASAP with a healthz-only mux
	// ─────────────────────────────────────────────────────────────
	healthMux := http.NewServeMux()
	healthMux.HandleFunc("/healthz", healthz)
	switcher := newAtomicHandler(healthMux)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      switcher,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	var infraHolder atomic.Pointer[shared.Infra]
	shuttingDown := make(chan struct{})
	idleConnsClosed := make(chan struct{})

	// ─────────────────────────────────────────────────────────────
	// Graceful shutdown
	// ─────────────────────────────────────────────────────────────
	go func() {
		c := make(chan os.Signal, 1)
		signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
		sig := <-c

		close(shuttingDown)
		log.Info("shutting down", zap.String("signal", sig.String()))

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 25*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("server shutdown", zap.Error(err))
		}
		if inf := infraHolder.Swap(nil); inf != nil {
			if err := inf.Close(); err != nil {
				log.Error("infra close", zap.Error(err))
			}
		}
		close(idleConnsClosed)
	}()

	go func() {
		log.Info("listening", zap.String("port", cfg.Port), zap.String("backend", cfg.StoreBackend))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server error", zap.Error(err))
		}
	}()

	// ─────────────────────────────────────────────────────────────
	// DI init in background; then swap to the full router
	// ─────────────────────────────────────────────────────────────
	go func() {
		initCtx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()

		inf, err := shared.NewInfra(initCtx, cfg, log)
		if err != nil {
			log.Error("shared infra init failed; serving /healthz only", zap.Error(err))
			return
		}
		infraHolder.Store(inf)

		cont, err := marketDI.NewContainer(initCtx, inf)
		if err != nil {
			log.Error("market di init failed; serving /healthz only", zap.Error(err))
			return
		}

		select {
		case <-shuttingDown:
			return
		default:
		}

		switcher.Store(cont.Handler)
		log.Info("handler switched to market router")
	}()

	<-idleConnsClosed
	log.Info("server stopped")
}
