package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/cargolink/cargolink/internal/common/config"
	"github.com/cargolink/cargolink/internal/common/discovery"
	"github.com/cargolink/cargolink/internal/common/logger"
	"github.com/cargolink/cargolink/internal/common/middleware"
)

// RegisterFunc mounts the business routes on the engine.
type RegisterFunc func(r *gin.Engine) error

type RunOptions struct {
	ShutdownTimeout time.Duration
	RateLimit       middleware.RateLimiter
}

func defaultRunOptions() RunOptions {
	return RunOptions{
		ShutdownTimeout: 5 * time.Second,
		RateLimit:       middleware.NewTokenBucket(200, 100),
	}
}

// Run is the HTTP service template:
//   - gin engine with recovery / tracing / access-log / rate-limit middleware
//   - public /healthz
//   - business routes via register
//   - Consul registration with an HTTP check (best effort)
//   - graceful shutdown on SIGINT/SIGTERM
func Run(cfg *config.Config, log logger.Logger, register RegisterFunc, opts ...func(*RunOptions)) error {
	if cfg == nil {
		return fmt.Errorf("cfg is nil")
	}
	if log == nil {
		return fmt.Errorf("log is nil")
	}

	o := defaultRunOptions()
	for _, apply := range opts {
		if apply != nil {
			apply(&o)
		}
	}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(
		middleware.Recovery(log),
		middleware.Tracing(cfg.Server.Name),
		middleware.AccessLog(log),
		middleware.RateLimit(o.RateLimit),
	)

	r.GET("/healthz", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	if register != nil {
		if err := register(r); err != nil {
			return fmt.Errorf("register routes: %w", err)
		}
	}

	// Consul is optional infrastructure; the API still serves without it.
	consulClient, err := discovery.NewConsulClient(cfg.Consul.Host, cfg.Consul.Port)
	if err != nil {
		log.Warnf("failed to connect to Consul: %v", err)
		consulClient = nil
	}
	if consulClient != nil {
		serviceID := fmt.Sprintf("%s-%s", cfg.Server.Name, uuid.New().String())
		registry := discovery.NewServiceRegistry(
			consulClient,
			serviceID,
			cfg.Server.Name,
			cfg.Server.Host,
			cfg.Server.Port,
			[]string{"http"},
		)
		if err := registry.Register(); err != nil {
			log.Warnf("failed to register service to Consul: %v", err)
		} else {
			log.Infof("service registered to Consul: %s", serviceID)
			defer func() {
				if err := registry.Deregister(); err != nil {
					log.Warnf("failed to deregister service from Consul: %v", err)
				}
			}()
		}
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	log.Infof("%s starting on %s", cfg.Server.Name, srv.Addr)

	serveErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serveErr <- err
			return
		}
		serveErr <- nil
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		log.Infof("received signal %v, shutting down...", sig)
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("http serve failed: %w", err)
		}
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), o.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Warnf("http shutdown timed out, closing: %v", err)
		_ = srv.Close()
		return nil
	}
	log.Info("http server stopped gracefully")
	return nil
}

// WithShutdownTimeout overrides the graceful shutdown wait.
func WithShutdownTimeout(d time.Duration) func(*RunOptions) {
	return func(o *RunOptions) {
		if d > 0 {
			o.ShutdownTimeout = d
		}
	}
}

// WithRateLimit swaps the default limiter (nil disables limiting).
func WithRateLimit(l middleware.RateLimiter) func(*RunOptions) {
	return func(o *RunOptions) {
		o.RateLimit = l
	}
}
