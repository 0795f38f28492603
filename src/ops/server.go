// Package ops exposes the operational surface of a pipeline component:
// health and prometheus metrics. Pipeline errors never reach the
// trading side directly; this is where they become visible.
package ops

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/kelseyhightower/envconfig"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	logger "github.com/sirupsen/logrus"
)

type Config struct {
	Addr string `envconfig:"OPS_ADDR" default:":9090"`
}

func GetConfig() Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return config
}

// StartServer serves /healthz and /metrics in the background and
// returns the server so the caller can shut it down.
func StartServer(addr string, health *Health) *http.Server {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if !health.Healthy() {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		_ = json.NewEncoder(w).Encode(health.Snapshot())
	})
	r.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: addr, Handler: r}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Error("ops server stopped")
		}
	}()

	logger.WithField("addr", addr).Info("ops server listening")
	return srv
}
