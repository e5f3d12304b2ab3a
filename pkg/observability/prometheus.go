package observability

import (
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

//nolint:gochecknoglobals // Singleton pattern for metrics server
var (
	metricsServer *http.Server
	metricsOnce   sync.Once
)

// StartMetricsServer exposes the tracker's Prometheus metrics on addr. At
// most one server is ever started per process; later calls are no-ops, so
// the daemon and the one-shot commands can share the same startup path.
func StartMetricsServer(addr string) {
	metricsOnce.Do(func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())

		metricsServer = &http.Server{
			Addr:              addr,
			ReadHeaderTimeout: 15 * time.Second,
			Handler:           mux,
		}

		go func() {
			logrus.WithField("addr", addr).Info("Starting tracker metrics server")

			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logrus.WithError(err).Fatal("Tracker metrics server failed")
			}
		}()
	})
}
