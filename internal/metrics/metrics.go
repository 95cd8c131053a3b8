// SPDX-FileCopyrightText: © 2025 Olivier Meunier <olivier@neokraft.net>
//
// SPDX-License-Identifier: AGPL-3.0-only

// Package metrics provides the prometheus collectors of the extractor
// and its HTTP API.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"codeberg.org/readeck/microdata/pkg/microdata"
)

const namespace = "microdata"

// Registry is the metrics registry.
var Registry = prometheus.NewRegistry()

var (
	extractions = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "extractions_total",
		Help:      "Total number of extractions",
	})

	items = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "items_total",
		Help:      "Total number of extracted items, nested items included",
	})

	cycles = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cycles_total",
		Help:      "Total number of cyclic item references",
	})

	duration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "extraction_duration_seconds",
		Help:      "Extraction duration in seconds",
		Buckets:   []float64{.0005, .001, .005, .01, .05, .1, .5, 1},
	})

	httpRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests",
	}, []string{"code", "method"})
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		extractions,
		items,
		cycles,
		duration,
		httpRequests,
	)
}

// Observe records an extraction result and its duration.
func Observe(md *microdata.Microdata, d time.Duration) {
	count := 0
	for range md.All(nil) {
		count++
	}

	extractions.Inc()
	items.Add(float64(count))
	cycles.Add(float64(md.Cycles()))
	duration.Observe(d.Seconds())
}

// Middleware counts the HTTP requests by status code and method.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		httpRequests.WithLabelValues(strconv.Itoa(status), r.Method).Inc()
	})
}

// Handler returns the metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}
