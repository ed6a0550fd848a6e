package api

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func promMetricsHandler() http.Handler {
	return promhttp.Handler()
}
