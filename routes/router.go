package routes

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func NewRouter(source Source) *httprouter.Router {
	router := httprouter.New()
	router.GET("/state", State(source))
	router.Handler(http.MethodGet, "/metrics", promhttp.Handler())
	return router
}
