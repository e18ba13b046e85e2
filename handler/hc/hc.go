package hc

import (
	"net/http"
	"time"

	"termpool/handler/render"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
)

type status struct {
	Service string `json:"service"`
	Version string `json:"version"`
	Uptime  string `json:"uptime"`
}

// Handle exposes the liveness endpoint used by the deploy probes.
func Handle(ver string) http.Handler {
	started := time.Now()

	r := chi.NewRouter()
	r.Use(middleware.NoCache)
	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		render.JSON(w, status{
			Service: "termpool",
			Version: ver,
			Uptime:  time.Since(started).Truncate(time.Millisecond).String(),
		})
	})

	return r
}
