package http

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
)

// RouterConfig collects what NewRouter mounts. Metrics may be nil.
type RouterConfig struct {
	API            *APIHandler
	WS             *WSHandler
	Metrics        http.Handler
	AllowedOrigins []string
}

// NewRouter builds the service's HTTP handler with CORS applied.
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}).Methods(http.MethodGet)
	if cfg.Metrics != nil {
		r.Handle("/metrics", cfg.Metrics).Methods(http.MethodGet)
	}
	if cfg.WS != nil {
		r.HandleFunc("/ws/challenge", cfg.WS.ServeWS)
		r.HandleFunc("/ws/leaderboard", cfg.WS.ServeLeaderboard)
	}
	if cfg.API != nil {
		cfg.API.Register(r)
	}

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	c := cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-User-ID"},
		AllowCredentials: true,
	})
	return c.Handler(r)
}
