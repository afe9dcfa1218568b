// Package server exposes the platform over HTTP: coverage endpoints,
// settings endpoints, and one POST route per registered operation.
package server

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/openbb/platform-core/internal/dispatch"
	"github.com/openbb/platform-core/internal/openbberr"
	"github.com/openbb/platform-core/internal/platform"
)

// Server serves the platform's HTTP API.
type Server struct {
	p *platform.Platform
}

// New creates a server over the given platform root.
func New(p *platform.Platform) *Server {
	return &Server{p: p}
}

// Router builds the chi router with every registered operation mounted.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.p.Settings.System.APISettings.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
	}))

	r.Get("/health", s.handleHealth)
	r.Get("/coverage/providers", s.handleCoverageProviders)
	r.Get("/coverage/commands", s.handleCoverageCommands)
	r.Get("/system", s.handleSystem)
	r.With(s.basicAuth).Get("/user/me", s.handleUserMe)

	for _, route := range s.p.Commands.ListCommands() {
		r.Post(route, s.handleDispatch(route))
	}

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleCoverageProviders(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.p.Providers.Coverage().ProviderCoverage)
}

func (s *Server) handleCoverageCommands(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.p.Providers.Coverage().CommandCoverage)
}

// systemView is the outward shape of system settings. API credentials are
// never rendered.
type systemView struct {
	LogCollect bool   `json:"log_collect"`
	DebugMode  bool   `json:"debug_mode"`
	TestMode   bool   `json:"test_mode"`
	APIHost    string `json:"api_host"`
	APIPort    int    `json:"api_port"`
}

func (s *Server) handleSystem(w http.ResponseWriter, _ *http.Request) {
	sys := s.p.Settings.System
	writeJSON(w, http.StatusOK, systemView{
		LogCollect: sys.LogCollect,
		DebugMode:  sys.DebugMode,
		TestMode:   sys.TestMode,
		APIHost:    sys.APISettings.Host,
		APIPort:    sys.APISettings.Port,
	})
}

func (s *Server) handleUserMe(w http.ResponseWriter, _ *http.Request) {
	user := s.p.Settings.User
	writeJSON(w, http.StatusOK, map[string]any{
		"credentials": s.p.Vault.Masked(),
		"preferences": user.Preferences,
		"defaults":    user.Defaults,
		"profile":     user.Profile,
	})
}

// handleDispatch runs the operation registered at route. Body carries the
// merged parameter set; the provider hint rides the query string.
func (s *Server) handleDispatch(route string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cmd, ok := s.p.Commands.Get(route)
		if !ok {
			writeError(w, openbberr.New(openbberr.KindUnknownModel, "no operation at %q", route))
			return
		}

		params := map[string]any{}
		if r.Body != nil && r.ContentLength != 0 {
			if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
				return
			}
		}

		opts := dispatch.Options{Provider: r.URL.Query().Get("provider")}
		if v := r.URL.Query().Get("empty_as_error"); v == "false" {
			f := false
			opts.EmptyAsError = &f
		}

		env, err := s.p.Dispatcher.Dispatch(r.Context(), cmd.Model, params, opts)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, env)
	}
}

// basicAuth guards authenticated routes with the configured API username
// and password.
func (s *Server) basicAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		api := s.p.Settings.System.APISettings
		user, pass, ok := r.BasicAuth()
		if !ok ||
			subtle.ConstantTimeCompare([]byte(user), []byte(api.Username)) != 1 ||
			subtle.ConstantTimeCompare([]byte(pass), []byte(api.Password)) != 1 {
			w.Header().Set("WWW-Authenticate", `Basic realm="openbb"`)
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

type errorBody struct {
	Kind    string                 `json:"kind"`
	Message string                 `json:"message"`
	Fields  []openbberr.FieldError `json:"fields,omitempty"`
}

func writeError(w http.ResponseWriter, err error) {
	kind := openbberr.KindOf(err)
	status := openbberr.HTTPStatus(kind)

	// 204 carries no body by definition.
	if status == http.StatusNoContent {
		w.WriteHeader(status)
		return
	}

	body := errorBody{Kind: string(kind), Message: err.Error()}
	var oe *openbberr.Error
	if e, ok := err.(*openbberr.Error); ok {
		oe = e
	}
	if oe != nil {
		body.Message = oe.Message
		body.Fields = oe.Fields
	}

	writeJSON(w, status, map[string]errorBody{"error": body})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Error("server: encode response", zap.Error(err))
	}
}
