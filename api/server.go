/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:     Unique ID per request for tracing
  2. RequestLogger: Structured request logging (httplog, ECS schema)
  3. Recoverer:     Panic recovery (500 instead of crash)
  4. CORS:          Cross-origin requests for the payroll frontend

ROUTE GROUPS:
  /api/payroll/*     Summaries and export
  /api/payments      Payment Ledger commits
  /api/employees/*   Directory and rate history
  /api/corrections   Clock event corrections
  /api/scenarios/*   Demo scenarios (disabled in production)
  /*                 Static files (frontend)

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
)

// RouterOptions configures NewRouter.
type RouterOptions struct {
	CORSOrigins     []string
	EnableScenarios bool
	StaticDir       string       // Empty means ./web/dist
	RequestLogger   *slog.Logger // nil disables request logging
}

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, opts RouterOptions) *chi.Mux {
	r := chi.NewRouter()

	origins := opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:5173", "http://localhost:8080"}
	}

	r.Use(middleware.RequestID)
	if opts.RequestLogger != nil {
		r.Use(httplog.RequestLogger(opts.RequestLogger, &httplog.Options{
			Level:  slog.LevelInfo,
			Schema: httplog.SchemaECS,
		}))
	}
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.Health)

		r.Route("/payroll", func(r chi.Router) {
			r.Get("/", h.ListPayroll)
			r.Get("/export", h.ExportPayroll)
		})

		r.Post("/payments", h.CommitPayment)

		r.Route("/employees", func(r chi.Router) {
			r.Get("/", h.ListEmployees)
			r.Post("/", h.CreateEmployee)
			r.Get("/{id}/payroll", h.GetEmployeePayroll)
			r.Get("/{id}/rates", h.ListRates)
			r.Post("/{id}/rates", h.CreateRate)
		})

		r.Get("/flagged", h.ListFlagged)
		r.Get("/red-flags", h.ListRedFlags)
		r.Post("/corrections", h.ApplyCorrections)
		r.Post("/shifts/edit", h.EditShift)

		if opts.EnableScenarios {
			r.Route("/scenarios", func(r chi.Router) {
				r.Get("/", h.ListScenarios)
				r.Get("/current", h.GetCurrentScenario)
				r.Post("/load", h.LoadScenario)
				r.Post("/reset", h.ResetDatabase)
			})
		}
	})

	staticDir := opts.StaticDir
	if staticDir == "" {
		staticDir = "./web/dist"
		if _, err := os.Stat(staticDir); os.IsNotExist(err) {
			exe, _ := os.Executable()
			staticDir = filepath.Join(filepath.Dir(exe), "web", "dist")
		}
	}

	if _, err := os.Stat(staticDir); err == nil {
		fileServer := http.FileServer(http.Dir(staticDir))
		r.Get("/*", func(w http.ResponseWriter, r *http.Request) {
			fullPath := filepath.Join(staticDir, filepath.Clean(r.URL.Path))
			if _, err := os.Stat(fullPath); os.IsNotExist(err) {
				// SPA routing: serve index.html
				http.ServeFile(w, r, filepath.Join(staticDir, "index.html"))
				return
			}
			fileServer.ServeHTTP(w, r)
		})
	} else {
		r.Get("/*", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/html")
			w.Write([]byte(`<!DOCTYPE html>
<html>
<head><title>Payroll Engine</title></head>
<body style="font-family: system-ui; max-width: 800px; margin: 50px auto; padding: 20px;">
<h1>Payroll Engine API</h1>
<p>The frontend is not built.</p>
<h2>API Endpoints</h2>
<ul>
<li><a href="/api/payroll">/api/payroll</a> - This week's payroll</li>
<li><a href="/api/red-flags">/api/red-flags</a> - Shifts needing review</li>
<li><a href="/api/flagged">/api/flagged</a> - Suspicious shifts</li>
</ul>
</body>
</html>`))
		})
	}

	return r
}
