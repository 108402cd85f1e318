// Package stub serves stand-in role dashboards and records how a browser loaded them:
// which paths were requested in which order, with which user agent, and what viewport
// the page saw once rendered.
package stub

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/samber/lo"
)

// Server is the stand-in dashboard application.
type Server struct {
	roles   []string
	journal *Journal
	broker  *Broker
	router  chi.Router
}

// NewServer builds a server with one /dashboard/{role} page per role.
func NewServer(roles []string) (*Server, error) {
	roles = lo.Uniq(lo.Filter(lo.Map(roles, func(r string, _ int) string {
		return strings.TrimSpace(r)
	}), func(r string, _ int) bool { return r != "" }))
	if len(roles) == 0 {
		return nil, errors.New("stub: at least one role is required")
	}

	s := &Server{
		roles:   roles,
		journal: newJournal(),
		broker:  NewBroker(),
	}

	router := chi.NewMux()
	router.Use(middleware.RequestID)
	router.Use(requestLogger)
	router.Use(middleware.Recoverer)

	cfg := huma.DefaultConfig("Dashboard Stub API", "1.0.0")
	cfg.DocsPath = ""
	api := humachi.New(router, cfg)

	router.Get("/", s.handleIndex)
	router.Get("/dashboard/{role}", s.handleDashboard)
	router.Get("/ws/requests", s.handleWebSocket)
	router.Get("/api/v1/events", s.handleSSE)
	registerIntrospectionHandlers(api, s)

	s.router = router
	return s, nil
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

// Journal exposes the recorded navigations and viewports.
func (s *Server) Journal() *Journal { return s.journal }

// Broker exposes the event stream feeding WebSocket and SSE clients.
func (s *Server) Broker() *Broker { return s.broker }

// Roles returns the served roles in configuration order.
func (s *Server) Roles() []string { return append([]string(nil), s.roles...) }

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexTmpl.Execute(w, s.roles); err != nil {
		slog.Debug("index render failed", "error", err)
	}
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	role := chi.URLParam(r, "role")
	if !lo.Contains(s.roles, role) {
		http.NotFound(w, r)
		return
	}

	nav := s.journal.addNavigation(Navigation{
		Path:      r.URL.Path,
		Role:      role,
		UserAgent: r.UserAgent(),
		RequestID: middleware.GetReqID(r.Context()),
	})
	s.broker.Publish(KindNavigation, nav)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if err := dashboardTmpl.Execute(w, pageFor(role)); err != nil {
		slog.Debug("dashboard render failed", "role", role, "error", err)
	}
}

func registerIntrospectionHandlers(api huma.API, s *Server) {
	type healthOutput struct {
		Body struct {
			Status  string   `json:"status"`
			Roles   []string `json:"roles"`
			Clients int      `json:"stream_clients"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "health", Method: http.MethodGet, Path: "/health", Summary: "Health check", Tags: []string{"Health"}},
		func(ctx context.Context, input *struct{}) (*healthOutput, error) {
			out := &healthOutput{}
			out.Body.Status = "ok"
			out.Body.Roles = s.Roles()
			out.Body.Clients = s.broker.ClientCount()
			return out, nil
		})

	type requestsOutput struct {
		Body struct {
			Navigations []Navigation `json:"navigations"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "list-requests", Method: http.MethodGet, Path: "/api/v1/requests", Summary: "List dashboard navigations in arrival order", Tags: []string{"Requests"}},
		func(ctx context.Context, input *struct{}) (*requestsOutput, error) {
			out := &requestsOutput{}
			out.Body.Navigations = s.journal.Navigations()
			if out.Body.Navigations == nil {
				out.Body.Navigations = []Navigation{}
			}
			return out, nil
		})

	type resetOutput struct {
		Body struct {
			Cleared int `json:"cleared"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "reset-requests", Method: http.MethodDelete, Path: "/api/v1/requests", Summary: "Clear recorded navigations and viewports", Tags: []string{"Requests"}},
		func(ctx context.Context, input *struct{}) (*resetOutput, error) {
			out := &resetOutput{}
			out.Body.Cleared = s.journal.Reset()
			s.broker.Publish(KindReset, out.Body)
			return out, nil
		})

	type viewportInput struct {
		Body struct {
			Role             string  `json:"role" minLength:"1"`
			Path             string  `json:"path"`
			Width            int     `json:"width" minimum:"0"`
			Height           int     `json:"height" minimum:"0"`
			DevicePixelRatio float64 `json:"device_pixel_ratio,omitempty"`
			Touch            bool    `json:"touch,omitempty"`
			UserAgent        string  `json:"user_agent,omitempty"`
		}
	}
	type viewportOutput struct {
		Body Viewport
	}
	huma.Register(api, huma.Operation{OperationID: "report-viewport", Method: http.MethodPost, Path: "/api/v1/viewport", Summary: "Record the viewport a dashboard page rendered with", Tags: []string{"Viewports"}},
		func(ctx context.Context, input *viewportInput) (*viewportOutput, error) {
			if !lo.Contains(s.roles, input.Body.Role) {
				return nil, huma.Error400BadRequest("unknown role " + input.Body.Role)
			}
			vp := s.journal.addViewport(Viewport{
				Path:             input.Body.Path,
				Role:             input.Body.Role,
				Width:            input.Body.Width,
				Height:           input.Body.Height,
				DevicePixelRatio: input.Body.DevicePixelRatio,
				Touch:            input.Body.Touch,
				UserAgent:        input.Body.UserAgent,
			})
			s.broker.Publish(KindViewport, vp)
			return &viewportOutput{Body: vp}, nil
		})

	type viewportsOutput struct {
		Body struct {
			Viewports []Viewport `json:"viewports"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "list-viewports", Method: http.MethodGet, Path: "/api/v1/viewports", Summary: "List reported viewports in arrival order", Tags: []string{"Viewports"}},
		func(ctx context.Context, input *struct{}) (*viewportsOutput, error) {
			out := &viewportsOutput{}
			out.Body.Viewports = s.journal.Viewports()
			if out.Body.Viewports == nil {
				out.Body.Viewports = []Viewport{}
			}
			return out, nil
		})
}
