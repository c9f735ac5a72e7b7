package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/cookiejar-app/cookiejar/internal/domain/cookie"
	"github.com/cookiejar-app/cookiejar/internal/domain/project"
	"github.com/cookiejar-app/cookiejar/internal/gateway"
	"github.com/cookiejar-app/cookiejar/internal/stats"
)

// CookieService defines cookie operations needed by the boundary.
type CookieService interface {
	List(ctx context.Context) ([]cookie.Cookie, error)
	Create(ctx context.Context, input map[string]any) (cookie.Cookie, error)
	Update(ctx context.Context, input map[string]any) (bool, error)
	Delete(ctx context.Context, id string) (*cookie.Cookie, error)
}

// ProjectService defines project operations needed by the boundary.
type ProjectService interface {
	List(ctx context.Context) ([]project.Project, error)
	Create(ctx context.Context, req project.CreateRequest) (*project.Project, error)
	Update(ctx context.Context, req project.UpdateRequest) error
	SetStatus(ctx context.Context, id, status string) (bool, error)
	Delete(ctx context.Context, id string) (bool, error)
}

// GatewayService defines bulk import/export.
type GatewayService interface {
	Import(ctx context.Context, payload []byte) error
	Export(ctx context.Context) (gateway.Snapshot, error)
}

// Services bundles everything the boundary dispatches to.
type Services struct {
	Cookies  CookieService
	Projects ProjectService
	Gateway  GatewayService
}

// Server wires the JSON-RPC boundary and the change feed.
type Server struct {
	services Services
	hub      *Hub
	logger   *slog.Logger
	now      func() time.Time
}

// Overview is the dashboard payload: summary cards, per-project
// aggregates and the heatmap, recomputed from the full collections.
type Overview struct {
	Totals   stats.Totals                 `json:"totals"`
	Projects map[string]stats.ProjectStat `json:"projects"`
	Heatmap  []stats.Day                  `json:"heatmap"`
}

// OpResult mirrors the legacy IPC result shape for operations that
// report structured success/failure instead of raising.
type OpResult struct {
	Success bool             `json:"success"`
	Error   string           `json:"error,omitempty"`
	Code    string           `json:"code,omitempty"`
	Project *project.Project `json:"project,omitempty"`
}

// NewServer creates the HTTP router. hub may be nil when no change feed
// is exposed (tests).
func NewServer(services Services, hub *Hub, logger *slog.Logger) *chi.Mux {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	srv := &Server{
		services: services,
		hub:      hub,
		logger:   logger,
		now:      time.Now,
	}

	r := chi.NewRouter()
	r.Post("/rpc", srv.handleRPC)
	if hub != nil {
		r.Get("/events", hub.ServeHTTP)
	}
	r.Get("/health", srv.handleHealth)
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleRPC(w http.ResponseWriter, r *http.Request) {
	req, err := ParseRequest(r.Body)
	if err != nil {
		WriteError(w, nil, ErrInvalidReq, "invalid request", nil)
		return
	}

	result, mutated, err := s.dispatch(r.Context(), req.Method, req.Params)
	if err != nil {
		code, taxonomy := classify(err)
		if code == ErrInternal {
			s.logger.Error("rpc call failed", "method", req.Method, "error", err)
		}
		WriteError(w, req.ID, code, err.Error(), taxonomy)
		return
	}

	WriteResult(w, req.ID, result)

	if mutated && s.hub != nil {
		s.hub.Broadcast(EventDataChanged, r.Header.Get("X-Client-ID"))
	}
}

// dispatch routes a boundary method. The second result reports whether
// the call changed stored data, which drives change notification to the
// other open surfaces.
func (s *Server) dispatch(ctx context.Context, method string, params json.RawMessage) (any, bool, error) {
	switch method {
	case "cookies.list":
		cookies, err := s.services.Cookies.List(ctx)
		if cookies == nil {
			cookies = []cookie.Cookie{}
		}
		return cookies, false, err

	case "cookies.create":
		input, err := decodeObject(params)
		if err != nil {
			return nil, false, err
		}
		c, err := s.services.Cookies.Create(ctx, input)
		if err != nil {
			return nil, false, err
		}
		return c, true, nil

	case "cookies.update":
		input, err := decodeObject(params)
		if err != nil {
			return nil, false, err
		}
		updated, err := s.services.Cookies.Update(ctx, input)
		if err != nil {
			return nil, false, err
		}
		return updated, updated, nil

	case "cookies.delete":
		var p struct {
			ID string `json:"id"`
		}
		if err := decodeParams(params, &p); err != nil {
			return nil, false, err
		}
		removed, err := s.services.Cookies.Delete(ctx, p.ID)
		if err != nil {
			return nil, false, err
		}
		return removed, removed != nil, nil

	case "projects.list":
		projects, err := s.services.Projects.List(ctx)
		if projects == nil {
			projects = []project.Project{}
		}
		return projects, false, err

	case "projects.create":
		var req project.CreateRequest
		if err := decodeParams(params, &req); err != nil {
			return nil, false, err
		}
		created, err := s.services.Projects.Create(ctx, req)
		if res, ok := opFailure(err); ok {
			return res, false, nil
		}
		if err != nil {
			return nil, false, err
		}
		return OpResult{Success: true, Project: created}, true, nil

	case "projects.update":
		var req project.UpdateRequest
		if err := decodeParams(params, &req); err != nil {
			return nil, false, err
		}
		err := s.services.Projects.Update(ctx, req)
		if res, ok := opFailure(err); ok {
			return res, false, nil
		}
		if err != nil {
			return nil, false, err
		}
		return OpResult{Success: true}, true, nil

	case "projects.setStatus":
		var p struct {
			ID     string `json:"id"`
			Status string `json:"status"`
		}
		if err := decodeParams(params, &p); err != nil {
			return nil, false, err
		}
		ok, err := s.services.Projects.SetStatus(ctx, p.ID, p.Status)
		if err != nil {
			return nil, false, err
		}
		return ok, ok, nil

	case "projects.delete":
		var p struct {
			ID string `json:"id"`
		}
		if err := decodeParams(params, &p); err != nil {
			return nil, false, err
		}
		existed, err := s.services.Projects.Delete(ctx, p.ID)
		if err != nil {
			return nil, false, err
		}
		return existed, existed, nil

	case "data.import":
		err := s.services.Gateway.Import(ctx, params)
		if err != nil {
			// Import failures come back structured, never as a raised
			// boundary error.
			res := OpResult{Success: false, Error: err.Error()}
			if errors.Is(err, gateway.ErrInvalidData) {
				res.Code = "INVALID_DATA"
			}
			return res, false, nil
		}
		return OpResult{Success: true}, true, nil

	case "data.export":
		snapshot, err := s.services.Gateway.Export(ctx)
		return snapshot, false, err

	case "stats.overview":
		cookies, projects, err := s.loadAll(ctx)
		if err != nil {
			return nil, false, err
		}
		today := s.now()
		return Overview{
			Totals:   stats.ComputeTotals(cookies, projects, today),
			Projects: stats.Aggregate(cookies),
			Heatmap:  stats.BuildHeatmap(cookies, today),
		}, false, nil

	case "stats.daily":
		cookies, projects, err := s.loadAll(ctx)
		if err != nil {
			return nil, false, err
		}
		return stats.BuildDailySummary(cookies, projects, s.now()), false, nil

	default:
		return nil, false, errMethodNotFound(method)
	}
}

func (s *Server) loadAll(ctx context.Context) ([]cookie.Cookie, []project.Project, error) {
	cookies, err := s.services.Cookies.List(ctx)
	if err != nil {
		return nil, nil, err
	}
	projects, err := s.services.Projects.List(ctx)
	if err != nil {
		return nil, nil, err
	}
	return cookies, projects, nil
}

// opFailure converts expected domain failures into the structured result
// the legacy IPC returned. Unexpected errors pass through.
func opFailure(err error) (OpResult, bool) {
	switch {
	case err == nil:
		return OpResult{}, false
	case errors.Is(err, project.ErrDuplicateName):
		return OpResult{Success: false, Error: "Project name already exists", Code: "DUPLICATE_NAME"}, true
	case errors.Is(err, project.ErrProjectNotFound):
		return OpResult{Success: false, Error: "Project not found", Code: "NOT_FOUND"}, true
	case errors.Is(err, project.ErrInvalidInput):
		return OpResult{Success: false, Error: "Project name is required", Code: "VALIDATION"}, true
	default:
		return OpResult{}, false
	}
}

type methodNotFoundError string

func (e methodNotFoundError) Error() string { return fmt.Sprintf("method not found: %s", string(e)) }

func errMethodNotFound(method string) error { return methodNotFoundError(method) }

func classify(err error) (int, any) {
	var mnf methodNotFoundError
	switch {
	case errors.As(err, &mnf):
		return ErrMethodNotFound, nil
	case errors.Is(err, project.ErrInvalidInput):
		return ErrInvalidParams, "VALIDATION"
	case isParamsError(err):
		return ErrInvalidParams, nil
	default:
		return ErrInternal, "IO"
	}
}

type paramsError struct{ err error }

func (e paramsError) Error() string { return fmt.Sprintf("invalid params: %v", e.err) }

func isParamsError(err error) bool {
	var pe paramsError
	return errors.As(err, &pe)
}

func decodeParams(params json.RawMessage, dst any) error {
	if len(params) == 0 {
		return paramsError{errors.New("missing params")}
	}
	if err := json.Unmarshal(params, dst); err != nil {
		return paramsError{err}
	}
	return nil
}

func decodeObject(params json.RawMessage) (map[string]any, error) {
	input := map[string]any{}
	if len(params) == 0 {
		return input, nil
	}
	if err := json.Unmarshal(params, &input); err != nil {
		return nil, paramsError{err}
	}
	return input, nil
}
