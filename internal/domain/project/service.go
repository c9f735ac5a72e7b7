package project

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/cookiejar-app/cookiejar/internal/domain/cookie"
	"github.com/cookiejar-app/cookiejar/internal/store"
)

// Service handles project operations, including the cascade that removes
// a deleted project's cookies. Like the cookie service it is stateless
// between calls; both collections are guarded by the same lock so a
// cascade is atomic with respect to other writers.
type Service struct {
	store  store.Store
	guard  *store.Guard
	logger *slog.Logger
	now    func() int64
}

// NewService creates a new project service.
func NewService(st store.Store, guard *store.Guard, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{
		store:  st,
		guard:  guard,
		logger: logger,
		now:    func() int64 { return time.Now().UnixMilli() },
	}
}

// CreateRequest defines project creation inputs.
type CreateRequest struct {
	Name string   `json:"name"`
	Tags []string `json:"tags"`
}

// UpdateRequest defines a partial project update. Nil fields keep their
// stored values.
type UpdateRequest struct {
	ID   string    `json:"id"`
	Name *string   `json:"name"`
	Tags *[]string `json:"tags"`
}

// List returns all projects.
func (s *Service) List(ctx context.Context) ([]Project, error) {
	records, err := s.store.Get(ctx, store.Projects)
	if err != nil {
		return nil, fmt.Errorf("listing projects: %w", err)
	}
	return Decode(records), nil
}

// Create creates a new project. Names must be unique, case-sensitively,
// across active and archived projects alike.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*Project, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, ErrInvalidInput
	}

	var created *Project
	err := s.guard.Do(func() error {
		records, err := s.store.Get(ctx, store.Projects)
		if err != nil {
			return fmt.Errorf("creating project: %w", err)
		}
		projects := Decode(records)
		for _, p := range projects {
			if p.Name == req.Name {
				return ErrDuplicateName
			}
		}

		now := s.now()
		tags := req.Tags
		if tags == nil {
			tags = []string{}
		}
		p := Project{
			ID:        strconv.FormatInt(now, 10),
			Name:      req.Name,
			Tags:      tags,
			Status:    StatusActive,
			CreatedAt: now,
		}
		projects = append(projects, p)

		if err := s.store.Set(ctx, store.Projects, Encode(projects)); err != nil {
			return fmt.Errorf("creating project: %w", err)
		}
		created = &p
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Debug("project created", "id", created.ID, "name", created.Name)
	return created, nil
}

// Update merges the provided fields over an existing project. Renaming
// to a name held by a different project fails; renaming to the project's
// own current name succeeds.
func (s *Service) Update(ctx context.Context, req UpdateRequest) error {
	if req.ID == "" {
		return ErrProjectNotFound
	}
	return s.guard.Do(func() error {
		records, err := s.store.Get(ctx, store.Projects)
		if err != nil {
			return fmt.Errorf("updating project: %w", err)
		}
		projects := Decode(records)

		if req.Name != nil {
			for _, p := range projects {
				if p.Name == *req.Name && p.ID != req.ID {
					return ErrDuplicateName
				}
			}
		}

		idx := -1
		for i := range projects {
			if projects[i].ID == req.ID {
				idx = i
				break
			}
		}
		if idx == -1 {
			return ErrProjectNotFound
		}

		if req.Name != nil {
			if strings.TrimSpace(*req.Name) == "" {
				return ErrInvalidInput
			}
			projects[idx].Name = *req.Name
		}
		if req.Tags != nil {
			tags := *req.Tags
			if tags == nil {
				tags = []string{}
			}
			projects[idx].Tags = tags
		}

		if err := s.store.Set(ctx, store.Projects, Encode(projects)); err != nil {
			return fmt.Errorf("updating project: %w", err)
		}
		return nil
	})
}

// SetStatus archives or activates a project. A missing id is silently
// ignored and still reports success; the dashboard's archive/restore
// toggle has always relied on that.
func (s *Service) SetStatus(ctx context.Context, id, status string) (bool, error) {
	if status != StatusActive && status != StatusArchived {
		return false, fmt.Errorf("%w: status %q", ErrInvalidInput, status)
	}
	err := s.guard.Do(func() error {
		records, err := s.store.Get(ctx, store.Projects)
		if err != nil {
			return fmt.Errorf("setting project status: %w", err)
		}
		projects := Decode(records)
		for i := range projects {
			if projects[i].ID == id {
				projects[i].Status = status
				if err := s.store.Set(ctx, store.Projects, Encode(projects)); err != nil {
					return fmt.Errorf("setting project status: %w", err)
				}
				return nil
			}
		}
		s.logger.Warn("status change for unknown project ignored", "id", id, "status", status)
		return nil
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

// Delete removes a project and cascades to every cookie assigned to it.
// It reports whether the project existed.
func (s *Service) Delete(ctx context.Context, id string) (bool, error) {
	var existed bool
	var removedCookies int
	err := s.guard.Do(func() error {
		records, err := s.store.Get(ctx, store.Projects)
		if err != nil {
			return fmt.Errorf("deleting project: %w", err)
		}
		projects := Decode(records)

		idx := -1
		for i := range projects {
			if projects[i].ID == id {
				idx = i
				break
			}
		}
		if idx == -1 {
			return nil
		}
		existed = true

		projects = append(projects[:idx], projects[idx+1:]...)
		if err := s.store.Set(ctx, store.Projects, Encode(projects)); err != nil {
			return fmt.Errorf("deleting project: %w", err)
		}

		rawCookies, err := s.store.Get(ctx, store.Cookies)
		if err != nil {
			return fmt.Errorf("cascading cookie delete: %w", err)
		}
		cookies, _ := cookie.NormalizeAll(rawCookies, s.now())
		kept := cookies[:0]
		for _, c := range cookies {
			if c.ProjectID != nil && *c.ProjectID == id {
				removedCookies++
				continue
			}
			kept = append(kept, c)
		}
		if removedCookies > 0 {
			if err := s.store.Set(ctx, store.Cookies, cookie.Encode(kept)); err != nil {
				return fmt.Errorf("cascading cookie delete: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	if existed {
		s.logger.Info("project deleted", "id", id, "cookiesRemoved", removedCookies)
	}
	return existed, nil
}

// SetClock overrides the clock, for tests.
func (s *Service) SetClock(now func() int64) { s.now = now }
