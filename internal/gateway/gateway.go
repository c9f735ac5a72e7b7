// Package gateway implements bulk JSON import and export of the jar.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cookiejar-app/cookiejar/internal/domain/cookie"
	"github.com/cookiejar-app/cookiejar/internal/domain/project"
	"github.com/cookiejar-app/cookiejar/internal/store"
)

// ErrInvalidData indicates a malformed import payload.
var ErrInvalidData = errors.New("invalid import data")

// Snapshot is the export file format.
type Snapshot struct {
	Projects   []project.Project `json:"projects"`
	Cookies    []cookie.Cookie   `json:"cookies"`
	ExportDate string            `json:"exportDate"`
}

// Service validates and applies bulk replacements of the collections.
type Service struct {
	store    store.Store
	guard    *store.Guard
	cookies  *cookie.Service
	projects *project.Service
	logger   *slog.Logger
	now      func() time.Time
}

// NewService creates a new gateway service.
func NewService(st store.Store, guard *store.Guard, cookies *cookie.Service, projects *project.Service, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{
		store:    st,
		guard:    guard,
		cookies:  cookies,
		projects: projects,
		logger:   logger,
		now:      time.Now,
	}
}

// Import replaces the collections named by the payload. Cookies are
// normalized on the way in, preserving their imported ids; projects are
// stored as given. A payload carrying only one collection replaces only
// that collection. Fields that are present but not arrays are ignored.
func (s *Service) Import(ctx context.Context, payload []byte) error {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return ErrInvalidData
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &doc); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidData, err)
	}

	cookieRecords, hasCookies := decodeArray(doc[store.Cookies])
	projectRecords, hasProjects := decodeArray(doc[store.Projects])

	err := s.guard.Do(func() error {
		if hasCookies {
			normalized, _ := cookie.NormalizeAll(cookieRecords, s.now().UnixMilli())
			if err := s.store.Set(ctx, store.Cookies, cookie.Encode(normalized)); err != nil {
				return fmt.Errorf("importing cookies: %w", err)
			}
		}
		if hasProjects {
			if err := s.store.Set(ctx, store.Projects, projectRecords); err != nil {
				return fmt.Errorf("importing projects: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("import applied",
		"cookies", len(cookieRecords), "cookiesReplaced", hasCookies,
		"projects", len(projectRecords), "projectsReplaced", hasProjects)
	return nil
}

// Export snapshots both collections, exactly as the repositories list
// them, plus an export timestamp.
func (s *Service) Export(ctx context.Context) (Snapshot, error) {
	cookies, err := s.cookies.List(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("exporting cookies: %w", err)
	}
	projects, err := s.projects.List(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("exporting projects: %w", err)
	}
	if cookies == nil {
		cookies = []cookie.Cookie{}
	}
	if projects == nil {
		projects = []project.Project{}
	}
	return Snapshot{
		Projects:   projects,
		Cookies:    cookies,
		ExportDate: s.now().UTC().Format(time.RFC3339),
	}, nil
}

func decodeArray(raw json.RawMessage) ([]json.RawMessage, bool) {
	if raw == nil {
		return nil, false
	}
	var records []json.RawMessage
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, false
	}
	if records == nil {
		// Explicit null is not an array replacement.
		return nil, false
	}
	return records, true
}
