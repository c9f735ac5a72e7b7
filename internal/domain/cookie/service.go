package cookie

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cookiejar-app/cookiejar/internal/store"
)

// Service handles cookie operations. It keeps no state between calls:
// every operation re-reads the collection, mutates a copy and writes it
// back under the shared guard.
type Service struct {
	store  store.Store
	guard  *store.Guard
	logger *slog.Logger
	now    func() int64
}

// NewService creates a new cookie service.
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

// List returns the normalized collection. When normalization repaired
// any record, the repaired collection is persisted before returning, so
// reads migrate legacy data in place. The write is skipped when the
// stored form is already canonical.
func (s *Service) List(ctx context.Context) ([]Cookie, error) {
	var cookies []Cookie
	err := s.guard.Do(func() error {
		raw, err := s.store.Get(ctx, store.Cookies)
		if err != nil {
			return fmt.Errorf("listing cookies: %w", err)
		}
		var changed bool
		cookies, changed = NormalizeAll(raw, s.now())
		if changed {
			if err := s.store.Set(ctx, store.Cookies, Encode(cookies)); err != nil {
				return fmt.Errorf("persisting normalized cookies: %w", err)
			}
			s.logger.Info("migrated cookie collection on read", "count", len(cookies))
		}
		return nil
	})
	return cookies, err
}

// Create normalizes the input, mints a fresh identity regardless of any
// id the caller supplied, appends and persists. The stored record is
// returned.
func (s *Service) Create(ctx context.Context, input map[string]any) (Cookie, error) {
	var created Cookie
	err := s.guard.Do(func() error {
		raw, err := s.store.Get(ctx, store.Cookies)
		if err != nil {
			return fmt.Errorf("creating cookie: %w", err)
		}
		now := s.now()
		cookies, _ := NormalizeAll(raw, now)

		c := Normalize(input, len(cookies), now)
		c.ID = MintID(now)
		c.CreatedAt = now
		cookies = append(cookies, c)

		if err := s.store.Set(ctx, store.Cookies, Encode(cookies)); err != nil {
			return fmt.Errorf("creating cookie: %w", err)
		}
		created = c
		return nil
	})
	if err == nil {
		s.logger.Debug("cookie created", "id", created.ID, "projectId", created.ProjectID)
	}
	return created, err
}

// Update merges the input over the record with the same id and
// renormalizes the result. It reports false, without touching the
// collection, when no record matches.
func (s *Service) Update(ctx context.Context, input map[string]any) (bool, error) {
	if !truthy(input["id"]) {
		return false, nil
	}
	id := coerceString(input["id"])

	var found bool
	err := s.guard.Do(func() error {
		raw, err := s.store.Get(ctx, store.Cookies)
		if err != nil {
			return fmt.Errorf("updating cookie: %w", err)
		}
		now := s.now()
		cookies, _ := NormalizeAll(raw, now)

		idx := -1
		for i := range cookies {
			if cookies[i].ID == id {
				idx = i
				break
			}
		}
		if idx == -1 {
			return nil
		}

		merged := asMap(cookies[idx])
		for k, v := range input {
			merged[k] = v
		}
		c := Normalize(merged, idx, now)
		c.UpdatedAt = now
		cookies[idx] = c

		if err := s.store.Set(ctx, store.Cookies, Encode(cookies)); err != nil {
			return fmt.Errorf("updating cookie: %w", err)
		}
		found = true
		return nil
	})
	return found, err
}

// Delete removes the first record with a matching id and returns it, or
// nil when no record matches.
func (s *Service) Delete(ctx context.Context, id string) (*Cookie, error) {
	var removed *Cookie
	err := s.guard.Do(func() error {
		raw, err := s.store.Get(ctx, store.Cookies)
		if err != nil {
			return fmt.Errorf("deleting cookie: %w", err)
		}
		cookies, _ := NormalizeAll(raw, s.now())

		for i := range cookies {
			if cookies[i].ID == id {
				c := cookies[i]
				removed = &c
				cookies = append(cookies[:i], cookies[i+1:]...)
				break
			}
		}
		if removed == nil {
			return nil
		}

		if err := s.store.Set(ctx, store.Cookies, Encode(cookies)); err != nil {
			return fmt.Errorf("deleting cookie: %w", err)
		}
		return nil
	})
	return removed, err
}

// SetClock overrides the clock, for tests.
func (s *Service) SetClock(now func() int64) { s.now = now }
