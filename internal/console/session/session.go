// Package session fetches the signed-in user and the feature flag snapshot
// once, and shares them with every console component until Close.
package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"keyring/internal/console/flags"
	"keyring/internal/platform/models"
)

// Source is the part of the API a session needs at start.
type Source interface {
	Self(ctx context.Context) (*models.User, error)
	Options(ctx context.Context) ([]models.Option, error)
}

type Session struct {
	mu     sync.RWMutex
	user   models.User
	flags  flags.Snapshot
	closed bool
}

// New builds a session from values already at hand.
func New(user models.User, snapshot flags.Snapshot) *Session {
	return &Session{user: user, flags: snapshot}
}

// Open loads the user and the flags concurrently.
func Open(ctx context.Context, src Source) (*Session, error) {
	var (
		user *models.User
		opts []models.Option
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		user, err = src.Self(gctx)
		if err != nil {
			return fmt.Errorf("load user: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		opts, err = src.Options(gctx)
		if err != nil {
			return fmt.Errorf("load options: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	s := New(*user, flags.FromOptions(opts))
	log.Debug().
		Str("user", user.Username).
		Bool("model_ratio", s.flags.ModelRatioEnabled).
		Bool("billing_by_request", s.flags.BillingByRequestEnabled).
		Msg("console session opened")
	return s, nil
}

func (s *Session) User() models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

// Flags returns the snapshot taken at Open. A closed session reports every flag off.
func (s *Session) Flags() flags.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return flags.Snapshot{}
	}
	return s.flags
}

func (s *Session) IsAdmin() bool {
	u := s.User()
	return u.IsAdmin()
}

// Group is the user's own group, or "default" when unset.
func (s *Session) Group() string {
	if g := s.User().Group; g != "" {
		return g
	}
	return models.DefaultGroup
}

func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}

func (s *Session) Closed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.closed
}
