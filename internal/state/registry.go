package state

import (
	"context"
	"sync"
	"time"

	"artisan_storefront/internal/storage"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

// Registry garde l'AppState de chaque session active. La première requête
// d'une session hydrate son état depuis le stockage ; les requêtes concurrentes
// de la même session attendent cette hydratation au lieu de la refaire.
type Registry struct {
	backend storage.Backend
	logger  log.FieldLogger

	mu       sync.RWMutex
	sessions map[string]*AppState
	sfg      singleflight.Group
}

func NewRegistry(backend storage.Backend, logger log.FieldLogger) *Registry {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Registry{
		backend:  backend,
		logger:   logger,
		sessions: make(map[string]*AppState),
	}
}

func (r *Registry) Get(ctx context.Context, sessionID string) *AppState {
	now := time.Now()

	r.mu.RLock()
	s, ok := r.sessions[sessionID]
	r.mu.RUnlock()
	if ok {
		s.touch(now)
		return s
	}

	v, _, _ := r.sfg.Do(sessionID, func() (interface{}, error) {
		r.mu.RLock()
		existing, ok := r.sessions[sessionID]
		r.mu.RUnlock()
		if ok {
			return existing, nil
		}

		s := newAppState(sessionID, r.backend.ForSession(sessionID), r.logger)
		// l'hydratation ne dépend pas de l'annulation de la requête qui l'a déclenchée
		s.hydrate(context.WithoutCancel(ctx))

		r.mu.Lock()
		r.sessions[sessionID] = s
		r.mu.Unlock()
		return s, nil
	})

	s = v.(*AppState)
	s.touch(now)
	return s
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Evict retire de la mémoire les sessions inactives depuis maxIdle.
// Leur état persisté reste dans le stockage et sera relu au retour.
func (r *Registry) Evict(maxIdle time.Duration) int {
	now := time.Now()

	r.mu.Lock()
	defer r.mu.Unlock()

	evicted := 0
	for id, s := range r.sessions {
		if s.idleSince(now) > maxIdle {
			delete(r.sessions, id)
			evicted++
		}
	}
	return evicted
}

// RunEviction lance Evict périodiquement jusqu'à l'annulation de ctx
func (r *Registry) RunEviction(ctx context.Context, every, maxIdle time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.Evict(maxIdle); n > 0 {
				r.logger.Infof("🧹 %d session(s) inactive(s) libérée(s)", n)
			}
		}
	}
}
