package core

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"proviai.com/provider-assistant/internal/store"
)

// WizardFactory builds a fresh wizard for a signed-in user.
type WizardFactory func(user store.User) *Wizard

// WizardRegistry keeps one runner per session.
type WizardRegistry struct {
	factory WizardFactory
	idleTTL time.Duration
	logger  *zap.Logger

	mu      sync.Mutex
	runners map[string]*WizardRunner
}

func NewWizardRegistry(factory WizardFactory, idleTTL time.Duration, logger *zap.Logger) *WizardRegistry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WizardRegistry{
		factory: factory,
		idleTTL: idleTTL,
		logger:  logger,
		runners: make(map[string]*WizardRunner),
	}
}

// Get returns the session's runner, creating it on first use.
func (r *WizardRegistry) Get(sessionID string, user store.User) *WizardRunner {
	r.mu.Lock()
	defer r.mu.Unlock()

	if runner, ok := r.runners[sessionID]; ok {
		return runner
	}
	runner := NewWizardRunner(r.factory(user))
	r.runners[sessionID] = runner
	r.logger.Debug("Wizard runner created", zap.String("session_id", sessionID))
	return runner
}

func (r *WizardRegistry) Lookup(sessionID string) (*WizardRunner, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	runner, ok := r.runners[sessionID]
	return runner, ok
}

// Drop stops and forgets the session's runner.
func (r *WizardRegistry) Drop(sessionID string) {
	r.mu.Lock()
	runner, ok := r.runners[sessionID]
	delete(r.runners, sessionID)
	r.mu.Unlock()

	if ok {
		runner.Stop()
	}
}

func (r *WizardRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.runners)
}

// Reap drops runners idle since before now minus the idle TTL. Busy runners
// are kept.
func (r *WizardRegistry) Reap(now time.Time) int {
	cutoff := now.Add(-r.idleTTL)

	r.mu.Lock()
	var stale []*WizardRunner
	for id, runner := range r.runners {
		if !runner.Busy() && runner.LastActive().Before(cutoff) {
			stale = append(stale, runner)
			delete(r.runners, id)
		}
	}
	r.mu.Unlock()

	for _, runner := range stale {
		runner.Stop()
	}
	return len(stale)
}

// Run reaps idle runners every interval until ctx is done.
func (r *WizardRegistry) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n := r.Reap(now); n > 0 {
				r.logger.Info("Reaped idle wizards", zap.Int("count", n))
			}
		}
	}
}

// Close stops every runner.
func (r *WizardRegistry) Close() {
	r.mu.Lock()
	runners := r.runners
	r.runners = make(map[string]*WizardRunner)
	r.mu.Unlock()

	for _, runner := range runners {
		runner.Stop()
	}
}
