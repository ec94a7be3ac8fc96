package session

import (
	"fmt"
	"sync"
	"time"

	"ipo-wizard/src/helpers"
	"ipo-wizard/src/logger"
	"ipo-wizard/src/models"
	"ipo-wizard/src/wizard"
)

// -----------------------------------------------------------------------------

type entry struct {
	ctrl     *wizard.Controller
	lastSeen time.Time
}

// Manager holds the live wizard sessions and expires idle ones.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*entry
	ttl      time.Duration
	onExpire func(sessionID string)

	Logger *logger.Logger
	Now    func() time.Time
}

func NewManager(ttl time.Duration, l *logger.Logger) *Manager {
	return &Manager{
		sessions: make(map[string]*entry),
		ttl:      ttl,
		Logger:   l,
		Now:      time.Now,
	}
}

// -----------------------------------------------------------------------------

// OnExpire registers a callback invoked (outside the lock) for every session
// removed by Sweep.
func (m *Manager) OnExpire(fn func(sessionID string)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onExpire = fn
}

// -----------------------------------------------------------------------------

func (m *Manager) Add(c *wizard.Controller) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[c.ID()] = &entry{ctrl: c, lastSeen: m.Now()}
}

// -----------------------------------------------------------------------------

// Get returns the session and refreshes its idle timer.
func (m *Manager) Get(sessionID string) (*wizard.Controller, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.sessions[sessionID]
	if !ok {
		return nil, fmt.Errorf("session %s: %w", sessionID, helpers.ErrNotFound)
	}
	e.lastSeen = m.Now()
	return e.ctrl, nil
}

// -----------------------------------------------------------------------------

func (m *Manager) Remove(sessionID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[sessionID]; !ok {
		return false
	}
	delete(m.sessions, sessionID)
	return true
}

// -----------------------------------------------------------------------------

func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// -----------------------------------------------------------------------------

// Sweep drops sessions idle for longer than the TTL. Sessions with a
// submission or draft save in flight are kept until the call returns.
func (m *Manager) Sweep() []string {
	now := m.Now()

	m.mu.Lock()
	var expired []string
	for id, e := range m.sessions {
		if now.Sub(e.lastSeen) <= m.ttl {
			continue
		}
		switch e.ctrl.Status() {
		case models.StatusSubmitting, models.StatusSaving:
			continue
		}
		delete(m.sessions, id)
		expired = append(expired, id)
	}
	hook := m.onExpire
	m.mu.Unlock()

	if len(expired) > 0 {
		m.Logger.Info("Expired %d idle sessions", len(expired))
	}
	if hook != nil {
		for _, id := range expired {
			hook(id)
		}
	}
	return expired
}

// -----------------------------------------------------------------------------
// utils.Job

func (m *Manager) Name() string {
	return "session_sweep"
}

func (m *Manager) Run() error {
	m.Sweep()
	return nil
}
