// Package clipboard provides the secure clipboard: policy-gated copies and
// a background auto-clear with a single-slot cancellation channel. A new
// copy cancels the pending clear before scheduling its own.
//
// No clipboard content ever reaches logs or the audit trail; only event
// types and lengths.
package clipboard

import (
	"fmt"
	"sync"
	"time"

	"github.com/atotto/clipboard"

	"github.com/clinvault/clinvault/internal/logger"
	"github.com/clinvault/clinvault/internal/store"
)

// Policy controls clipboard behavior.
type Policy struct {
	// AutoClearSeconds clears the clipboard this many seconds after a copy.
	// Zero disables auto-clear.
	AutoClearSeconds int

	// MaxContentLength rejects copies longer than this. Zero means no limit.
	MaxContentLength int
}

// DefaultPolicy clears after 30 seconds with no length limit.
func DefaultPolicy() Policy {
	return Policy{AutoClearSeconds: 30}
}

// writer abstracts the system clipboard for tests.
type writer interface {
	WriteAll(text string) error
}

type systemWriter struct{}

func (systemWriter) WriteAll(text string) error { return clipboard.WriteAll(text) }

// Manager owns the auto-clear lifecycle. It is safe for concurrent use.
type Manager struct {
	policy Policy
	log    *logger.Logger
	out    writer

	mu     sync.Mutex
	cancel chan struct{} // single slot: the pending clear's cancellation
}

// NewManager constructs a Manager over the system clipboard.
func NewManager(policy Policy, log *logger.Logger) *Manager {
	if log == nil {
		log = logger.Nop()
	}
	return &Manager{policy: policy, log: log, out: systemWriter{}}
}

// Copy places text on the clipboard, cancels any pending auto-clear, and
// schedules a fresh one per policy.
func (m *Manager) Copy(text string) error {
	if m.policy.MaxContentLength > 0 && len(text) > m.policy.MaxContentLength {
		return fmt.Errorf("%w: clipboard content exceeds %d bytes", store.ErrPolicyViolation, m.policy.MaxContentLength)
	}

	if err := m.out.WriteAll(text); err != nil {
		return fmt.Errorf("write clipboard: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cancel != nil {
		close(m.cancel)
		m.cancel = nil
	}

	if m.policy.AutoClearSeconds > 0 {
		cancel := make(chan struct{})
		m.cancel = cancel
		go m.clearAfter(time.Duration(m.policy.AutoClearSeconds)*time.Second, cancel)
	}

	m.log.Info().Int("content_length", len(text)).Bool("auto_clear_scheduled", m.policy.AutoClearSeconds > 0).Msg("clipboard copy")
	return nil
}

// Clear empties the clipboard immediately and cancels any pending
// auto-clear.
func (m *Manager) Clear() error {
	m.mu.Lock()
	if m.cancel != nil {
		close(m.cancel)
		m.cancel = nil
	}
	m.mu.Unlock()

	if err := m.out.WriteAll(""); err != nil {
		return fmt.Errorf("clear clipboard: %w", err)
	}
	m.log.Info().Msg("clipboard cleared")
	return nil
}

func (m *Manager) clearAfter(d time.Duration, cancel <-chan struct{}) {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-cancel:
		return
	case <-timer.C:
	}

	m.mu.Lock()
	// Only drop the slot if it still belongs to this clear.
	select {
	case <-cancel:
		m.mu.Unlock()
		return
	default:
	}
	m.cancel = nil
	m.mu.Unlock()

	if err := m.out.WriteAll(""); err != nil {
		m.log.Warn().Err(err).Msg("clipboard auto-clear failed")
		return
	}
	m.log.Info().Msg("clipboard auto-cleared")
}
