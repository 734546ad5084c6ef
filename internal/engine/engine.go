// Package engine implements the planning state engine: entity lifecycle,
// dependency resolution, archive/restore, and queries over a single
// file-backed state document.
//
// The Manager is an explicit instance, not a process-wide singleton; each
// test or caller constructs its own against a project root. Every mutating
// operation follows the same shape: validate inputs, look up entities,
// apply the business rule, mutate the in-memory document, append history,
// persist atomically. The operation returns only after the write completed,
// so back-to-back callers always observe applied state.
package engine

import (
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/planwright/planwright/internal/ident"
	"github.com/planwright/planwright/internal/schema"
	"github.com/planwright/planwright/internal/store"
)

// Manager owns one in-memory copy of the state document and its on-disk home.
type Manager struct {
	layout       store.Layout
	doc          *schema.Document
	log          *slog.Logger
	historyLimit int
	now          func() time.Time
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger used for best-effort filesystem warnings.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.log = l
		}
	}
}

// WithHistoryLimit overrides the history log cap.
func WithHistoryLimit(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.historyLimit = n
		}
	}
}

// WithClock fixes the time source. Tests use this for deterministic
// timestamps.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// New constructs a Manager for a project root. Call Load to pick up any
// existing state document.
func New(projectRoot string, opts ...Option) *Manager {
	m := &Manager{
		layout:       store.NewLayout(projectRoot),
		log:          slog.Default(),
		historyLimit: schema.DefaultHistoryLimit,
		now:          func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Load reads the state document if one exists. A missing file leaves the
// manager uninitialized, which is not an error.
func (m *Manager) Load() error {
	doc, err := store.Load(m.layout.StatePath())
	if err != nil {
		return err
	}
	m.doc = doc
	return nil
}

// Initialized reports whether a state document is loaded.
func (m *Manager) Initialized() bool { return m.doc != nil }

// Layout exposes the managed directory layout (read-only use).
func (m *Manager) Layout() store.Layout { return m.layout }

// requireDoc gates every operation that needs loaded state.
func (m *Manager) requireDoc() (*schema.Document, error) {
	if m.doc == nil {
		return nil, NotInitializedError{}
	}
	return m.doc, nil
}

// persist stamps the context and writes the document. If the write fails the
// error propagates: the caller must treat the operation as unconfirmed.
func (m *Manager) persist() error {
	m.doc.Context.LastUpdated = m.now()
	m.doc.Context.Revision = uuid.NewString()
	return store.Save(m.layout.StatePath(), m.doc)
}

// appendHistory adds an audit record, evicting the oldest entries beyond the
// cap. It does not persist; the surrounding operation does.
func (m *Manager) appendHistory(action, entityID, note string) {
	m.doc.History = append(m.doc.History, schema.HistoryEntry{
		ID:        ident.NewHistoryID(),
		Timestamp: m.now(),
		Action:    action,
		EntityID:  entityID,
		Note:      note,
	})
	if over := len(m.doc.History) - m.historyLimit; over > 0 {
		m.doc.History = append([]schema.HistoryEntry{}, m.doc.History[over:]...)
	}
}

// History returns a copy of the history log, oldest first.
func (m *Manager) History() ([]schema.HistoryEntry, error) {
	doc, err := m.requireDoc()
	if err != nil {
		return nil, err
	}
	out := make([]schema.HistoryEntry, len(doc.History))
	copy(out, doc.History)
	return out, nil
}

func timePtr(t time.Time) *time.Time { return &t }
