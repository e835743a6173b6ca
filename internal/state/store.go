// Package state holds the authoritative in-memory copy of medications,
// reminders and the current user, and decides whether each mutation is kept
// local (demo mode) or persisted through the remote backend first
// (authenticated mode).
package state

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"medminder-go/internal/demo"
	"medminder-go/internal/domain/medication"
	"medminder-go/internal/metrics"
	"medminder-go/internal/remote"
	"medminder-go/pkg/logger"
)

// SnapshotName is the key the full state is persisted under.
const SnapshotName = "medication-store"

type Mode string

const (
	ModeDemo          Mode = "demo"
	ModeAuthenticated Mode = "authenticated"
)

// State is a point-in-time copy handed to readers.
type State struct {
	Medications []medication.Medication `json:"medications"`
	Reminders   []medication.Reminder   `json:"reminders"`
	User        medication.User         `json:"user"`
	Loading     bool                    `json:"loading"`
	Error       string                  `json:"error,omitempty"`
	Mode        Mode                    `json:"mode"`
}

// Snapshot is the persisted part of the state.
type Snapshot struct {
	Medications []medication.Medication `json:"medications"`
	Reminders   []medication.Reminder   `json:"reminders"`
	User        medication.User         `json:"user"`
}

// Event is published to subscribers after every state transition.
type Event struct {
	Op    string `json:"op"`
	State State  `json:"state"`
}

// SnapshotStore keeps the named snapshot on the device.
type SnapshotStore interface {
	Save(ctx context.Context, name string, payload []byte) error
	Load(ctx context.Context, name string) ([]byte, error)
}

type Store struct {
	api       *remote.Client
	demo      *demo.Generator
	snapshots SnapshotStore
	log       logger.Logger
	metrics   *metrics.Metrics
	now       func() time.Time

	// writeMu serializes mutations, including their remote round trips.
	writeMu sync.Mutex

	mu       sync.RWMutex
	data     Snapshot
	loading  bool
	errMsg   string
	strategy strategy

	subsMu  sync.Mutex
	subs    map[int]func(Event)
	nextSub int
}

type Option func(*Store)

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Store) { s.metrics = m }
}

func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New returns a store in demo mode seeded with fresh demo data. snapshots
// may be nil to disable device persistence.
func New(api *remote.Client, gen *demo.Generator, snapshots SnapshotStore, log logger.Logger, opts ...Option) *Store {
	s := &Store{
		api:       api,
		demo:      gen,
		snapshots: snapshots,
		log:       log,
		now:       time.Now,
		strategy:  localStrategy{},
		subs:      map[int]func(Event){},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.data = s.demoSnapshot()
	return s
}

func (s *Store) demoSnapshot() Snapshot {
	d := s.demo.Data()
	d.User.IsLoggedIn = false
	return Snapshot{Medications: d.Medications, Reminders: d.Reminders, User: d.User}
}

// State returns a deep copy of the current state.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stateLocked()
}

func (s *Store) stateLocked() State {
	return State{
		Medications: cloneMedications(s.data.Medications),
		Reminders:   cloneReminders(s.data.Reminders),
		User:        s.data.User.Clone(),
		Loading:     s.loading,
		Error:       s.errMsg,
		Mode:        s.strategy.mode(),
	}
}

func (s *Store) Mode() Mode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.strategy.mode()
}

// Adherence summarizes the current reminders.
func (s *Store) Adherence() medication.Adherence {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return medication.Summarize(s.data.Reminders)
}

// ClearError dismisses the error notice.
func (s *Store) ClearError() {
	s.mu.Lock()
	changed := s.errMsg != ""
	s.errMsg = ""
	s.mu.Unlock()

	if changed {
		s.publish("clear_error")
	}
}

// Subscribe registers fn for every state transition. fn runs on the
// mutating goroutine and must not call back into the store's mutations.
func (s *Store) Subscribe(fn func(Event)) (unsubscribe func()) {
	s.subsMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.subsMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.subsMu.Lock()
			delete(s.subs, id)
			s.subsMu.Unlock()
		})
	}
}

func (s *Store) publish(op string) {
	event := Event{Op: op, State: s.State()}

	s.subsMu.Lock()
	subs := make([]func(Event), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.subsMu.Unlock()

	for _, fn := range subs {
		fn(event)
	}
}

// Restore replaces the state with the persisted snapshot, if any. The mode
// follows the restored user's session flag until LoadInitialData resolves
// the real session.
func (s *Store) Restore(ctx context.Context) error {
	if s.snapshots == nil {
		return nil
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	payload, err := s.snapshots.Load(ctx, SnapshotName)
	if err != nil {
		s.log.InternalError("state: snapshot load failed", err)
		return err
	}
	if len(payload) == 0 {
		return nil
	}

	var snap Snapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		s.log.Warn("state: discarding unreadable snapshot", "err", err)
		return nil
	}
	normalize(&snap)

	s.mu.Lock()
	s.data = snap
	s.strategy = s.strategyFor(snap.User.IsLoggedIn)
	s.mu.Unlock()

	s.log.Info("state: snapshot restored",
		"medications", len(snap.Medications),
		"reminders", len(snap.Reminders),
		"logged_in", snap.User.IsLoggedIn,
	)
	s.publish("restore")
	return nil
}

func (s *Store) strategyFor(loggedIn bool) strategy {
	if loggedIn {
		return remoteStrategy{api: s.api}
	}
	return localStrategy{}
}

// persist saves the full snapshot. Failures are logged only.
func (s *Store) persist(ctx context.Context) {
	if s.snapshots == nil {
		return
	}

	s.mu.RLock()
	payload, err := json.Marshal(s.data)
	s.mu.RUnlock()
	if err != nil {
		s.log.InternalError("state: snapshot encode failed", err)
		return
	}

	if err := s.snapshots.Save(context.WithoutCancel(ctx), SnapshotName, payload); err != nil {
		s.log.InternalError("state: snapshot save failed", err)
	}
}

func normalize(snap *Snapshot) {
	if snap.Medications == nil {
		snap.Medications = []medication.Medication{}
	}
	if snap.Reminders == nil {
		snap.Reminders = []medication.Reminder{}
	}
	if snap.User.Caregivers == nil {
		snap.User.Caregivers = []medication.Caregiver{}
	}
}

func cloneMedications(in []medication.Medication) []medication.Medication {
	out := make([]medication.Medication, len(in))
	for i, m := range in {
		out[i] = m.Clone()
	}
	return out
}

func cloneReminders(in []medication.Reminder) []medication.Reminder {
	out := make([]medication.Reminder, len(in))
	for i, r := range in {
		out[i] = r.Clone()
	}
	return out
}
