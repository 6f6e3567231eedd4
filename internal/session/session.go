// Package session implements the edit session: at most one week is open for
// editing at a time, addressed by its position in the collection.
//
//	Closed --Open(i)--> Open(i) --Save/Delete/Cancel--> Closed
//
// Opening while a session is open replaces the index. A failed persist keeps
// the session open so the same submission can be retried.
package session

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/starford/weekboard/internal/apperr"
	"github.com/starford/weekboard/internal/codec"
	"github.com/starford/weekboard/internal/models"
)

// User-facing notification messages.
const (
	MsgSaved      = "Changes saved successfully"
	MsgReset      = "Week deleted and reset to defaults"
	MsgSaveFailed = "Error saving changes"
)

// Event kinds sent to the Notifier.
const (
	EventSaved = "week.saved"
	EventReset = "week.reset"
)

// Repository is the part of weeks.Repository a session needs.
type Repository interface {
	Get(index int) (models.Week, error)
	Update(index int, f models.Fields) error
	Reset(index int) error
	Save(ctx context.Context) error
}

// Event describes a completed session transition.
type Event struct {
	Kind    string `json:"kind"`
	Index   int    `json:"index"`
	Number  string `json:"number"`
	Message string `json:"message"`
}

// Notifier receives events after a successful save or reset.
type Notifier interface {
	Notify(Event)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Event)

// Notify calls f(e).
func (f NotifierFunc) Notify(e Event) { f(e) }

// State is Closed (Open == false) or Open at Index with a session ID.
type State struct {
	Open  bool   `json:"open"`
	Index int    `json:"index"`
	ID    string `json:"id,omitempty"`
}

// Closed is the zero state.
var Closed = State{Index: -1}

// Option configures a Session.
type Option func(*Session)

// WithNotifier sets the event receiver.
func WithNotifier(n Notifier) Option {
	return func(s *Session) {
		s.notifier = n
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) {
		s.logger = l
	}
}

// WithIDFunc overrides session ID generation.
func WithIDFunc(fn func() string) Option {
	return func(s *Session) {
		s.newID = fn
	}
}

// Session is the edit session state machine.
type Session struct {
	mu       sync.Mutex
	repo     Repository
	notifier Notifier
	logger   *slog.Logger
	newID    func() string
	state    State
}

// New creates a closed session over repo.
func New(repo Repository, opts ...Option) *Session {
	s := &Session{
		repo:     repo,
		notifier: NotifierFunc(func(Event) {}),
		logger:   slog.New(slog.NewJSONHandler(io.Discard, nil)),
		newID:    uuid.NewString,
		state:    Closed,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Open opens the week at index for editing and returns its encoded form.
func (s *Session) Open(index int) (codec.Form, State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, err := s.repo.Get(index)
	if err != nil {
		return codec.Form{}, s.state, err
	}
	if s.state.Open {
		s.logger.Debug("session: replacing open session",
			slog.Int("from", s.state.Index), slog.Int("to", index))
	}
	s.state = State{Open: true, Index: index, ID: s.newID()}
	return codec.EncodeForm(w), s.state, nil
}

// Save decodes the form into the open week, persists the collection and
// closes the session. id, when non-empty, must name the open session.
func (s *Session) Save(ctx context.Context, id string, f codec.Form) (models.Week, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkOpen(id); err != nil {
		return models.Week{}, err
	}
	index := s.state.Index

	if err := s.repo.Update(index, codec.DecodeForm(f)); err != nil {
		return models.Week{}, err
	}
	if err := s.repo.Save(ctx); err != nil {
		s.logger.Error("session: save failed", slog.Int("index", index), slog.String("error", err.Error()))
		return models.Week{}, err
	}
	return s.finish(EventSaved, MsgSaved, index)
}

// Delete resets the open week to its defaults, persists the collection and
// closes the session. Without confirmation nothing changes.
func (s *Session) Delete(ctx context.Context, id string, confirmed bool) (models.Week, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkOpen(id); err != nil {
		return models.Week{}, err
	}
	if !confirmed {
		return models.Week{}, apperr.ErrNotConfirmed
	}
	index := s.state.Index

	if err := s.repo.Reset(index); err != nil {
		return models.Week{}, err
	}
	if err := s.repo.Save(ctx); err != nil {
		s.logger.Error("session: save after reset failed", slog.Int("index", index), slog.String("error", err.Error()))
		return models.Week{}, err
	}
	return s.finish(EventReset, MsgReset, index)
}

// Cancel discards the session without persisting anything.
func (s *Session) Cancel() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = Closed
	return s.state
}

func (s *Session) checkOpen(id string) error {
	if !s.state.Open {
		return apperr.ErrNoSession
	}
	if id != "" && id != s.state.ID {
		return fmt.Errorf("%w: session %s is no longer open", apperr.ErrConflict, id)
	}
	return nil
}

func (s *Session) finish(kind, msg string, index int) (models.Week, error) {
	s.state = Closed
	w, err := s.repo.Get(index)
	if err != nil {
		return models.Week{}, err
	}
	s.notifier.Notify(Event{Kind: kind, Index: index, Number: w.Number, Message: msg})
	return w, nil
}
