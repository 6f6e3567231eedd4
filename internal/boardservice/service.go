// Package boardservice coordinates the week repository, the edit session, the
// navigation state and change events for the HTTP and MCP surfaces.
package boardservice

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/starford/weekboard/internal/apperr"
	"github.com/starford/weekboard/internal/checksum"
	"github.com/starford/weekboard/internal/codec"
	"github.com/starford/weekboard/internal/models"
	"github.com/starford/weekboard/internal/render"
	"github.com/starford/weekboard/internal/session"
	"github.com/starford/weekboard/internal/sse"
	"github.com/starford/weekboard/internal/weeks"
)

// Notification messages for collection-wide changes.
const (
	MsgImported = "Weeks imported"
	MsgReloaded = "Weeks reloaded from disk"
)

// Publisher receives week change events. *sse.Broker implements it.
type Publisher interface {
	PublishWeekEvent(kind string, ev sse.WeekEvent)
}

type nopPublisher struct{}

func (nopPublisher) PublishWeekEvent(string, sse.WeekEvent) {}

// Opened is returned when a week is opened for editing.
type Opened struct {
	State session.State `json:"state"`
	Form  codec.Form    `json:"form"`
}

// Result is returned after a save or reset.
type Result struct {
	Week    models.Week `json:"week"`
	Message string      `json:"message"`
}

// Snapshot is a serialized collection with its checksum.
type Snapshot struct {
	Data     []byte
	Checksum string
}

// Service owns the session and navigation state for one repository.
type Service struct {
	repo     *weeks.Repository
	sess     *session.Session
	nav      *render.Nav
	events   Publisher
	logger   *slog.Logger
	title    string
	sessOpts []session.Option

	importMu sync.Mutex
}

// Option configures a Service.
type Option func(*Service)

// WithPublisher sets the receiver of change events.
func WithPublisher(p Publisher) Option {
	return func(s *Service) {
		if p != nil {
			s.events = p
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		s.logger = l
	}
}

// WithTitle sets the page title used by the HTML board.
func WithTitle(title string) Option {
	return func(s *Service) {
		s.title = title
	}
}

// WithSessionOptions passes options through to the edit session.
func WithSessionOptions(opts ...session.Option) Option {
	return func(s *Service) {
		s.sessOpts = append(s.sessOpts, opts...)
	}
}

// New creates a service over a loaded repository. A nil nav gets the default
// sections.
func New(repo *weeks.Repository, nav *render.Nav, opts ...Option) *Service {
	s := &Service{
		repo:   repo,
		nav:    nav,
		events: nopPublisher{},
		logger: slog.New(slog.NewJSONHandler(io.Discard, nil)),
		title:  "Weekboard",
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.nav == nil {
		s.nav = render.NewNav()
	}
	base := []session.Option{
		session.WithLogger(s.logger),
		session.WithNotifier(session.NotifierFunc(s.notify)),
	}
	s.sess = session.New(repo, append(base, s.sessOpts...)...)
	return s
}

// Title returns the page title.
func (s *Service) Title() string {
	return s.title
}

// Board returns the declarative board, optionally filtered by tag.
func (s *Service) Board(tag string) render.Board {
	return render.FilterByTag(render.Build(s.repo.All(), s.nav), tag)
}

// Weeks returns the whole collection.
func (s *Service) Weeks() []models.Week {
	return s.repo.All()
}

// Week returns the week at index.
func (s *Service) Week(index int) (models.Week, error) {
	return s.repo.Get(index)
}

// Session returns the current edit session state.
func (s *Service) Session() session.State {
	return s.sess.State()
}

// Open opens the week at index for editing.
func (s *Service) Open(index int) (*Opened, error) {
	form, st, err := s.sess.Open(index)
	if err != nil {
		return nil, err
	}
	return &Opened{State: st, Form: form}, nil
}

// Save applies form to the open week and persists the collection.
func (s *Service) Save(ctx context.Context, id string, form codec.Form) (*Result, error) {
	w, err := s.sess.Save(ctx, id, form)
	if err != nil {
		return nil, err
	}
	return &Result{Week: w, Message: session.MsgSaved}, nil
}

// Delete resets the open week and persists the collection.
func (s *Service) Delete(ctx context.Context, id string, confirmed bool) (*Result, error) {
	w, err := s.sess.Delete(ctx, id, confirmed)
	if err != nil {
		return nil, err
	}
	return &Result{Week: w, Message: session.MsgReset}, nil
}

// Cancel closes the edit session without saving.
func (s *Service) Cancel() session.State {
	return s.sess.Cancel()
}

// Edit opens index, applies form and saves in one step. Used by callers that
// have no interactive session, such as MCP tools.
func (s *Service) Edit(ctx context.Context, index int, form codec.Form) (*Result, error) {
	opened, err := s.Open(index)
	if err != nil {
		return nil, err
	}
	res, err := s.Save(ctx, opened.State.ID, form)
	if err != nil {
		s.sess.Cancel()
		return nil, err
	}
	return res, nil
}

// ResetWeek opens index and resets it in one step.
func (s *Service) ResetWeek(ctx context.Context, index int, confirmed bool) (*Result, error) {
	if !confirmed {
		return nil, apperr.ErrNotConfirmed
	}
	opened, err := s.Open(index)
	if err != nil {
		return nil, err
	}
	res, err := s.Delete(ctx, opened.State.ID, true)
	if err != nil {
		s.sess.Cancel()
		return nil, err
	}
	return res, nil
}

// Nav returns the navigation sections.
func (s *Service) Nav() []render.Section {
	return s.nav.Sections()
}

// Activate switches the active section.
func (s *Service) Activate(page string) ([]render.Section, error) {
	if err := s.nav.Activate(page); err != nil {
		return nil, err
	}
	return s.nav.Sections(), nil
}

// Export returns the serialized collection and its checksum.
func (s *Service) Export() (*Snapshot, error) {
	data, err := s.repo.Export()
	if err != nil {
		return nil, err
	}
	return &Snapshot{Data: data, Checksum: checksum.Sum(data)}, nil
}

// Import replaces the mutable fields of every week from data and persists the
// result. ifMatch, when non-empty, must match the current checksum.
func (s *Service) Import(ctx context.Context, data []byte, ifMatch string) (*Snapshot, error) {
	s.importMu.Lock()
	defer s.importMu.Unlock()

	if ifMatch != "" && !checksum.Matches(ifMatch, s.repo.Checksum()) {
		return nil, fmt.Errorf("%w: collection changed since export", apperr.ErrConflict)
	}
	if err := s.repo.Import(data); err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx); err != nil {
		s.logger.Error("import: save failed", slog.String("error", err.Error()))
		return nil, err
	}
	s.events.PublishWeekEvent(sse.TypeWeeksReloaded, sse.WeekEvent{Index: -1, Message: MsgImported})
	return s.Export()
}

// Reloaded announces that the collection was reloaded from the store by
// something other than this service.
func (s *Service) Reloaded(sum string) {
	s.logger.Info("board: collection reloaded", slog.String("checksum", sum))
	s.events.PublishWeekEvent(sse.TypeWeeksReloaded, sse.WeekEvent{Index: -1, Message: MsgReloaded})
}

func (s *Service) notify(e session.Event) {
	s.events.PublishWeekEvent(e.Kind, sse.WeekEvent{Index: e.Index, Number: e.Number, Message: e.Message})
}
