// Package weeks owns the in-memory week collection and its persistence.
package weeks

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sync"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/weekboard/internal/apperr"
	"github.com/starford/weekboard/internal/checksum"
	"github.com/starford/weekboard/internal/kv"
	"github.com/starford/weekboard/internal/models"
)

// DefaultKey is the single store key the collection is persisted under.
const DefaultKey = "weeks-data"

// Option configures a Repository.
type Option func(*Repository)

// WithKey overrides the store key.
func WithKey(key string) Option {
	return func(r *Repository) {
		r.key = key
	}
}

// WithCount sets the number of weeks in a generated collection.
func WithCount(n int) Option {
	return func(r *Repository) {
		r.count = n
	}
}

// WithTemplate sets the template used for default and reset weeks.
func WithTemplate(t models.Template) Option {
	return func(r *Repository) {
		r.tpl = t
	}
}

// WithLogger sets the logger used for recovered failures.
func WithLogger(l *slog.Logger) Option {
	return func(r *Repository) {
		r.logger = l
	}
}

// Repository holds the authoritative collection. Length and numbers are fixed
// once loaded: Update and Reset mutate in place, nothing adds or removes weeks.
type Repository struct {
	mu     sync.Mutex
	store  kv.Store
	key    string
	count  int
	tpl    models.Template
	logger *slog.Logger

	weeks     []models.Week
	persisted string // checksum of the blob last read from or written to the store
}

// New creates a repository over store. Until Load is called it holds a
// default collection.
func New(store kv.Store, opts ...Option) *Repository {
	r := &Repository{
		store:  store,
		key:    DefaultKey,
		count:  models.DefaultCount,
		tpl:    models.DefaultTemplate(),
		logger: slog.New(slog.NewJSONHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.weeks = r.tpl.Collection(r.count)
	return r
}

// Key returns the store key the collection is persisted under.
func (r *Repository) Key() string {
	return r.key
}

// Load fetches the collection from the store. It never fails: a missing value
// produces defaults which are persisted right away, and a fetch error or a
// malformed value produces defaults which are only logged.
func (r *Repository) Load(ctx context.Context) []models.Week {
	r.mu.Lock()
	defer r.mu.Unlock()

	value, found, err := r.store.Get(ctx, r.key)
	switch {
	case err != nil:
		r.logger.Error("weeks: load failed, using defaults",
			slog.String("key", r.key), slog.String("error", err.Error()))
		r.weeks = r.tpl.Collection(r.count)

	case !found:
		r.weeks = r.tpl.Collection(r.count)
		r.logger.Info("weeks: no stored collection, created defaults", slog.Int("count", len(r.weeks)))
		if err := r.saveLocked(ctx); err != nil {
			r.logger.Error("weeks: persist defaults failed", slog.String("error", err.Error()))
		}

	default:
		loaded, decErr := decode([]byte(value))
		if decErr != nil {
			r.logger.Error("weeks: stored collection is malformed, using defaults",
				slog.String("key", r.key), slog.String("error", decErr.Error()))
			r.weeks = r.tpl.Collection(r.count)
			break
		}
		r.weeks = loaded
		r.persisted = checksum.Sum([]byte(value))
		r.logger.Debug("weeks: loaded", slog.Int("count", len(r.weeks)))
	}

	return cloneAll(r.weeks)
}

// Save writes the full collection under the fixed key. A failure leaves the
// in-memory collection untouched so the save can be retried.
func (r *Repository) Save(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.saveLocked(ctx)
}

func (r *Repository) saveLocked(ctx context.Context) error {
	data, err := json.Marshal(r.weeks)
	if err != nil {
		return fmt.Errorf("%w: encode: %v", apperr.ErrPersist, err)
	}
	if err := r.store.Set(ctx, r.key, string(data)); err != nil {
		return fmt.Errorf("%w: %w", apperr.ErrPersist, err)
	}
	r.persisted = checksum.Sum(data)
	return nil
}

// Update replaces the editable fields of the week at index.
func (r *Repository) Update(index int, f models.Fields) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.checkIndex(index); err != nil {
		return err
	}
	r.weeks[index].Apply(f)
	return nil
}

// Reset replaces the week at index with a default week keeping its number.
func (r *Repository) Reset(index int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.checkIndex(index); err != nil {
		return err
	}
	r.weeks[index] = r.tpl.Week(r.weeks[index].Number)
	return nil
}

// Get returns a copy of the week at index.
func (r *Repository) Get(index int) (models.Week, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.checkIndex(index); err != nil {
		return models.Week{}, err
	}
	return r.weeks[index].Clone(), nil
}

// All returns a copy of the collection in order.
func (r *Repository) All() []models.Week {
	r.mu.Lock()
	defer r.mu.Unlock()
	return cloneAll(r.weeks)
}

// Len returns the collection length.
func (r *Repository) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.weeks)
}

// Checksum returns the digest of the current in-memory collection.
func (r *Repository) Checksum() string {
	data, _ := r.Export()
	return checksum.Sum(data)
}

// PersistedChecksum returns the digest of the blob last read from or written
// to the store, or "" if nothing has been persisted yet.
func (r *Repository) PersistedChecksum() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.persisted
}

// Export returns the serialized collection exactly as it would be stored.
func (r *Repository) Export() ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	data, err := json.Marshal(r.weeks)
	if err != nil {
		return nil, fmt.Errorf("weeks: encode: %w", err)
	}
	return data, nil
}

// Import copies titles, subtitles, descriptions, tags, links and badges from a
// serialized collection. The blob must hold the same weeks, by number and in
// order, as the current collection; otherwise nothing changes.
func (r *Repository) Import(data []byte) error {
	incoming, err := decode(data)
	if err != nil {
		return fmt.Errorf("%w: %v", apperr.ErrInvalid, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if len(incoming) != len(r.weeks) {
		return fmt.Errorf("%w: expected %d weeks, got %d", apperr.ErrInvalid, len(r.weeks), len(incoming))
	}
	for i := range incoming {
		w := &incoming[i]
		err := validation.ValidateStruct(w,
			validation.Field(&w.Number, validation.Required,
				validation.In(r.weeks[i].Number).Error("must be "+r.weeks[i].Number)),
		)
		if err != nil {
			return fmt.Errorf("%w: week %d: %v", apperr.ErrInvalid, i, err)
		}
	}

	for i, w := range incoming {
		r.weeks[i].Apply(w.Fields())
		r.weeks[i].Badge = w.Badge
		if r.weeks[i].Badge == "" {
			r.weeks[i].Badge = r.tpl.Badge
		}
	}
	return nil
}

// Template returns the template used for default weeks.
func (r *Repository) Template() models.Template {
	return r.tpl
}

func (r *Repository) checkIndex(index int) error {
	if index < 0 || index >= len(r.weeks) {
		return fmt.Errorf("%w: week index %d (have %d)", apperr.ErrNotFound, index, len(r.weeks))
	}
	return nil
}

// decode parses a stored blob. A JSON null is treated as malformed.
func decode(data []byte) ([]models.Week, error) {
	var out []models.Week
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	if out == nil {
		return nil, fmt.Errorf("collection is null")
	}
	for i := range out {
		out[i].Normalize()
	}
	return out, nil
}

func cloneAll(in []models.Week) []models.Week {
	out := make([]models.Week, len(in))
	for i, w := range in {
		out[i] = w.Clone()
	}
	return out
}
