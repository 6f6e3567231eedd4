package boardservice_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/starford/weekboard/internal/apperr"
	"github.com/starford/weekboard/internal/boardservice"
	"github.com/starford/weekboard/internal/checksum"
	"github.com/starford/weekboard/internal/codec"
	"github.com/starford/weekboard/internal/models"
	"github.com/starford/weekboard/internal/render"
	"github.com/starford/weekboard/internal/sse"
	"github.com/starford/weekboard/internal/testutil"
)

type published struct {
	kind string
	ev   sse.WeekEvent
}

type recorder struct {
	mu     sync.Mutex
	events []published
}

func (r *recorder) PublishWeekEvent(kind string, ev sse.WeekEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, published{kind, ev})
}

func (r *recorder) kinds() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, e := range r.events {
		out[i] = e.kind
	}
	return out
}

func newService(t *testing.T) (*boardservice.Service, *testutil.MemoryStore, *recorder) {
	t.Helper()
	repo, store := testutil.LoadedRepo(t)
	rec := &recorder{}
	svc := boardservice.New(repo, render.NewNav(), boardservice.WithPublisher(rec))
	return svc, store, rec
}

func TestSaveFlowPublishesEvent(t *testing.T) {
	svc, _, rec := newService(t)
	ctx := context.Background()

	opened, err := svc.Open(1)
	if err != nil {
		t.Fatal(err)
	}
	opened.Form.Title = "Concurrency"
	opened.Form.Tags = "go, channels"
	res, err := svc.Save(ctx, opened.State.ID, opened.Form)
	if err != nil {
		t.Fatal(err)
	}
	if res.Message != "Changes saved successfully" {
		t.Errorf("message = %q", res.Message)
	}
	if res.Week.Title != "Concurrency" || res.Week.Number != "02" {
		t.Errorf("week = %+v", res.Week)
	}
	if svc.Session().Open {
		t.Error("session still open after save")
	}
	kinds := rec.kinds()
	if len(kinds) != 1 || kinds[0] != sse.TypeWeekSaved {
		t.Errorf("events = %v", kinds)
	}
}

func TestBoardFilterKeepsIndexes(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()
	if _, err := svc.Edit(ctx, 5, codec.Form{Title: "Tagged", Tags: "go"}); err != nil {
		t.Fatal(err)
	}

	b := svc.Board("go")
	if len(b.Cards) != 1 || b.Cards[0].Index != 5 {
		t.Fatalf("cards = %+v", b.Cards)
	}
	if b.Active != "weeks" {
		t.Errorf("active = %q", b.Active)
	}
	if got := len(svc.Board("").Cards); got != models.DefaultCount {
		t.Errorf("unfiltered cards = %d", got)
	}
}

func TestResetWeekRequiresConfirmation(t *testing.T) {
	svc, store, _ := newService(t)
	ctx := context.Background()
	if _, err := svc.Edit(ctx, 0, codec.Form{Title: "Keep"}); err != nil {
		t.Fatal(err)
	}
	sets := store.SetCount()

	if _, err := svc.ResetWeek(ctx, 0, false); !errors.Is(err, apperr.ErrNotConfirmed) {
		t.Fatalf("err = %v, want ErrNotConfirmed", err)
	}
	if store.SetCount() != sets {
		t.Error("unconfirmed reset persisted")
	}

	res, err := svc.ResetWeek(ctx, 0, true)
	if err != nil {
		t.Fatal(err)
	}
	if res.Week.Title != "Week 1" {
		t.Errorf("title after reset = %q", res.Week.Title)
	}
}

func TestEditPersistFailureClosesSession(t *testing.T) {
	svc, store, _ := newService(t)
	store.FailSets(errors.New("disk full"))

	_, err := svc.Edit(context.Background(), 2, codec.Form{Title: "X"})
	if !errors.Is(err, apperr.ErrPersist) {
		t.Fatalf("err = %v, want ErrPersist", err)
	}
	if svc.Session().Open {
		t.Error("one-shot edit left a session open")
	}
}

func TestImportRoundTrip(t *testing.T) {
	src, _, _ := newService(t)
	ctx := context.Background()
	if _, err := src.Edit(ctx, 3, codec.Form{Title: "Exported", Links: "Doc|https://example.com"}); err != nil {
		t.Fatal(err)
	}
	snap, err := src.Export()
	if err != nil {
		t.Fatal(err)
	}

	dst, store, rec := newService(t)
	before, err := dst.Export()
	if err != nil {
		t.Fatal(err)
	}
	got, err := dst.Import(ctx, snap.Data, checksum.ETag(before.Checksum))
	if err != nil {
		t.Fatal(err)
	}
	if got.Checksum != snap.Checksum {
		t.Errorf("checksum after import = %s, want %s", got.Checksum, snap.Checksum)
	}
	w, _ := dst.Week(3)
	if w.Title != "Exported" || len(w.Links) != 1 {
		t.Errorf("imported week = %+v", w)
	}
	raw, _ := store.Value("weeks-data")
	var stored []models.Week
	if err := json.Unmarshal([]byte(raw), &stored); err != nil || stored[3].Title != "Exported" {
		t.Errorf("import not persisted: %v", err)
	}
	kinds := rec.kinds()
	if len(kinds) != 1 || kinds[0] != sse.TypeWeeksReloaded {
		t.Errorf("events = %v", kinds)
	}
}

func TestImportStaleIfMatch(t *testing.T) {
	svc, _, _ := newService(t)
	snap, err := svc.Export()
	if err != nil {
		t.Fatal(err)
	}
	_, err = svc.Import(context.Background(), snap.Data, `"stale"`)
	if !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("err = %v, want ErrConflict", err)
	}
}

func TestImportRejectsWrongShape(t *testing.T) {
	svc, _, _ := newService(t)
	_, err := svc.Import(context.Background(), []byte(`[{"number":"01"}]`), "")
	if !errors.Is(err, apperr.ErrInvalid) {
		t.Fatalf("err = %v, want ErrInvalid", err)
	}
}

func TestActivate(t *testing.T) {
	svc, _, _ := newService(t)
	sections, err := svc.Activate("about")
	if err != nil {
		t.Fatal(err)
	}
	for _, s := range sections {
		if s.Active != (s.ID == "about") {
			t.Errorf("section %s active = %v", s.ID, s.Active)
		}
	}
	if _, err := svc.Activate("missing"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}
