package session_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/starford/weekboard/internal/apperr"
	"github.com/starford/weekboard/internal/codec"
	"github.com/starford/weekboard/internal/models"
	"github.com/starford/weekboard/internal/session"
	"github.com/starford/weekboard/internal/testutil"
	"github.com/starford/weekboard/internal/weeks"
)

type recorder struct {
	events []session.Event
}

func (r *recorder) Notify(e session.Event) { r.events = append(r.events, e) }

func seqIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("s%d", n)
	}
}

func newSession(t *testing.T) (*session.Session, *weeks.Repository, *testutil.MemoryStore, *recorder) {
	t.Helper()
	repo, store := testutil.LoadedRepo(t)
	rec := &recorder{}
	s := session.New(repo, session.WithNotifier(rec), session.WithIDFunc(seqIDs()))
	return s, repo, store, rec
}

func TestEndToEndEdit(t *testing.T) {
	s, repo, store, rec := newSession(t)
	ctx := context.Background()

	form, st, err := s.Open(3)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if !st.Open || st.Index != 3 || form.Number != "04" || form.Title != "Week 4" {
		t.Fatalf("open state = %+v, form = %+v", st, form)
	}

	form.Title = "Systems"
	form.Tags = "a, b, a"
	form.Links = "L1|u1\nbad-line\nL2|u2|video"
	got, err := s.Save(ctx, st.ID, form)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}

	want := models.Week{
		Number: "04",
		Title:  "Systems",
		Tags:   []string{"a", "b", "a"},
		Links: []models.Link{
			{Text: "L1", URL: "u1", Type: "link"},
			{Text: "L2", URL: "u2", Type: "video"},
		},
		Badge: models.DefaultBadge,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("saved week (-want +got):\n%s", diff)
	}
	if repo.Len() != models.DefaultCount {
		t.Errorf("collection length = %d", repo.Len())
	}

	raw, _ := store.Value(weeks.DefaultKey)
	var persisted []models.Week
	if err := json.Unmarshal([]byte(raw), &persisted); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(want, persisted[3]); diff != "" {
		t.Errorf("persisted week (-want +got):\n%s", diff)
	}
	if s.State().Open {
		t.Error("session should be closed after save")
	}
	if len(rec.events) != 1 || rec.events[0].Kind != session.EventSaved || rec.events[0].Message != session.MsgSaved {
		t.Errorf("events = %+v", rec.events)
	}
}

func TestOpen_OutOfRange(t *testing.T) {
	s, _, _, _ := newSession(t)
	if _, _, err := s.Open(99); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("Open(99) = %v", err)
	}
	if s.State().Open {
		t.Error("failed open must not open a session")
	}
}

func TestOpen_WhileOpenReplacesIndex(t *testing.T) {
	s, repo, _, _ := newSession(t)
	_, first, _ := s.Open(1)
	_, second, _ := s.Open(5)

	if second.Index != 5 || second.ID == first.ID {
		t.Fatalf("second open = %+v", second)
	}

	// The stale id is rejected; the current one targets index 5.
	if _, err := s.Save(context.Background(), first.ID, codec.Form{Title: "stale"}); !errors.Is(err, apperr.ErrConflict) {
		t.Errorf("stale save = %v, want ErrConflict", err)
	}
	if _, err := s.Save(context.Background(), "", codec.Form{Title: "current"}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	w1, _ := repo.Get(1)
	w5, _ := repo.Get(5)
	if w1.Title != "Week 2" || w5.Title != "current" {
		t.Errorf("week 1 = %q, week 5 = %q", w1.Title, w5.Title)
	}
}

func TestSave_WithoutSession(t *testing.T) {
	s, _, store, _ := newSession(t)
	sets := store.SetCount()
	if _, err := s.Save(context.Background(), "", codec.Form{}); !errors.Is(err, apperr.ErrNoSession) {
		t.Errorf("Save = %v, want ErrNoSession", err)
	}
	if store.SetCount() != sets {
		t.Error("nothing should be persisted")
	}
}

func TestSave_PersistFailureKeepsSessionOpen(t *testing.T) {
	s, repo, store, rec := newSession(t)
	ctx := context.Background()
	_, st, _ := s.Open(0)

	store.FailSets(errors.New("quota exceeded"))
	_, err := s.Save(ctx, st.ID, codec.Form{Title: "Retry me"})
	if !errors.Is(err, apperr.ErrPersist) {
		t.Fatalf("Save = %v, want ErrPersist", err)
	}
	if cur := s.State(); !cur.Open || cur.ID != st.ID {
		t.Errorf("session state after failure = %+v", cur)
	}
	if w, _ := repo.Get(0); w.Title != "Retry me" {
		t.Errorf("in-memory edit lost: %q", w.Title)
	}
	if len(rec.events) != 0 {
		t.Error("no event expected on failure")
	}

	store.FailSets(nil)
	if _, err := s.Save(ctx, st.ID, codec.Form{Title: "Retry me"}); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if s.State().Open {
		t.Error("session should close after successful retry")
	}
}

func TestDelete_RequiresConfirmation(t *testing.T) {
	s, repo, store, _ := newSession(t)
	ctx := context.Background()
	_ = repo.Update(2, models.Fields{Title: "Keep"})
	_, st, _ := s.Open(2)
	sets := store.SetCount()

	if _, err := s.Delete(ctx, st.ID, false); !errors.Is(err, apperr.ErrNotConfirmed) {
		t.Fatalf("Delete unconfirmed = %v", err)
	}
	if w, _ := repo.Get(2); w.Title != "Keep" {
		t.Error("unconfirmed delete changed the week")
	}
	if store.SetCount() != sets || !s.State().Open {
		t.Error("unconfirmed delete must not persist or close")
	}
}

func TestDelete_ResetsAndPersists(t *testing.T) {
	s, repo, store, rec := newSession(t)
	ctx := context.Background()
	_ = repo.Update(2, models.Fields{Title: "Custom", Tags: []string{"x"}})
	_, st, _ := s.Open(2)

	got, err := s.Delete(ctx, st.ID, true)
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	want := models.DefaultTemplate().Week("03")
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("reset week (-want +got):\n%s", diff)
	}
	raw, _ := store.Value(weeks.DefaultKey)
	var persisted []models.Week
	_ = json.Unmarshal([]byte(raw), &persisted)
	if persisted[2].Title != "Week 3" {
		t.Errorf("persisted title = %q", persisted[2].Title)
	}
	if len(rec.events) != 1 || rec.events[0].Kind != session.EventReset || rec.events[0].Number != "03" {
		t.Errorf("events = %+v", rec.events)
	}
	if s.State().Open {
		t.Error("session should close after delete")
	}
}

func TestCancel_DiscardsWithoutPersisting(t *testing.T) {
	s, repo, store, rec := newSession(t)
	_, _, _ = s.Open(4)
	sets := store.SetCount()

	st := s.Cancel()
	if st.Open || st != session.Closed {
		t.Errorf("state = %+v", st)
	}
	if store.SetCount() != sets || len(rec.events) != 0 {
		t.Error("cancel must not persist or notify")
	}
	if w, _ := repo.Get(4); w.Title != "Week 5" {
		t.Error("cancel changed the week")
	}
	if _, err := s.Save(context.Background(), "", codec.Form{}); !errors.Is(err, apperr.ErrNoSession) {
		t.Errorf("save after cancel = %v", err)
	}
}

func TestNotifierFunc(t *testing.T) {
	var got session.Event
	n := session.NotifierFunc(func(e session.Event) { got = e })
	n.Notify(session.Event{Kind: "k"})
	if got.Kind != "k" {
		t.Error("NotifierFunc did not forward")
	}
}
