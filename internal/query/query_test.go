package query

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jeefy/llmmoe/internal/expert"
	"github.com/jeefy/llmmoe/internal/models"
	"github.com/jeefy/llmmoe/internal/store"
)

type fakeExpert struct {
	name  string
	reply string
	err   error
	delay time.Duration
	// before runs at the start of Respond
	before func()
}

func (f *fakeExpert) Name() string  { return f.name }
func (f *fakeExpert) Model() string { return "fake" }
func (f *fakeExpert) Respond(ctx context.Context, prompt string) (string, error) {
	if f.before != nil {
		f.before()
	}
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

// failingStore rejects every insert.
type failingStore struct {
	store.Store
	mu      sync.Mutex
	inserts int
}

func (f *failingStore) InsertResponse(ctx context.Context, r *models.ResponseRecord) (int64, error) {
	f.mu.Lock()
	f.inserts++
	f.mu.Unlock()
	return 0, errors.New("disk I/O error")
}

func pongExperts() [3]expert.Expert {
	return [3]expert.Expert{
		&fakeExpert{name: "OpenAI", reply: "pong-A"},
		&fakeExpert{name: "Anthropic", reply: "pong-B"},
		&fakeExpert{name: "xAI", reply: "pong-C"},
	}
}

func TestHandlePersistsOneRecord(t *testing.T) {
	st := store.NewMemory()
	h := New(st, pongExperts())

	resp, err := h.Handle(context.Background(), "ping")
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	want := models.QueryResponse{Query: "ping", Expert1Response: "pong-A", Expert2Response: "pong-B", Expert3Response: "pong-C"}
	if *resp != want {
		t.Fatalf("unexpected response %+v", resp)
	}
	list, _ := st.ListResponses(context.Background(), 10)
	if len(list) != 1 {
		t.Fatalf("expected 1 record, got %d", len(list))
	}
	rec := list[0]
	if rec.Query != "ping" || models.Text(rec.Expert1Response) != "pong-A" ||
		models.Text(rec.Expert2Response) != "pong-B" || models.Text(rec.Expert3Response) != "pong-C" {
		t.Fatalf("stored record does not match response: %+v", rec)
	}
}

func TestHandleExpertFailureIsEmbedded(t *testing.T) {
	experts := pongExperts()
	experts[1] = &fakeExpert{name: "Anthropic", err: errors.New("overloaded")}
	st := store.NewMemory()
	h := New(st, experts)

	resp, err := h.Handle(context.Background(), "ping")
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if !strings.HasPrefix(resp.Expert2Response, "Anthropic") || !strings.Contains(resp.Expert2Response, "Error") {
		t.Fatalf("expected substituted error text, got %q", resp.Expert2Response)
	}
	if resp.Expert1Response != "pong-A" || resp.Expert3Response != "pong-C" {
		t.Fatalf("other experts should be unaffected: %+v", resp)
	}
	list, _ := st.ListResponses(context.Background(), 10)
	if len(list) != 1 || models.Text(list[0].Expert2Response) != resp.Expert2Response {
		t.Fatalf("expected error text to be persisted, got %+v", list)
	}
}

func TestHandleAllExpertsFail(t *testing.T) {
	experts := [3]expert.Expert{
		&fakeExpert{name: "OpenAI", err: errors.New("a")},
		&fakeExpert{name: "Anthropic", err: errors.New("b")},
		&fakeExpert{name: "xAI", err: errors.New("c")},
	}
	resp, err := New(store.NewMemory(), experts).Handle(context.Background(), "ping")
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	for i, got := range []string{resp.Expert1Response, resp.Expert2Response, resp.Expert3Response} {
		if !strings.HasPrefix(got, experts[i].Name()) || !strings.Contains(got, "Error") {
			t.Fatalf("expert %d: unexpected text %q", i+1, got)
		}
	}
}

func TestHandleStorageFailure(t *testing.T) {
	fs := &failingStore{Store: store.NewMemory()}
	h := New(fs, pongExperts())

	resp, err := h.Handle(context.Background(), "ping")
	if resp != nil {
		t.Fatalf("expected no response on storage failure, got %+v", resp)
	}
	var se *StorageError
	if !errors.As(err, &se) {
		t.Fatalf("expected StorageError, got %v", err)
	}
	if fs.inserts != 1 {
		t.Fatalf("expected exactly one insert attempt, got %d", fs.inserts)
	}
}

func TestHandleAsksExpertsConcurrently(t *testing.T) {
	delay := 150 * time.Millisecond
	experts := [3]expert.Expert{
		&fakeExpert{name: "OpenAI", reply: "a", delay: delay},
		&fakeExpert{name: "Anthropic", reply: "b", delay: delay},
		&fakeExpert{name: "xAI", reply: "c", delay: delay},
	}
	start := time.Now()
	resp, err := New(store.NewMemory(), experts).Handle(context.Background(), "ping")
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if elapsed := time.Since(start); elapsed >= 3*delay {
		t.Fatalf("expected concurrent fan-out, took %v", elapsed)
	}
	// order follows the expert slots, not completion order
	if resp.Expert1Response != "a" || resp.Expert2Response != "b" || resp.Expert3Response != "c" {
		t.Fatalf("unexpected ordering %+v", resp)
	}
}

func TestHandleIgnoresCallerCancellation(t *testing.T) {
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "database.db"))
	if err != nil {
		t.Fatalf("new sqlite: %v", err)
	}
	defer st.Close()
	if err := st.Init(context.Background()); err != nil {
		t.Fatalf("init: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var sawCanceled bool
	experts := pongExperts()
	experts[0].(*fakeExpert).before = cancel
	wrapped := &ctxCheckExpert{Expert: experts[1], canceled: &sawCanceled}
	experts[1] = wrapped

	resp, err := New(st, experts).Handle(ctx, "ping")
	if err != nil {
		t.Fatalf("handle after cancel: %v", err)
	}
	if resp.Expert1Response != "pong-A" || resp.Expert2Response != "pong-B" || resp.Expert3Response != "pong-C" {
		t.Fatalf("unexpected response %+v", resp)
	}
	if sawCanceled {
		t.Fatalf("expert saw a canceled context")
	}
	list, err := st.ListResponses(context.Background(), 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 || list[0].Query != "ping" {
		t.Fatalf("expected one stored row, got %+v", list)
	}
}

// ctxCheckExpert records whether its context was already done when called.
type ctxCheckExpert struct {
	expert.Expert
	canceled *bool
}

func (c *ctxCheckExpert) Respond(ctx context.Context, prompt string) (string, error) {
	time.Sleep(30 * time.Millisecond)
	if ctx.Err() != nil {
		*c.canceled = true
	}
	return c.Expert.Respond(ctx, prompt)
}
