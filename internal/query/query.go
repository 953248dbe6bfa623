// Package query fans a user query out to the three experts and records the
// outcome.
package query

import (
	"context"
	"log"
	"sync"

	"github.com/jeefy/llmmoe/internal/expert"
	"github.com/jeefy/llmmoe/internal/models"
	"github.com/jeefy/llmmoe/internal/store"
)

// StorageError reports that the answers were obtained but could not be
// persisted. The answers are discarded with it.
type StorageError struct {
	Err error
}

func (e *StorageError) Error() string { return e.Err.Error() }
func (e *StorageError) Unwrap() error { return e.Err }

// Handler is built once at start-up and shared by all requests.
type Handler struct {
	store   store.Store
	experts [3]expert.Expert
}

func New(st store.Store, experts [3]expert.Expert) *Handler {
	return &Handler{store: st, experts: experts}
}

// Experts returns the configured experts in response order.
func (h *Handler) Experts() [3]expert.Expert { return h.experts }

// Handle asks every expert, persists one record and returns the aggregate.
// A failing expert never fails the call; a failing insert always does.
// Cancellation of ctx is ignored: once started, the request runs to the
// insert.
func (h *Handler) Handle(ctx context.Context, q string) (*models.QueryResponse, error) {
	ctx = context.WithoutCancel(ctx)
	answers := h.askAll(ctx, q)

	rec := models.NewRecord(q, answers[0].Display(), answers[1].Display(), answers[2].Display())
	if _, err := h.store.InsertResponse(ctx, rec); err != nil {
		log.Printf("Database Error: %v", err)
		return nil, &StorageError{Err: err}
	}

	return &models.QueryResponse{
		Query:           q,
		Expert1Response: models.Text(rec.Expert1Response),
		Expert2Response: models.Text(rec.Expert2Response),
		Expert3Response: models.Text(rec.Expert3Response),
	}, nil
}

// askAll issues the three calls concurrently and waits for all of them.
func (h *Handler) askAll(ctx context.Context, q string) [3]expert.Answer {
	var (
		answers [3]expert.Answer
		wg      sync.WaitGroup
	)
	for i, e := range h.experts {
		wg.Add(1)
		go func(i int, e expert.Expert) {
			defer wg.Done()
			answers[i] = expert.Ask(ctx, e, q)
		}(i, e)
	}
	wg.Wait()
	return answers
}
