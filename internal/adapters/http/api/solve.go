// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	queue "github.com/okian/cuju/internal/adapters/mq/queue"
	service "github.com/okian/cuju/internal/app"
)

// defaultResultBuffer bounds how many events a solve can have in flight
// before the HTTP handler's drain loop falls behind the worker.
const defaultResultBuffer = 8

// SolveDependencies is the dependency a solve handler needs: somewhere to
// hand off a compiled job for asynchronous processing.
type SolveDependencies interface {
	Enqueue(ctx context.Context, j queue.Job) bool
}

// SolveHandler handles POST /solve requests.
type SolveHandler struct {
	deps SolveDependencies
}

// NewSolveHandler creates a new solve handler.
func NewSolveHandler(deps SolveDependencies) *SolveHandler {
	return &SolveHandler{deps: deps}
}

// wireRecord is the envelope used to frame one of the three output record
// kinds (spec §6.2) over the wire. Framing itself is not part of the
// engine's contract; NDJSON is this server's choice.
type wireRecord struct {
	Type     string      `json:"type"`
	Progress interface{} `json:"progress,omitempty"`
	Complete interface{} `json:"complete,omitempty"`
	Error    interface{} `json:"error,omitempty"`
}

func toWireRecord(ev service.Event) wireRecord {
	switch {
	case ev.Progress != nil:
		return wireRecord{Type: "progress", Progress: ev.Progress}
	case ev.Complete != nil:
		return wireRecord{Type: "complete", Complete: ev.Complete}
	default:
		return wireRecord{Type: "error", Error: ev.Err}
	}
}

// HandleSolve handles POST /solve requests. The request body is decoded
// directly into a service.Request; the response is a stream of newline-
// delimited JSON records, one per Event, ending with the terminal record.
func (h *SolveHandler) HandleSolve(w http.ResponseWriter, r *http.Request) {
	const op = "api.solve"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	var req service.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	results := make(chan service.Event, defaultResultBuffer)
	job := queue.Job{Request: req, Results: results}
	if ok := h.deps.Enqueue(r.Context(), job); !ok {
		writeError(w, http.StatusTooManyRequests, "backpressure", NewKind(op, ErrBackpressure))
		return
	}

	w.Header().Set("Content-Type", "application/x-ndjson; charset=utf-8")
	w.WriteHeader(http.StatusOK)

	flusher, _ := w.(http.Flusher)
	enc := json.NewEncoder(w)
	ctx := r.Context()
	for {
		select {
		case ev, ok := <-results:
			if !ok {
				return
			}
			if err := enc.Encode(toWireRecord(ev)); err != nil {
				return
			}
			if flusher != nil {
				flusher.Flush()
			}
		case <-ctx.Done():
			return
		}
	}
}
