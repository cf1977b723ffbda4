// Package public maintains the group of handlers for public access.
package public

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"
	"github.com/mathledger/mathledger/business/web/errs"
	"github.com/mathledger/mathledger/foundation/events"
	"github.com/mathledger/mathledger/foundation/ledger/database"
	"github.com/mathledger/mathledger/foundation/ledger/state"
	"github.com/mathledger/mathledger/foundation/web"
	"go.uber.org/zap"
)

// Handlers manages the set of public endpoints.
type Handlers struct {
	Log   *zap.SugaredLogger
	State *state.State
	WS    websocket.Upgrader
	Evts  *events.Events
}

// New constructs the public handlers.
func New(log *zap.SugaredLogger, st *state.State, evts *events.Events) Handlers {
	return Handlers{
		Log:   log,
		State: st,
		Evts:  evts,
	}
}

// Events handles a web socket to provide events to a client.
func (h Handlers) Events(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	h.WS.CheckOrigin = func(r *http.Request) bool { return true }

	c, err := h.WS.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	defer c.Close()

	ch := h.Evts.Acquire(v.TraceID)
	defer h.Evts.Release(v.TraceID)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case msg, wd := <-ch:
			if !wd {
				return nil
			}

			if err := c.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
				return err
			}

		case <-ticker.C:
			if err := c.WriteMessage(websocket.PingMessage, []byte("ping")); err != nil {
				return nil
			}
		}
	}
}

// Genesis returns the chain parameters.
func (h Handlers) Genesis(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	gen := h.State.Genesis()
	return web.Respond(ctx, w, gen, http.StatusOK)
}

// SubmitWork accepts a signed work claim for validation and consensus.
func (h Handlers) SubmitWork(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var req submitWorkRequest
	if err := web.Decode(r, &req); err != nil {
		return err
	}

	sw, err := req.toSignedWork()
	if err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	item, err := h.State.SubmitWork(sw)
	if err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	_, verdict, err := h.State.QueryWorkItem(item.ID)
	if err != nil {
		return err
	}

	return web.Respond(ctx, w, toWorkResponse(item, verdict), http.StatusCreated)
}

// WorkItems returns all stored work items.
func (h Handlers) WorkItems(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	items := h.State.QueryWorkItems()

	resp := make([]workResponse, 0, len(items))
	for _, item := range items {
		_, verdict, err := h.State.QueryWorkItem(item.ID)
		if err != nil {
			continue
		}
		resp = append(resp, toWorkResponse(item, verdict))
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// WorkItem returns one work item with its verdict.
func (h Handlers) WorkItem(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	id := web.Param(r, "id")

	item, verdict, err := h.State.QueryWorkItem(id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return errs.NewTrusted(err, http.StatusNotFound)
		}
		return err
	}

	return web.Respond(ctx, w, toWorkResponse(item, verdict), http.StatusOK)
}

// Tally returns the current consensus tally for a work item.
func (h Handlers) Tally(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	id := web.Param(r, "id")

	tally, err := h.State.QueryTally(id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return errs.NewTrusted(err, http.StatusNotFound)
		}
		return err
	}

	return web.Respond(ctx, w, tally, http.StatusOK)
}

// SecurityReport returns the composite security report for a work item.
func (h Handlers) SecurityReport(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	id := web.Param(r, "id")

	report, err := h.State.QuerySecurityReport(id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return errs.NewTrusted(err, http.StatusNotFound)
		}
		return err
	}

	return web.Respond(ctx, w, report, http.StatusOK)
}

// FraudReport runs fraud detection on a work item.
func (h Handlers) FraudReport(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	id := web.Param(r, "id")

	report, err := h.State.QueryFraudReport(id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return errs.NewTrusted(err, http.StatusNotFound)
		}
		return err
	}

	return web.Respond(ctx, w, report, http.StatusOK)
}

// SubmitVote records one staker's verdict on a work item.
func (h Handlers) SubmitVote(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var req submitVoteRequest
	if err := web.Decode(r, &req); err != nil {
		return err
	}

	if err := h.State.SubmitVote(req.WorkID, req.StakerID, database.VoteStatus(req.Status)); err != nil {
		switch {
		case errors.Is(err, database.ErrNotFound), errors.Is(err, state.ErrUnknownStaker):
			return errs.NewTrusted(err, http.StatusBadRequest)
		}
		return err
	}

	resp := struct {
		Status string `json:"status"`
	}{
		Status: "vote recorded",
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Stakers returns the active staker set.
func (h Handlers) Stakers(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.State.QueryStakers(), http.StatusOK)
}

// Blocks returns the most recent blocks.
func (h Handlers) Blocks(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	limit := queryLimit(r, 10)

	blocks, err := h.State.QueryRecentBlocks(limit)
	if err != nil {
		return err
	}

	return web.Respond(ctx, w, blocks, http.StatusOK)
}

// AuditRecords returns the most recent audit ledger entries.
func (h Handlers) AuditRecords(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	limit := queryLimit(r, 50)

	return web.Respond(ctx, w, h.State.QueryRecentAuditRecords(limit), http.StatusOK)
}

// AggregateValue returns the diminishing-returns adjusted total value of
// all stored work.
func (h Handlers) AggregateValue(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.State.QueryAggregateValue(), http.StatusOK)
}

// queryLimit parses the limit query parameter with a fallback.
func queryLimit(r *http.Request, fallback int) int {
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}

	return fallback
}
