// Package private maintains the group of handlers for node administration
// access.
package private

import (
	"context"
	"crypto/ecdsa"
	"net/http"

	"github.com/mathledger/mathledger/business/web/errs"
	"github.com/mathledger/mathledger/foundation/ledger/state"
	"github.com/mathledger/mathledger/foundation/ledger/work"
	"github.com/mathledger/mathledger/foundation/web"
	"go.uber.org/zap"
)

// Handlers manages the set of node administration endpoints.
type Handlers struct {
	Log     *zap.SugaredLogger
	State   *state.State
	NodeKey *ecdsa.PrivateKey
}

// ProduceWork runs a computation on this node and submits the signed result
// through the regular acceptance flow.
func (h Handlers) ProduceWork(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var req struct {
		Type       string `json:"type" validate:"required"`
		Difficulty int    `json:"difficulty" validate:"required,gte=1"`
	}
	if err := web.Decode(r, &req); err != nil {
		return err
	}

	item, err := h.State.ProduceWork(ctx, work.Type(req.Type), req.Difficulty, h.NodeKey)
	if err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	return web.Respond(ctx, w, item, http.StatusCreated)
}

// SignalAssembly asks the worker to seal a block from the accepted work
// queue.
func (h Handlers) SignalAssembly(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	h.State.Worker.SignalStartAssembly()

	resp := struct {
		Status string `json:"status"`
	}{
		Status: "assembly signaled",
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// SignalAudit asks the worker to run a backfill pass now.
func (h Handlers) SignalAudit(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	h.State.Worker.SignalAuditCycle()

	resp := struct {
		Status string `json:"status"`
	}{
		Status: "audit cycle signaled",
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}
