// Package v1 contains the full set of handler functions and routes
// supported by the v1 web api.
package v1

import (
	"crypto/ecdsa"
	"net/http"

	"github.com/mathledger/mathledger/app/services/node/handlers/v1/private"
	"github.com/mathledger/mathledger/app/services/node/handlers/v1/public"
	"github.com/mathledger/mathledger/foundation/events"
	"github.com/mathledger/mathledger/foundation/ledger/state"
	"github.com/mathledger/mathledger/foundation/web"
	"go.uber.org/zap"
)

const version = "v1"

// Config contains all the mandatory systems required by handlers.
type Config struct {
	Log     *zap.SugaredLogger
	State   *state.State
	Evts    *events.Events
	NodeKey *ecdsa.PrivateKey
}

// PublicRoutes binds all the version 1 public routes.
func PublicRoutes(app *web.App, cfg Config) {
	pbl := public.New(cfg.Log, cfg.State, cfg.Evts)

	app.Handle(http.MethodGet, version, "/events", pbl.Events)
	app.Handle(http.MethodGet, version, "/genesis/list", pbl.Genesis)
	app.Handle(http.MethodPost, version, "/work/submit", pbl.SubmitWork)
	app.Handle(http.MethodGet, version, "/work/list", pbl.WorkItems)
	app.Handle(http.MethodGet, version, "/work/list/:id", pbl.WorkItem)
	app.Handle(http.MethodGet, version, "/work/tally/:id", pbl.Tally)
	app.Handle(http.MethodGet, version, "/work/security/:id", pbl.SecurityReport)
	app.Handle(http.MethodGet, version, "/work/fraud/:id", pbl.FraudReport)
	app.Handle(http.MethodPost, version, "/vote/submit", pbl.SubmitVote)
	app.Handle(http.MethodGet, version, "/stakers/list", pbl.Stakers)
	app.Handle(http.MethodGet, version, "/blocks/list", pbl.Blocks)
	app.Handle(http.MethodGet, version, "/audit/list", pbl.AuditRecords)
	app.Handle(http.MethodGet, version, "/value/aggregate", pbl.AggregateValue)
}

// PrivateRoutes binds all the version 1 private routes.
func PrivateRoutes(app *web.App, cfg Config) {
	prv := private.Handlers{
		Log:     cfg.Log,
		State:   cfg.State,
		NodeKey: cfg.NodeKey,
	}

	app.Handle(http.MethodPost, version, "/node/work/produce", prv.ProduceWork)
	app.Handle(http.MethodPost, version, "/node/assembly/signal", prv.SignalAssembly)
	app.Handle(http.MethodPost, version, "/node/audit/signal", prv.SignalAudit)
}
