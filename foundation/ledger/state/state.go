// Package state is the core API for the work ledger and implements all the
// business rules and processing.
package state

import (
	"sync"

	"github.com/mathledger/mathledger/foundation/ledger/consensus"
	"github.com/mathledger/mathledger/foundation/ledger/database"
	"github.com/mathledger/mathledger/foundation/ledger/discovery"
	"github.com/mathledger/mathledger/foundation/ledger/engines"
	"github.com/mathledger/mathledger/foundation/ledger/genesis"
	"github.com/mathledger/mathledger/foundation/ledger/router"
	"github.com/mathledger/mathledger/foundation/ledger/valuation"
)

// EventHandler defines a function that is called when events occur in the
// processing of work and blocks.
type EventHandler func(v string, args ...any)

// Worker interface represents the behavior required to be implemented by
// any package providing support for block assembly and audit cycles.
type Worker interface {
	Shutdown()
	SignalStartAssembly()
	SignalAuditCycle()
}

// =============================================================================

// Config represents the configuration required to start the ledger node.
type Config struct {
	MinerID   string
	Genesis   genesis.Genesis
	Storage   *database.Store
	EvHandler EventHandler
}

// State manages the work ledger.
type State struct {
	mu sync.Mutex

	minerID   string
	genesis   genesis.Genesis
	evHandler EventHandler

	storage   *database.Store
	router    *router.Router
	valuer    *valuation.Engine
	auditor   *consensus.Auditor
	discovery *discovery.Engine

	// Accepted work waiting to be sealed into a block, in acceptance order.
	pending []string

	Worker Worker
}

// New constructs the state for ledger management.
func New(cfg Config) (*State, error) {
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	catalog := engines.New(0)

	rtr := router.New(router.Config{
		Catalog:   catalog,
		Threshold: cfg.Genesis.RealThreshold,
		EvHandler: router.EventHandler(ev),
	})

	auditor := consensus.New(consensus.Config{
		Storage:   cfg.Storage,
		Threshold: cfg.Genesis.ConsensusThreshold,
		EvHandler: consensus.EventHandler(ev),
	})

	s := State{
		minerID:   cfg.MinerID,
		genesis:   cfg.Genesis,
		evHandler: ev,
		storage:   cfg.Storage,
		router:    rtr,
		valuer:    valuation.New(cfg.Genesis.ComputeRate, cfg.Genesis.EnergyRate),
		auditor:   auditor,
		discovery: discovery.New(cfg.Storage),
	}

	// Seed the staker set from genesis.
	for id, stake := range cfg.Genesis.Stakes {
		cfg.Storage.UpsertStaker(database.Staker{
			ID:          id,
			StakeAmount: stake,
		})
	}

	// The Worker is not set here. The call to worker.Run will assign
	// itself and start everything up and running for the node.

	return &s, nil
}

// Shutdown cleanly brings the node down.
func (s *State) Shutdown() error {
	defer func() {
		s.storage.Close()
	}()

	if s.Worker != nil {
		s.Worker.Shutdown()
	}

	return nil
}

// Genesis returns a copy of the genesis information.
func (s *State) Genesis() genesis.Genesis {
	return s.genesis
}

// MinerID returns the account sealing blocks on this node.
func (s *State) MinerID() string {
	return s.minerID
}
