// Package worker implements block assembly and periodic audit backfill for
// the ledger node.
package worker

import (
	"sync"
	"time"

	"github.com/mathledger/mathledger/foundation/ledger/state"
)

// defaultAuditInterval is how often the audit backfill cycle runs when no
// override is provided.
const defaultAuditInterval = time.Minute

// Worker manages the background workflows for the node.
type Worker struct {
	state         *state.State
	wg            sync.WaitGroup
	ticker        *time.Ticker
	shut          chan struct{}
	startAssembly chan bool
	auditCycle    chan bool
	evHandler     state.EventHandler
}

// WithAuditInterval overrides the audit cycle interval. Tests use short
// intervals; the trigger channel remains available either way.
func WithAuditInterval(d time.Duration) func(*Worker) {
	return func(w *Worker) {
		w.ticker = time.NewTicker(d)
	}
}

// Run creates a worker, registers the worker with the state package, and
// starts up all the background processes.
func Run(st *state.State, evHandler state.EventHandler, options ...func(*Worker)) *Worker {
	w := Worker{
		state:         st,
		ticker:        time.NewTicker(defaultAuditInterval),
		shut:          make(chan struct{}),
		startAssembly: make(chan bool, 1),
		auditCycle:    make(chan bool, 1),
		evHandler:     evHandler,
	}

	for _, option := range options {
		option(&w)
	}

	st.Worker = &w

	operations := []func(){
		w.assemblyOperations,
		w.auditOperations,
	}

	g := len(operations)
	w.wg.Add(g)

	hasStarted := make(chan bool)

	for _, op := range operations {
		go func(op func()) {
			defer w.wg.Done()
			hasStarted <- true
			op()
		}(op)
	}

	for i := 0; i < g; i++ {
		<-hasStarted
	}

	return &w
}

// =============================================================================
// These methods implement the state.Worker interface.

// Shutdown terminates the goroutines performing work.
func (w *Worker) Shutdown() {
	w.evHandler("worker: shutdown: started")
	defer w.evHandler("worker: shutdown: completed")

	w.ticker.Stop()
	close(w.shut)
	w.wg.Wait()
}

// SignalStartAssembly signals a block assembly operation. If a signal is
// already pending, just return since assembly will run.
func (w *Worker) SignalStartAssembly() {
	select {
	case w.startAssembly <- true:
	default:
	}
	w.evHandler("worker: SignalStartAssembly: assembly signaled")
}

// SignalAuditCycle triggers an immediate backfill pass.
func (w *Worker) SignalAuditCycle() {
	select {
	case w.auditCycle <- true:
	default:
	}
}

// =============================================================================

// isShutdown is used to test if a shutdown has been signaled.
func (w *Worker) isShutdown() bool {
	select {
	case <-w.shut:
		return true
	default:
		return false
	}
}
