package worker

import (
	"context"
	"errors"
	"time"

	"github.com/mathledger/mathledger/foundation/ledger/state"
)

// assemblyTimeout bounds a single block assembly, covering the nonce
// search. The search has its own iteration ceiling; the timeout is the
// outer guard.
const assemblyTimeout = 2 * time.Minute

// assemblyOperations handles sealing accepted work into blocks.
func (w *Worker) assemblyOperations() {
	w.evHandler("worker: assemblyOperations: G started")
	defer w.evHandler("worker: assemblyOperations: G completed")

	for {
		select {
		case <-w.startAssembly:
			if !w.isShutdown() {
				w.runAssemblyOperation()
			}
		case <-w.shut:
			w.evHandler("worker: assemblyOperations: received shut signal")
			return
		}
	}
}

// runAssemblyOperation seals one block from the accepted work queue.
func (w *Worker) runAssemblyOperation() {
	w.evHandler("worker: runAssemblyOperation: SEALING: started")
	defer w.evHandler("worker: runAssemblyOperation: SEALING: completed")

	// After sealing, check whether enough work is already waiting for
	// another block.
	defer func() {
		if w.state.AssemblyReady() {
			w.SignalStartAssembly()
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), assemblyTimeout)
	defer cancel()

	t := time.Now()
	block, err := w.state.AssembleBlock(ctx)
	duration := time.Since(t)

	w.evHandler("worker: runAssemblyOperation: SEALING: duration[%v]", duration)

	if err != nil {
		switch {
		case errors.Is(err, state.ErrNoAcceptedWork):
			w.evHandler("worker: runAssemblyOperation: SEALING: WARNING: no accepted work")
		default:
			w.evHandler("worker: runAssemblyOperation: SEALING: ERROR: %s", err)
		}
		return
	}

	w.evHandler("worker: runAssemblyOperation: SEALING: blk[%d] works[%d]", block.Index, len(block.WorkRefs))
}
