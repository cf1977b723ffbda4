package worker

// auditOperations handles the periodic audit backfill cycle. The cycle also
// runs on demand through SignalAuditCycle, which is the path tests use
// instead of waiting on the ticker.
func (w *Worker) auditOperations() {
	w.evHandler("worker: auditOperations: G started")
	defer w.evHandler("worker: auditOperations: G completed")

	for {
		select {
		case <-w.ticker.C:
			if !w.isShutdown() {
				w.runAuditOperation()
			}
		case <-w.auditCycle:
			if !w.isShutdown() {
				w.runAuditOperation()
			}
		case <-w.shut:
			w.evHandler("worker: auditOperations: received shut signal")
			return
		}
	}
}

// runAuditOperation performs one backfill pass over the vote ledger.
func (w *Worker) runAuditOperation() {
	w.evHandler("worker: runAuditOperation: AUDIT: started")
	defer w.evHandler("worker: runAuditOperation: AUDIT: completed")

	if err := w.state.RunAuditCycle(); err != nil {
		w.evHandler("worker: runAuditOperation: AUDIT: ERROR: %s", err)
	}
}
