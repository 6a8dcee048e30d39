package metrics

// Pre-defined metrics for the parables EVM test harness. All metrics live in
// DefaultRegistry so they are globally accessible without passing a registry
// around.

var (
	// ---- Executor metrics ----

	// CallsExecuted counts calls and deploys applied against a World.
	CallsExecuted = DefaultRegistry.Counter("executor.calls_executed")
	// CallGasUsed counts total gas consumed across executed calls.
	CallGasUsed = DefaultRegistry.Counter("executor.gas_used")
	// CallDuration records per-call execution duration in milliseconds.
	CallDuration = DefaultRegistry.Histogram("executor.call_duration_ms")
	// CallsReverted counts calls that returned a Reverted outcome.
	CallsReverted = DefaultRegistry.Counter("executor.calls_reverted")
	// CallsFailed counts calls that returned a Failed (VM-fatal) outcome.
	CallsFailed = DefaultRegistry.Counter("executor.calls_failed")

	// ---- Snapshot metrics ----

	// SnapshotClones counts Snapshot.Get() calls (derived Evm instances produced).
	SnapshotClones = DefaultRegistry.Counter("snapshot.clones")
	// SnapshotOutstanding tracks derived Evm instances not yet released.
	SnapshotOutstanding = DefaultRegistry.Gauge("snapshot.outstanding")

	// ---- Ledger metrics ----

	// LedgerVerifications counts Ledger.Verify() calls.
	LedgerVerifications = DefaultRegistry.Counter("ledger.verifications")
	// LedgerMismatches counts addresses that failed verification.
	LedgerMismatches = DefaultRegistry.Counter("ledger.mismatches")

	// ---- Test runner metrics ----

	// TestsRun counts completed test closures.
	TestsRun = DefaultRegistry.Counter("runner.tests_run")
	// TestsPassed counts test closures that completed without failure.
	TestsPassed = DefaultRegistry.Counter("runner.tests_passed")
	// TestsFailed counts test closures reported as Failed.
	TestsFailed = DefaultRegistry.Counter("runner.tests_failed")
	// TestsPanicked counts test closures that panicked.
	TestsPanicked = DefaultRegistry.Counter("runner.tests_panicked")
	// TestDuration records per-test wall-clock duration in milliseconds.
	TestDuration = DefaultRegistry.Histogram("runner.test_duration_ms")
	// TestsRate tracks the 1/5/15-minute throughput of completed tests,
	// useful for spotting a worker pool that has stalled mid-run.
	TestsRate = NewMeter()
)
