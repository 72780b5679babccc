package devfsm

// Result is a participant's terminal outcome, reported to whatever drove
// this machine (the transaction coordinator, internal/txn) so it can apply
// the aggregation rule in spec.md §4.4.
type Result int

const (
	// ResultSuccess: the operation completed and, where applicable, was
	// committed.
	ResultSuccess Result = iota
	// ResultFailed: a semantic reject from the device (e.g. validate
	// failure) — not a transport or protocol problem.
	ResultFailed
	// ResultError: a protocol or transport failure (timeout, EOF,
	// malformed message, schema parse failure).
	ResultError
)

func (r Result) String() string {
	switch r {
	case ResultSuccess:
		return "SUCCESS"
	case ResultFailed:
		return "FAILED"
	case ResultError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Reporter receives a participant's terminal outcome. internal/txn
// implements this to fold per-device results into a transaction's
// aggregate (spec.md §4.4: "report(tid, device, outcome)").
type Reporter interface {
	Report(device string, result Result, reason string)
}

// NopReporter discards outcomes — used when a Machine is driven outside any
// transaction (e.g. an operator-triggered reconnect).
type NopReporter struct{}

func (NopReporter) Report(string, Result, string) {}
