package metrics

import (
	"sync/atomic"

	"codereviewer/internal/api"
)

type Metrics struct {
	TotalRequests   uint64 `json:"total_requests"`
	TotalErrors     uint64 `json:"total_errors"`
	Executions      uint64 `json:"executions"`
	CompileFailures uint64 `json:"compile_failures"`
	RuntimeFailures uint64 `json:"runtime_failures"`
	InternalErrors  uint64 `json:"internal_errors"`
	Reviews         uint64 `json:"reviews"`
	ReviewFailures  uint64 `json:"review_failures"`
}

var (
	globalMetrics = &Metrics{}
)

func IncrementRequest() {
	atomic.AddUint64(&globalMetrics.TotalRequests, 1)
}

func IncrementError() {
	atomic.AddUint64(&globalMetrics.TotalErrors, 1)
}

func IncrementExecution(outcome api.Outcome) {
	atomic.AddUint64(&globalMetrics.Executions, 1)
	switch outcome {
	case api.OutcomeCompileFailure:
		atomic.AddUint64(&globalMetrics.CompileFailures, 1)
	case api.OutcomeRuntimeFailure:
		atomic.AddUint64(&globalMetrics.RuntimeFailures, 1)
	case api.OutcomeInternalError:
		atomic.AddUint64(&globalMetrics.InternalErrors, 1)
	}
}

func IncrementReview(failed bool) {
	atomic.AddUint64(&globalMetrics.Reviews, 1)
	if failed {
		atomic.AddUint64(&globalMetrics.ReviewFailures, 1)
	}
}

func GetMetrics() Metrics {
	return Metrics{
		TotalRequests:   atomic.LoadUint64(&globalMetrics.TotalRequests),
		TotalErrors:     atomic.LoadUint64(&globalMetrics.TotalErrors),
		Executions:      atomic.LoadUint64(&globalMetrics.Executions),
		CompileFailures: atomic.LoadUint64(&globalMetrics.CompileFailures),
		RuntimeFailures: atomic.LoadUint64(&globalMetrics.RuntimeFailures),
		InternalErrors:  atomic.LoadUint64(&globalMetrics.InternalErrors),
		Reviews:         atomic.LoadUint64(&globalMetrics.Reviews),
		ReviewFailures:  atomic.LoadUint64(&globalMetrics.ReviewFailures),
	}
}
