// Package sideeffect records best-effort steps that run after the primary
// write of a ledger operation.
package sideeffect

import (
	"gymdesk/internal/apperr"
	"gymdesk/internal/logger"
	"gymdesk/internal/metrics"
)

// Note adds err to w under op, logs it and counts it. A nil err is ignored.
func Note(w *apperr.Warnings, op string, err error) {
	if err == nil {
		return
	}
	logger.Warn("side effect failed", "op", op, "error", err)
	metrics.RecordSideEffectFailure(op)
	w.Add(op, err)
}
