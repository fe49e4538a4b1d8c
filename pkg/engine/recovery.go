package engine

import (
	"io"
	"log/slog"
	"sync"
	"time"
)

// RecoveryEvent records one recovery-sync advisory the bank reported for a
// transaction.
type RecoveryEvent struct {
	TransactionID string
	ReturnCode    string
	ReportText    string
	ObservedAt    time.Time
}

// RecoveryLog is a bounded, thread-safe record of recovery-sync advisories
// seen across transactions, kept for operator inspection. It drives no
// retry or duplicate-detection logic: EBICS recovery is a bank-operated
// protocol the client only needs to surface, never act on automatically.
type RecoveryLog struct {
	mu     sync.Mutex
	events []RecoveryEvent
	log    *slog.Logger
}

// NewRecoveryLog creates an empty log. A nil logger disables logging.
func NewRecoveryLog(log *slog.Logger) *RecoveryLog {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &RecoveryLog{log: log}
}

// Record appends a recovery-sync advisory and emits a warning log line.
func (r *RecoveryLog) Record(transactionID, returnCode, reportText string) {
	event := RecoveryEvent{
		TransactionID: transactionID,
		ReturnCode:    returnCode,
		ReportText:    reportText,
		ObservedAt:    time.Now(),
	}
	r.mu.Lock()
	r.events = append(r.events, event)
	r.mu.Unlock()

	r.log.Warn("ebics recovery-sync advisory",
		"transaction_id", transactionID,
		"return_code", returnCode,
		"report_text", reportText,
	)
}

// Events returns a snapshot of every advisory recorded so far.
func (r *RecoveryLog) Events() []RecoveryEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]RecoveryEvent, len(r.events))
	copy(out, r.events)
	return out
}
