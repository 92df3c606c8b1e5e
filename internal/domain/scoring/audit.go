package scoring

import (
	"context"
	"time"

	"github.com/turtacn/InstallBase-Insight/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/InstallBase-Insight/pkg/types/common"
)

// AuditEntry records everything needed to reconstruct one scoring decision:
// inputs, model weights, component contributions, and the outcome.
type AuditEntry struct {
	RunID        common.ID        `json:"run_id"`
	LeadID       common.ID        `json:"lead_id"`
	RecordID     string           `json:"record_id"`
	AccountID    common.AccountID `json:"account_id"`
	MatchTier    string           `json:"match_tier"`
	ValueBasis   string           `json:"value_basis"`
	UrgencyBasis UrgencyBasis     `json:"urgency_basis"`
	Result       Result           `json:"result"`
	ScoredAt     time.Time        `json:"scored_at"`
}

// AuditSink receives one entry per scored lead.  Sinks must be safe for
// concurrent use; the pipeline calls them from every worker.
type AuditSink interface {
	Record(ctx context.Context, entry AuditEntry)
}

// logAuditSink writes audit entries as structured log lines, the default
// audit destination when no external store is configured.
type logAuditSink struct {
	logger logging.Logger
}

// NewLogAuditSink returns a sink that logs each entry at Info level.
func NewLogAuditSink(logger logging.Logger) AuditSink {
	return &logAuditSink{logger: logger.Named("audit")}
}

func (s *logAuditSink) Record(_ context.Context, entry AuditEntry) {
	s.logger.Info("lead scored",
		logging.String("run_id", string(entry.RunID)),
		logging.String("lead_id", string(entry.LeadID)),
		logging.String("record_id", entry.RecordID),
		logging.String("account_id", string(entry.AccountID)),
		logging.String("match_tier", entry.MatchTier),
		logging.String("value_basis", entry.ValueBasis),
		logging.Int("days_past_eol", entry.UrgencyBasis.DaysPastEOL),
		logging.Any("days_to_support_expiry", entry.UrgencyBasis.DaysToSupportExpiry),
		logging.Float64("urgency", entry.Result.Subscores.Urgency),
		logging.Float64("value", entry.Result.Subscores.Value),
		logging.Float64("propensity", entry.Result.Subscores.Propensity),
		logging.Float64("strategic_fit", entry.Result.Subscores.StrategicFit),
		logging.Float64("overall", entry.Result.Overall),
		logging.String("priority", string(entry.Result.Priority)),
	)
}

// nopAuditSink discards entries, for tests and tools that do not audit.
type nopAuditSink struct{}

// NewNopAuditSink returns a sink that drops every entry.
func NewNopAuditSink() AuditSink { return nopAuditSink{} }

func (nopAuditSink) Record(context.Context, AuditEntry) {}
