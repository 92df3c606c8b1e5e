package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/turtacn/InstallBase-Insight/internal/domain/lead"
	"github.com/turtacn/InstallBase-Insight/internal/infrastructure/database/postgres"
	"github.com/turtacn/InstallBase-Insight/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/InstallBase-Insight/pkg/errors"
	"github.com/turtacn/InstallBase-Insight/pkg/types/common"
)

type postgresLeadRepo struct {
	baseRepo
}

// NewPostgresLeadRepo returns the SQL-backed lead repository.
func NewPostgresLeadRepo(conn *postgres.Connection, log logging.Logger) lead.Repository {
	return &postgresLeadRepo{baseRepo: baseRepo{conn: conn, log: log.Named("lead_repo")}}
}

const leadColumns = `
	id, run_id, account_id, record_id, product_id, product_name,
	lead_type, tier, services, value_min, value_max, value_basis,
	benchmark_family, days_past_eol, days_to_support_expiry,
	subscores, overall, priority, created_at`

const insertLeadSQL = `
	INSERT INTO leads (
		id, run_id, account_id, record_id, product_id, product_name,
		lead_type, tier, services, value_min, value_max, value_basis,
		benchmark_family, days_past_eol, days_to_support_expiry,
		subscores, overall, priority, created_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`

const insertInsightSQL = `
	INSERT INTO account_insights (id, run_id, account_id, kind, detail, created_at)
	VALUES ($1, $2, $3, $4, $5, $6)`

// ReplaceAll swaps the stored lead set for the run's output inside one
// transaction.  Delete-then-insert is what makes re-runs idempotent: either
// the new set fully lands or the previous one survives intact.
func (r *postgresLeadRepo) ReplaceAll(ctx context.Context, runID common.ID, leads []*lead.Lead, insights []*lead.AccountInsight) error {
	tx, err := r.conn.DB().BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "beginning lead replacement")
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM account_insights`); err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "clearing account insights")
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM leads`); err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "clearing leads")
	}

	for _, l := range leads {
		services, err := json.Marshal(l.Services)
		if err != nil {
			return errors.Wrap(err, errors.ErrCodeSerialization, "encoding lead services")
		}
		subscores, err := json.Marshal(l.Subscores)
		if err != nil {
			return errors.Wrap(err, errors.ErrCodeSerialization, "encoding lead subscores")
		}
		if _, err := tx.ExecContext(ctx, insertLeadSQL,
			string(l.ID), string(runID), string(l.AccountID), l.RecordID,
			l.ProductID, l.ProductName, string(l.Type), string(l.Tier),
			services, l.EstimatedValue.Min, l.EstimatedValue.Max, l.ValueBasis,
			l.BenchmarkFamily, l.UrgencyBasis.DaysPastEOL, l.UrgencyBasis.DaysToSupportExpiry,
			subscores, l.Overall, string(l.Priority), l.CreatedAt,
		); err != nil {
			return errors.Wrap(err, errors.ErrCodeDatabaseError, "inserting lead "+string(l.ID))
		}
	}

	for _, in := range insights {
		detail, err := json.Marshal(in.Detail)
		if err != nil {
			return errors.Wrap(err, errors.ErrCodeSerialization, "encoding insight detail")
		}
		if _, err := tx.ExecContext(ctx, insertInsightSQL,
			string(in.ID), string(runID), string(in.AccountID), in.Kind, detail, in.CreatedAt,
		); err != nil {
			return errors.Wrap(err, errors.ErrCodeDatabaseError, "inserting insight "+string(in.ID))
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "committing lead replacement")
	}

	r.log.Info("lead set replaced",
		logging.String("run_id", string(runID)),
		logging.Int("leads", len(leads)),
		logging.Int("insights", len(insights)),
	)
	return nil
}

func (r *postgresLeadRepo) GetByID(ctx context.Context, id common.ID) (*lead.Lead, error) {
	row := r.executor().QueryRowContext(ctx,
		`SELECT `+leadColumns+` FROM leads WHERE id = $1`, string(id))
	l, err := scanLead(row)
	if err == sql.ErrNoRows {
		return nil, errors.New(errors.ErrCodeLeadNotFound, "lead not found: "+string(id))
	}
	return l, err
}

func (r *postgresLeadRepo) List(ctx context.Context, filter lead.ListFilter, page common.Pagination) ([]*lead.Lead, int64, error) {
	where, args := buildLeadFilter(filter)

	var total int64
	if err := r.executor().QueryRowContext(ctx,
		`SELECT COUNT(*) FROM leads`+where, args...).Scan(&total); err != nil {
		return nil, 0, errors.Wrap(err, errors.ErrCodeDatabaseError, "counting leads")
	}

	args = append(args, page.PageSize, page.Offset())
	query := fmt.Sprintf(`SELECT %s FROM leads%s ORDER BY overall DESC, id LIMIT $%d OFFSET $%d`,
		leadColumns, where, len(args)-1, len(args))

	rows, err := r.executor().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, errors.Wrap(err, errors.ErrCodeDatabaseError, "listing leads")
	}
	defer rows.Close()

	leads, err := scanLeads(rows)
	return leads, total, err
}

func (r *postgresLeadRepo) ListByAccount(ctx context.Context, accountID common.AccountID) ([]*lead.Lead, error) {
	rows, err := r.executor().QueryContext(ctx,
		`SELECT `+leadColumns+` FROM leads WHERE account_id = $1 ORDER BY overall DESC, id`,
		string(accountID))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "listing account leads")
	}
	defer rows.Close()
	return scanLeads(rows)
}

func (r *postgresLeadRepo) InsightsByAccount(ctx context.Context, accountID common.AccountID) ([]*lead.AccountInsight, error) {
	rows, err := r.executor().QueryContext(ctx,
		`SELECT id, run_id, account_id, kind, detail, created_at
		 FROM account_insights WHERE account_id = $1 ORDER BY kind`,
		string(accountID))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "listing account insights")
	}
	defer rows.Close()

	var out []*lead.AccountInsight
	for rows.Next() {
		in := &lead.AccountInsight{}
		var detail []byte
		if err := rows.Scan(&in.ID, &in.RunID, &in.AccountID, &in.Kind, &detail, &in.CreatedAt); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "scanning insight")
		}
		if len(detail) > 0 {
			if err := json.Unmarshal(detail, &in.Detail); err != nil {
				return nil, errors.Wrap(err, errors.ErrCodeSerialization, "decoding insight detail")
			}
		}
		out = append(out, in)
	}
	return out, rows.Err()
}

// buildLeadFilter renders the WHERE clause for a ListFilter.
func buildLeadFilter(filter lead.ListFilter) (string, []interface{}) {
	var conds []string
	var args []interface{}
	add := func(cond string, v interface{}) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if filter.AccountID != "" {
		add("account_id = $%d", string(filter.AccountID))
	}
	if filter.Type != "" {
		add("lead_type = $%d", string(filter.Type))
	}
	if filter.Priority != "" {
		add("priority = $%d", string(filter.Priority))
	}
	if filter.RunID != "" {
		add("run_id = $%d", string(filter.RunID))
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func scanLead(s scanner) (*lead.Lead, error) {
	l := &lead.Lead{}
	var services, subscores []byte
	var expiryDays sql.NullInt64
	err := s.Scan(
		&l.ID, &l.RunID, &l.AccountID, &l.RecordID, &l.ProductID, &l.ProductName,
		&l.Type, &l.Tier, &services, &l.EstimatedValue.Min, &l.EstimatedValue.Max,
		&l.ValueBasis, &l.BenchmarkFamily, &l.UrgencyBasis.DaysPastEOL, &expiryDays,
		&subscores, &l.Overall, &l.Priority, &l.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if expiryDays.Valid {
		days := int(expiryDays.Int64)
		l.UrgencyBasis.DaysToSupportExpiry = &days
	}
	if err := json.Unmarshal(services, &l.Services); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "decoding lead services")
	}
	if err := json.Unmarshal(subscores, &l.Subscores); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "decoding lead subscores")
	}
	return l, nil
}

func scanLeads(rows *sql.Rows) ([]*lead.Lead, error) {
	var out []*lead.Lead
	for rows.Next() {
		l, err := scanLead(rows)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "scanning lead")
		}
		out = append(out, l)
	}
	return out, rows.Err()
}
