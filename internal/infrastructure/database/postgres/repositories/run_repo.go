package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/turtacn/InstallBase-Insight/internal/domain/lead"
	"github.com/turtacn/InstallBase-Insight/internal/infrastructure/database/postgres"
	"github.com/turtacn/InstallBase-Insight/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/InstallBase-Insight/pkg/errors"
	"github.com/turtacn/InstallBase-Insight/pkg/types/common"
)

type postgresRunRepo struct {
	baseRepo
}

// NewPostgresRunRepo returns the SQL-backed pipeline run repository.
func NewPostgresRunRepo(conn *postgres.Connection, log logging.Logger) lead.RunRepository {
	return &postgresRunRepo{baseRepo: baseRepo{conn: conn, log: log.Named("run_repo")}}
}

const runColumns = `
	id, status, started_at, finished_at, record_count, account_count,
	lead_count, insight_count, leads_by_priority, leads_by_type, error`

func (r *postgresRunRepo) Create(ctx context.Context, run *lead.Run) error {
	_, err := r.executor().ExecContext(ctx, `
		INSERT INTO pipeline_runs (
			id, status, started_at, record_count, account_count
		) VALUES ($1, $2, $3, $4, $5)`,
		string(run.ID), string(run.Status), run.StartedAt, run.RecordCount, run.AccountCount,
	)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "inserting pipeline run")
	}
	return nil
}

func (r *postgresRunRepo) Update(ctx context.Context, run *lead.Run) error {
	byPriority, err := json.Marshal(run.LeadsByPriority)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "encoding run priority tally")
	}
	byType, err := json.Marshal(run.LeadsByType)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "encoding run type tally")
	}

	res, err := r.executor().ExecContext(ctx, `
		UPDATE pipeline_runs SET
			status = $2, finished_at = $3, lead_count = $4, insight_count = $5,
			leads_by_priority = $6, leads_by_type = $7, error = $8
		WHERE id = $1`,
		string(run.ID), string(run.Status), run.FinishedAt, run.LeadCount,
		run.InsightCount, byPriority, byType, run.Error,
	)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "updating pipeline run")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return errors.New(errors.ErrCodeRunNotFound, "run not found: "+string(run.ID))
	}
	return nil
}

func (r *postgresRunRepo) GetByID(ctx context.Context, id common.ID) (*lead.Run, error) {
	row := r.executor().QueryRowContext(ctx,
		`SELECT `+runColumns+` FROM pipeline_runs WHERE id = $1`, string(id))
	run, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, errors.New(errors.ErrCodeRunNotFound, "run not found: "+string(id))
	}
	return run, err
}

func (r *postgresRunRepo) ListRecent(ctx context.Context, limit int) ([]*lead.Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.executor().QueryContext(ctx,
		`SELECT `+runColumns+` FROM pipeline_runs ORDER BY started_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "listing pipeline runs")
	}
	defer rows.Close()

	var out []*lead.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "scanning pipeline run")
		}
		out = append(out, run)
	}
	return out, rows.Err()
}

func scanRun(s scanner) (*lead.Run, error) {
	run := &lead.Run{}
	var finished sql.NullTime
	var byPriority, byType []byte
	var runErr sql.NullString
	err := s.Scan(
		&run.ID, &run.Status, &run.StartedAt, &finished, &run.RecordCount,
		&run.AccountCount, &run.LeadCount, &run.InsightCount, &byPriority, &byType, &runErr,
	)
	if err != nil {
		return nil, err
	}
	if finished.Valid {
		t := finished.Time.UTC()
		run.FinishedAt = &t
	}
	if len(byPriority) > 0 {
		if err := json.Unmarshal(byPriority, &run.LeadsByPriority); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeSerialization, "decoding run priority tally")
		}
	}
	if len(byType) > 0 {
		if err := json.Unmarshal(byType, &run.LeadsByType); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeSerialization, "decoding run type tally")
		}
	}
	run.Error = runErr.String
	run.StartedAt = run.StartedAt.In(time.UTC)
	return run, nil
}
