package repositories

import (
	"context"
	"database/sql"
	"time"

	"github.com/shopspring/decimal"

	"github.com/turtacn/InstallBase-Insight/internal/domain/inventory"
	"github.com/turtacn/InstallBase-Insight/internal/infrastructure/database/postgres"
	"github.com/turtacn/InstallBase-Insight/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/InstallBase-Insight/pkg/errors"
	"github.com/turtacn/InstallBase-Insight/pkg/types/common"
)

type postgresSnapshotSource struct {
	baseRepo
}

// NewPostgresSnapshotSource returns the SQL-backed inventory snapshot loader.
func NewPostgresSnapshotSource(conn *postgres.Connection, log logging.Logger) inventory.SnapshotSource {
	return &postgresSnapshotSource{baseRepo: baseRepo{conn: conn, log: log.Named("inventory_repo")}}
}

// LoadSnapshot reads the full install base and account dimension in one go.
// Snapshots are read-only inputs; there is no record-level pagination here
// because a run always consumes everything.
func (r *postgresSnapshotSource) LoadSnapshot(ctx context.Context) (*inventory.Snapshot, error) {
	records, err := r.loadRecords(ctx)
	if err != nil {
		return nil, err
	}
	accounts, err := r.loadAccounts(ctx)
	if err != nil {
		return nil, err
	}
	return &inventory.Snapshot{
		Records:  records,
		Accounts: accounts,
		TakenAt:  time.Now().UTC(),
	}, nil
}

func (r *postgresSnapshotSource) loadRecords(ctx context.Context) ([]inventory.InventoryRecord, error) {
	rows, err := r.executor().QueryContext(ctx, `
		SELECT id, account_id, product_id, product_name, platform,
		       install_date, eol_date, support_status, support_expiry,
		       quantity, value_min, value_max
		FROM inventory_records ORDER BY id`)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "loading inventory records")
	}
	defer rows.Close()

	var out []inventory.InventoryRecord
	for rows.Next() {
		var rec inventory.InventoryRecord
		var install, eol, expiry sql.NullTime
		var status string
		var valueMin, valueMax decimal.NullDecimal
		if err := rows.Scan(
			&rec.ID, &rec.AccountID, &rec.ProductID, &rec.ProductName, &rec.Platform,
			&install, &eol, &status, &expiry, &rec.Quantity, &valueMin, &valueMax,
		); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "scanning inventory record")
		}
		rec.SupportStatus = inventory.NormalizeSupportStatus(status)
		rec.InstallDate = nullTimePtr(install)
		rec.EOLDate = nullTimePtr(eol)
		rec.SupportExpiry = nullTimePtr(expiry)
		if valueMin.Valid || valueMax.Valid {
			rec.KnownValue = &inventory.ValueRange{
				Min: valueMin.Decimal,
				Max: valueMax.Decimal,
			}
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *postgresSnapshotSource) loadAccounts(ctx context.Context) (map[common.AccountID]*inventory.Account, error) {
	rows, err := r.executor().QueryContext(ctx, `
		SELECT id, name, historical_project_count, open_opportunity_count,
		       last_engagement, credits_purchased, credits_used
		FROM accounts`)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "loading accounts")
	}
	defer rows.Close()

	out := make(map[common.AccountID]*inventory.Account)
	for rows.Next() {
		acc := &inventory.Account{}
		var engagement sql.NullTime
		if err := rows.Scan(
			&acc.ID, &acc.Name, &acc.HistoricalProjectCount, &acc.OpenOpportunityCount,
			&engagement, &acc.CreditsPurchased, &acc.CreditsUsed,
		); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "scanning account")
		}
		acc.LastEngagement = nullTimePtr(engagement)
		out[acc.ID] = acc
	}
	return out, rows.Err()
}

func nullTimePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time.UTC()
	return &v
}
