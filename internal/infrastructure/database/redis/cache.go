package redis

import (
	"context"
	"encoding/json"

	goredis "github.com/redis/go-redis/v9"

	"github.com/turtacn/InstallBase-Insight/internal/domain/lead"
	"github.com/turtacn/InstallBase-Insight/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/InstallBase-Insight/pkg/errors"
	"github.com/turtacn/InstallBase-Insight/pkg/types/common"
)

// LeadCache is a read-through cache in front of the lead repository.  It
// caches the per-account lead set served by the account endpoints; entries
// expire on TTL and are invalidated explicitly after each pipeline run.
type LeadCache struct {
	client *Client
	logger logging.Logger
}

// NewLeadCache builds a cache over the shared client.
func NewLeadCache(client *Client, log logging.Logger) *LeadCache {
	return &LeadCache{client: client, logger: log.Named("lead_cache")}
}

func (c *LeadCache) accountKey(accountID common.AccountID) string {
	return c.client.Key("leads", "account", string(accountID))
}

func (c *LeadCache) runKey() string {
	return c.client.Key("run", "latest")
}

// GetAccountLeads returns the cached lead set for an account.  The second
// return value reports whether the entry was present.
func (c *LeadCache) GetAccountLeads(ctx context.Context, accountID common.AccountID) ([]*lead.Lead, bool, error) {
	raw, err := c.client.RDB().Get(ctx, c.accountKey(accountID)).Bytes()
	if err == goredis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrap(err, errors.ErrCodeCacheError, "reading account leads from cache")
	}

	var leads []*lead.Lead
	if err := json.Unmarshal(raw, &leads); err != nil {
		// Treat a corrupt entry as a miss so the caller falls back to the
		// repository and overwrites it.
		c.logger.Warn("dropping corrupt cache entry",
			logging.String("account_id", string(accountID)), logging.Err(err))
		_ = c.client.RDB().Del(ctx, c.accountKey(accountID)).Err()
		return nil, false, nil
	}
	return leads, true, nil
}

// SetAccountLeads stores the lead set for an account with the default TTL.
func (c *LeadCache) SetAccountLeads(ctx context.Context, accountID common.AccountID, leads []*lead.Lead) error {
	raw, err := json.Marshal(leads)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "encoding account leads for cache")
	}
	if err := c.client.RDB().Set(ctx, c.accountKey(accountID), raw, c.client.DefaultTTL()).Err(); err != nil {
		return errors.Wrap(err, errors.ErrCodeCacheError, "writing account leads to cache")
	}
	return nil
}

// InvalidateAccounts drops the cached lead sets for the given accounts.
// Called after a pipeline run replaces the lead table.
func (c *LeadCache) InvalidateAccounts(ctx context.Context, accountIDs []common.AccountID) error {
	if len(accountIDs) == 0 {
		return nil
	}
	keys := make([]string, 0, len(accountIDs))
	for _, id := range accountIDs {
		keys = append(keys, c.accountKey(id))
	}
	if err := c.client.RDB().Del(ctx, keys...).Err(); err != nil {
		return errors.Wrap(err, errors.ErrCodeCacheError, "invalidating account lead cache")
	}
	return nil
}

// SetLatestRun records the most recent completed run ID so API nodes can
// detect staleness without hitting Postgres.  The entry does not expire.
func (c *LeadCache) SetLatestRun(ctx context.Context, runID common.ID) error {
	if err := c.client.RDB().Set(ctx, c.runKey(), string(runID), 0).Err(); err != nil {
		return errors.Wrap(err, errors.ErrCodeCacheError, "recording latest run")
	}
	return nil
}

// LatestRun returns the most recent completed run ID, or false when no run
// has been recorded yet.
func (c *LeadCache) LatestRun(ctx context.Context) (common.ID, bool, error) {
	val, err := c.client.RDB().Get(ctx, c.runKey()).Result()
	if err == goredis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, errors.Wrap(err, errors.ErrCodeCacheError, "reading latest run")
	}
	return common.ID(val), true, nil
}
