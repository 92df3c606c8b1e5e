package repositories

import (
	"context"
	"encoding/json"

	"github.com/turtacn/InstallBase-Insight/internal/domain/catalog"
	"github.com/turtacn/InstallBase-Insight/internal/infrastructure/database/postgres"
	"github.com/turtacn/InstallBase-Insight/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/InstallBase-Insight/pkg/errors"
)

// Mapping kinds stored in catalog_mappings.
const (
	mappingKindExact    = "exact"
	mappingKindCategory = "category"
	mappingKindFallback = "fallback"
)

type postgresCatalogSource struct {
	baseRepo
}

// NewPostgresCatalogSource returns the SQL-backed catalog loader.
func NewPostgresCatalogSource(conn *postgres.Connection, log logging.Logger) catalog.Source {
	return &postgresCatalogSource{baseRepo: baseRepo{conn: conn, log: log.Named("catalog_repo")}}
}

// LoadCatalog assembles the catalog snapshot from the mapping and alias
// tables.  Service lists are stored as JSONB since matching never queries
// inside them.
func (r *postgresCatalogSource) LoadCatalog(ctx context.Context) (*catalog.Catalog, error) {
	cat := &catalog.Catalog{
		Exact:           make(map[string]catalog.ExactMapping),
		Category:        make(map[string][]catalog.ServiceCatalogEntry),
		PlatformAliases: make(map[string]string),
	}

	rows, err := r.executor().QueryContext(ctx,
		`SELECT kind, key, product_name, services FROM catalog_mappings`)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "loading catalog mappings")
	}
	defer rows.Close()

	for rows.Next() {
		var kind, key, productName string
		var raw []byte
		if err := rows.Scan(&kind, &key, &productName, &raw); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "scanning catalog mapping")
		}
		var services []catalog.ServiceCatalogEntry
		if err := json.Unmarshal(raw, &services); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeSerialization, "decoding catalog services for "+key)
		}

		switch kind {
		case mappingKindExact:
			cat.Exact[catalog.NormalizeKey(key)] = catalog.ExactMapping{
				ProductID:   key,
				ProductName: productName,
				Services:    services,
			}
		case mappingKindCategory:
			cat.Category[catalog.NormalizeKey(key)] = services
		case mappingKindFallback:
			cat.Fallback = append(cat.Fallback, services...)
		default:
			r.log.Warn("unknown catalog mapping kind, skipping",
				logging.String("kind", kind), logging.String("key", key))
		}
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "reading catalog mappings")
	}

	aliasRows, err := r.executor().QueryContext(ctx,
		`SELECT alias, category FROM platform_aliases`)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "loading platform aliases")
	}
	defer aliasRows.Close()

	for aliasRows.Next() {
		var alias, category string
		if err := aliasRows.Scan(&alias, &category); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "scanning platform alias")
		}
		cat.PlatformAliases[catalog.NormalizeKey(alias)] = catalog.NormalizeKey(category)
	}
	if err := aliasRows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "reading platform aliases")
	}

	return cat, nil
}

// LoadBenchmarks reads the ordered benchmark rule list.  An empty table
// falls back to the built-in defaults so value estimation never goes dark.
func (r *postgresCatalogSource) LoadBenchmarks(ctx context.Context) (*catalog.BenchmarkTable, error) {
	rows, err := r.executor().QueryContext(ctx, `
		SELECT pattern, family, value_min, value_max
		FROM benchmark_rules ORDER BY position`)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "loading benchmark rules")
	}
	defer rows.Close()

	table := &catalog.BenchmarkTable{Default: catalog.DefaultBenchmarkTable().Default}
	for rows.Next() {
		var rule catalog.BenchmarkRule
		if err := rows.Scan(&rule.Pattern, &rule.Family, &rule.Range.Min, &rule.Range.Max); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "scanning benchmark rule")
		}
		table.Rules = append(table.Rules, rule)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "reading benchmark rules")
	}

	if len(table.Rules) == 0 {
		r.log.Info("benchmark table empty, using built-in defaults")
		return catalog.DefaultBenchmarkTable(), nil
	}
	return table, nil
}
