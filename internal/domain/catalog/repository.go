package catalog

import "context"

// Source loads the catalog snapshot and the benchmark table.  Both are
// validated at the pipeline boundary, not here.
type Source interface {
	LoadCatalog(ctx context.Context) (*Catalog, error)
	LoadBenchmarks(ctx context.Context) (*BenchmarkTable, error)
}
