// Package resolver computes the two-tier node universe for an extraction
// run and streams the referral edges between staged nodes.
//
// Resolution is two-phase: identifiers are first staged into a run-scoped
// table with their tier, then joined back to the detail table for full
// attribute rows. Staging once lets the same resolved set drive the node
// hydration and all edge queries without repeating the predicate joins.
package resolver

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/teamingnet/refgraph/pkg/config"
	"github.com/teamingnet/refgraph/pkg/graph"
	"github.com/teamingnet/refgraph/pkg/logging"
)

// DB is the subset of pgxpool.Pool the resolver uses.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Resolver owns the staging table for one extraction run. The table name
// carries a per-run suffix, so concurrent runs against the same database
// cannot corrupt each other's staging state.
type Resolver struct {
	db      DB
	cfg     *config.Config
	log     logging.Logger
	staging string
}

// New creates a resolver with a fresh run-scoped staging table name.
func New(db DB, cfg *config.Config, log logging.Logger) *Resolver {
	return &Resolver{
		db:      db,
		cfg:     cfg,
		log:     log.With(logging.Component("resolver")),
		staging: stagingName(),
	}
}

func stagingName() string {
	return "npi_staging_" + strings.ReplaceAll(uuid.NewString(), "-", "")
}

// StagingTable returns the run-scoped staging table name.
func (r *Resolver) StagingTable() string {
	return r.staging
}

// CreateStaging drops any leftover table of the same name and creates the
// staging table with a unique index on the identifier column.
func (r *Resolver) CreateStaging(ctx context.Context) error {
	for _, sql := range []string{
		dropStagingSQL(r.staging),
		createStagingSQL(r.staging),
		stagingIndexSQL(r.staging),
	} {
		r.log.Debug("executing staging DDL", logging.String("sql", sql))
		if _, err := r.db.Exec(ctx, sql); err != nil {
			return fmt.Errorf("create staging table %s: %w", r.staging, err)
		}
	}
	return nil
}

// DropStaging removes the staging table. Best-effort cleanup at run end.
func (r *Resolver) DropStaging(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, dropStagingSQL(r.staging)); err != nil {
		return fmt.Errorf("drop staging table %s: %w", r.staging, err)
	}
	return nil
}

// StageCore stages the identifiers matched by the predicate as core nodes
// and returns how many were staged. A malformed predicate surfaces here as
// the database's own error, uninterpreted.
func (r *Resolver) StageCore(ctx context.Context, predicate string) (int64, error) {
	sql := stageCoreSQL(r.staging, r.cfg, predicate)
	r.log.Debug("staging core nodes", logging.String("sql", sql))

	timer := logging.StartTimer(r.log, "staged core nodes", logging.Predicate(predicate))
	tag, err := r.db.Exec(ctx, sql)
	if err != nil {
		timer.EndError(err)
		return 0, fmt.Errorf("stage core nodes: %w", err)
	}
	timer.End()
	return tag.RowsAffected(), nil
}

// StageLeaves stages every identifier one referral hop from a core node,
// excluding identifiers already staged, and returns how many were staged.
func (r *Resolver) StageLeaves(ctx context.Context) (int64, error) {
	sql := stageLeavesSQL(r.staging, r.cfg)
	r.log.Debug("staging leaf nodes", logging.String("sql", sql))

	tag, err := r.db.Exec(ctx, sql)
	if err != nil {
		return 0, fmt.Errorf("stage leaf nodes: %w", err)
	}
	return tag.RowsAffected(), nil
}

// NodeRowFunc receives one hydrated detail row: the column names in result
// order and the raw values positionally aligned with them.
type NodeRowFunc func(columns []string, values []any) error

// HydrateNodes streams the full detail rows for the staged identifiers of
// one tier and returns how many rows were seen.
func (r *Resolver) HydrateNodes(ctx context.Context, tier graph.Tier, fn NodeRowFunc) (int, error) {
	tc, err := tierChar(tier)
	if err != nil {
		return 0, err
	}
	sql := hydrateSQL(r.staging, r.cfg, tc)
	r.log.Debug("hydrating nodes", logging.Tier(string(tier)), logging.String("sql", sql))

	rows, err := r.db.Query(ctx, sql)
	if err != nil {
		return 0, fmt.Errorf("hydrate %s nodes: %w", tier, err)
	}
	defer rows.Close()

	fds := rows.FieldDescriptions()
	columns := make([]string, len(fds))
	for i, fd := range fds {
		columns[i] = fd.Name
	}

	n := 0
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return n, fmt.Errorf("hydrate %s nodes: read row: %w", tier, err)
		}
		if err := fn(columns, values); err != nil {
			return n, err
		}
		n++
	}
	if err := rows.Err(); err != nil {
		return n, fmt.Errorf("hydrate %s nodes: %w", tier, err)
	}
	return n, nil
}

// EdgeRow is one referral row joined with the tiers of its endpoints.
type EdgeRow struct {
	From     string
	To       string
	Weight   float64
	FromTier graph.Tier
	ToTier   graph.Tier
}

// EdgeRowFunc receives one classified-ready edge row.
type EdgeRowFunc func(EdgeRow) error

// CoreEdges streams every referral row with at least one core endpoint,
// both endpoints staged.
func (r *Resolver) CoreEdges(ctx context.Context, fn EdgeRowFunc) (int, error) {
	return r.streamEdges(ctx, "core edges", coreEdgesSQL(r.staging, r.cfg), fn)
}

// LeafEdges streams every referral row between two staged leaves.
func (r *Resolver) LeafEdges(ctx context.Context, fn EdgeRowFunc) (int, error) {
	return r.streamEdges(ctx, "leaf edges", leafEdgesSQL(r.staging, r.cfg), fn)
}

func (r *Resolver) streamEdges(ctx context.Context, what, sql string, fn EdgeRowFunc) (int, error) {
	r.log.Debug("querying "+what, logging.String("sql", sql))

	rows, err := r.db.Query(ctx, sql)
	if err != nil {
		return 0, fmt.Errorf("query %s: %w", what, err)
	}
	defer rows.Close()

	n := 0
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return n, fmt.Errorf("query %s: read row: %w", what, err)
		}
		if len(values) != 5 {
			return n, fmt.Errorf("query %s: expected 5 columns, got %d", what, len(values))
		}

		weight, err := toFloat(values[2])
		if err != nil {
			return n, fmt.Errorf("query %s: weight column: %w", what, err)
		}

		row := EdgeRow{
			From:     asString(values[0]),
			To:       asString(values[1]),
			Weight:   weight,
			FromTier: tierFromChar(asString(values[3])),
			ToTier:   tierFromChar(asString(values[4])),
		}
		if err := fn(row); err != nil {
			return n, err
		}
		n++
	}
	if err := rows.Err(); err != nil {
		return n, fmt.Errorf("query %s: %w", what, err)
	}
	return n, nil
}

func tierChar(t graph.Tier) (string, error) {
	switch t {
	case graph.TierCore:
		return tierCharCore, nil
	case graph.TierLeaf:
		return tierCharLeaf, nil
	default:
		return "", fmt.Errorf("unknown tier %q", t)
	}
}

// tierFromChar maps a staging node_type char back to a tier. The char(1)
// column may come back space-padded depending on the driver.
func tierFromChar(c string) graph.Tier {
	switch strings.TrimSpace(c) {
	case tierCharCore:
		return graph.TierCore
	case tierCharLeaf:
		return graph.TierLeaf
	default:
		return graph.Tier(strings.TrimSpace(c))
	}
}

func asString(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case []byte:
		return string(x)
	default:
		return fmt.Sprint(x)
	}
}

func toFloat(v any) (float64, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case float32:
		return float64(x), nil
	case int64:
		return float64(x), nil
	case int32:
		return float64(x), nil
	case int16:
		return float64(x), nil
	case int:
		return float64(x), nil
	case string:
		return strconv.ParseFloat(strings.TrimSpace(x), 64)
	case []byte:
		return strconv.ParseFloat(strings.TrimSpace(string(x)), 64)
	case pgtype.Numeric:
		f, err := x.Float64Value()
		if err != nil {
			return 0, err
		}
		return f.Float64, nil
	default:
		return 0, fmt.Errorf("unsupported weight type %T", v)
	}
}
