package extract

import (
	"context"
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teamingnet/refgraph/pkg/config"
	"github.com/teamingnet/refgraph/pkg/export"
	"github.com/teamingnet/refgraph/pkg/graph"
	"github.com/teamingnet/refgraph/pkg/logging"
	"github.com/teamingnet/refgraph/pkg/metrics"
)

func testConfig(t *testing.T) *config.Config {
	return &config.Config{
		DatabaseURL:   "postgres://test",
		ReferralTable: "referrals",
		DetailTable:   "npi_detail",
		IDColumn:      "npi",
		FromColumn:    "from_npi",
		ToColumn:      "to_npi",
		WeightColumn:  "shared_patients",
		OutputDir:     t.TempDir(),
	}
}

// fakeRows implements pgx.Rows over canned data.
type fakeRows struct {
	cols []string
	data [][]any
	idx  int
}

func (r *fakeRows) Close()                        {}
func (r *fakeRows) Err() error                    { return nil }
func (r *fakeRows) CommandTag() pgconn.CommandTag { return pgconn.CommandTag{} }
func (r *fakeRows) FieldDescriptions() []pgconn.FieldDescription {
	out := make([]pgconn.FieldDescription, len(r.cols))
	for i, c := range r.cols {
		out[i] = pgconn.FieldDescription{Name: c}
	}
	return out
}
func (r *fakeRows) Next() bool {
	if r.idx >= len(r.data) {
		return false
	}
	r.idx++
	return true
}
func (r *fakeRows) Scan(dest ...any) error { return fmt.Errorf("scan not supported by fakeRows") }
func (r *fakeRows) Values() ([]any, error) { return r.data[r.idx-1], nil }
func (r *fakeRows) RawValues() [][]byte    { return nil }
func (r *fakeRows) Conn() *pgx.Conn        { return nil }

// fakeDB answers Exec with scripted INSERT tags and Query with scripted
// result sets, in call order.
type fakeDB struct {
	execSQL    []string
	insertTags []string
	queries    []*fakeRows
}

func (d *fakeDB) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	d.execSQL = append(d.execSQL, sql)
	if strings.HasPrefix(sql, "INSERT") && len(d.insertTags) > 0 {
		tag := d.insertTags[0]
		d.insertTags = d.insertTags[1:]
		return pgconn.NewCommandTag(tag), nil
	}
	return pgconn.NewCommandTag(""), nil
}

func (d *fakeDB) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if len(d.queries) == 0 {
		return nil, fmt.Errorf("unexpected query: %s", sql)
	}
	q := d.queries[0]
	d.queries = d.queries[1:]
	return q, nil
}

func edgeCols() []string {
	return []string{"from_npi", "to_npi", "shared_patients", "node_type", "node_type"}
}

// The canonical scenario: the predicate selects provider A; the referral
// table holds A->B (5), B->A (3) and B->D (1), where B and D are one hop
// from A. Providers two hops out never reach the staging table, so they
// appear in no query result.
func TestRunFullScenario(t *testing.T) {
	db := &fakeDB{
		insertTags: []string{"INSERT 0 1", "INSERT 0 2"},
		queries: []*fakeRows{
			{ // hydrate core
				cols: []string{"npi", "provider_name", "zip5"},
				data: [][]any{{"A", "Alice Chu", "02535"}},
			},
			{ // hydrate leaves
				cols: []string{"npi", "provider_name", "zip5"},
				data: [][]any{{"B", "Bob Li", nil}, {"D", "Dana Wu", "02539"}},
			},
			{ // core-involving edges
				cols: edgeCols(),
				data: [][]any{
					{"A", "B", int64(5), "C", "L"},
					{"B", "A", int64(3), "L", "C"},
				},
			},
			{ // leaf-to-leaf edges
				cols: edgeCols(),
				data: [][]any{{"B", "D", int64(1), "L", "L"}},
			},
		},
	}

	cfg := testConfig(t)
	m := metrics.New()
	opts := Options{
		Predicate:     "zip5 = '02535'",
		Prefix:        "mv",
		IncludeLeaves: true,
		LeafEdges:     true,
		CSV:           true,
	}

	res, err := Run(context.Background(), db, cfg, opts, logging.NewNopLogger(), m)
	require.NoError(t, err)

	// Node universe: core A, leaves B and D, nothing else.
	g := res.Graph
	assert.Equal(t, 3, g.NodeCount())

	a, err := g.Node("A")
	require.NoError(t, err)
	assert.Equal(t, graph.StringValue("core"), a.Attrs[graph.NodeTypeAttribute])
	assert.Equal(t, graph.StringValue("Alice Chu"), a.Attrs[graph.LabelAttribute])

	b, err := g.Node("B")
	require.NoError(t, err)
	assert.Equal(t, graph.StringValue("leaf"), b.Attrs[graph.NodeTypeAttribute])
	assert.NotContains(t, b.Attrs, "zip5", "NULL detail columns are dropped")

	assert.Equal(t, []graph.Edge{
		{From: "A", To: "B", Weight: 5, Category: graph.CategoryCoreToLeaf},
		{From: "B", To: "A", Weight: 3, Category: graph.CategoryLeafToCore},
		{From: "B", To: "D", Weight: 1, Category: graph.CategoryLeafToLeaf},
	}, g.Edges())

	assert.Equal(t, graph.CategoryCounts{
		graph.CategoryCoreToLeaf: 1,
		graph.CategoryLeafToCore: 1,
		graph.CategoryLeafToLeaf: 1,
	}, res.Counts)

	// All three output files exist and the GraphML round-trips.
	for _, path := range []string{res.GraphMLPath, res.EdgeCSVPath, res.NodeCSVPath} {
		_, err := os.Stat(path)
		assert.NoError(t, err, path)
	}
	got, err := export.ReadGraphML(res.GraphMLPath)
	require.NoError(t, err)
	assert.Equal(t, g.Nodes(), got.Nodes())
	assert.Equal(t, g.Edges(), got.Edges())

	// The staging table is cleaned up after the run.
	last := db.execSQL[len(db.execSQL)-1]
	assert.Contains(t, last, "DROP TABLE IF EXISTS")

	// Instrumentation saw the same totals.
	assert.Equal(t, float64(1), testutil.ToFloat64(m.NodesImported.WithLabelValues("core")))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.NodesImported.WithLabelValues("leaf")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.EdgesImported.WithLabelValues("leaf-to-leaf")))
	assert.Equal(t, float64(3), testutil.ToFloat64(m.FilesWritten))
}

func TestRunNoLeafNodes(t *testing.T) {
	db := &fakeDB{
		insertTags: []string{"INSERT 0 1"},
		queries: []*fakeRows{
			{
				cols: []string{"npi", "provider_name"},
				data: [][]any{{"A", "Alice Chu"}},
			},
			{ // with only core staged, no edge row can involve a leaf
				cols: edgeCols(),
				data: nil,
			},
		},
	}

	opts := Options{
		Predicate:     "npi = 'A'",
		Prefix:        "core_only",
		IncludeLeaves: false,
		CSV:           true,
	}

	res, err := Run(context.Background(), db, testConfig(t), opts, logging.NewNopLogger(), metrics.New())
	require.NoError(t, err)

	assert.Equal(t, 1, res.Graph.NodeCount())
	assert.Zero(t, res.Graph.EdgeCount())
	assert.Empty(t, res.Counts)
	assert.Empty(t, db.queries, "no leaf hydration or leaf edge query may run")
}

func TestRunZeroMatchPredicate(t *testing.T) {
	db := &fakeDB{
		insertTags: []string{"INSERT 0 0", "INSERT 0 0"},
		queries: []*fakeRows{
			{cols: []string{"npi"}, data: nil}, // hydrate core
			{cols: []string{"npi"}, data: nil}, // hydrate leaves
			{cols: edgeCols(), data: nil},      // core edges
		},
	}

	opts := Options{
		Predicate:     "zip5 = '00000'",
		Prefix:        "empty",
		IncludeLeaves: true,
		CSV:           true,
	}

	res, err := Run(context.Background(), db, testConfig(t), opts, logging.NewNopLogger(), metrics.New())
	require.NoError(t, err, "an empty selection is a valid run, not a failure")

	assert.Zero(t, res.Graph.NodeCount())
	assert.Zero(t, res.Graph.EdgeCount())

	got, err := export.ReadGraphML(res.GraphMLPath)
	require.NoError(t, err)
	assert.Zero(t, got.NodeCount())
}

func TestRunRequiresPredicateAndPrefix(t *testing.T) {
	cfg := testConfig(t)
	log := logging.NewNopLogger()

	_, err := Run(context.Background(), &fakeDB{}, cfg, Options{Prefix: "p"}, log, metrics.New())
	assert.Error(t, err)

	_, err = Run(context.Background(), &fakeDB{}, cfg, Options{Predicate: "1=1"}, log, metrics.New())
	assert.Error(t, err)
}

func TestRunFailsWhenIDColumnMissing(t *testing.T) {
	db := &fakeDB{
		insertTags: []string{"INSERT 0 1"},
		queries: []*fakeRows{
			{
				cols: []string{"provider_name"},
				data: [][]any{{"Alice Chu"}},
			},
		},
	}

	opts := Options{Predicate: "1=1", Prefix: "x", CSV: true}
	_, err := Run(context.Background(), db, testConfig(t), opts, logging.NewNopLogger(), metrics.New())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "identifier column")
}

func TestRunFailsOnUnwritableOutputDir(t *testing.T) {
	db := &fakeDB{
		insertTags: []string{"INSERT 0 0"},
		queries: []*fakeRows{
			{cols: []string{"npi"}, data: nil},
			{cols: edgeCols(), data: nil},
		},
	}

	cfg := testConfig(t)
	cfg.OutputDir = cfg.OutputDir + "/does-not-exist"

	opts := Options{Predicate: "1=1", Prefix: "x", IncludeLeaves: false, CSV: true}
	_, err := Run(context.Background(), db, cfg, opts, logging.NewNopLogger(), metrics.New())
	assert.Error(t, err)
}
