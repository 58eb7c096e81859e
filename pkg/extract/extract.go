// Package extract orchestrates a full provider-graph extraction run:
// resolve the two-tier node set, hydrate and normalize node rows, classify
// and insert referral edges, then serialize the assembled graph.
package extract

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"github.com/teamingnet/refgraph/pkg/config"
	"github.com/teamingnet/refgraph/pkg/export"
	"github.com/teamingnet/refgraph/pkg/graph"
	"github.com/teamingnet/refgraph/pkg/logging"
	"github.com/teamingnet/refgraph/pkg/metrics"
	"github.com/teamingnet/refgraph/pkg/resolver"
)

// DefaultLabelColumn is the detail column used for node display labels
// unless overridden on the command line.
const DefaultLabelColumn = "provider_name"

// Output file name suffixes, fixed for downstream tooling.
const (
	GraphMLSuffix = "_provider_graph.graphml"
	EdgeCSVSuffix = "_edge_list_with_weights.csv"
	NodeCSVSuffix = "_node_db.csv"
)

// Options selects what a run extracts and exports.
type Options struct {
	// Predicate is the trusted SQL fragment selecting core providers.
	Predicate string
	// Prefix names the output files.
	Prefix string
	// IncludeLeaves pulls in providers one referral hop from the core set.
	IncludeLeaves bool
	// LeafEdges additionally exports referrals between two leaves.
	LeafEdges bool
	// Undirected builds an undirected graph instead of the default directed one.
	Undirected bool
	// CSV enables the edge/node CSV listings alongside the GraphML file.
	CSV bool
	// LabelColumn is the detail column copied into the Label attribute.
	LabelColumn string
}

// Result reports what a successful run produced.
type Result struct {
	Graph       *graph.Graph
	Counts      graph.CategoryCounts
	GraphMLPath string
	EdgeCSVPath string
	NodeCSVPath string
}

// Run executes one extraction. Any failure aborts the run; there is no
// partial-success mode. The run-scoped staging table is dropped on the way
// out regardless of outcome.
func Run(ctx context.Context, db resolver.DB, cfg *config.Config, opts Options, log logging.Logger, m *metrics.Metrics) (*Result, error) {
	if opts.Predicate == "" {
		return nil, fmt.Errorf("selection predicate is required")
	}
	if opts.Prefix == "" {
		return nil, fmt.Errorf("output file prefix is required")
	}
	if opts.LabelColumn == "" {
		opts.LabelColumn = DefaultLabelColumn
	}

	r := resolver.New(db, cfg, log)

	log.Info("starting extraction",
		logging.Predicate(opts.Predicate),
		logging.Table(cfg.ReferralTable),
		logging.String("detail_table", cfg.DetailTable),
		logging.String("staging_table", r.StagingTable()),
		logging.String("label_column", opts.LabelColumn),
		logging.Bool("leaf_nodes", opts.IncludeLeaves),
		logging.Bool("leaf_edges", opts.LeafEdges),
	)

	if err := r.CreateStaging(ctx); err != nil {
		return nil, err
	}
	defer func() {
		if err := r.DropStaging(ctx); err != nil {
			log.Warn("staging table cleanup failed", logging.Error(err))
		}
	}()

	g := graph.New(!opts.Undirected)

	// Stage and hydrate the core tier.
	start := time.Now()
	staged, err := r.StageCore(ctx, opts.Predicate)
	if err != nil {
		return nil, err
	}
	m.StageDuration.WithLabelValues("stage_core").Observe(time.Since(start).Seconds())
	m.NodesStaged.WithLabelValues(string(graph.TierCore)).Add(float64(staged))
	log.Info("staged core nodes", logging.Int64("staged", staged))

	if err := addNodes(ctx, r, g, cfg, opts, graph.TierCore, log, m); err != nil {
		return nil, err
	}

	if opts.IncludeLeaves {
		start = time.Now()
		staged, err = r.StageLeaves(ctx)
		if err != nil {
			return nil, err
		}
		m.StageDuration.WithLabelValues("stage_leaves").Observe(time.Since(start).Seconds())
		m.NodesStaged.WithLabelValues(string(graph.TierLeaf)).Add(float64(staged))
		log.Info("staged leaf nodes", logging.Int64("staged", staged))

		if err := addNodes(ctx, r, g, cfg, opts, graph.TierLeaf, log, m); err != nil {
			return nil, err
		}
	}

	// Edges go in only after every node is present.
	counts := make(graph.CategoryCounts)
	addEdge := func(row resolver.EdgeRow) error {
		category := graph.Classify(row.FromTier, row.ToTier)
		counts.Observe(category)
		m.EdgesImported.WithLabelValues(string(category)).Inc()
		return g.AddEdge(row.From, row.To, row.Weight, category)
	}

	start = time.Now()
	n, err := r.CoreEdges(ctx, addEdge)
	if err != nil {
		return nil, err
	}
	m.StageDuration.WithLabelValues("core_edges").Observe(time.Since(start).Seconds())
	log.Info("imported core-involving edges", logging.Rows(n))

	if opts.LeafEdges {
		start = time.Now()
		n, err = r.LeafEdges(ctx, addEdge)
		if err != nil {
			return nil, err
		}
		m.StageDuration.WithLabelValues("leaf_edges").Observe(time.Since(start).Seconds())
		log.Info("imported leaf-to-leaf edges", logging.Rows(n))
	} else {
		log.Info("leaf-to-leaf edges not selected for export")
	}

	logCategoryCounts(log, counts)
	log.Info("graph assembled",
		logging.Int("nodes", g.NodeCount()),
		logging.Int("edges", g.EdgeCount()),
		logging.Bool("directed", g.Directed()),
	)

	res := &Result{
		Graph:       g,
		Counts:      counts,
		GraphMLPath: filepath.Join(cfg.OutputDir, opts.Prefix+GraphMLSuffix),
	}

	log.Info("writing GraphML file", logging.Path(res.GraphMLPath))
	if err := export.WriteGraphML(g, res.GraphMLPath); err != nil {
		return nil, err
	}
	m.FilesWritten.Inc()

	if opts.CSV {
		res.EdgeCSVPath = filepath.Join(cfg.OutputDir, opts.Prefix+EdgeCSVSuffix)
		log.Info("writing CSV of edges with weights", logging.Path(res.EdgeCSVPath))
		if err := export.WriteEdgeCSV(g, res.EdgeCSVPath); err != nil {
			return nil, err
		}
		m.FilesWritten.Inc()

		res.NodeCSVPath = filepath.Join(cfg.OutputDir, opts.Prefix+NodeCSVSuffix)
		log.Info("writing CSV of nodes with attributes", logging.Path(res.NodeCSVPath))
		if err := export.WriteNodeCSV(g, res.NodeCSVPath); err != nil {
			return nil, err
		}
		m.FilesWritten.Inc()
	}

	return res, nil
}

// addNodes hydrates the staged identifiers of one tier into graph nodes.
func addNodes(ctx context.Context, r *resolver.Resolver, g *graph.Graph, cfg *config.Config, opts Options, tier graph.Tier, log logging.Logger, m *metrics.Metrics) error {
	before := g.NodeCount()
	start := time.Now()

	rows, err := r.HydrateNodes(ctx, tier, func(columns []string, values []any) error {
		attrs := graph.Normalize(columns, values, tier, opts.LabelColumn)
		id, ok := attrs[cfg.IDColumn]
		if !ok {
			return fmt.Errorf("hydrated %s row is missing identifier column %q", tier, cfg.IDColumn)
		}
		g.AddNode(id.Text(), attrs)
		m.NodesImported.WithLabelValues(string(tier)).Inc()
		return nil
	})
	if err != nil {
		return err
	}

	m.StageDuration.WithLabelValues("hydrate_"+string(tier)).Observe(time.Since(start).Seconds())
	log.Info("imported nodes",
		logging.Tier(string(tier)),
		logging.Rows(rows),
		logging.Count(g.NodeCount()-before),
	)
	return nil
}

func logCategoryCounts(log logging.Logger, counts graph.CategoryCounts) {
	categories := make([]string, 0, len(counts))
	for c := range counts {
		categories = append(categories, string(c))
	}
	sort.Strings(categories)
	for _, c := range categories {
		log.Info("edge category imported",
			logging.Category(c),
			logging.Count(counts[graph.Category(c)]),
		)
	}
}
