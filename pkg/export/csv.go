package export

import (
	"encoding/csv"
	"fmt"
	"os"

	"github.com/teamingnet/refgraph/pkg/graph"
)

// NodeIDColumn heads the identifier column of the node CSV.
const NodeIDColumn = "node_id"

// WriteEdgeCSV writes one headerless row per edge in enumeration order:
// from, to, weight.
func WriteEdgeCSV(g *graph.Graph, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("write edge csv: %w", err)
	}

	w := csv.NewWriter(f)
	for _, e := range g.Edges() {
		row := []string{e.From, e.To, graph.FloatValue(e.Weight).Text()}
		if err := w.Write(row); err != nil {
			f.Close()
			return fmt.Errorf("write edge csv: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return fmt.Errorf("write edge csv: %w", err)
	}
	return f.Close()
}

// WriteNodeCSV writes a header of node_id plus the sorted union of
// attribute names across all nodes, then one row per node in enumeration
// order with empty cells for absent attributes.
//
// The union header means no node's attributes are silently dropped when the
// first node happens to have a sparse row.
func WriteNodeCSV(g *graph.Graph, path string) error {
	names, _ := nodeAttributeSchema(g)

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("write node csv: %w", err)
	}

	w := csv.NewWriter(f)
	header := append([]string{NodeIDColumn}, names...)
	if err := w.Write(header); err != nil {
		f.Close()
		return fmt.Errorf("write node csv: %w", err)
	}

	for _, n := range g.Nodes() {
		row := make([]string, 0, len(header))
		row = append(row, n.ID)
		for _, name := range names {
			if v, ok := n.Attrs[name]; ok {
				row = append(row, v.Text())
			} else {
				row = append(row, "")
			}
		}
		if err := w.Write(row); err != nil {
			f.Close()
			return fmt.Errorf("write node csv: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return fmt.Errorf("write node csv: %w", err)
	}
	return f.Close()
}
