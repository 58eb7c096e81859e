// Package export serializes an assembled referral graph to interchange
// formats: GraphML for network-analysis tools and flat CSV listings of
// edges and nodes. All output ordering is deterministic.
package export

import (
	"encoding/xml"
	"fmt"
	"os"
	"sort"

	"github.com/teamingnet/refgraph/pkg/graph"
)

const graphmlNamespace = "http://graphml.graphdrawing.org/xmlns"

const (
	weightKeyName   = "weight"
	edgeTypeKeyName = "edge_type"
)

type graphmlDoc struct {
	XMLName xml.Name      `xml:"graphml"`
	Xmlns   string        `xml:"xmlns,attr"`
	Keys    []graphmlKey  `xml:"key"`
	Graph   graphmlGraph  `xml:"graph"`
}

type graphmlKey struct {
	ID   string `xml:"id,attr"`
	For  string `xml:"for,attr"`
	Name string `xml:"attr.name,attr"`
	Type string `xml:"attr.type,attr"`
}

type graphmlGraph struct {
	EdgeDefault string         `xml:"edgedefault,attr"`
	Nodes       []graphmlNode  `xml:"node"`
	Edges       []graphmlEdge  `xml:"edge"`
}

type graphmlNode struct {
	ID   string        `xml:"id,attr"`
	Data []graphmlData `xml:"data"`
}

type graphmlEdge struct {
	Source string        `xml:"source,attr"`
	Target string        `xml:"target,attr"`
	Data   []graphmlData `xml:"data"`
}

type graphmlData struct {
	Key   string `xml:"key,attr"`
	Value string `xml:",chardata"`
}

func graphmlType(k graph.Kind) string {
	switch k {
	case graph.KindInt:
		return "long"
	case graph.KindFloat:
		return "double"
	case graph.KindBool:
		return "boolean"
	default:
		return "string"
	}
}

func kindFromGraphMLType(t string) (graph.Kind, error) {
	switch t {
	case "string":
		return graph.KindString, nil
	case "int", "long":
		return graph.KindInt, nil
	case "float", "double":
		return graph.KindFloat, nil
	case "boolean":
		return graph.KindBool, nil
	default:
		return graph.KindString, fmt.Errorf("unsupported graphml attr.type %q", t)
	}
}

// nodeAttributeSchema returns the sorted union of attribute names across
// all nodes, with the kind observed for each name. A name seen with
// conflicting kinds degrades to string so every value still serializes.
func nodeAttributeSchema(g *graph.Graph) ([]string, map[string]graph.Kind) {
	kinds := make(map[string]graph.Kind)
	seen := make(map[string]bool)
	for _, n := range g.Nodes() {
		for name, v := range n.Attrs {
			if !seen[name] {
				seen[name] = true
				kinds[name] = v.Kind()
			} else if kinds[name] != v.Kind() {
				kinds[name] = graph.KindString
			}
		}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, kinds
}

// WriteGraphML serializes the graph to path, preserving node attributes,
// edge weights and categories, and directedness. Attribute keys are
// declared in sorted order with their observed types.
func WriteGraphML(g *graph.Graph, path string) error {
	names, kinds := nodeAttributeSchema(g)

	keyID := make(map[string]string, len(names))
	doc := graphmlDoc{Xmlns: graphmlNamespace}
	for i, name := range names {
		id := fmt.Sprintf("d%d", i)
		keyID[name] = id
		doc.Keys = append(doc.Keys, graphmlKey{
			ID: id, For: "node", Name: name, Type: graphmlType(kinds[name]),
		})
	}
	weightID := fmt.Sprintf("d%d", len(names))
	edgeTypeID := fmt.Sprintf("d%d", len(names)+1)
	doc.Keys = append(doc.Keys,
		graphmlKey{ID: weightID, For: "edge", Name: weightKeyName, Type: "double"},
		graphmlKey{ID: edgeTypeID, For: "edge", Name: edgeTypeKeyName, Type: "string"},
	)

	doc.Graph.EdgeDefault = "undirected"
	if g.Directed() {
		doc.Graph.EdgeDefault = "directed"
	}

	for _, n := range g.Nodes() {
		gn := graphmlNode{ID: n.ID}
		for _, name := range names {
			v, ok := n.Attrs[name]
			if !ok {
				continue
			}
			gn.Data = append(gn.Data, graphmlData{Key: keyID[name], Value: v.Text()})
		}
		doc.Graph.Nodes = append(doc.Graph.Nodes, gn)
	}

	for _, e := range g.Edges() {
		doc.Graph.Edges = append(doc.Graph.Edges, graphmlEdge{
			Source: e.From,
			Target: e.To,
			Data: []graphmlData{
				{Key: weightID, Value: graph.FloatValue(e.Weight).Text()},
				{Key: edgeTypeID, Value: string(e.Category)},
			},
		})
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("write graphml: %w", err)
	}

	if _, err := f.WriteString(xml.Header); err != nil {
		f.Close()
		return fmt.Errorf("write graphml: %w", err)
	}
	enc := xml.NewEncoder(f)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		f.Close()
		return fmt.Errorf("write graphml: %w", err)
	}
	if err := enc.Close(); err != nil {
		f.Close()
		return fmt.Errorf("write graphml: %w", err)
	}
	return f.Close()
}

// ReadGraphML reconstructs a graph from a file written by WriteGraphML.
// Typed node attributes are restored according to the declared keys.
func ReadGraphML(path string) (*graph.Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("read graphml: %w", err)
	}
	defer f.Close()

	var doc graphmlDoc
	if err := xml.NewDecoder(f).Decode(&doc); err != nil {
		return nil, fmt.Errorf("read graphml: %w", err)
	}

	type keyInfo struct {
		forWhat string
		name    string
		kind    graph.Kind
	}
	keys := make(map[string]keyInfo, len(doc.Keys))
	for _, k := range doc.Keys {
		kind, err := kindFromGraphMLType(k.Type)
		if err != nil {
			return nil, fmt.Errorf("read graphml: key %s: %w", k.ID, err)
		}
		keys[k.ID] = keyInfo{forWhat: k.For, name: k.Name, kind: kind}
	}

	g := graph.New(doc.Graph.EdgeDefault == "directed")

	for _, n := range doc.Graph.Nodes {
		attrs := make(graph.Attributes, len(n.Data))
		for _, d := range n.Data {
			info, ok := keys[d.Key]
			if !ok || info.forWhat != "node" {
				return nil, fmt.Errorf("read graphml: node %s references unknown key %q", n.ID, d.Key)
			}
			v, err := graph.ParseValue(info.kind, d.Value)
			if err != nil {
				return nil, fmt.Errorf("read graphml: node %s attribute %s: %w", n.ID, info.name, err)
			}
			attrs[info.name] = v
		}
		g.AddNode(n.ID, attrs)
	}

	for _, e := range doc.Graph.Edges {
		var weight float64
		var category graph.Category
		for _, d := range e.Data {
			info, ok := keys[d.Key]
			if !ok || info.forWhat != "edge" {
				return nil, fmt.Errorf("read graphml: edge %s->%s references unknown key %q", e.Source, e.Target, d.Key)
			}
			switch info.name {
			case weightKeyName:
				v, err := graph.ParseValue(graph.KindFloat, d.Value)
				if err != nil {
					return nil, fmt.Errorf("read graphml: edge %s->%s weight: %w", e.Source, e.Target, err)
				}
				weight, _ = v.AsFloat()
			case edgeTypeKeyName:
				category = graph.Category(d.Value)
			}
		}
		if err := g.AddEdge(e.Source, e.Target, weight, category); err != nil {
			return nil, fmt.Errorf("read graphml: %w", err)
		}
	}
	return g, nil
}
