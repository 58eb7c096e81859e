package graph

// LabelAttribute is the synthetic display-label attribute set when the
// configured label column is present on a row.
const LabelAttribute = "Label"

// NodeTypeAttribute records the tier a node was staged under.
const NodeTypeAttribute = "node_type"

// Normalize converts a positional row into a typed attribute map. Columns
// whose value is NULL are silently omitted. When labelField names a column
// that survived the NULL filter, its value is copied into the Label
// attribute. The tier is always recorded under node_type.
//
// Pure function of its inputs; no error path.
func Normalize(columns []string, values []any, tier Tier, labelField string) Attributes {
	attrs := make(Attributes, len(columns)+2)
	for i, col := range columns {
		if i >= len(values) {
			break
		}
		v, ok := FromAny(values[i])
		if !ok {
			continue
		}
		attrs[col] = v
	}
	if labelField != "" {
		if v, ok := attrs[labelField]; ok {
			attrs[LabelAttribute] = v
		}
	}
	attrs[NodeTypeAttribute] = StringValue(string(tier))
	return attrs
}
