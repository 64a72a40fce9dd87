package graph

// DefaultNodeSize is the display weight of a node no size rule applies to.
const DefaultNodeSize = 20

// CaptionRule names the properties tried, in order, for nodes carrying Label.
// The label "*" applies to every node.
type CaptionRule struct {
	Label      string   `toml:"label"`
	Properties []string `toml:"properties"`
}

// SizeRule sets the display weight of nodes carrying Label.
type SizeRule struct {
	Label string  `toml:"label"`
	Size  float64 `toml:"size"`
}

// DefaultCaptionRules prefers file names for documents and falls back to the
// usual identifying properties for everything else.
var DefaultCaptionRules = []CaptionRule{
	{Label: "Document", Properties: []string{"fileName", "name"}},
	{Label: "*", Properties: []string{"name", "fileName", "id", "title"}},
}

// DefaultSizeRules make documents and chunks stand out on the canvas.
var DefaultSizeRules = []SizeRule{
	{Label: "Document", Size: 40},
	{Label: "Chunk", Size: 30},
}

// Report counts what normalization discarded.
type Report struct {
	DuplicateNodes         int
	DuplicateRelationships int
	DanglingRelationships  int
}

// Normalizer builds canonical graphs from raw records.
type Normalizer struct {
	palette      []string
	captionRules []CaptionRule
	sizeRules    []SizeRule
	nodeSize     float64
}

// Option configures a Normalizer.
type Option func(*Normalizer)

// WithPalette replaces the scheme palette.
func WithPalette(palette []string) Option {
	return func(n *Normalizer) {
		if len(palette) > 0 {
			n.palette = palette
		}
	}
}

// WithCaptionRules replaces the caption precedence table.
func WithCaptionRules(rules []CaptionRule) Option {
	return func(n *Normalizer) {
		if len(rules) > 0 {
			n.captionRules = rules
		}
	}
}

// WithSizeRules replaces the per-label size table.
func WithSizeRules(rules []SizeRule) Option {
	return func(n *Normalizer) {
		n.sizeRules = rules
	}
}

// WithNodeSize sets the default display weight.
func WithNodeSize(size float64) Option {
	return func(n *Normalizer) {
		if size > 0 {
			n.nodeSize = size
		}
	}
}

// NewNormalizer returns a Normalizer with the default tables, adjusted by opts.
func NewNormalizer(opts ...Option) *Normalizer {
	n := &Normalizer{
		palette:      DefaultPalette,
		captionRules: DefaultCaptionRules,
		sizeRules:    DefaultSizeRules,
		nodeSize:     DefaultNodeSize,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// NodeSize is the default display weight used by this normalizer.
func (n *Normalizer) NodeSize() float64 {
	return n.nodeSize
}

// Normalize is NewNormalizer().Normalize with the default tables.
func Normalize(raw RawGraph) Graph {
	g, _ := NewNormalizer().Normalize(raw)
	return g
}

// Normalize deduplicates raw records by element id, drops relationships whose
// endpoints did not survive, derives captions and sizes, and colors labels
// and relationship types in first-seen order (nodes first, then
// relationships). A duplicate keeps the position of its first occurrence and
// the content of its last.
//
// Zero nodes is not an error; the caller decides how to present it.
func (n *Normalizer) Normalize(raw RawGraph) (Graph, Report) {
	var report Report
	scheme := NewScheme(n.palette)

	rawNodes, dups := dedupe(raw.Nodes, func(r RawNode) string { return r.ElementID })
	report.DuplicateNodes = dups

	nodes := make([]Node, 0, len(rawNodes))
	for _, r := range rawNodes {
		labels := uniqueLabels(r.Labels)
		color := FallbackColor
		for i, label := range labels {
			c := scheme.AssignLabel(label)
			if i == 0 {
				color = c
			}
		}
		props := r.Properties.Clone()
		nodes = append(nodes, Node{
			ID:         r.ElementID,
			Labels:     labels,
			Caption:    n.caption(r.ElementID, labels, props),
			Properties: props,
			Size:       n.size(labels),
			Color:      color,
		})
	}

	ids := nodeIDSet(nodes)
	rawRels, dups := dedupe(raw.Relationships, func(r RawRelationship) string { return r.ElementID })
	report.DuplicateRelationships = dups

	rels := make([]Relationship, 0, len(rawRels))
	for _, r := range rawRels {
		_, okFrom := ids[r.StartElementID]
		_, okTo := ids[r.EndElementID]
		if !okFrom || !okTo {
			report.DanglingRelationships++
			continue
		}
		rels = append(rels, Relationship{
			ID:       r.ElementID,
			Type:     r.Type,
			From:     r.StartElementID,
			To:       r.EndElementID,
			Caption:  r.Type,
			Captions: r.Properties.Clone(),
			Color:    scheme.AssignType(r.Type),
		})
	}

	return Graph{Nodes: nodes, Relationships: rels, Scheme: scheme}, report
}

func (n *Normalizer) caption(id string, labels []string, props Properties) string {
	for _, rule := range n.captionRules {
		if rule.Label != "*" && !containsLabel(labels, rule.Label) {
			continue
		}
		for _, key := range rule.Properties {
			if text := props.Text(key); text != "" {
				return text
			}
		}
	}
	if len(labels) > 0 {
		return labels[0]
	}
	return id
}

func (n *Normalizer) size(labels []string) float64 {
	for _, rule := range n.sizeRules {
		if containsLabel(labels, rule.Label) {
			return rule.Size
		}
	}
	return n.nodeSize
}

// dedupe keeps one record per key at the position of its first occurrence,
// holding the content of its last.
func dedupe[T any](records []T, key func(T) string) ([]T, int) {
	index := make(map[string]int, len(records))
	out := make([]T, 0, len(records))
	dups := 0
	for _, r := range records {
		k := key(r)
		if i, ok := index[k]; ok {
			out[i] = r
			dups++
			continue
		}
		index[k] = len(out)
		out = append(out, r)
	}
	return out, dups
}

func uniqueLabels(labels []string) []string {
	out := make([]string, 0, len(labels))
	for _, l := range labels {
		if l == "" || containsLabel(out, l) {
			continue
		}
		out = append(out, l)
	}
	return out
}

func containsLabel(labels []string, label string) bool {
	for _, l := range labels {
		if l == label {
			return true
		}
	}
	return false
}
