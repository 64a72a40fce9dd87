package graph

// Bucket is a named classification category for nodes.
type Bucket string

const (
	BucketDocumentChunk Bucket = "DocumentChunk"
	BucketTables        Bucket = "Tables"
	BucketEntities      Bucket = "Entities"
)

// Title is the tab caption for the bucket.
func (b Bucket) Title() string {
	switch b {
	case BucketDocumentChunk:
		return "Document & Chunk"
	case BucketTables:
		return "Tables"
	case BucketEntities:
		return "Entities"
	default:
		return string(b)
	}
}

// BucketRule assigns Bucket to nodes carrying any of AnyOf. A rule with an
// empty AnyOf matches every node.
type BucketRule struct {
	Bucket Bucket
	AnyOf  []string
}

func (r BucketRule) matches(labels []string) bool {
	if len(r.AnyOf) == 0 {
		return true
	}
	for _, l := range r.AnyOf {
		if containsLabel(labels, l) {
			return true
		}
	}
	return false
}

// DefaultBucketRules is the priority table: the first matching rule wins.
var DefaultBucketRules = []BucketRule{
	{Bucket: BucketDocumentChunk, AnyOf: []string{"Document", "Chunk"}},
	{Bucket: BucketTables, AnyOf: []string{"Table", "TableRow", "TableCell"}},
	{Bucket: BucketEntities},
}

// Classifier sorts nodes into buckets using an ordered rule table.
type Classifier struct {
	rules []BucketRule
}

// NewClassifier returns a classifier over rules, or DefaultBucketRules when
// rules is empty.
func NewClassifier(rules []BucketRule) *Classifier {
	if len(rules) == 0 {
		rules = DefaultBucketRules
	}
	return &Classifier{rules: rules}
}

var defaultClassifier = NewClassifier(nil)

// Buckets lists every bucket the classifier can produce, in priority order.
func (c *Classifier) Buckets() []Bucket {
	out := make([]Bucket, 0, len(c.rules))
	for _, r := range c.rules {
		if !containsBucket(out, r.Bucket) {
			out = append(out, r.Bucket)
		}
	}
	return out
}

// BucketOf returns the bucket of the first rule matching labels. The second
// result is false only when no rule matches, which cannot happen with a
// catch-all rule in the table.
func (c *Classifier) BucketOf(labels []string) (Bucket, bool) {
	for _, r := range c.rules {
		if r.matches(labels) {
			return r.Bucket, true
		}
	}
	return "", false
}

// Classify returns the buckets present in nodes, in priority order.
func (c *Classifier) Classify(nodes []Node) []Bucket {
	present := make(map[Bucket]bool)
	for _, n := range nodes {
		if b, ok := c.BucketOf(n.Labels); ok {
			present[b] = true
		}
	}
	out := make([]Bucket, 0, len(present))
	for _, b := range c.Buckets() {
		if present[b] {
			out = append(out, b)
		}
	}
	return out
}

// DefaultBucket is the first non-empty bucket in priority order.
func (c *Classifier) DefaultBucket(nodes []Node) (Bucket, bool) {
	present := c.Classify(nodes)
	if len(present) == 0 {
		return "", false
	}
	return present[0], true
}

// Project restricts g to the nodes in buckets and the relationships between
// them. If g has no nodes or no relationships it is returned unchanged. The
// scheme passes through unfiltered.
func (c *Classifier) Project(buckets []Bucket, g Graph) Graph {
	if len(g.Nodes) == 0 || len(g.Relationships) == 0 {
		return g
	}
	nodes := make([]Node, 0, len(g.Nodes))
	for _, n := range g.Nodes {
		if b, ok := c.BucketOf(n.Labels); ok && containsBucket(buckets, b) {
			nodes = append(nodes, n)
		}
	}
	return Graph{
		Nodes:         nodes,
		Relationships: connected(g.Relationships, nodeIDSet(nodes)),
		Scheme:        g.Scheme,
	}
}

// BucketOf classifies labels with the default rules.
func BucketOf(labels []string) Bucket {
	b, _ := defaultClassifier.BucketOf(labels)
	return b
}

// Classify uses the default rules.
func Classify(nodes []Node) []Bucket {
	return defaultClassifier.Classify(nodes)
}

// DefaultBucket uses the default rules.
func DefaultBucket(nodes []Node) (Bucket, bool) {
	return defaultClassifier.DefaultBucket(nodes)
}

// Project uses the default rules.
func Project(buckets []Bucket, g Graph) Graph {
	return defaultClassifier.Project(buckets, g)
}

func containsBucket(buckets []Bucket, b Bucket) bool {
	for _, x := range buckets {
		if x == b {
			return true
		}
	}
	return false
}
