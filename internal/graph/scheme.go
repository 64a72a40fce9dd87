package graph

// DefaultPalette is the fixed color cycle used by the scheme assigner.
var DefaultPalette = []string{
	"#F79767", "#57C7E3", "#F16667", "#D9C8AE", "#8DCC93",
	"#ECB5C9", "#4C8EDA", "#FFC454", "#DA7194", "#569480",
	"#C990C0", "#A5ABB6", "#68BDF6", "#6DCE9E", "#FF756E",
	"#DE9BF9", "#FB95AF", "#FFD86E", "#B2D8B2", "#9AC2E0",
}

// FallbackColor is used for nodes without labels.
const FallbackColor = "#D3D3D3"

// Scheme maps node labels and relationship types to colors. Colors are handed
// out from the palette in first-seen order, cycling when it runs out, so the
// same arrival order always yields the same colors. Different arrival orders
// of the same labels can yield different colors.
//
// Labels and relationship types are kept in separate registries but share the
// palette cursor.
type Scheme struct {
	palette []string
	next    int

	labels     map[string]string
	labelOrder []string
	types      map[string]string
	typeOrder  []string
}

// NewScheme returns an empty scheme drawing from palette, or DefaultPalette
// when palette is empty.
func NewScheme(palette []string) *Scheme {
	if len(palette) == 0 {
		palette = DefaultPalette
	}
	return &Scheme{
		palette: append([]string(nil), palette...),
		labels:  make(map[string]string),
		types:   make(map[string]string),
	}
}

func (s *Scheme) take() string {
	c := s.palette[s.next%len(s.palette)]
	s.next++
	return c
}

// AssignLabel returns the color for label, registering it on first sight.
func (s *Scheme) AssignLabel(label string) string {
	if c, ok := s.labels[label]; ok {
		return c
	}
	c := s.take()
	s.labels[label] = c
	s.labelOrder = append(s.labelOrder, label)
	return c
}

// AssignType returns the color for a relationship type, registering it on
// first sight.
func (s *Scheme) AssignType(relType string) string {
	if c, ok := s.types[relType]; ok {
		return c
	}
	c := s.take()
	s.types[relType] = c
	s.typeOrder = append(s.typeOrder, relType)
	return c
}

// Color returns the color registered for a node label.
func (s *Scheme) Color(label string) (string, bool) {
	if s == nil {
		return "", false
	}
	c, ok := s.labels[label]
	return c, ok
}

// TypeColor returns the color registered for a relationship type.
func (s *Scheme) TypeColor(relType string) (string, bool) {
	if s == nil {
		return "", false
	}
	c, ok := s.types[relType]
	return c, ok
}

// Labels returns the registered node labels in first-seen order.
func (s *Scheme) Labels() []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s.labelOrder...)
}

// Types returns the registered relationship types in first-seen order.
func (s *Scheme) Types() []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s.typeOrder...)
}

// Len is the number of label entries.
func (s *Scheme) Len() int {
	if s == nil {
		return 0
	}
	return len(s.labelOrder)
}

// Entries returns a copy of the label to color mapping.
func (s *Scheme) Entries() map[string]string {
	out := make(map[string]string, s.Len())
	if s == nil {
		return out
	}
	for k, v := range s.labels {
		out[k] = v
	}
	return out
}
