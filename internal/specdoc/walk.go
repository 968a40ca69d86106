package specdoc

// Visitor is called for every mapping reached by Walk.
type Visitor func(m *Mapping)

// Walk visits n depth-first. Each mapping is handed to visit before its
// values are walked, so changes made by visit are seen by the descent.
// Scalars are never visited.
func Walk(n Node, visit Visitor) {
	switch v := n.(type) {
	case *Mapping:
		visit(v)
		for _, key := range v.keys {
			Walk(v.values[key], visit)
		}
	case *Sequence:
		for _, item := range v.Items {
			Walk(item, visit)
		}
	}
}
