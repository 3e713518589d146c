package yamlpath

// Navigable is implemented by tree nodes that can resolve one segment to a
// child node.
type Navigable[N any] interface {
	Navigate(seg Segment) (N, bool)
}

// Traverse follows p from start, one segment at a time. It returns false as
// soon as a segment cannot be resolved.
func Traverse[N Navigable[N]](p Path, start N) (N, bool) {
	current := start
	for _, seg := range p.segments {
		next, ok := current.Navigate(seg)
		if !ok {
			var zero N
			return zero, false
		}
		current = next
	}
	return current, true
}

// Resolve follows p from start and returns the deepest node reached together
// with the number of segments consumed.
func Resolve[N Navigable[N]](p Path, start N) (N, int) {
	current := start
	for i, seg := range p.segments {
		next, ok := current.Navigate(seg)
		if !ok {
			return current, i
		}
		current = next
	}
	return current, len(p.segments)
}
