package merge

// Shallow returns a new map holding base's entries overwritten by each
// patch in order. base and the patches are not modified.
func Shallow(base map[string]any, patches ...map[string]any) map[string]any {
	n := len(base)
	for _, p := range patches {
		n += len(p)
	}
	out := make(map[string]any, n)
	for k, v := range base {
		out[k] = v
	}
	for _, p := range patches {
		for k, v := range p {
			out[k] = v
		}
	}
	return out
}
