package lang

// Export converts the contents of s into plain Go maps suitable for
// encoding. Values map to their native form and child scopes to nested maps.
// A scope sharing its name with a value is keyed as "[name]". Functor values
// are omitted, as is any scope already being exported further up the tree.
func (s *Scope) Export() map[string]any {
	return s.export(map[*Scope]bool{})
}

func (s *Scope) export(stack map[*Scope]bool) map[string]any {
	stack[s] = true
	defer delete(stack, s)

	out := make(map[string]any, len(s.values)+len(s.scopes))

	for name, c := range s.Values() {
		if c.Kind() == KindFunctor {
			continue
		}

		out[name] = c.peek().Native()
	}

	for name, sc := range s.Scopes() {
		if stack[sc] {
			continue
		}

		key := name
		if _, taken := out[key]; taken {
			key = "[" + name + "]"
		}

		out[key] = sc.export(stack)
	}

	return out
}
