package lang

import "strings"

// Cleanup removes temporaries from s when its [Mode.Filter] is set: functor
// values, values named with [PrivatePrefix], the [Return] value and the
// [Anonymous] scope slot. Child scopes are cleaned first, each according to
// its own mode. Other child scopes are kept whatever their names. With the
// filter unset, Cleanup does nothing. Cleanup is idempotent.
func (s *Scope) Cleanup() {
	s.cleanup(make(map[*Scope]bool))
}

func (s *Scope) cleanup(seen map[*Scope]bool) {
	if seen[s] || !s.mode.Filter {
		return
	}

	seen[s] = true

	for _, c := range s.scopes {
		c.cleanup(seen)
	}

	for name, c := range s.values {
		if name == Return || isPrivate(name) || c.Kind() == KindFunctor {
			delete(s.values, name)
		}
	}

	delete(s.scopes, Anonymous)
}

func isPrivate(name string) bool {
	return strings.HasPrefix(name, PrivatePrefix)
}
