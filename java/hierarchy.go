package java

// Supertypes lists every proper supertype of m that idx knows, nearest
// first: the superclass chain before the interfaces it collects.
func Supertypes(idx ClassIndex, m *ClassModel) []*ClassModel {
	if m == nil || idx == nil {
		return nil
	}
	seen := map[string]bool{m.Name: true}
	var out []*ClassModel
	queue := directSupertypes(m)
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		sm := idx.LookupClass(name)
		if sm == nil {
			continue
		}
		out = append(out, sm)
		queue = append(queue, directSupertypes(sm)...)
	}
	if !seen["java.lang.Object"] && m.IsInterface() {
		// interfaces inherit the public members of Object
		if obj := idx.LookupClass("java.lang.Object"); obj != nil {
			out = append(out, obj)
		}
	}
	return out
}

func directSupertypes(m *ClassModel) []string {
	out := make([]string, 0, len(m.Interfaces)+1)
	if m.SuperClass != "" {
		out = append(out, m.SuperClass)
	}
	return append(out, m.Interfaces...)
}

// IsSubtype reports whether class sub is super or inherits from it.
func IsSubtype(idx ClassIndex, sub, super string) bool {
	if sub == super || super == "java.lang.Object" {
		return true
	}
	m := idx.LookupClass(sub)
	if m == nil {
		return false
	}
	for _, s := range Supertypes(idx, m) {
		if s.Name == super {
			return true
		}
	}
	return false
}

// Outermost returns the top-level class enclosing m.
func Outermost(idx ClassIndex, m *ClassModel) *ClassModel {
	for m != nil && m.Outer != "" {
		outer := idx.LookupClass(m.Outer)
		if outer == nil {
			break
		}
		m = outer
	}
	return m
}
