package completion

import "github.com/dhamidi/dew/java"

// accessible reports whether a member of owner with visibility vis can be
// referenced from the completion point.
func (c *Context) accessible(owner *java.ClassModel, vis java.Visibility, abstract bool) bool {
	if owner == nil || vis == java.VisibilityPublic || vis == "" {
		return true
	}
	// an anonymous class body being written must be able to see what it
	// overrides
	if c.anonymousArgs && (abstract || owner.IsInterface()) {
		return true
	}
	s := c.sc()
	from := s.innermost()
	switch vis {
	case java.VisibilityPrivate:
		if from == nil {
			return false
		}
		return c.outermost(from) == c.outermost(owner)
	case java.VisibilityPackage:
		return c.packageName() == owner.Package
	case java.VisibilityProtected:
		if c.packageName() == owner.Package {
			return true
		}
		for _, e := range s.classes {
			if c.subclassOf(e.model, owner.Name) {
				return true
			}
		}
	}
	return false
}

// classAccessible reports whether m can be named from the completion
// point.
func (c *Context) classAccessible(m *java.ClassModel) bool {
	if m.Outer == "" {
		return m.Visibility == java.VisibilityPublic || m.Visibility == "" || m.Package == c.packageName()
	}
	outer := c.class(m.Outer)
	if outer != nil && !c.classAccessible(outer) {
		return false
	}
	return c.accessible(outer, m.Visibility, false)
}

func (c *Context) memberAccessible(mb member) bool {
	switch {
	case mb.field != nil:
		return c.accessible(mb.owner, mb.field.Visibility, false)
	case mb.method != nil:
		return c.accessible(mb.owner, mb.method.Visibility, mb.method.IsAbstract)
	}
	return true
}

func (c *Context) outermost(m *java.ClassModel) string {
	for m.Outer != "" {
		outer := c.class(m.Outer)
		if outer == nil {
			return m.Outer
		}
		m = outer
	}
	return m.Name
}

func (c *Context) subclassOf(m *java.ClassModel, super string) bool {
	if m.Name == super {
		return true
	}
	for _, s := range java.Supertypes(c.index(), m) {
		if s.Name == super {
			return true
		}
	}
	return false
}

func (c *Context) packageName() string {
	if src, _ := c.Source(); src != nil {
		return src.Package
	}
	return ""
}
