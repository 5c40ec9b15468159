package natded

// Template is an expression parameterized over a scope that has not been
// chosen yet. It is stored as a constant tree whose variables carry NoScope;
// Instantiate replaces them with variables in a concrete scope.
//
// Templates are immutable and may be instantiated any number of times, from
// any number of goroutines.
type Template struct {
	root Expression
}

// NewTemplate returns a template over root. Variables in root that already
// carry a scope are left untouched by Instantiate.
func NewTemplate(root Expression) Template {
	return Template{root: root}
}

// Instantiate returns the template's expression with every placeholder
// variable moved into scope.
func (t Template) Instantiate(scope Scope) Expression {
	return instantiate(t.root, scope)
}

// Build instantiates the template in the builder's scope.
func (t Template) Build(b *Builder) Expression {
	return t.Instantiate(b.Scope())
}

// String returns the textual form of the template.
func (t Template) String() string {
	if t.root == nil {
		return ""
	}
	return t.root.String()
}

func instantiate(e Expression, scope Scope) Expression {
	switch x := e.(type) {
	case Variable:
		if x.Scope == NoScope {
			return Variable{Name: x.Name, Scope: scope}
		}
		return x
	case *Sequence:
		parts := make([]Expression, len(x.parts))
		for i, p := range x.parts {
			parts[i] = instantiate(p, scope)
		}
		return &Sequence{parts: parts}
	default:
		return e
	}
}
