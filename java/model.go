package java

import "github.com/dhamidi/dew/java/parser"

type Visibility string

const (
	VisibilityPublic    Visibility = "public"
	VisibilityProtected Visibility = "protected"
	VisibilityPrivate   Visibility = "private"
	VisibilityPackage   Visibility = "package"
)

type ClassKind string

const (
	ClassKindClass      ClassKind = "class"
	ClassKindInterface  ClassKind = "interface"
	ClassKindEnum       ClassKind = "enum"
	ClassKindAnnotation ClassKind = "annotation"
	ClassKindRecord     ClassKind = "record"
)

// ClassModel describes one type, whether it was read from source or from
// a class file. Name uses dots throughout (x.y.Outer.Inner); BinaryName
// is the internal form used in class files (x/y/Outer$Inner).
type ClassModel struct {
	Name                string
	SimpleName          string
	Package             string
	BinaryName          string
	Outer               string
	SuperClass          string
	Interfaces          []string
	Visibility          Visibility
	Kind                ClassKind
	IsFinal             bool
	IsAbstract          bool
	IsStatic            bool
	IsSynthetic         bool
	IsSealed            bool
	IsDeprecated        bool
	MajorVersion        uint16
	MinorVersion        uint16
	SourceFile          string
	Javadoc             string
	Annotations         []AnnotationModel
	RecordComponents    []RecordComponentModel
	PermittedSubclasses []string
	InnerClasses        []InnerClassModel
	EnumConstants       []EnumConstantModel
	Fields              []FieldModel
	Methods             []MethodModel
	TypeParameters      []TypeParameterModel
	Initializers        []InitializerModel

	// Decl is the declaring syntax node for source models.
	Decl *parser.Node
}

func (c *ClassModel) IsInterface() bool {
	return c.Kind == ClassKindInterface || c.Kind == ClassKindAnnotation
}

// IsInner reports whether instances carry a reference to an enclosing
// instance.
func (c *ClassModel) IsInner() bool {
	return c.Outer != "" && !c.IsStatic && c.Kind == ClassKindClass
}

func (c *ClassModel) Field(name string) *FieldModel {
	for i := range c.Fields {
		if c.Fields[i].Name == name {
			return &c.Fields[i]
		}
	}
	return nil
}

func (c *ClassModel) MethodsNamed(name string) []*MethodModel {
	var out []*MethodModel
	for i := range c.Methods {
		if c.Methods[i].Name == name {
			out = append(out, &c.Methods[i])
		}
	}
	return out
}

func (c *ClassModel) Constructors() []*MethodModel {
	return c.MethodsNamed("<init>")
}

type InitializerModel struct {
	IsStatic bool
	Body     *parser.Node
}

type EnumConstantModel struct {
	Name      string
	Arguments []string
	Decl      *parser.Node
}

type FieldModel struct {
	Name          string
	Type          TypeModel
	Visibility    Visibility
	IsStatic      bool
	IsFinal       bool
	IsVolatile    bool
	IsTransient   bool
	IsSynthetic   bool
	IsEnum        bool
	IsDeprecated  bool
	Javadoc       string
	Annotations   []AnnotationModel
	ConstantValue interface{}

	Decl *parser.Node
	// Name token and initializer of this declarator.
	NameNode *parser.Node
	Init     *parser.Node
}

type MethodModel struct {
	Name           string
	ReturnType     TypeModel
	Parameters     []ParameterModel
	Visibility     Visibility
	IsStatic       bool
	IsFinal        bool
	IsAbstract     bool
	IsSynchronized bool
	IsNative       bool
	IsBridge       bool
	IsVarargs      bool
	IsSynthetic    bool
	IsDefault      bool
	IsDeprecated   bool
	// Implicit methods are supplied by the language rather than written:
	// default constructors, enum values/valueOf, record accessors.
	Implicit       bool
	Javadoc        string
	Annotations    []AnnotationModel
	Exceptions     []string
	TypeParameters []TypeParameterModel

	Decl *parser.Node
	Body *parser.Node
}

func (m *MethodModel) IsConstructor() bool {
	return m.Name == "<init>"
}

type ParameterModel struct {
	Name        string
	Type        TypeModel
	IsFinal     bool
	Annotations []AnnotationModel
	Decl        *parser.Node
}

type TypeModel struct {
	Name          string
	ArrayDepth    int
	TypeArguments []TypeArgumentModel
	// Variable marks a reference to a type parameter; Bound is its
	// erasure.
	Variable bool
	Bound    string
}

func (t TypeModel) String() string {
	s := t.Name
	if len(t.TypeArguments) > 0 {
		s += "<"
		for i, a := range t.TypeArguments {
			if i > 0 {
				s += ","
			}
			s += a.String()
		}
		s += ">"
	}
	for i := 0; i < t.ArrayDepth; i++ {
		s += "[]"
	}
	return s
}

func (t TypeModel) IsPrimitive() bool {
	if t.ArrayDepth > 0 {
		return false
	}
	return IsPrimitive(t.Name)
}

func (t TypeModel) IsArray() bool {
	return t.ArrayDepth > 0
}

func (t TypeModel) IsVoid() bool {
	return t.Name == "void" && t.ArrayDepth == 0
}

// Erasure is the class name the type erases to.
func (t TypeModel) Erasure() string {
	if t.Variable {
		if t.Bound != "" {
			return t.Bound
		}
		return "java.lang.Object"
	}
	return t.Name
}

// Element is the component type of an array type.
func (t TypeModel) Element() TypeModel {
	if t.ArrayDepth == 0 {
		return t
	}
	e := t
	e.ArrayDepth--
	return e
}

func IsPrimitive(name string) bool {
	switch name {
	case "boolean", "byte", "char", "short", "int", "long", "float", "double":
		return true
	}
	return false
}

type TypeArgumentModel struct {
	Type       *TypeModel
	IsWildcard bool
	BoundKind  string // "extends", "super", or "" for unbounded
	Bound      *TypeModel
}

func (a TypeArgumentModel) String() string {
	if a.IsWildcard {
		if a.Bound != nil {
			return "? " + a.BoundKind + " " + a.Bound.String()
		}
		return "?"
	}
	if a.Type != nil {
		return a.Type.String()
	}
	return ""
}

type TypeParameterModel struct {
	Name   string
	Bounds []TypeModel
}

type AnnotationModel struct {
	Type   string
	Values map[string]interface{}
}

type RecordComponentModel struct {
	Name        string
	Type        TypeModel
	Annotations []AnnotationModel
}

type InnerClassModel struct {
	InnerClass string
	OuterClass string
	InnerName  string
	Visibility Visibility
	IsStatic   bool
	IsFinal    bool
	IsAbstract bool
}
