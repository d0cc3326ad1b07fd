package java

import (
	"fmt"

	"github.com/dhamidi/dew/classfile"
)

// BodyWriter emits the code for a method body that was written in
// source. It reports false when it cannot translate the body, in which
// case the method gets a body that throws UnsupportedOperationException.
// Constructors arrive with the superclass constructor call already
// emitted.
type BodyWriter func(a *classfile.Assembler, owner *ClassModel, m *MethodModel) bool

// InternalName maps a dotted class name to its class-file form, using
// idx to tell nested classes from packages.
func InternalName(idx ClassIndex, name string) string {
	if idx != nil {
		if m := idx.LookupClass(name); m != nil && m.BinaryName != "" {
			return m.BinaryName
		}
	}
	return classfile.SourceToInternalName(name)
}

// FieldType erases t to its class-file form.
func FieldType(idx ClassIndex, t TypeModel) *classfile.FieldType {
	ft := &classfile.FieldType{ArrayDepth: t.ArrayDepth}
	name := t.Erasure()
	if IsPrimitive(name) || name == "void" {
		ft.BaseType = name
	} else {
		ft.ClassName = InternalName(idx, name)
	}
	return ft
}

// Descriptor is the field descriptor of t.
func Descriptor(idx ClassIndex, t TypeModel) string {
	return FieldType(idx, t).Descriptor()
}

// MethodDescriptor builds the descriptor of m as declared in owner,
// including the synthetic leading parameters of enum and inner class
// constructors.
func MethodDescriptor(idx ClassIndex, owner *ClassModel, m *MethodModel) *classfile.MethodDescriptor {
	md := &classfile.MethodDescriptor{}
	if m.IsConstructor() {
		switch {
		case owner.Kind == ClassKindEnum:
			md.Parameters = append(md.Parameters,
				classfile.FieldType{ClassName: "java/lang/String"},
				classfile.FieldType{BaseType: "int"})
		case owner.IsInner():
			md.Parameters = append(md.Parameters, classfile.FieldType{ClassName: InternalName(idx, owner.Outer)})
		}
	}
	for _, p := range m.Parameters {
		md.Parameters = append(md.Parameters, *FieldType(idx, p.Type))
	}
	if !m.ReturnType.IsVoid() && m.ReturnType.Name != "" {
		md.ReturnType = FieldType(idx, m.ReturnType)
	}
	return md
}

func classAccessFlags(m *ClassModel) classfile.AccessFlags {
	var flags classfile.AccessFlags
	// nested classes are public or package-private at the class-file level
	switch m.Visibility {
	case VisibilityPublic, VisibilityProtected:
		flags |= classfile.AccPublic
	}
	if m.IsFinal {
		flags |= classfile.AccFinal
	}
	if m.IsAbstract {
		flags |= classfile.AccAbstract
	}
	switch m.Kind {
	case ClassKindInterface:
		flags |= classfile.AccInterface | classfile.AccAbstract
	case ClassKindAnnotation:
		flags |= classfile.AccInterface | classfile.AccAbstract | classfile.AccAnnotation
	case ClassKindEnum:
		flags |= classfile.AccEnum | classfile.AccSuper
	default:
		flags |= classfile.AccSuper
	}
	return flags
}

func innerAccessFlags(ic InnerClassModel, kind ClassKind) classfile.AccessFlags {
	flags := visibilityFlags(ic.Visibility)
	if ic.IsStatic {
		flags |= classfile.AccStatic
	}
	if ic.IsFinal {
		flags |= classfile.AccFinal
	}
	if ic.IsAbstract {
		flags |= classfile.AccAbstract
	}
	switch kind {
	case ClassKindInterface:
		flags |= classfile.AccInterface | classfile.AccAbstract
	case ClassKindAnnotation:
		flags |= classfile.AccInterface | classfile.AccAbstract | classfile.AccAnnotation
	case ClassKindEnum:
		flags |= classfile.AccEnum
	}
	return flags
}

func visibilityFlags(v Visibility) classfile.AccessFlags {
	switch v {
	case VisibilityPublic:
		return classfile.AccPublic
	case VisibilityProtected:
		return classfile.AccProtected
	case VisibilityPrivate:
		return classfile.AccPrivate
	}
	return 0
}

func fieldAccessFlags(f *FieldModel) classfile.AccessFlags {
	flags := visibilityFlags(f.Visibility)
	if f.IsStatic {
		flags |= classfile.AccStatic
	}
	if f.IsFinal {
		flags |= classfile.AccFinal
	}
	if f.IsVolatile {
		flags |= classfile.AccVolatile
	}
	if f.IsTransient {
		flags |= classfile.AccTransient
	}
	if f.IsEnum {
		flags |= classfile.AccEnum
	}
	return flags
}

func methodAccessFlags(m *MethodModel) classfile.AccessFlags {
	flags := visibilityFlags(m.Visibility)
	if m.IsStatic {
		flags |= classfile.AccStatic
	}
	if m.IsFinal {
		flags |= classfile.AccFinal
	}
	if m.IsAbstract {
		flags |= classfile.AccAbstract
	}
	if m.IsSynchronized {
		flags |= classfile.AccSynchronized
	}
	if m.IsNative {
		flags |= classfile.AccNative
	}
	if m.IsVarargs {
		flags |= classfile.AccVarargs
	}
	return flags
}

// ClassFile lays out m as a class file. Signatures and flags follow the
// model; method bodies come from body, or are stubs when body is nil or
// declines.
func ClassFile(m *ClassModel, idx ClassIndex, body BodyWriter) (*classfile.ClassFile, error) {
	if idx == nil {
		idx = Classes{m.Name: m}
	}
	super := ""
	if m.IsInterface() {
		super = "java/lang/Object"
	} else if m.SuperClass != "" {
		super = InternalName(idx, m.SuperClass)
	}
	b := classfile.NewBuilder(classAccessFlags(m), m.BinaryName, super)
	for _, iface := range m.Interfaces {
		b.AddInterface(InternalName(idx, iface))
	}

	for i := range m.Fields {
		f := &m.Fields[i]
		var attrs []classfile.AttributeInfo
		if f.IsStatic && f.IsFinal && f.ConstantValue != nil {
			if attr, ok := constantValueAttribute(b, f.ConstantValue); ok {
				attrs = append(attrs, attr)
			}
		}
		b.AddField(fieldAccessFlags(f), f.Name, Descriptor(idx, f.Type), attrs...)
	}

	for i := range m.Methods {
		mm := &m.Methods[i]
		md := MethodDescriptor(idx, m, mm)
		var attrs []classfile.AttributeInfo
		if !mm.IsAbstract && !mm.IsNative {
			code, err := methodCode(b.Pool, idx, m, mm, md, body)
			if err != nil {
				return nil, fmt.Errorf("%s.%s: %w", m.Name, mm.Name, err)
			}
			attrs = append(attrs, code)
		}
		if len(mm.Exceptions) > 0 {
			ex := &classfile.ExceptionsAttribute{}
			for _, e := range mm.Exceptions {
				ex.ExceptionIndexTable = append(ex.ExceptionIndexTable, b.Pool.Class(InternalName(idx, e)))
			}
			attrs = append(attrs, b.Attr("Exceptions", ex.Encode()))
		}
		b.AddMethod(methodAccessFlags(mm), mm.Name, md.Descriptor(), attrs...)
	}

	if hasStaticInit(m) && body != nil {
		clinit := &MethodModel{Name: "<clinit>", IsStatic: true, ReturnType: TypeModel{Name: "void"}}
		a := classfile.NewAssembler(b.Pool, 0)
		if body(a, m, clinit) {
			b.AddMethod(classfile.AccStatic, "<clinit>", "()V", a.Attribute())
		}
	}

	if m.SourceFile != "" {
		sf := &classfile.SourceFileAttribute{SourceFileIndex: b.Pool.Utf8(m.SourceFile)}
		b.AddAttribute("SourceFile", sf.Encode())
	}
	if ic := innerClassesAttribute(b.Pool, idx, m); ic != nil {
		b.AddAttribute("InnerClasses", ic.Encode())
	}
	return b.Build(), nil
}

func hasStaticInit(m *ClassModel) bool {
	if len(m.EnumConstants) > 0 {
		return true
	}
	for _, init := range m.Initializers {
		if init.IsStatic {
			return true
		}
	}
	for _, f := range m.Fields {
		if f.IsStatic && f.Init != nil && f.ConstantValue == nil {
			return true
		}
	}
	return false
}

func constantValueAttribute(b *classfile.Builder, v interface{}) (classfile.AttributeInfo, bool) {
	var idx uint16
	switch x := v.(type) {
	case int32:
		idx = b.Pool.Integer(x)
	case bool:
		if x {
			idx = b.Pool.Integer(1)
		} else {
			idx = b.Pool.Integer(0)
		}
	case int64:
		idx = b.Pool.Long(x)
	case float32:
		idx = b.Pool.Float(x)
	case float64:
		idx = b.Pool.Double(x)
	case string:
		idx = b.Pool.String(x)
	default:
		return classfile.AttributeInfo{}, false
	}
	cv := &classfile.ConstantValueAttribute{ConstantValueIndex: idx}
	return b.Attr("ConstantValue", cv.Encode()), true
}

// innerClassesAttribute lists m itself when nested, its enclosing
// classes and its direct member classes.
func innerClassesAttribute(pool *classfile.Pool, idx ClassIndex, m *ClassModel) *classfile.InnerClassesAttribute {
	var entries []InnerClassModel
	kinds := map[string]ClassKind{}
	chain := []*ClassModel{}
	for c := m; c != nil && c.Outer != ""; c = idx.LookupClass(c.Outer) {
		chain = append([]*ClassModel{c}, chain...)
	}
	for _, c := range chain {
		entries = append(entries, InnerClassModel{
			InnerClass: c.Name,
			OuterClass: c.Outer,
			InnerName:  c.SimpleName,
			Visibility: c.Visibility,
			IsStatic:   c.IsStatic,
			IsFinal:    c.IsFinal,
			IsAbstract: c.IsAbstract,
		})
		kinds[c.Name] = c.Kind
	}
	for _, ic := range m.InnerClasses {
		entries = append(entries, ic)
		if inner := idx.LookupClass(ic.InnerClass); inner != nil {
			kinds[ic.InnerClass] = inner.Kind
		}
	}
	if len(entries) == 0 {
		return nil
	}
	attr := &classfile.InnerClassesAttribute{}
	for _, e := range entries {
		attr.Classes = append(attr.Classes, classfile.InnerClassEntry{
			InnerClassInfoIndex:   pool.Class(InternalName(idx, e.InnerClass)),
			OuterClassInfoIndex:   pool.Class(InternalName(idx, e.OuterClass)),
			InnerNameIndex:        pool.Utf8(e.InnerName),
			InnerClassAccessFlags: innerAccessFlags(e, kinds[e.InnerClass]),
		})
	}
	return attr
}

func localSlots(m *MethodModel, md *classfile.MethodDescriptor) int {
	n := md.ArgSlots()
	if !m.IsStatic {
		n++
	}
	return n
}

func methodCode(pool *classfile.Pool, idx ClassIndex, owner *ClassModel, m *MethodModel, md *classfile.MethodDescriptor, body BodyWriter) (classfile.AttributeInfo, error) {
	locals := localSlots(m, md)
	line := 0
	if m.Decl != nil {
		line = m.Decl.Span.Start.Line
	}

	if m.Implicit {
		a := classfile.NewAssembler(pool, locals)
		a.Line(line)
		ok, err := implicitBody(a, idx, owner, m, md)
		if err != nil {
			return classfile.AttributeInfo{}, err
		}
		if ok {
			return a.Attribute(), nil
		}
	} else if body != nil {
		a := classfile.NewAssembler(pool, locals)
		a.Line(line)
		if m.IsConstructor() {
			if err := superConstructorCall(a, idx, owner); err != nil {
				return classfile.AttributeInfo{}, err
			}
		}
		if body(a, owner, m) {
			return a.Attribute(), nil
		}
	}

	a := classfile.NewAssembler(pool, locals)
	a.Line(line)
	if err := stubBody(a); err != nil {
		return classfile.AttributeInfo{}, err
	}
	return a.Attribute(), nil
}

func stubBody(a *classfile.Assembler) error {
	a.New("java/lang/UnsupportedOperationException")
	if err := a.Invoke(classfile.OpInvokespecial, "java/lang/UnsupportedOperationException", "<init>", "()V"); err != nil {
		return err
	}
	a.Throw()
	return nil
}

// superConstructorCall emits the implicit super() call a constructor
// starts with.
func superConstructorCall(a *classfile.Assembler, idx ClassIndex, owner *ClassModel) error {
	a.Op(classfile.OpAload0, 1)
	switch owner.Kind {
	case ClassKindEnum:
		a.Load(&classfile.FieldType{ClassName: "java/lang/String"}, 1)
		a.Load(&classfile.FieldType{BaseType: "int"}, 2)
		return a.Invoke(classfile.OpInvokespecial, "java/lang/Enum", "<init>", "(Ljava/lang/String;I)V")
	case ClassKindRecord:
		return a.Invoke(classfile.OpInvokespecial, "java/lang/Record", "<init>", "()V")
	}
	super := "java/lang/Object"
	if owner.SuperClass != "" {
		super = InternalName(idx, owner.SuperClass)
	}
	return a.Invoke(classfile.OpInvokespecial, super, "<init>", "()V")
}

func implicitBody(a *classfile.Assembler, idx ClassIndex, owner *ClassModel, m *MethodModel, md *classfile.MethodDescriptor) (bool, error) {
	switch {
	case m.IsConstructor():
		if err := superConstructorCall(a, idx, owner); err != nil {
			return false, err
		}
		if owner.Kind == ClassKindRecord {
			slot := 1
			for i, rc := range owner.RecordComponents {
				ft := &md.Parameters[i]
				a.Op(classfile.OpAload0, 1)
				a.Load(ft, slot)
				if err := a.Field(classfile.OpPutfield, owner.BinaryName, rc.Name, ft.Descriptor()); err != nil {
					return false, err
				}
				slot += ft.Slots()
			}
		}
		a.Return(nil)
		return true, nil
	case owner.Kind == ClassKindRecord && len(m.Parameters) == 0 && owner.Field(m.Name) != nil:
		a.Op(classfile.OpAload0, 1)
		if err := a.Field(classfile.OpGetfield, owner.BinaryName, m.Name, md.ReturnType.Descriptor()); err != nil {
			return false, err
		}
		a.Return(md.ReturnType)
		return true, nil
	case owner.Kind == ClassKindEnum && m.Name == "valueOf":
		a.PushClass(owner.BinaryName)
		a.Load(&md.Parameters[0], 0)
		if err := a.Invoke(classfile.OpInvokestatic, "java/lang/Enum", "valueOf",
			"(Ljava/lang/Class;Ljava/lang/String;)Ljava/lang/Enum;"); err != nil {
			return false, err
		}
		a.Checkcast(owner.BinaryName)
		a.Return(md.ReturnType)
		return true, nil
	}
	return false, nil
}
