package java

import (
	"fmt"
	"io"
	"strings"

	"github.com/dhamidi/dew/classfile"
)

// ClassModelFromReader parses one class file.
func ClassModelFromReader(r io.Reader) (*ClassModel, error) {
	cf, err := classfile.Parse(r)
	if err != nil {
		return nil, err
	}
	return ClassModelFromClassFile(cf), nil
}

// ClassModelFromClassFile builds a model for a compiled class. Nested
// classes take their enclosing class and static-ness from the
// InnerClasses attribute.
func ClassModelFromClassFile(cf *classfile.ClassFile) *ClassModel {
	cp := cf.ConstantPool
	binary := cf.ClassName()

	model := &ClassModel{
		BinaryName:   binary,
		MajorVersion: cf.MajorVersion,
		MinorVersion: cf.MinorVersion,
		Visibility:   visibilityFromAccessFlags(cf.AccessFlags),
		Kind:         classKindFromClassFile(cf),
		IsFinal:      cf.AccessFlags.IsFinal(),
		IsAbstract:   cf.AccessFlags.IsAbstract(),
		IsSynthetic:  cf.AccessFlags.IsSynthetic(),
		Annotations:  annotationsOf(cf.Attributes, cp),
	}
	model.Package, _ = splitClassName(classfile.InternalToSourceName(binary))
	model.Name = binaryToSourceName(binary)
	model.SimpleName = extractSimpleName(model.Name)

	if cf.SuperClass != 0 {
		model.SuperClass = binaryToSourceName(cf.SuperClassName())
	}
	for _, iface := range cf.InterfaceNames() {
		model.Interfaces = append(model.Interfaces, binaryToSourceName(iface))
	}

	for i := range cf.Attributes {
		switch attr := cf.Attributes[i].Parsed.(type) {
		case *classfile.SourceFileAttribute:
			model.SourceFile = cp.GetUtf8(attr.SourceFileIndex)
		case *classfile.DeprecatedAttribute:
			model.IsDeprecated = true
		case *classfile.RecordAttribute:
			model.Kind = ClassKindRecord
		case *classfile.InnerClassesAttribute:
			readInnerClasses(model, attr, cp)
		}
	}
	if hasAnnotation(model.Annotations, "java.lang.Deprecated") {
		model.IsDeprecated = true
	}

	for i := range cf.Fields {
		field := &cf.Fields[i]
		if field.IsSynthetic() {
			continue
		}
		fm := fieldModelFromFieldInfo(field, cp)
		model.Fields = append(model.Fields, fm)
		if fm.IsEnum {
			model.EnumConstants = append(model.EnumConstants, EnumConstantModel{Name: fm.Name})
		}
	}

	for i := range cf.Methods {
		method := &cf.Methods[i]
		if method.IsSynthetic() || method.IsBridge() {
			continue
		}
		if method.IsStaticInitializer(cp) {
			continue
		}
		mm := methodModelFromMethodInfo(method, cp)
		if mm.IsConstructor() && model.IsInner() && len(mm.Parameters) > 0 {
			// drop the enclosing instance parameter
			mm.Parameters = mm.Parameters[1:]
		}
		model.Methods = append(model.Methods, mm)
	}

	return model
}

func readInnerClasses(model *ClassModel, attr *classfile.InnerClassesAttribute, cp classfile.ConstantPool) {
	for _, entry := range attr.Classes {
		inner := cp.GetClassName(entry.InnerClassInfoIndex)
		outer := ""
		if entry.OuterClassInfoIndex != 0 {
			outer = cp.GetClassName(entry.OuterClassInfoIndex)
		}
		flags := entry.InnerClassAccessFlags
		if inner == model.BinaryName {
			if outer != "" {
				model.Outer = binaryToSourceName(outer)
			}
			model.IsStatic = flags.IsStatic()
			model.Visibility = visibilityFromAccessFlags(flags)
			if entry.InnerNameIndex != 0 {
				model.SimpleName = cp.GetUtf8(entry.InnerNameIndex)
			}
			continue
		}
		if outer != model.BinaryName || entry.InnerNameIndex == 0 {
			continue
		}
		model.InnerClasses = append(model.InnerClasses, InnerClassModel{
			InnerClass: binaryToSourceName(inner),
			OuterClass: model.Name,
			InnerName:  cp.GetUtf8(entry.InnerNameIndex),
			Visibility: visibilityFromAccessFlags(flags),
			IsStatic:   flags.IsStatic(),
			IsFinal:    flags.IsFinal(),
			IsAbstract: flags.IsAbstract(),
		})
	}
}

func splitClassName(fullName string) (pkg, simpleName string) {
	lastDot := strings.LastIndex(fullName, ".")
	if lastDot == -1 {
		return "", fullName
	}
	return fullName[:lastDot], fullName[lastDot+1:]
}

func extractSimpleName(fullName string) string {
	_, simpleName := splitClassName(fullName)
	return simpleName
}

func visibilityFromAccessFlags(flags classfile.AccessFlags) Visibility {
	if flags.IsPublic() {
		return VisibilityPublic
	}
	if flags.IsProtected() {
		return VisibilityProtected
	}
	if flags.IsPrivate() {
		return VisibilityPrivate
	}
	return VisibilityPackage
}

func classKindFromClassFile(cf *classfile.ClassFile) ClassKind {
	if cf.IsAnnotation() {
		return ClassKindAnnotation
	}
	if cf.IsEnum() {
		return ClassKindEnum
	}
	if cf.IsInterface() {
		return ClassKindInterface
	}
	return ClassKindClass
}

func fieldModelFromFieldInfo(f *classfile.FieldInfo, cp classfile.ConstantPool) FieldModel {
	fm := FieldModel{
		Name:        f.Name(cp),
		Type:        typeModelFromFieldType(f.ParsedDescriptor(cp)),
		Visibility:  visibilityFromAccessFlags(f.AccessFlags),
		IsStatic:    f.IsStatic(),
		IsFinal:     f.IsFinal(),
		IsVolatile:  f.IsVolatile(),
		IsTransient: f.IsTransient(),
		IsSynthetic: f.IsSynthetic(),
		IsEnum:      f.IsEnum(),
		Annotations: annotationsOf(f.Attributes, cp),
	}
	for i := range f.Attributes {
		switch attr := f.Attributes[i].Parsed.(type) {
		case *classfile.ConstantValueAttribute:
			fm.ConstantValue = constantValue(cp, attr.ConstantValueIndex, fm.Type)
		case *classfile.DeprecatedAttribute:
			fm.IsDeprecated = true
		}
	}
	return fm
}

// constantValue decodes a ConstantValue entry into the Go value used for
// literals of type t.
func constantValue(cp classfile.ConstantPool, idx uint16, t TypeModel) interface{} {
	switch t.Name {
	case "boolean":
		if v, ok := cp.GetInteger(idx); ok {
			return v != 0
		}
	case "byte", "short", "int", "char":
		if v, ok := cp.GetInteger(idx); ok {
			return v
		}
	case "long":
		if v, ok := cp.GetLong(idx); ok {
			return v
		}
	case "float":
		if v, ok := cp.GetFloat(idx); ok {
			return v
		}
	case "double":
		if v, ok := cp.GetDouble(idx); ok {
			return v
		}
	case "java.lang.String":
		return cp.GetString(idx)
	}
	return nil
}

func methodModelFromMethodInfo(m *classfile.MethodInfo, cp classfile.ConstantPool) MethodModel {
	model := MethodModel{
		Name:           m.Name(cp),
		Visibility:     visibilityFromAccessFlags(m.AccessFlags),
		IsStatic:       m.IsStatic(),
		IsFinal:        m.IsFinal(),
		IsAbstract:     m.IsAbstract(),
		IsSynchronized: m.IsSynchronized(),
		IsNative:       m.IsNative(),
		IsBridge:       m.IsBridge(),
		IsVarargs:      m.IsVarargs(),
		IsSynthetic:    m.IsSynthetic(),
		Annotations:    annotationsOf(m.Attributes, cp),
	}

	var names []string
	for i := range m.Attributes {
		switch attr := m.Attributes[i].Parsed.(type) {
		case *classfile.ExceptionsAttribute:
			for _, idx := range attr.ExceptionIndexTable {
				model.Exceptions = append(model.Exceptions, binaryToSourceName(cp.GetClassName(idx)))
			}
		case *classfile.MethodParametersAttribute:
			for _, p := range attr.Parameters {
				names = append(names, cp.GetUtf8(p.NameIndex))
			}
		case *classfile.DeprecatedAttribute:
			model.IsDeprecated = true
		}
	}

	desc := m.ParsedDescriptor(cp)
	if desc == nil {
		model.ReturnType = TypeModel{Name: "void"}
		return model
	}
	model.ReturnType = typeModelFromFieldType(desc.ReturnType)
	for i := range desc.Parameters {
		model.Parameters = append(model.Parameters, ParameterModel{
			Name: parameterName(names, i),
			Type: typeModelFromFieldType(&desc.Parameters[i]),
		})
	}
	return model
}

func typeModelFromFieldType(ft *classfile.FieldType) TypeModel {
	if ft == nil {
		return TypeModel{Name: "void"}
	}
	model := TypeModel{ArrayDepth: ft.ArrayDepth}
	if ft.BaseType != "" {
		model.Name = ft.BaseType
	} else if ft.ClassName != "" {
		model.Name = binaryToSourceName(ft.ClassName)
	}
	return model
}

// parameterName falls back to argN when the class carries no
// MethodParameters attribute.
func parameterName(names []string, i int) string {
	if i < len(names) && names[i] != "" {
		return names[i]
	}
	return fmt.Sprintf("arg%d", i)
}
