package java

import (
	"bytes"
	"testing"

	"github.com/dhamidi/dew/classfile"
)

func roundTrip(t *testing.T, m *ClassModel, idx ClassIndex, body BodyWriter) *classfile.ClassFile {
	t.Helper()
	cf, err := ClassFile(m, idx, body)
	if err != nil {
		t.Fatalf("ClassFile: %v", err)
	}
	data, err := cf.Bytes()
	if err != nil {
		t.Fatalf("Bytes: %v", err)
	}
	parsed, err := classfile.Parse(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return parsed
}

func methodNamed(t *testing.T, cf *classfile.ClassFile, name string) *classfile.MethodInfo {
	t.Helper()
	for i := range cf.Methods {
		if cf.Methods[i].Name(cf.ConstantPool) == name {
			return &cf.Methods[i]
		}
	}
	t.Fatalf("no method %s", name)
	return nil
}

func TestClassFileFromSource(t *testing.T) {
	u := completeUnit(t, `package x.y;
public class Outer {
    public static final int LIMIT = 3;
    private String name;
    public Outer(String name) {}
    public abstract static class Shape { abstract double area(); }
    class Inner { Inner(int n) {} }
    String greet(String who, int... times) { return "hi"; }
}`, platform())
	idx := u.Index()

	outer := roundTrip(t, u.Classes[0], idx, nil)
	if outer.ClassName() != "x/y/Outer" || outer.SuperClassName() != "java/lang/Object" {
		t.Errorf("class = %s extends %s", outer.ClassName(), outer.SuperClassName())
	}
	if outer.MajorVersion != classfile.DefaultMajorVersion {
		t.Errorf("major version = %d", outer.MajorVersion)
	}
	greet := methodNamed(t, outer, "greet")
	if got := greet.Descriptor(outer.ConstantPool); got != "(Ljava/lang/String;[I)Ljava/lang/String;" {
		t.Errorf("greet descriptor = %s", got)
	}
	if !greet.IsVarargs() {
		t.Error("greet must be varargs")
	}
	ctor := methodNamed(t, outer, "<init>")
	if got := ctor.Descriptor(outer.ConstantPool); got != "(Ljava/lang/String;)V" {
		t.Errorf("constructor descriptor = %s", got)
	}

	model := ClassModelFromClassFile(outer)
	if f := model.Field("LIMIT"); f == nil || f.ConstantValue != int32(3) {
		t.Errorf("LIMIT = %+v", f)
	}
	if len(model.InnerClasses) != 2 {
		t.Errorf("inner classes = %+v", model.InnerClasses)
	}

	shape := roundTrip(t, u.Classes[1], idx, nil)
	if shape.ClassName() != "x/y/Outer$Shape" {
		t.Errorf("nested binary name = %s", shape.ClassName())
	}
	area := methodNamed(t, shape, "area")
	if !area.IsAbstract() || area.GetCodeAttribute(shape.ConstantPool) != nil {
		t.Error("abstract methods carry no code")
	}
	if sm := ClassModelFromClassFile(shape); !sm.IsStatic || sm.Outer != "x.y.Outer" {
		t.Errorf("Shape static=%v outer=%q", sm.IsStatic, sm.Outer)
	}

	inner := roundTrip(t, u.Classes[2], idx, nil)
	innerCtor := methodNamed(t, inner, "<init>")
	if got := innerCtor.Descriptor(inner.ConstantPool); got != "(Lx/y/Outer;I)V" {
		t.Errorf("inner constructor descriptor = %s", got)
	}
}

func TestClassFileEnumAndRecord(t *testing.T) {
	u := completeUnit(t, `package p;
enum Color { RED, GREEN }
record Point(int x, long y) {}
`, platform())
	idx := u.Index()

	color := roundTrip(t, u.Classes[0], idx, nil)
	if !color.IsEnum() || color.SuperClassName() != "java/lang/Enum" {
		t.Errorf("enum flags %v super %s", color.IsEnum(), color.SuperClassName())
	}
	if got := methodNamed(t, color, "<init>").Descriptor(color.ConstantPool); got != "(Ljava/lang/String;I)V" {
		t.Errorf("enum constructor descriptor = %s", got)
	}
	if got := methodNamed(t, color, "values").Descriptor(color.ConstantPool); got != "()[Lp/Color;" {
		t.Errorf("values descriptor = %s", got)
	}

	point := roundTrip(t, u.Classes[1], idx, nil)
	if got := methodNamed(t, point, "<init>").Descriptor(point.ConstantPool); got != "(IJ)V" {
		t.Errorf("canonical constructor descriptor = %s", got)
	}
	code := methodNamed(t, point, "y").GetCodeAttribute(point.ConstantPool)
	if code == nil || code.Code[len(code.Code)-1] != byte(classfile.OpLreturn) {
		t.Errorf("accessor y must return a long, code = %v", code)
	}
}

func TestClassFileBodyWriter(t *testing.T) {
	u := completeUnit(t, `class A { int answer() { return 42; } void other() { } }`, platform())
	var seen []string
	body := func(a *classfile.Assembler, owner *ClassModel, m *MethodModel) bool {
		seen = append(seen, m.Name)
		if m.Name != "answer" {
			return false
		}
		a.PushInt(42)
		a.Return(&classfile.FieldType{BaseType: "int"})
		return true
	}
	cf := roundTrip(t, u.Classes[0], u.Index(), body)

	answer := methodNamed(t, cf, "answer").GetCodeAttribute(cf.ConstantPool)
	if want := []byte{byte(classfile.OpBipush), 42, byte(classfile.OpIreturn)}; !bytes.Equal(answer.Code, want) {
		t.Errorf("answer code = %v, want %v", answer.Code, want)
	}
	other := methodNamed(t, cf, "other").GetCodeAttribute(cf.ConstantPool)
	if other.Code[len(other.Code)-1] != byte(classfile.OpAthrow) {
		t.Errorf("declined bodies must throw, code = %v", other.Code)
	}
	if len(seen) != 2 {
		t.Errorf("body writer saw %v", seen)
	}
}
