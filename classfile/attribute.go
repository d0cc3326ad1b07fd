package classfile

import "encoding/binary"

// AttributeInfo is one attribute. Parsed holds the decoded form of the
// attributes the type model reads; other attributes keep only Info.
type AttributeInfo struct {
	NameIndex uint16
	Info      []byte
	Parsed    interface{}
}

type CodeAttribute struct {
	MaxStack       uint16
	MaxLocals      uint16
	Code           []byte
	ExceptionTable []ExceptionTableEntry
	Attributes     []AttributeInfo
}

type ExceptionTableEntry struct {
	StartPC   uint16
	EndPC     uint16
	HandlerPC uint16
	CatchType uint16
}

type LineNumberTableAttribute struct {
	LineNumberTable []LineNumberEntry
}

type LineNumberEntry struct {
	StartPC    uint16
	LineNumber uint16
}

type SourceFileAttribute struct {
	SourceFileIndex uint16
}

type ConstantValueAttribute struct {
	ConstantValueIndex uint16
}

type ExceptionsAttribute struct {
	ExceptionIndexTable []uint16
}

type InnerClassesAttribute struct {
	Classes []InnerClassEntry
}

type InnerClassEntry struct {
	InnerClassInfoIndex   uint16
	OuterClassInfoIndex   uint16
	InnerNameIndex        uint16
	InnerClassAccessFlags AccessFlags
}

type DeprecatedAttribute struct{}

type MethodParametersAttribute struct {
	Parameters []MethodParameter
}

type MethodParameter struct {
	NameIndex   uint16
	AccessFlags AccessFlags
}

// RecordAttribute marks a record class. Component attributes are kept
// undecoded.
type RecordAttribute struct {
	Components []RecordComponentInfo
}

type RecordComponentInfo struct {
	NameIndex       uint16
	DescriptorIndex uint16
	Attributes      []AttributeInfo
}

type Annotation struct {
	TypeIndex         uint16
	ElementValuePairs []ElementValuePair
}

type ElementValuePair struct {
	ElementNameIndex uint16
	Value            ElementValue
}

// ElementValue is an annotation element. Value is a constant pool index
// (uint16) for constants and classes, an EnumConstValue, a nested
// Annotation or an ArrayValue, depending on Tag.
type ElementValue struct {
	Tag   byte
	Value interface{}
}

type EnumConstValue struct {
	TypeNameIndex  uint16
	ConstNameIndex uint16
}

type ArrayValue struct {
	Values []ElementValue
}

type RuntimeVisibleAnnotationsAttribute struct {
	Annotations []Annotation
}

type RuntimeInvisibleAnnotationsAttribute struct {
	Annotations []Annotation
}

func parsedAs[T any](a *AttributeInfo) *T {
	v, _ := a.Parsed.(*T)
	return v
}

func (a *AttributeInfo) AsCode() *CodeAttribute { return parsedAs[CodeAttribute](a) }
func (a *AttributeInfo) AsLineNumberTable() *LineNumberTableAttribute {
	return parsedAs[LineNumberTableAttribute](a)
}
func (a *AttributeInfo) AsSourceFile() *SourceFileAttribute { return parsedAs[SourceFileAttribute](a) }
func (a *AttributeInfo) AsConstantValue() *ConstantValueAttribute {
	return parsedAs[ConstantValueAttribute](a)
}

// decodeAttribute fills in Parsed for the attributes named here. A
// truncated body leaves Parsed nil.
func decodeAttribute(attr *AttributeInfo, cp ConstantPool) {
	r := &attrReader{b: attr.Info}
	var parsed interface{}
	switch cp.GetUtf8(attr.NameIndex) {
	case "Code":
		parsed = r.code(cp)
	case "LineNumberTable":
		parsed = r.lineNumbers()
	case "SourceFile":
		parsed = &SourceFileAttribute{SourceFileIndex: r.u2()}
	case "ConstantValue":
		parsed = &ConstantValueAttribute{ConstantValueIndex: r.u2()}
	case "Exceptions":
		parsed = &ExceptionsAttribute{ExceptionIndexTable: r.indexes()}
	case "InnerClasses":
		parsed = r.innerClasses()
	case "Deprecated":
		parsed = &DeprecatedAttribute{}
	case "MethodParameters":
		parsed = r.methodParameters()
	case "Record":
		parsed = r.record()
	case "RuntimeVisibleAnnotations":
		parsed = &RuntimeVisibleAnnotationsAttribute{Annotations: r.annotations()}
	case "RuntimeInvisibleAnnotations":
		parsed = &RuntimeInvisibleAnnotationsAttribute{Annotations: r.annotations()}
	default:
		return
	}
	if !r.short {
		attr.Parsed = parsed
	}
}

// attrReader reads big-endian values from an attribute body. Reading
// past the end yields zeros and sets short.
type attrReader struct {
	b     []byte
	off   int
	short bool
}

func (r *attrReader) take(n int) []byte {
	if r.short || n < 0 || r.off+n > len(r.b) {
		r.short = true
		return nil
	}
	p := r.b[r.off : r.off+n]
	r.off += n
	return p
}

func (r *attrReader) u1() uint8 {
	if p := r.take(1); p != nil {
		return p[0]
	}
	return 0
}

func (r *attrReader) u2() uint16 {
	if p := r.take(2); p != nil {
		return binary.BigEndian.Uint16(p)
	}
	return 0
}

func (r *attrReader) u4() uint32 {
	if p := r.take(4); p != nil {
		return binary.BigEndian.Uint32(p)
	}
	return 0
}

// attributes reads a u2-counted attribute table. Nested attributes are
// decoded the same way as top-level ones.
func (r *attrReader) attributes(cp ConstantPool) []AttributeInfo {
	n := int(r.u2())
	out := make([]AttributeInfo, 0, n)
	for i := 0; i < n && !r.short; i++ {
		attr := AttributeInfo{NameIndex: r.u2()}
		attr.Info = r.take(int(r.u4()))
		if r.short {
			break
		}
		decodeAttribute(&attr, cp)
		out = append(out, attr)
	}
	return out
}

func (r *attrReader) code(cp ConstantPool) *CodeAttribute {
	c := &CodeAttribute{MaxStack: r.u2(), MaxLocals: r.u2()}
	c.Code = r.take(int(r.u4()))
	n := int(r.u2())
	for i := 0; i < n && !r.short; i++ {
		c.ExceptionTable = append(c.ExceptionTable, ExceptionTableEntry{
			StartPC:   r.u2(),
			EndPC:     r.u2(),
			HandlerPC: r.u2(),
			CatchType: r.u2(),
		})
	}
	c.Attributes = r.attributes(cp)
	return c
}

func (r *attrReader) lineNumbers() *LineNumberTableAttribute {
	n := int(r.u2())
	lnt := &LineNumberTableAttribute{LineNumberTable: make([]LineNumberEntry, 0, n)}
	for i := 0; i < n && !r.short; i++ {
		lnt.LineNumberTable = append(lnt.LineNumberTable, LineNumberEntry{StartPC: r.u2(), LineNumber: r.u2()})
	}
	return lnt
}

func (r *attrReader) indexes() []uint16 {
	n := int(r.u2())
	out := make([]uint16, 0, n)
	for i := 0; i < n && !r.short; i++ {
		out = append(out, r.u2())
	}
	return out
}

func (r *attrReader) innerClasses() *InnerClassesAttribute {
	n := int(r.u2())
	ic := &InnerClassesAttribute{Classes: make([]InnerClassEntry, 0, n)}
	for i := 0; i < n && !r.short; i++ {
		ic.Classes = append(ic.Classes, InnerClassEntry{
			InnerClassInfoIndex:   r.u2(),
			OuterClassInfoIndex:   r.u2(),
			InnerNameIndex:        r.u2(),
			InnerClassAccessFlags: AccessFlags(r.u2()),
		})
	}
	return ic
}

func (r *attrReader) methodParameters() *MethodParametersAttribute {
	n := int(r.u1())
	mp := &MethodParametersAttribute{Parameters: make([]MethodParameter, 0, n)}
	for i := 0; i < n && !r.short; i++ {
		mp.Parameters = append(mp.Parameters, MethodParameter{NameIndex: r.u2(), AccessFlags: AccessFlags(r.u2())})
	}
	return mp
}

func (r *attrReader) record() *RecordAttribute {
	n := int(r.u2())
	rec := &RecordAttribute{Components: make([]RecordComponentInfo, 0, n)}
	for i := 0; i < n && !r.short; i++ {
		c := RecordComponentInfo{NameIndex: r.u2(), DescriptorIndex: r.u2()}
		m := int(r.u2())
		for j := 0; j < m && !r.short; j++ {
			attr := AttributeInfo{NameIndex: r.u2()}
			attr.Info = r.take(int(r.u4()))
			c.Attributes = append(c.Attributes, attr)
		}
		rec.Components = append(rec.Components, c)
	}
	return rec
}

func (r *attrReader) annotations() []Annotation {
	n := int(r.u2())
	out := make([]Annotation, 0, n)
	for i := 0; i < n && !r.short; i++ {
		out = append(out, r.annotation())
	}
	return out
}

func (r *attrReader) annotation() Annotation {
	ann := Annotation{TypeIndex: r.u2()}
	n := int(r.u2())
	for i := 0; i < n && !r.short; i++ {
		pair := ElementValuePair{ElementNameIndex: r.u2()}
		pair.Value = r.elementValue()
		ann.ElementValuePairs = append(ann.ElementValuePairs, pair)
	}
	return ann
}

func (r *attrReader) elementValue() ElementValue {
	ev := ElementValue{Tag: r.u1()}
	switch ev.Tag {
	case 'B', 'C', 'D', 'F', 'I', 'J', 'S', 'Z', 's', 'c':
		ev.Value = r.u2()
	case 'e':
		ev.Value = EnumConstValue{TypeNameIndex: r.u2(), ConstNameIndex: r.u2()}
	case '@':
		ev.Value = r.annotation()
	case '[':
		n := int(r.u2())
		values := make([]ElementValue, 0, n)
		for i := 0; i < n && !r.short; i++ {
			values = append(values, r.elementValue())
		}
		ev.Value = ArrayValue{Values: values}
	}
	return ev
}
