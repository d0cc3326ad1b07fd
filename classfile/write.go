package classfile

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

type writer struct {
	w   io.Writer
	err error
}

func (w *writer) writeU1(v uint8) {
	if w.err != nil {
		return
	}
	_, w.err = w.w.Write([]byte{v})
}

func (w *writer) writeU2(v uint16) {
	if w.err != nil {
		return
	}
	var buf [2]byte
	binary.BigEndian.PutUint16(buf[:], v)
	_, w.err = w.w.Write(buf[:])
}

func (w *writer) writeU4(v uint32) {
	if w.err != nil {
		return
	}
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], v)
	_, w.err = w.w.Write(buf[:])
}

func (w *writer) writeBytes(b []byte) {
	if w.err != nil {
		return
	}
	_, w.err = w.w.Write(b)
}

// Bytes encodes the class file.
func (cf *ClassFile) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(&buf, cf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Write encodes cf in class file format. It is the inverse of Parse.
func Write(out io.Writer, cf *ClassFile) error {
	w := &writer{w: out}

	if len(cf.ConstantPool)+1 > math.MaxUint16 {
		return fmt.Errorf("constant pool too large: %d entries", len(cf.ConstantPool))
	}

	w.writeU4(Magic)
	w.writeU2(cf.MinorVersion)
	w.writeU2(cf.MajorVersion)

	w.writeU2(uint16(len(cf.ConstantPool) + 1))
	for i, entry := range cf.ConstantPool {
		if entry == nil {
			continue
		}
		if err := writeConstantPoolEntry(w, entry); err != nil {
			return fmt.Errorf("failed to write constant pool entry %d: %w", i+1, err)
		}
	}

	w.writeU2(uint16(cf.AccessFlags))
	w.writeU2(cf.ThisClass)
	w.writeU2(cf.SuperClass)

	w.writeU2(uint16(len(cf.Interfaces)))
	for _, idx := range cf.Interfaces {
		w.writeU2(idx)
	}

	w.writeU2(uint16(len(cf.Fields)))
	for i := range cf.Fields {
		f := &cf.Fields[i]
		writeMember(w, f.AccessFlags, f.NameIndex, f.DescriptorIndex, f.Attributes)
	}

	w.writeU2(uint16(len(cf.Methods)))
	for i := range cf.Methods {
		m := &cf.Methods[i]
		writeMember(w, m.AccessFlags, m.NameIndex, m.DescriptorIndex, m.Attributes)
	}

	writeAttributes(w, cf.Attributes)

	if w.err != nil {
		return fmt.Errorf("failed to write class file: %w", w.err)
	}
	return nil
}

func writeMember(w *writer, flags AccessFlags, name, descriptor uint16, attrs []AttributeInfo) {
	w.writeU2(uint16(flags))
	w.writeU2(name)
	w.writeU2(descriptor)
	writeAttributes(w, attrs)
}

func writeAttributes(w *writer, attrs []AttributeInfo) {
	w.writeU2(uint16(len(attrs)))
	for _, attr := range attrs {
		w.writeU2(attr.NameIndex)
		w.writeU4(uint32(len(attr.Info)))
		w.writeBytes(attr.Info)
	}
}

func writeConstantPoolEntry(w *writer, entry ConstantPoolEntry) error {
	w.writeU1(uint8(entry.Tag()))
	switch e := entry.(type) {
	case *ConstantUtf8Info:
		data := encodeModifiedUtf8(e.Value)
		if len(data) > math.MaxUint16 {
			return fmt.Errorf("utf8 constant too long: %d bytes", len(data))
		}
		w.writeU2(uint16(len(data)))
		w.writeBytes(data)
	case *ConstantIntegerInfo:
		w.writeU4(uint32(e.Value))
	case *ConstantFloatInfo:
		w.writeU4(math.Float32bits(e.Value))
	case *ConstantLongInfo:
		w.writeU4(uint32(uint64(e.Value) >> 32))
		w.writeU4(uint32(uint64(e.Value)))
	case *ConstantDoubleInfo:
		bits := math.Float64bits(e.Value)
		w.writeU4(uint32(bits >> 32))
		w.writeU4(uint32(bits))
	case *ConstantClassInfo:
		w.writeU2(e.NameIndex)
	case *ConstantStringInfo:
		w.writeU2(e.StringIndex)
	case *ConstantFieldrefInfo:
		w.writeU2(e.ClassIndex)
		w.writeU2(e.NameAndTypeIndex)
	case *ConstantMethodrefInfo:
		w.writeU2(e.ClassIndex)
		w.writeU2(e.NameAndTypeIndex)
	case *ConstantInterfaceMethodrefInfo:
		w.writeU2(e.ClassIndex)
		w.writeU2(e.NameAndTypeIndex)
	case *ConstantNameAndTypeInfo:
		w.writeU2(e.NameIndex)
		w.writeU2(e.DescriptorIndex)
	case *ConstantOpaqueInfo:
		w.writeBytes(e.Data)
	default:
		return fmt.Errorf("unknown constant pool entry %T", entry)
	}
	return w.err
}

// encodeModifiedUtf8 is the inverse of decodeModifiedUtf8: NUL takes two
// bytes and supplementary characters are written as surrogate pairs.
func encodeModifiedUtf8(s string) []byte {
	out := make([]byte, 0, len(s))
	put := func(r rune) {
		switch {
		case r != 0 && r < 0x80:
			out = append(out, byte(r))
		case r < 0x800:
			out = append(out, byte(0xC0|r>>6), byte(0x80|r&0x3F))
		default:
			out = append(out, byte(0xE0|r>>12), byte(0x80|(r>>6)&0x3F), byte(0x80|r&0x3F))
		}
	}
	for _, r := range s {
		if r >= 0x10000 {
			r -= 0x10000
			put(0xD800 + (r >> 10))
			put(0xDC00 + (r & 0x3FF))
			continue
		}
		put(r)
	}
	return out
}

func u2(v uint16) []byte {
	return []byte{byte(v >> 8), byte(v)}
}

// Encode renders the attribute body of a SourceFile attribute.
func (a *SourceFileAttribute) Encode() []byte {
	return u2(a.SourceFileIndex)
}

func (a *ConstantValueAttribute) Encode() []byte {
	return u2(a.ConstantValueIndex)
}

func (a *ExceptionsAttribute) Encode() []byte {
	out := u2(uint16(len(a.ExceptionIndexTable)))
	for _, idx := range a.ExceptionIndexTable {
		out = append(out, u2(idx)...)
	}
	return out
}

func (a *InnerClassesAttribute) Encode() []byte {
	out := u2(uint16(len(a.Classes)))
	for _, c := range a.Classes {
		out = append(out, u2(c.InnerClassInfoIndex)...)
		out = append(out, u2(c.OuterClassInfoIndex)...)
		out = append(out, u2(c.InnerNameIndex)...)
		out = append(out, u2(uint16(c.InnerClassAccessFlags))...)
	}
	return out
}

func (a *LineNumberTableAttribute) Encode() []byte {
	out := u2(uint16(len(a.LineNumberTable)))
	for _, e := range a.LineNumberTable {
		out = append(out, u2(e.StartPC)...)
		out = append(out, u2(e.LineNumber)...)
	}
	return out
}

// Encode renders the Code attribute body. Nested attributes must already
// carry their encoded Info.
func (a *CodeAttribute) Encode() []byte {
	var buf bytes.Buffer
	w := &writer{w: &buf}
	w.writeU2(a.MaxStack)
	w.writeU2(a.MaxLocals)
	w.writeU4(uint32(len(a.Code)))
	w.writeBytes(a.Code)
	w.writeU2(uint16(len(a.ExceptionTable)))
	for _, e := range a.ExceptionTable {
		w.writeU2(e.StartPC)
		w.writeU2(e.EndPC)
		w.writeU2(e.HandlerPC)
		w.writeU2(e.CatchType)
	}
	writeAttributes(w, a.Attributes)
	return buf.Bytes()
}
