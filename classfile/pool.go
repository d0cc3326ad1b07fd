package classfile

import (
	"fmt"
	"math"
)

// Pool builds a constant pool for a class being written. Identical
// constants share one entry.
type Pool struct {
	entries ConstantPool
	index   map[string]uint16
}

func NewPool() *Pool {
	return &Pool{index: make(map[string]uint16)}
}

// Entries returns the pool in the layout Parse produces: long and double
// constants are followed by an unused nil slot.
func (p *Pool) Entries() ConstantPool {
	return p.entries
}

func (p *Pool) add(key string, entry ConstantPoolEntry, wide bool) uint16 {
	if idx, ok := p.index[key]; ok {
		return idx
	}
	p.entries = append(p.entries, entry)
	idx := uint16(len(p.entries))
	if wide {
		p.entries = append(p.entries, nil)
	}
	p.index[key] = idx
	return idx
}

func (p *Pool) Utf8(s string) uint16 {
	return p.add("U"+s, &ConstantUtf8Info{Value: s}, false)
}

// Class adds a class reference by internal name (java/lang/Object).
func (p *Pool) Class(internalName string) uint16 {
	name := p.Utf8(internalName)
	return p.add("C"+internalName, &ConstantClassInfo{NameIndex: name}, false)
}

func (p *Pool) String(s string) uint16 {
	idx := p.Utf8(s)
	return p.add("S"+s, &ConstantStringInfo{StringIndex: idx}, false)
}

func (p *Pool) Integer(v int32) uint16 {
	return p.add(fmt.Sprintf("I%d", v), &ConstantIntegerInfo{Value: v}, false)
}

func (p *Pool) Float(v float32) uint16 {
	return p.add(fmt.Sprintf("F%x", math.Float32bits(v)), &ConstantFloatInfo{Value: v}, false)
}

func (p *Pool) Long(v int64) uint16 {
	return p.add(fmt.Sprintf("J%d", v), &ConstantLongInfo{Value: v}, true)
}

func (p *Pool) Double(v float64) uint16 {
	return p.add(fmt.Sprintf("D%x", math.Float64bits(v)), &ConstantDoubleInfo{Value: v}, true)
}

func (p *Pool) NameAndType(name, descriptor string) uint16 {
	n, d := p.Utf8(name), p.Utf8(descriptor)
	return p.add("N"+name+":"+descriptor, &ConstantNameAndTypeInfo{NameIndex: n, DescriptorIndex: d}, false)
}

func (p *Pool) Fieldref(class, name, descriptor string) uint16 {
	c, nt := p.Class(class), p.NameAndType(name, descriptor)
	return p.add("f"+class+"."+name+":"+descriptor, &ConstantFieldrefInfo{ClassIndex: c, NameAndTypeIndex: nt}, false)
}

func (p *Pool) Methodref(class, name, descriptor string) uint16 {
	c, nt := p.Class(class), p.NameAndType(name, descriptor)
	return p.add("m"+class+"."+name+":"+descriptor, &ConstantMethodrefInfo{ClassIndex: c, NameAndTypeIndex: nt}, false)
}

func (p *Pool) InterfaceMethodref(class, name, descriptor string) uint16 {
	c, nt := p.Class(class), p.NameAndType(name, descriptor)
	return p.add("i"+class+"."+name+":"+descriptor, &ConstantInterfaceMethodrefInfo{ClassIndex: c, NameAndTypeIndex: nt}, false)
}
