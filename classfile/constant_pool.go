package classfile

type ConstantPoolEntry interface {
	Tag() ConstantTag
}

type ConstantUtf8Info struct {
	Value string
}

func (c *ConstantUtf8Info) Tag() ConstantTag { return ConstantUtf8 }

type ConstantIntegerInfo struct {
	Value int32
}

func (c *ConstantIntegerInfo) Tag() ConstantTag { return ConstantInteger }

type ConstantFloatInfo struct {
	Value float32
}

func (c *ConstantFloatInfo) Tag() ConstantTag { return ConstantFloat }

type ConstantLongInfo struct {
	Value int64
}

func (c *ConstantLongInfo) Tag() ConstantTag { return ConstantLong }

type ConstantDoubleInfo struct {
	Value float64
}

func (c *ConstantDoubleInfo) Tag() ConstantTag { return ConstantDouble }

type ConstantClassInfo struct {
	NameIndex uint16
}

func (c *ConstantClassInfo) Tag() ConstantTag { return ConstantClass }

type ConstantStringInfo struct {
	StringIndex uint16
}

func (c *ConstantStringInfo) Tag() ConstantTag { return ConstantString }

type ConstantFieldrefInfo struct {
	ClassIndex       uint16
	NameAndTypeIndex uint16
}

func (c *ConstantFieldrefInfo) Tag() ConstantTag { return ConstantFieldref }

type ConstantMethodrefInfo struct {
	ClassIndex       uint16
	NameAndTypeIndex uint16
}

func (c *ConstantMethodrefInfo) Tag() ConstantTag { return ConstantMethodref }

type ConstantInterfaceMethodrefInfo struct {
	ClassIndex       uint16
	NameAndTypeIndex uint16
}

func (c *ConstantInterfaceMethodrefInfo) Tag() ConstantTag { return ConstantInterfaceMethodref }

type ConstantNameAndTypeInfo struct {
	NameIndex       uint16
	DescriptorIndex uint16
}

func (c *ConstantNameAndTypeInfo) Tag() ConstantTag { return ConstantNameAndType }

// ConstantOpaqueInfo keeps the body of entries the type model never
// reads: method handles and types, dynamic constants, modules and
// packages.
type ConstantOpaqueInfo struct {
	ConstantTag ConstantTag
	Data        []byte
}

func (c *ConstantOpaqueInfo) Tag() ConstantTag { return c.ConstantTag }

// opaqueSize is the body size of each opaque entry kind.
var opaqueSize = map[ConstantTag]int{
	ConstantMethodHandle:  3,
	ConstantMethodType:    2,
	ConstantDynamic:       4,
	ConstantInvokeDynamic: 4,
	ConstantModule:        2,
	ConstantPackage:       2,
}

// ConstantPool is indexed from 1, as in the class file. Index 0 and the
// slot after a long or double hold no entry.
type ConstantPool []ConstantPoolEntry

func lookup[T ConstantPoolEntry](cp ConstantPool, index uint16) (T, bool) {
	var zero T
	if index == 0 || int(index) > len(cp) {
		return zero, false
	}
	entry, ok := cp[index-1].(T)
	return entry, ok
}

func (cp ConstantPool) GetUtf8(index uint16) string {
	if e, ok := lookup[*ConstantUtf8Info](cp, index); ok {
		return e.Value
	}
	return ""
}

// GetClassName returns the internal name of a class entry.
func (cp ConstantPool) GetClassName(index uint16) string {
	if e, ok := lookup[*ConstantClassInfo](cp, index); ok {
		return cp.GetUtf8(e.NameIndex)
	}
	return ""
}

func (cp ConstantPool) GetString(index uint16) string {
	if e, ok := lookup[*ConstantStringInfo](cp, index); ok {
		return cp.GetUtf8(e.StringIndex)
	}
	return ""
}

func (cp ConstantPool) GetInteger(index uint16) (int32, bool) {
	e, ok := lookup[*ConstantIntegerInfo](cp, index)
	if !ok {
		return 0, false
	}
	return e.Value, true
}

func (cp ConstantPool) GetLong(index uint16) (int64, bool) {
	e, ok := lookup[*ConstantLongInfo](cp, index)
	if !ok {
		return 0, false
	}
	return e.Value, true
}

func (cp ConstantPool) GetFloat(index uint16) (float32, bool) {
	e, ok := lookup[*ConstantFloatInfo](cp, index)
	if !ok {
		return 0, false
	}
	return e.Value, true
}

func (cp ConstantPool) GetDouble(index uint16) (float64, bool) {
	e, ok := lookup[*ConstantDoubleInfo](cp, index)
	if !ok {
		return 0, false
	}
	return e.Value, true
}
