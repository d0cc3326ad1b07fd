package classfile

// FieldInfo is a field_info entry. The access predicates come from the
// embedded flags.
type FieldInfo struct {
	AccessFlags
	NameIndex       uint16
	DescriptorIndex uint16
	Attributes      []AttributeInfo
}

// MethodInfo is a method_info entry.
type MethodInfo struct {
	AccessFlags
	NameIndex       uint16
	DescriptorIndex uint16
	Attributes      []AttributeInfo
}

func findAttribute(cp ConstantPool, attrs []AttributeInfo, name string) *AttributeInfo {
	for i := range attrs {
		if cp.GetUtf8(attrs[i].NameIndex) == name {
			return &attrs[i]
		}
	}
	return nil
}

func (f *FieldInfo) Name(cp ConstantPool) string       { return cp.GetUtf8(f.NameIndex) }
func (f *FieldInfo) Descriptor(cp ConstantPool) string { return cp.GetUtf8(f.DescriptorIndex) }

func (f *FieldInfo) GetAttribute(cp ConstantPool, name string) *AttributeInfo {
	return findAttribute(cp, f.Attributes, name)
}

func (f *FieldInfo) ParsedDescriptor(cp ConstantPool) *FieldType {
	return ParseFieldDescriptor(f.Descriptor(cp))
}

func (m *MethodInfo) Name(cp ConstantPool) string       { return cp.GetUtf8(m.NameIndex) }
func (m *MethodInfo) Descriptor(cp ConstantPool) string { return cp.GetUtf8(m.DescriptorIndex) }

func (m *MethodInfo) GetAttribute(cp ConstantPool, name string) *AttributeInfo {
	return findAttribute(cp, m.Attributes, name)
}

// GetCodeAttribute returns the parsed Code attribute, or nil for abstract
// and native methods.
func (m *MethodInfo) GetCodeAttribute(cp ConstantPool) *CodeAttribute {
	if attr := m.GetAttribute(cp, "Code"); attr != nil {
		return attr.AsCode()
	}
	return nil
}

// IsStaticInitializer reports whether m is <clinit>.
func (m *MethodInfo) IsStaticInitializer(cp ConstantPool) bool {
	return m.Name(cp) == "<clinit>"
}

func (m *MethodInfo) ParsedDescriptor(cp ConstantPool) *MethodDescriptor {
	return ParseMethodDescriptor(m.Descriptor(cp))
}
