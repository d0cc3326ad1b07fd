package classfile

// Java 8 class files verify without StackMapTable frames for code that
// has no branches.
const (
	DefaultMajorVersion = 52
	DefaultMinorVersion = 0
)

// Builder assembles a ClassFile.
type Builder struct {
	Pool *Pool
	cf   ClassFile
}

func NewBuilder(flags AccessFlags, name, super string) *Builder {
	b := &Builder{Pool: NewPool()}
	b.cf.MajorVersion = DefaultMajorVersion
	b.cf.MinorVersion = DefaultMinorVersion
	b.cf.AccessFlags = flags
	b.cf.ThisClass = b.Pool.Class(name)
	if super != "" {
		b.cf.SuperClass = b.Pool.Class(super)
	}
	return b
}

func (b *Builder) AddInterface(name string) {
	b.cf.Interfaces = append(b.cf.Interfaces, b.Pool.Class(name))
}

func (b *Builder) AddField(flags AccessFlags, name, descriptor string, attrs ...AttributeInfo) {
	b.cf.Fields = append(b.cf.Fields, FieldInfo{
		AccessFlags:     flags,
		NameIndex:       b.Pool.Utf8(name),
		DescriptorIndex: b.Pool.Utf8(descriptor),
		Attributes:      attrs,
	})
}

func (b *Builder) AddMethod(flags AccessFlags, name, descriptor string, attrs ...AttributeInfo) {
	b.cf.Methods = append(b.cf.Methods, MethodInfo{
		AccessFlags:     flags,
		NameIndex:       b.Pool.Utf8(name),
		DescriptorIndex: b.Pool.Utf8(descriptor),
		Attributes:      attrs,
	})
}

// Attr wraps an encoded attribute body under name.
func (b *Builder) Attr(name string, info []byte) AttributeInfo {
	return AttributeInfo{NameIndex: b.Pool.Utf8(name), Info: info}
}

func (b *Builder) AddAttribute(name string, info []byte) {
	b.cf.Attributes = append(b.cf.Attributes, b.Attr(name, info))
}

// Build returns the class file. The builder must not be used afterwards.
func (b *Builder) Build() *ClassFile {
	b.cf.ConstantPool = b.Pool.Entries()
	return &b.cf
}
