package classfile

import (
	"fmt"
	"math"
)

type Opcode uint8

const (
	OpAconstNull    Opcode = 0x01
	OpIconstM1      Opcode = 0x02
	OpIconst0       Opcode = 0x03
	OpLconst0       Opcode = 0x09
	OpLconst1       Opcode = 0x0a
	OpFconst0       Opcode = 0x0b
	OpDconst0       Opcode = 0x0e
	OpDconst1       Opcode = 0x0f
	OpBipush        Opcode = 0x10
	OpSipush        Opcode = 0x11
	OpLdc           Opcode = 0x12
	OpLdcW          Opcode = 0x13
	OpLdc2W         Opcode = 0x14
	OpIload         Opcode = 0x15
	OpLload         Opcode = 0x16
	OpFload         Opcode = 0x17
	OpDload         Opcode = 0x18
	OpAload         Opcode = 0x19
	OpAload0        Opcode = 0x2a
	OpPop           Opcode = 0x57
	OpDup           Opcode = 0x59
	OpIreturn       Opcode = 0xac
	OpLreturn       Opcode = 0xad
	OpFreturn       Opcode = 0xae
	OpDreturn       Opcode = 0xaf
	OpAreturn       Opcode = 0xb0
	OpReturn        Opcode = 0xb1
	OpGetstatic     Opcode = 0xb2
	OpPutstatic     Opcode = 0xb3
	OpGetfield      Opcode = 0xb4
	OpPutfield      Opcode = 0xb5
	OpInvokevirtual Opcode = 0xb6
	OpInvokespecial Opcode = 0xb7
	OpInvokestatic  Opcode = 0xb8
	OpNew           Opcode = 0xbb
	OpCheckcast     Opcode = 0xc0
	OpAthrow        Opcode = 0xbf
)

// Assembler accumulates the bytecode of one method body and tracks the
// operand stack depth so max_stack comes out right for straight-line
// code.
type Assembler struct {
	pool      *Pool
	code      []byte
	depth     int
	maxStack  int
	maxLocals int
	lines     []LineNumberEntry
}

// NewAssembler starts a method body whose parameters (including the
// receiver) occupy locals slots.
func NewAssembler(pool *Pool, locals int) *Assembler {
	return &Assembler{pool: pool, maxLocals: locals}
}

func (a *Assembler) adjust(delta int) {
	a.depth += delta
	if a.depth > a.maxStack {
		a.maxStack = a.depth
	}
}

// Line records that the following instructions come from source line n.
func (a *Assembler) Line(n int) {
	if n <= 0 || n > math.MaxUint16 {
		return
	}
	a.lines = append(a.lines, LineNumberEntry{StartPC: uint16(len(a.code)), LineNumber: uint16(n)})
}

func (a *Assembler) Op(op Opcode, delta int) {
	a.code = append(a.code, byte(op))
	a.adjust(delta)
}

func (a *Assembler) OpU1(op Opcode, operand uint8, delta int) {
	a.code = append(a.code, byte(op), operand)
	a.adjust(delta)
}

func (a *Assembler) OpU2(op Opcode, operand uint16, delta int) {
	a.code = append(a.code, byte(op), byte(operand>>8), byte(operand))
	a.adjust(delta)
}

func (a *Assembler) PushNull() {
	a.Op(OpAconstNull, 1)
}

func (a *Assembler) PushInt(v int32) {
	switch {
	case v >= -1 && v <= 5:
		a.Op(OpIconst0+Opcode(v), 1)
	case v >= math.MinInt8 && v <= math.MaxInt8:
		a.OpU1(OpBipush, uint8(int8(v)), 1)
	case v >= math.MinInt16 && v <= math.MaxInt16:
		a.OpU2(OpSipush, uint16(int16(v)), 1)
	default:
		a.ldc(a.pool.Integer(v))
	}
}

func (a *Assembler) PushLong(v int64) {
	switch v {
	case 0:
		a.Op(OpLconst0, 2)
	case 1:
		a.Op(OpLconst1, 2)
	default:
		a.OpU2(OpLdc2W, a.pool.Long(v), 2)
	}
}

func (a *Assembler) PushFloat(v float32) {
	if v == 0 || v == 1 || v == 2 {
		if !math.Signbit(float64(v)) {
			a.Op(OpFconst0+Opcode(v), 1)
			return
		}
	}
	a.ldc(a.pool.Float(v))
}

func (a *Assembler) PushDouble(v float64) {
	if (v == 0 || v == 1) && !math.Signbit(v) {
		a.Op(OpDconst0+Opcode(v), 2)
		return
	}
	a.OpU2(OpLdc2W, a.pool.Double(v), 2)
}

func (a *Assembler) PushString(s string) {
	a.ldc(a.pool.String(s))
}

// PushClass pushes the Class object of an internal class name.
func (a *Assembler) PushClass(class string) {
	a.ldc(a.pool.Class(class))
}

func (a *Assembler) ldc(idx uint16) {
	if idx <= math.MaxUint8 {
		a.OpU1(OpLdc, uint8(idx), 1)
		return
	}
	a.OpU2(OpLdcW, idx, 1)
}

// Invoke emits an invoke instruction and accounts for the arguments,
// receiver and result on the stack.
func (a *Assembler) Invoke(op Opcode, class, name, descriptor string) error {
	md := ParseMethodDescriptor(descriptor)
	if md == nil {
		return fmt.Errorf("invalid method descriptor %q", descriptor)
	}
	delta := -md.ArgSlots() + md.ReturnType.Slots()
	if op != OpInvokestatic {
		delta--
	}
	a.OpU2(op, a.pool.Methodref(class, name, descriptor), delta)
	return nil
}

// Field emits a field access instruction.
func (a *Assembler) Field(op Opcode, class, name, descriptor string) error {
	ft := ParseFieldDescriptor(descriptor)
	if ft == nil {
		return fmt.Errorf("invalid field descriptor %q", descriptor)
	}
	var delta int
	switch op {
	case OpGetstatic:
		delta = ft.Slots()
	case OpPutstatic:
		delta = -ft.Slots()
	case OpGetfield:
		delta = ft.Slots() - 1
	case OpPutfield:
		delta = -ft.Slots() - 1
	default:
		return fmt.Errorf("not a field instruction: 0x%02x", byte(op))
	}
	a.OpU2(op, a.pool.Fieldref(class, name, descriptor), delta)
	return nil
}

// New allocates an instance of class and leaves a second reference on
// the stack for the constructor call.
func (a *Assembler) New(class string) {
	a.OpU2(OpNew, a.pool.Class(class), 1)
	a.Op(OpDup, 1)
}

// Return emits the return instruction matching the method result type.
func (a *Assembler) Return(result *FieldType) {
	if result == nil {
		a.Op(OpReturn, 0)
		return
	}
	if result.ArrayDepth > 0 || result.BaseType == "" {
		a.Op(OpAreturn, -1)
		return
	}
	switch result.BaseType {
	case "long":
		a.Op(OpLreturn, -2)
	case "double":
		a.Op(OpDreturn, -2)
	case "float":
		a.Op(OpFreturn, -1)
	default:
		a.Op(OpIreturn, -1)
	}
}

// Load pushes the local variable in slot onto the stack.
func (a *Assembler) Load(t *FieldType, slot int) {
	op := OpAload
	if t.ArrayDepth == 0 {
		switch t.BaseType {
		case "long":
			op = OpLload
		case "double":
			op = OpDload
		case "float":
			op = OpFload
		case "":
		default:
			op = OpIload
		}
	}
	a.OpU1(op, uint8(slot), t.Slots())
}

func (a *Assembler) Checkcast(class string) {
	a.OpU2(OpCheckcast, a.pool.Class(class), 0)
}

func (a *Assembler) Throw() {
	a.Op(OpAthrow, -1)
}

func (a *Assembler) Len() int {
	return len(a.code)
}

// Attribute finishes the method body as a Code attribute.
func (a *Assembler) Attribute() AttributeInfo {
	code := &CodeAttribute{
		MaxStack:  uint16(a.maxStack),
		MaxLocals: uint16(a.maxLocals),
		Code:      a.code,
	}
	if len(a.lines) > 0 {
		table := &LineNumberTableAttribute{LineNumberTable: a.lines}
		code.Attributes = append(code.Attributes, AttributeInfo{
			NameIndex: a.pool.Utf8("LineNumberTable"),
			Info:      table.Encode(),
			Parsed:    table,
		})
	}
	return AttributeInfo{
		NameIndex: a.pool.Utf8("Code"),
		Info:      code.Encode(),
		Parsed:    code,
	}
}
