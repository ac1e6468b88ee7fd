package wasmbuild

const (
	opUnreachable byte = 0x00
	opEnd         byte = 0x0b
	opCall        byte = 0x10
	opDrop        byte = 0x1a
	opLocalGet    byte = 0x20
	opI32Store    byte = 0x36
	opI32Const    byte = 0x41
	opI64Const    byte = 0x42
)

// Code is a function body under construction. Bodies declare no locals
// beyond the parameters.
type Code struct {
	w writer
}

// NewCode starts an empty function body.
func NewCode() *Code {
	return &Code{}
}

func (c *Code) I32Const(v int32) *Code {
	c.w.byte(opI32Const)
	c.w.s64(int64(v))
	return c
}

func (c *Code) I64Const(v int64) *Code {
	c.w.byte(opI64Const)
	c.w.s64(v)
	return c
}

func (c *Code) LocalGet(idx uint32) *Code {
	c.w.byte(opLocalGet)
	c.w.u32(idx)
	return c
}

func (c *Code) Call(funcIdx uint32) *Code {
	c.w.byte(opCall)
	c.w.u32(funcIdx)
	return c
}

// I32Store pops a value and an address and stores the value at
// address+offset with 4-byte alignment.
func (c *Code) I32Store(offset uint32) *Code {
	c.w.byte(opI32Store)
	c.w.u32(2)
	c.w.u32(offset)
	return c
}

func (c *Code) Drop() *Code {
	c.w.byte(opDrop)
	return c
}

func (c *Code) Unreachable() *Code {
	c.w.byte(opUnreachable)
	return c
}

func (c *Code) body() []byte {
	out := &writer{}
	out.u32(0) // local declarations
	out.raw(c.w.bytes())
	out.byte(opEnd)
	return out.bytes()
}
