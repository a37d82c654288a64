package mir

// Cursor walks a block's instruction sequence while the walker inserts
// and deletes around it. Deleting the current instruction advances past
// it first, so a scan never skips or revisits an instruction.
type Cursor struct {
	blk *Block
	idx int
}

// CursorAt returns a cursor positioned on instruction i of the block.
func CursorAt(b *Block, i int) *Cursor {
	return &Cursor{blk: b, idx: i}
}

// Valid reports whether the cursor points at an instruction.
func (c *Cursor) Valid() bool {
	return c.idx >= 0 && c.idx < len(c.blk.Instrs)
}

// Instr returns the current instruction for in-place mutation.
func (c *Cursor) Instr() *Instr {
	return &c.blk.Instrs[c.idx]
}

// Next advances to the following instruction.
func (c *Cursor) Next() {
	c.idx++
}

// InsertBefore places in ahead of the current instruction; the cursor
// keeps pointing at the same instruction.
func (c *Cursor) InsertBefore(in Instr) {
	c.blk.Insert(c.idx, in)
	c.idx++
}

// Remove deletes the current instruction. The cursor ends up on the
// instruction that followed it.
func (c *Cursor) Remove() {
	c.blk.Remove(c.idx)
}
