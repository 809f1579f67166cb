package sdram

// storage holds the contents of the chip. Rows are allocated on first write
// and read back as zero before that.
type storage struct {
	rows map[uint32]*[NumColumns]uint16
}

func newStorage() *storage {
	return &storage{rows: make(map[uint32]*[NumColumns]uint16)}
}

func rowKey(bank uint8, row uint16) uint32 {
	return uint32(bank)<<12 | uint32(row)
}

func (s *storage) read(bank uint8, row, col uint16) uint16 {
	r, ok := s.rows[rowKey(bank, row)]
	if !ok {
		return 0
	}

	return r[col%NumColumns]
}

func (s *storage) write(bank uint8, row, col uint16, data, mask uint16) {
	key := rowKey(bank, row)

	r, ok := s.rows[key]
	if !ok {
		r = new([NumColumns]uint16)
		s.rows[key] = r
	}

	c := col % NumColumns
	r[c] = r[c]&^mask | data&mask
}
