package wire

// Bit is the position of a flag inside a record's flag prefix.
//
// Each record type declares its bits as one iota block. The order of that
// block is part of the stored format: new bits go to the end, existing bits
// are never reordered or reused.
type Bit uint8

// MaxBits is the number of flags a single prefix can carry.
const MaxBits = 32

// Flags is a packed flag prefix.
type Flags uint32

// Set sets or clears bit.
func (f *Flags) Set(bit Bit, v bool) {
	if bit >= MaxBits {
		panic("wire: flag bit out of range")
	}
	if v {
		*f |= 1 << bit
	} else {
		*f &^= 1 << bit
	}
}

// Has reports whether bit is set.
func (f Flags) Has(bit Bit) bool {
	return bit < MaxBits && f&(1<<bit) != 0
}

// Unknown returns the bits at or above known, i.e. flags written by a newer
// schema than the reader knows about.
func (f Flags) Unknown(known Bit) Flags {
	if known >= MaxBits {
		return 0
	}
	return f &^ (1<<known - 1)
}

// Pack builds a prefix from values given in bit order starting at 0.
func Pack(values ...bool) Flags {
	var f Flags
	for i, v := range values {
		f.Set(Bit(i), v)
	}
	return f
}
