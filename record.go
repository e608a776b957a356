package binseq

import "encoding/binary"

// RecordView lends a borrowed view over one decoded record's bytes. The
// flag is a cheap-to-copy scalar so filters can inspect it without
// touching sequence data; Primary/Secondary/Quality/Name are byte slices
// that alias the reader's backing storage and must not be retained beyond
// the lifetime of the Reader or mapping they came from. VBQ views alias a
// per-reader (or, under ProcessParallel, per-worker) block buffer that is
// overwritten when the next block is loaded, so they stay valid only until
// then.
type RecordView struct {
	Index uint64
	Flag  uint64

	PrimaryLen uint32
	Primary    []byte // packed little-endian limbs, ceil(PrimaryLen/32)*8 bytes

	SecondaryLen uint32 // 0 for single reads
	Secondary    []byte // packed little-endian limbs; nil when SecondaryLen==0

	// VBQ-only; nil/zero for BQ records.
	Quality          []byte // primary quality, byte-per-base
	SecondaryQuality []byte
	Name             []byte

	// PrimaryWarned/SecondaryWarned report whether a tolerant VBQ writer
	// substituted U->T or N->A when packing the corresponding sequence.
	// Always false for BQ records and for VBQ files written without
	// VbqWriterConfig.Tolerant.
	PrimaryWarned   bool
	SecondaryWarned bool
}

// PrimarySeq decodes the primary packed sequence to ASCII.
func (v *RecordView) PrimarySeq() []byte {
	return UnpackBytes(v.Primary, v.PrimaryLen)
}

// SecondarySeq decodes the secondary packed sequence to ASCII, or nil if
// this record is unpaired.
func (v *RecordView) SecondarySeq() []byte {
	if v.SecondaryLen == 0 {
		return nil
	}
	return UnpackBytes(v.Secondary, v.SecondaryLen)
}

// recordSize returns the constant per-record size, in bytes, for a BQ
// file with the given primary/secondary lengths:
// 8 + 8*(ceil(slen/32) + ceil(xlen/32)).
func recordSize(slen, xlen uint32) uint64 {
	return 8 + 8*uint64(limbCount(slen)+limbCount(xlen))
}

// maxRecordIndex returns the largest record index that does not overflow
// u64 arithmetic when computing its file offset.
func maxRecordIndex(size uint64) uint64 {
	if size == 0 {
		return ^uint64(0)
	}
	return (^uint64(0) - bqHeaderSize) / size
}

// recordOffset returns 32 + index*size, rejecting indices that would
// overflow u64 arithmetic (IndexOverflow).
func recordOffset(index uint64, size uint64) (uint64, error) {
	if index > maxRecordIndex(size) {
		return 0, errIndexOverflow()
	}
	return bqHeaderSize + index*size, nil
}

// bytesToLimbs reinterprets a little-endian packed byte slice as a []uint64
// of limbs. len(raw) must be a multiple of 8.
func bytesToLimbs(raw []byte) []uint64 {
	limbs := make([]uint64, len(raw)/8)
	for i := range limbs {
		limbs[i] = binary.LittleEndian.Uint64(raw[i*8 : i*8+8])
	}
	return limbs
}

// limbsToBytes serializes limbs as little-endian packed bytes.
func limbsToBytes(limbs []uint64) []byte {
	out := make([]byte, len(limbs)*8)
	for i, limb := range limbs {
		binary.LittleEndian.PutUint64(out[i*8:i*8+8], limb)
	}
	return out
}
