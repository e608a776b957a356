package binseq

// BQ file magic, 'BSEQ' as a little-endian uint32 constant.
const bqMagic = 0x42534551

// bqVersion is the only supported BQ format byte. An older 16-byte header
// layout exists in the wild (7 reserved bytes instead of 19); this package
// targets the 32-byte v2 layout only and rejects anything else as
// UnsupportedVersion rather than guessing at the older shape.
const bqVersion = 2

// bqHeaderSize is the fixed size, in bytes, of the BQ header.
const bqHeaderSize = 32

// VBQ file magic, 'VBSQ' as a little-endian uint32 constant.
const vbqMagic = 0x56425351

// vbqVersion is the only supported VBQ format byte.
const vbqVersion = 1

// vbqHeaderSize is the fixed size, in bytes, of the VBQ fixed header
// prefix (magic, format, flags, codec, reserved, index offset).
const vbqHeaderSize = 16

// vbqBlockHeaderSize is the fixed size, in bytes, of a VBQ block header.
const vbqBlockHeaderSize = 12

// vbqIndexEntrySize is the fixed size, in bytes, of one VBQ block index
// entry (file_offset, first_record_index, record_count).
const vbqIndexEntrySize = 20

// VBQ header flag bits.
const (
	vbqFlagQuality  = 1 << 0
	vbqFlagNames    = 1 << 1
	vbqFlagPaired   = 1 << 2
	vbqFlagTolerant = 1 << 3
)

// Codec identifies the compression codec used for a VBQ block payload.
type Codec uint8

// Closed set of supported VBQ block codecs.
const (
	CodecNone Codec = 0
	CodecZstd Codec = 1
)

// Default VBQ write-side block thresholds.
const (
	DefaultBlockBytes   uint32 = 256 * 1024
	DefaultBlockRecords uint32 = 16384
)

// nucleotide byte values.
const (
	baseA = 'A'
	baseC = 'C'
	baseG = 'G'
	baseT = 'T'
	baseN = 'N'
	baseU = 'U'
)
