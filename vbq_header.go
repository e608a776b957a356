package binseq

import (
	"io"
)

// vbqHeader is the fixed 16-byte VBQ header prefix:
// magic(4) format(1) flags(1) codec(1) reserved(1) indexOffset(8).
type vbqHeader struct {
	Flags       uint8
	Codec       Codec
	IndexOffset uint64
}

func (h vbqHeader) hasQuality() bool { return h.Flags&vbqFlagQuality != 0 }
func (h vbqHeader) hasNames() bool   { return h.Flags&vbqFlagNames != 0 }
func (h vbqHeader) paired() bool     { return h.Flags&vbqFlagPaired != 0 }
func (h vbqHeader) tolerant() bool   { return h.Flags&vbqFlagTolerant != 0 }

func readVbqHeader(r io.Reader) (vbqHeader, error) {
	buf := make([]byte, vbqHeaderSize)
	if _, err := io.ReadFull(r, buf); err != nil {
		return vbqHeader{}, errIo(err)
	}

	magic := leUint32(buf[0:4])
	if magic != vbqMagic {
		return vbqHeader{}, errBadMagic()
	}
	format := buf[4]
	if format != vbqVersion {
		return vbqHeader{}, errUnsupportedVersion()
	}
	flags := buf[5]
	codec := Codec(buf[6])
	if codec != CodecNone && codec != CodecZstd {
		return vbqHeader{}, errUnsupportedCodec(codec)
	}
	// buf[7] reserved.
	indexOffset := leUint64(buf[8:16])

	return vbqHeader{Flags: flags, Codec: codec, IndexOffset: indexOffset}, nil
}

func writeVbqHeader(w io.Writer, h vbqHeader) error {
	buf := make([]byte, vbqHeaderSize)
	putLeUint32(buf[0:4], vbqMagic)
	buf[4] = vbqVersion
	buf[5] = h.Flags
	buf[6] = byte(h.Codec)
	// buf[7] reserved, left zero.
	putLeUint64(buf[8:16], h.IndexOffset)
	_, err := w.Write(buf)
	return errIo(err)
}

// patchVbqIndexOffset overwrites just the indexOffset field of an
// already-written header, used by the writer at Finalize time once the
// index's position is known.
func patchVbqIndexOffset(w io.WriterAt, offset uint64) error {
	buf := make([]byte, 8)
	putLeUint64(buf, offset)
	_, err := w.WriteAt(buf, 8)
	return errIo(err)
}
