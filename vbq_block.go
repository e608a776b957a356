package binseq

import (
	"io"

	"github.com/klauspost/compress/zstd"
)

// blockHeader precedes every VBQ block's (possibly compressed) payload.
type blockHeader struct {
	UncompressedSize uint32
	CompressedSize   uint32
	RecordCount      uint32
}

func readBlockHeader(r io.Reader) (blockHeader, error) {
	buf := make([]byte, vbqBlockHeaderSize)
	if _, err := io.ReadFull(r, buf); err != nil {
		return blockHeader{}, errIo(err)
	}
	return blockHeader{
		UncompressedSize: leUint32(buf[0:4]),
		CompressedSize:   leUint32(buf[4:8]),
		RecordCount:      leUint32(buf[8:12]),
	}, nil
}

func writeBlockHeader(w io.Writer, h blockHeader) error {
	buf := make([]byte, vbqBlockHeaderSize)
	putLeUint32(buf[0:4], h.UncompressedSize)
	putLeUint32(buf[4:8], h.CompressedSize)
	putLeUint32(buf[8:12], h.RecordCount)
	_, err := w.Write(buf)
	return errIo(err)
}

// blockCodec wraps a reusable zstd encoder/decoder pair, built once per
// writer/reader rather than once per block. Parallel workers each get
// their own blockCodec so decompression scratch is never shared.
type blockCodec struct {
	codec   Codec
	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

func newBlockCodec(codec Codec) (*blockCodec, error) {
	bc := &blockCodec{codec: codec}
	if codec == CodecZstd {
		enc, err := zstd.NewWriter(nil)
		if err != nil {
			return nil, errIo(err)
		}
		dec, err := zstd.NewReader(nil)
		if err != nil {
			return nil, errIo(err)
		}
		bc.encoder = enc
		bc.decoder = dec
	}
	return bc, nil
}

// compress returns the on-disk payload for an uncompressed block body.
func (bc *blockCodec) compress(dst, src []byte) []byte {
	switch bc.codec {
	case CodecNone:
		return append(dst[:0], src...)
	case CodecZstd:
		return bc.encoder.EncodeAll(src, dst[:0])
	default:
		return append(dst[:0], src...)
	}
}

// decompress expands a block payload of uncompressedSize bytes into dst,
// reusing dst's backing array across calls. Buffers are per-reader
// scratch and must never be shared across threads implicitly.
func (bc *blockCodec) decompress(dst []byte, payload []byte, uncompressedSize uint32, blockIndex int) ([]byte, error) {
	switch bc.codec {
	case CodecNone:
		return append(dst[:0], payload...), nil
	case CodecZstd:
		out, err := bc.decoder.DecodeAll(payload, dst[:0])
		if err != nil {
			return nil, errCorruptBlock(blockIndex, err.Error())
		}
		if uint32(len(out)) != uncompressedSize {
			return nil, errCorruptBlock(blockIndex, "decompressed size mismatch")
		}
		return out, nil
	default:
		return nil, errUnsupportedCodec(bc.codec)
	}
}

func (bc *blockCodec) Close() {
	if bc.encoder != nil {
		bc.encoder.Close()
	}
	if bc.decoder != nil {
		bc.decoder.Close()
	}
}
