package binseq

import (
	"bytes"
	"encoding/binary"
	"io"
)

func bytesReader(b []byte) io.Reader {
	return bytes.NewReader(b)
}

func leUint64(b []byte) uint64 {
	return binary.LittleEndian.Uint64(b)
}

func leUint32(b []byte) uint32 {
	return binary.LittleEndian.Uint32(b)
}

func leUint16(b []byte) uint16 {
	return binary.LittleEndian.Uint16(b)
}

func putLeUint64(b []byte, v uint64) {
	binary.LittleEndian.PutUint64(b, v)
}

func putLeUint32(b []byte, v uint32) {
	binary.LittleEndian.PutUint32(b, v)
}

func putLeUint16(b []byte, v uint16) {
	binary.LittleEndian.PutUint16(b, v)
}
