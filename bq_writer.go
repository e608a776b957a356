package binseq

import "os"

// BqWriter streams fixed-length BQ records to a new file. It is
// sequential and single-producer: concurrent writers to the same file are
// not supported. CreateBq opens path with os.Create, which truncates any
// existing file; a second writer to the same path is neither detected nor
// rejected.
type BqWriter struct {
	f      *os.File
	header bqHeader
	count  uint64

	// refused is set once a LengthMismatch occurs; further writes are
	// rejected until Reset.
	refused bool
}

// CreateBq creates a new BQ file at path with fixed primary/secondary
// lengths slen/xlen (xlen=0 for single reads). The header is written
// immediately and never patched afterwards: unlike VBQ, whose header gets
// the block index offset at Finalize time, the BQ header holds nothing
// that depends on the records (the reader derives the record count from
// file size).
func CreateBq(path string, slen, xlen uint32) (*BqWriter, error) {
	if slen == 0 {
		return nil, errInvalidHeader("slen")
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, errIo(err)
	}

	header := bqHeader{Slen: slen, Xlen: xlen}
	if err := writeBqHeader(f, header); err != nil {
		f.Close()
		return nil, err
	}

	return &BqWriter{f: f, header: header}, nil
}

// Write appends one record. primary must have length header.Slen;
// secondary must have length header.Xlen if the file is paired (Xlen>0),
// and must be empty/nil otherwise. A length mismatch is a LengthMismatch
// error and leaves the file exactly as it was before the call; the writer
// then refuses further writes until Reset.
func (w *BqWriter) Write(flag uint64, primary, secondary []byte) error {
	if w.refused {
		return errLengthMismatch(uint64(w.header.Slen), uint64(len(primary)))
	}

	if uint32(len(primary)) != w.header.Slen {
		w.refused = true
		return errLengthMismatch(uint64(w.header.Slen), uint64(len(primary)))
	}
	if uint32(len(secondary)) != w.header.Xlen {
		w.refused = true
		return errLengthMismatch(uint64(w.header.Xlen), uint64(len(secondary)))
	}

	primaryLimbs, err := Pack(primary)
	if err != nil {
		return err
	}
	var secondaryLimbs []uint64
	if w.header.Xlen > 0 {
		secondaryLimbs, err = Pack(secondary)
		if err != nil {
			return err
		}
	}

	buf := make([]byte, 8, 8+len(primaryLimbs)*8+len(secondaryLimbs)*8)
	putLeUint64(buf[0:8], flag)
	buf = append(buf, limbsToBytes(primaryLimbs)...)
	buf = append(buf, limbsToBytes(secondaryLimbs)...)

	if _, err := w.f.Write(buf); err != nil {
		return errIo(err)
	}
	w.count++
	return nil
}

// Reset clears a LengthMismatch refusal, allowing further writes.
func (w *BqWriter) Reset() {
	w.refused = false
}

// Count returns the number of records written so far.
func (w *BqWriter) Count() uint64 {
	return w.count
}

// Finalize flushes and closes the file. It is idempotent: calling it
// again after a successful call is a no-op.
func (w *BqWriter) Finalize() error {
	if w.f == nil {
		return nil
	}
	if err := w.f.Sync(); err != nil {
		w.f.Close()
		w.f = nil
		return errIo(err)
	}
	err := w.f.Close()
	w.f = nil
	return errIo(err)
}
