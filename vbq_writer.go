package binseq

import "os"

// VbqWriterConfig configures a VbqWriter. Tolerant enables treating U as T
// and N as A with a warning flag rather than rejecting the record outright
// — see DESIGN.md.
type VbqWriterConfig struct {
	Paired         bool
	IncludeQuality bool
	IncludeNames   bool
	Codec          Codec
	BlockBytes     uint32
	BlockRecords   uint32
	Tolerant       bool
}

func (cfg *VbqWriterConfig) setDefaults() {
	if cfg.BlockBytes == 0 {
		cfg.BlockBytes = DefaultBlockBytes
	}
	if cfg.BlockRecords == 0 {
		cfg.BlockRecords = DefaultBlockRecords
	}
}

func (cfg VbqWriterConfig) flags() uint8 {
	var f uint8
	if cfg.IncludeQuality {
		f |= vbqFlagQuality
	}
	if cfg.IncludeNames {
		f |= vbqFlagNames
	}
	if cfg.Paired {
		f |= vbqFlagPaired
	}
	if cfg.Tolerant {
		f |= vbqFlagTolerant
	}
	return f
}

// VbqWriter streams variable-length VBQ records, accumulating them into
// blocks that flush once a size or count threshold is crossed, and
// maintains a block index written at Finalize time.
type VbqWriter struct {
	f      *os.File
	cfg    VbqWriterConfig
	header vbqHeader
	codec  *blockCodec

	pending      []vbqRecordInput
	pendingBytes int

	offset  uint64 // bytes written after the fixed header
	entries []blockIndexEntry

	compressScratch []byte
	finalized       bool
}

// CreateVbq creates a new VBQ file at path with the given configuration.
func CreateVbq(path string, cfg VbqWriterConfig) (*VbqWriter, error) {
	cfg.setDefaults()
	if cfg.Codec != CodecNone && cfg.Codec != CodecZstd {
		return nil, errUnsupportedCodec(cfg.Codec)
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, errIo(err)
	}

	header := vbqHeader{Flags: cfg.flags(), Codec: cfg.Codec}
	if err := writeVbqHeader(f, header); err != nil {
		f.Close()
		return nil, err
	}

	codec, err := newBlockCodec(cfg.Codec)
	if err != nil {
		f.Close()
		return nil, err
	}

	return &VbqWriter{
		f:      f,
		cfg:    cfg,
		header: header,
		codec:  codec,
		offset: 0,
	}, nil
}

// Write queues one record. secondary must be non-empty iff the writer is
// configured Paired. When the writer is configured IncludeQuality, quality
// (and, if Paired, secondaryQuality) must match the corresponding
// sequence's length byte-for-byte (Phred+33 semantics preserved verbatim —
// this package does not interpret quality values); otherwise both quality
// arguments are ignored. name is stored only when the writer is configured
// IncludeNames.
func (w *VbqWriter) Write(flag uint64, primary, secondary, quality, secondaryQuality, name []byte) error {
	if w.cfg.Paired && len(secondary) == 0 {
		return errLengthMismatch(1, 0)
	}
	if !w.cfg.Paired && len(secondary) != 0 {
		return errLengthMismatch(0, uint64(len(secondary)))
	}
	if w.cfg.IncludeQuality {
		if len(quality) != len(primary) {
			return errLengthMismatch(uint64(len(primary)), uint64(len(quality)))
		}
		if w.cfg.Paired && len(secondaryQuality) != len(secondary) {
			return errLengthMismatch(uint64(len(secondary)), uint64(len(secondaryQuality)))
		}
	}

	pack := func(seq []byte) ([]uint64, bool, error) {
		limbs, err := Pack(seq)
		return limbs, false, err
	}
	if w.cfg.Tolerant {
		pack = PackTolerant
	}

	primaryLimbs, primaryWarned, err := pack(primary)
	if err != nil {
		return err
	}
	var secondaryLimbs []uint64
	var secondaryWarned bool
	if w.cfg.Paired {
		secondaryLimbs, secondaryWarned, err = pack(secondary)
		if err != nil {
			return err
		}
	}

	rec := vbqRecordInput{
		Flag:            flag,
		PrimaryLimbs:    primaryLimbs,
		PrimaryLen:      uint32(len(primary)),
		SecondaryLimbs:  secondaryLimbs,
		PrimaryWarned:   primaryWarned,
		SecondaryWarned: secondaryWarned,
	}
	if w.cfg.Paired {
		rec.SecondaryLen = uint32(len(secondary))
	}
	if w.cfg.IncludeQuality {
		rec.Quality = quality
		if w.cfg.Paired {
			rec.SecondaryQuality = secondaryQuality
		}
	}
	if w.cfg.IncludeNames {
		rec.Name = name
	}

	w.pending = append(w.pending, rec)
	w.pendingBytes += rec.encodedSize(w.header)

	if uint32(w.pendingBytes) >= w.cfg.BlockBytes || uint32(len(w.pending)) >= w.cfg.BlockRecords {
		return w.flush()
	}
	return nil
}

func (w *VbqWriter) recordsFlushed() uint64 {
	var n uint64
	for _, e := range w.entries {
		n += uint64(e.RecordCount)
	}
	return n
}

// flush serializes the pending block, compresses it, writes it, and
// appends an index entry.
func (w *VbqWriter) flush() error {
	if len(w.pending) == 0 {
		return nil
	}

	buf := make([]byte, 0, w.pendingBytes)
	for i := range w.pending {
		buf = encodeVbqRecord(buf, &w.pending[i], w.header)
	}

	compressed := w.codec.compress(w.compressScratch, buf)
	w.compressScratch = compressed

	blockHead := blockHeader{
		UncompressedSize: uint32(len(buf)),
		CompressedSize:   uint32(len(compressed)),
		RecordCount:      uint32(len(w.pending)),
	}
	if err := writeBlockHeader(w.f, blockHead); err != nil {
		return err
	}
	if _, err := w.f.Write(compressed); err != nil {
		return errIo(err)
	}

	firstIdx := w.recordsFlushed()
	w.entries = append(w.entries, blockIndexEntry{
		FileOffset:       vbqHeaderSize + w.offset,
		FirstRecordIndex: firstIdx,
		RecordCount:      uint32(len(w.pending)),
	})
	w.offset += uint64(vbqBlockHeaderSize) + uint64(len(compressed))

	w.pending = w.pending[:0]
	w.pendingBytes = 0
	return nil
}

// Count returns the number of records written (flushed or still pending)
// so far.
func (w *VbqWriter) Count() uint64 {
	return w.recordsFlushed() + uint64(len(w.pending))
}

// Finalize flushes any pending block, writes the block index, patches
// its offset into the header, and closes the file. Idempotent.
func (w *VbqWriter) Finalize() error {
	if w.f == nil {
		return nil
	}
	if err := w.flush(); err != nil {
		return err
	}

	indexOffset := vbqHeaderSize + w.offset
	if err := writeBlockIndex(w.f, w.entries); err != nil {
		return err
	}
	if err := patchVbqIndexOffset(w.f, indexOffset); err != nil {
		return err
	}

	w.codec.Close()
	if err := w.f.Sync(); err != nil {
		w.f.Close()
		w.f = nil
		return errIo(err)
	}
	err := w.f.Close()
	w.f = nil
	return errIo(err)
}
