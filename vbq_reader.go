package binseq

import (
	"context"
	"os"
)

// VbqReader provides random access and sequential iteration over a
// finalized VBQ file. Get binary-searches the block index, loads (and if
// necessary decompresses) the containing block into per-reader scratch,
// and returns the record view.
type VbqReader struct {
	mf           *mappedFile
	header       vbqHeader
	entries      []blockIndexEntry
	totalRecords uint64

	// Single-threaded scratch state for Get/Iter. Not safe for concurrent
	// use — ProcessParallel gives each worker its own codec and buffer
	// instead of sharing this one.
	codec      *blockCodec
	scratch    []byte
	curBlock   int
	curRecords []RecordView
}

// OpenVbq opens and validates path as a VBQ file.
func OpenVbq(path string) (*VbqReader, error) {
	mf, err := openMappedFile(path)
	if err != nil {
		return nil, err
	}

	head, err := mf.readAtWith(mf.f, 0, vbqHeaderSize)
	if err != nil {
		mf.Close()
		return nil, err
	}
	header, err := readVbqHeader(bytesReader(head))
	if err != nil {
		mf.Close()
		return nil, err
	}

	entries, err := readBlockIndex(mf.f, header.IndexOffset)
	if err != nil {
		mf.Close()
		return nil, err
	}
	totalRecords, err := validateBlockIndex(entries)
	if err != nil {
		mf.Close()
		return nil, err
	}

	codec, err := newBlockCodec(header.Codec)
	if err != nil {
		mf.Close()
		return nil, err
	}

	return &VbqReader{
		mf:           mf,
		header:       header,
		entries:      entries,
		totalRecords: totalRecords,
		codec:        codec,
		curBlock:     -1,
	}, nil
}

// Len returns the total number of records across all blocks.
func (r *VbqReader) Len() uint64 {
	return r.totalRecords
}

// NumBlocks returns the number of blocks in the file.
func (r *VbqReader) NumBlocks() int {
	return len(r.entries)
}

// Paired, HasQuality, and HasNames report the flags recorded in the
// header at write time.
func (r *VbqReader) Paired() bool     { return r.header.paired() }
func (r *VbqReader) HasQuality() bool { return r.header.hasQuality() }
func (r *VbqReader) HasNames() bool   { return r.header.hasNames() }

// Validate recomputes the block-index invariant independent of what was
// cached at Open time, re-reading the index from the file.
func (r *VbqReader) Validate() error {
	entries, err := readBlockIndex(r.mf.f, r.header.IndexOffset)
	if err != nil {
		return err
	}
	_, err = validateBlockIndex(entries)
	return err
}

// loadBlockRecords decompresses block blockIdx using the given codec,
// handle and scratch buffer, and fully decodes its records. It returns
// the decoded records (with Index left at 0 — the caller fills it in)
// and the scratch buffer's new backing slice (which may have been
// reallocated).
func loadBlockRecords(mf *mappedFile, entries []blockIndexEntry, header vbqHeader, blockIdx int, codec *blockCodec, scratch []byte, handle *os.File) ([]RecordView, []byte, error) {
	entry := entries[blockIdx]

	hdrBuf, err := mf.readAtWith(handle, entry.FileOffset, vbqBlockHeaderSize)
	if err != nil {
		return nil, scratch, err
	}
	blockHead, err := readBlockHeader(bytesReader(hdrBuf))
	if err != nil {
		return nil, scratch, err
	}
	if blockHead.RecordCount != entry.RecordCount {
		return nil, scratch, errCorruptBlock(blockIdx, "record count mismatch with index")
	}

	payloadOff := entry.FileOffset + vbqBlockHeaderSize
	compressed, err := mf.readAtWith(handle, payloadOff, uint64(blockHead.CompressedSize))
	if err != nil {
		return nil, scratch, err
	}

	payload, err := codec.decompress(scratch, compressed, blockHead.UncompressedSize, blockIdx)
	if err != nil {
		return nil, scratch, err
	}

	records := make([]RecordView, 0, blockHead.RecordCount)
	off := 0
	for k := uint32(0); k < blockHead.RecordCount; k++ {
		rec, next, err := decodeVbqRecord(payload, off, header)
		if err != nil {
			return nil, payload, err
		}
		records = append(records, rec)
		off = next
	}

	return records, payload, nil
}

// Get returns the i'th record in file order.
func (r *VbqReader) Get(i uint64) (RecordView, error) {
	if i >= r.totalRecords {
		return RecordView{}, errIndexOverflow()
	}
	blockIdx, ok := findBlock(r.entries, i)
	if !ok {
		return RecordView{}, errCorruptBlock(-1, "record not covered by block index")
	}

	if blockIdx != r.curBlock {
		records, scratch, err := loadBlockRecords(r.mf, r.entries, r.header, blockIdx, r.codec, r.scratch, r.mf.f)
		if err != nil {
			return RecordView{}, err
		}
		r.curRecords = records
		r.scratch = scratch
		r.curBlock = blockIdx
	}

	local := i - r.entries[blockIdx].FirstRecordIndex
	rec := r.curRecords[local]
	rec.Index = i
	return rec, nil
}

// Close releases the reader's codec, file handle, and mapping.
func (r *VbqReader) Close() error {
	r.codec.Close()
	return r.mf.Close()
}

// VbqIterator yields records in file order, restartable via Reset.
type VbqIterator struct {
	r   *VbqReader
	idx uint64
}

// Iter returns a fresh sequential iterator starting at record 0.
func (r *VbqReader) Iter() *VbqIterator {
	return &VbqIterator{r: r}
}

func (it *VbqIterator) Reset() {
	it.idx = 0
}

func (it *VbqIterator) Next() (rec RecordView, ok bool, err error) {
	if it.idx >= it.r.totalRecords {
		return RecordView{}, false, nil
	}
	rec, err = it.r.Get(it.idx)
	if err != nil {
		return RecordView{}, false, err
	}
	it.idx++
	return rec, true, nil
}

// vbqPartitionRunner drives one worker's contiguous block range, each
// worker owning its own codec, decompression scratch buffer, and (when
// mmap is unavailable) file handle — never sharing any of the three with
// another worker.
type vbqPartitionRunner struct {
	r *VbqReader
}

func (run *vbqPartitionRunner) run(ctx context.Context, lo, hi int, proc Processor) (uint64, error) {
	r := run.r

	handle, err := r.mf.newHandle()
	if err != nil {
		return 0, err
	}
	if handle != nil {
		defer handle.Close()
	} else {
		handle = r.mf.f
	}

	codec, err := newBlockCodec(r.header.Codec)
	if err != nil {
		return 0, err
	}
	defer codec.Close()

	var scratch []byte
	var processed uint64

	for blockIdx := lo; blockIdx < hi; blockIdx++ {
		if ctx.Err() != nil {
			return processed, nil
		}

		records, newScratch, err := loadBlockRecords(r.mf, r.entries, r.header, blockIdx, codec, scratch, handle)
		if err != nil {
			return processed, err
		}
		scratch = newScratch

		base := r.entries[blockIdx].FirstRecordIndex
		for k, rec := range records {
			if ctx.Err() != nil {
				return processed, nil
			}
			rec.Index = base + uint64(k)
			if perr := proc.Process(rec); perr != nil {
				return processed, errProcessor(perr)
			}
			processed++
		}
	}

	return processed, nil
}

// ProcessParallel partitions [0, NumBlocks()) into contiguous whole-block
// ranges across numWorkers goroutines. Partitioning by whole block, never
// mid-block, avoids sharing decompression state across workers.
func (r *VbqReader) ProcessParallel(numWorkers int, factory func() Processor) (Stats, error) {
	return dispatch(numWorkers, len(r.entries), factory, &vbqPartitionRunner{r: r})
}
