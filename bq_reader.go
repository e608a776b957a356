package binseq

import (
	"context"
	"os"
)

// BqReader provides O(1) random access and sequential iteration over a
// finalized BQ file. Open mmaps the file read-only when the
// platform supports it and falls back to pread otherwise.
type BqReader struct {
	mf     *mappedFile
	header bqHeader
	size   uint64 // recordSize
	count  uint64 // recordCount
}

// OpenBq opens and validates path as a BQ file.
func OpenBq(path string) (*BqReader, error) {
	mf, err := openMappedFile(path)
	if err != nil {
		return nil, err
	}

	head, err := mf.readAtWith(mf.f, 0, bqHeaderSize)
	if err != nil {
		mf.Close()
		return nil, err
	}
	header, err := readBqHeader(bytesReader(head))
	if err != nil {
		mf.Close()
		return nil, err
	}

	size := recordSize(header.Slen, header.Xlen)
	body := uint64(mf.Size()) - bqHeaderSize
	if body%size != 0 {
		mf.Close()
		return nil, errInvalidHeader("file size not divisible by record size")
	}

	return &BqReader{
		mf:     mf,
		header: header,
		size:   size,
		count:  body / size,
	}, nil
}

// Len returns the number of records in the file.
func (r *BqReader) Len() uint64 {
	return r.count
}

// PrimaryLen returns the fixed primary sequence length shared by every
// record in the file.
func (r *BqReader) PrimaryLen() uint32 {
	return r.header.Slen
}

// SecondaryLen returns the fixed secondary sequence length shared by
// every record in the file, or 0 if the file holds single reads.
func (r *BqReader) SecondaryLen() uint32 {
	return r.header.Xlen
}

// Validate recomputes the BQ invariant independent of what was cached at
// Open time: (file_size - 32) mod record_size == 0.
func (r *BqReader) Validate() error {
	info, err := r.mf.f.Stat()
	if err != nil {
		return errIo(err)
	}
	size := uint64(info.Size())
	if size < bqHeaderSize || (size-bqHeaderSize)%r.size != 0 {
		return errInvalidHeader("file size not divisible by record size")
	}
	return nil
}

// Get returns the i'th record, decoded with O(1) random access.
func (r *BqReader) Get(i uint64) (RecordView, error) {
	return r.getWith(r.mf.f, i)
}

func (r *BqReader) getWith(handle *os.File, i uint64) (RecordView, error) {
	if i >= r.count {
		return RecordView{}, errIndexOverflow()
	}
	off, err := recordOffset(i, r.size)
	if err != nil {
		return RecordView{}, err
	}
	buf, err := r.mf.readAtWith(handle, off, r.size)
	if err != nil {
		return RecordView{}, err
	}

	flag := leUint64(buf[0:8])
	pos := uint64(8)
	primaryBytes := uint64(limbCount(r.header.Slen)) * 8
	primary := buf[pos : pos+primaryBytes]
	pos += primaryBytes

	var secondary []byte
	if r.header.Xlen > 0 {
		secondaryBytes := uint64(limbCount(r.header.Xlen)) * 8
		secondary = buf[pos : pos+secondaryBytes]
	}

	return RecordView{
		Index:        i,
		Flag:         flag,
		PrimaryLen:   r.header.Slen,
		Primary:      primary,
		SecondaryLen: r.header.Xlen,
		Secondary:    secondary,
	}, nil
}

// Close releases the reader's file handle / mapping.
func (r *BqReader) Close() error {
	return r.mf.Close()
}

// BqIterator yields records in file order. It is restartable via Reset,
// since BQ is always file-backed.
type BqIterator struct {
	r   *BqReader
	idx uint64
}

// Iter returns a fresh sequential iterator starting at record 0.
func (r *BqReader) Iter() *BqIterator {
	return &BqIterator{r: r}
}

// Reset rewinds the iterator back to record 0.
func (it *BqIterator) Reset() {
	it.idx = 0
}

// Next returns the next record, or ok=false once the file is exhausted.
func (it *BqIterator) Next() (rec RecordView, ok bool, err error) {
	if it.idx >= it.r.count {
		return RecordView{}, false, nil
	}
	rec, err = it.r.Get(it.idx)
	if err != nil {
		return RecordView{}, false, err
	}
	it.idx++
	return rec, true, nil
}

// bqPartitionRunner drives one worker's contiguous record range.
type bqPartitionRunner struct {
	r *BqReader
}

func (run *bqPartitionRunner) run(ctx context.Context, lo, hi int, proc Processor) (uint64, error) {
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

	var processed uint64
	for idx := lo; idx < hi; idx++ {
		if ctx.Err() != nil {
			return processed, nil
		}
		rec, gerr := r.getWith(handle, uint64(idx))
		if gerr != nil {
			return processed, gerr
		}
		if perr := proc.Process(rec); perr != nil {
			return processed, errProcessor(perr)
		}
		processed++
	}
	return processed, nil
}

// ProcessParallel partitions [0, Len()) into contiguous subranges across
// numWorkers goroutines, each driving a fresh Processor from factory.
// Records are delivered to exactly one worker, exactly once, in ascending
// file-index order within that worker's partition.
func (r *BqReader) ProcessParallel(numWorkers int, factory func() Processor) (Stats, error) {
	return dispatch(numWorkers, int(r.count), factory, &bqPartitionRunner{r: r})
}
