package binseq

import (
	"io"
	"sort"
)

// blockIndexEntry locates one VBQ block.
type blockIndexEntry struct {
	FileOffset       uint64
	FirstRecordIndex uint64
	RecordCount      uint32
}

// readBlockIndex reads the block index written at the tail of a VBQ file,
// at the header's IndexOffset.
func readBlockIndex(r io.ReadSeeker, offset uint64) ([]blockIndexEntry, error) {
	if _, err := r.Seek(int64(offset), io.SeekStart); err != nil {
		return nil, errIo(err)
	}
	var countBuf [4]byte
	if _, err := io.ReadFull(r, countBuf[:]); err != nil {
		return nil, errIo(err)
	}
	count := leUint32(countBuf[:])

	buf := make([]byte, int(count)*vbqIndexEntrySize)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, errIo(err)
	}

	entries := make([]blockIndexEntry, count)
	for i := range entries {
		b := buf[i*vbqIndexEntrySize : (i+1)*vbqIndexEntrySize]
		entries[i] = blockIndexEntry{
			FileOffset:       leUint64(b[0:8]),
			FirstRecordIndex: leUint64(b[8:16]),
			RecordCount:      leUint32(b[16:20]),
		}
	}
	return entries, nil
}

// writeBlockIndex serializes the block index as written by the writer at
// Finalize time: a u32 entry count followed by the entries.
func writeBlockIndex(w io.Writer, entries []blockIndexEntry) error {
	var countBuf [4]byte
	putLeUint32(countBuf[:], uint32(len(entries)))
	if _, err := w.Write(countBuf[:]); err != nil {
		return errIo(err)
	}

	buf := make([]byte, vbqIndexEntrySize)
	for _, e := range entries {
		putLeUint64(buf[0:8], e.FileOffset)
		putLeUint64(buf[8:16], e.FirstRecordIndex)
		putLeUint32(buf[16:20], e.RecordCount)
		if _, err := w.Write(buf); err != nil {
			return errIo(err)
		}
	}
	return nil
}

// validateBlockIndex checks that a block index is well-formed: each
// entry's FirstRecordIndex must equal the sum of the preceding entries'
// record counts, and file offsets must be strictly ascending. Since the
// index holds no block sizes, overlap between consecutive blocks is not
// checked here.
func validateBlockIndex(entries []blockIndexEntry) (totalRecords uint64, err error) {
	for i, e := range entries {
		if i > 0 && e.FileOffset <= entries[i-1].FileOffset {
			return 0, errInvalidHeader("block index offsets not strictly ascending")
		}
		if e.FirstRecordIndex != totalRecords {
			return 0, errInvalidHeader("block index record numbering has a gap")
		}
		totalRecords += uint64(e.RecordCount)
	}
	return totalRecords, nil
}

// findBlock returns the index of the block containing record recordIdx,
// binary-searching the (ascending, gap-free) FirstRecordIndex column.
func findBlock(entries []blockIndexEntry, recordIdx uint64) (int, bool) {
	n := len(entries)
	i := sort.Search(n, func(i int) bool {
		return entries[i].FirstRecordIndex > recordIdx
	})
	i--
	if i < 0 || i >= n {
		return 0, false
	}
	e := entries[i]
	if recordIdx >= e.FirstRecordIndex+uint64(e.RecordCount) {
		return 0, false
	}
	return i, true
}
