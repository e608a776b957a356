package binseq

import "os"

// mappedFile is a read-only view over an entire file, backed by a memory
// mapping where the platform supports it (mmapReadOnly, in mmap_unix.go)
// and by per-call pread through a dedicated file handle otherwise
// (mmap_other.go).
type mappedFile struct {
	f    *os.File
	data []byte // non-nil iff memory-mapped
	size int64
}

// openMappedFile opens path and attempts to memory-map it read-only. If
// mapping is unsupported on this platform (or fails for a reason other
// than the file being empty), it falls back to keeping the file handle
// open for ReadAt.
func openMappedFile(path string) (*mappedFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errIo(err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, errIo(err)
	}
	size := info.Size()

	mf := &mappedFile{f: f, size: size}
	if size > 0 {
		if data, merr := mmapReadOnly(f, size); merr == nil {
			mf.data = data
		}
	}
	return mf, nil
}

// ReadAt returns n bytes at off, aliasing the mapping when one exists.
func (mf *mappedFile) ReadAt(off, n uint64) ([]byte, error) {
	if mf.data != nil {
		if off+n > uint64(len(mf.data)) {
			return nil, errIo(os.ErrInvalid)
		}
		return mf.data[off : off+n], nil
	}
	buf := make([]byte, n)
	if _, err := mf.f.ReadAt(buf, int64(off)); err != nil {
		return nil, errIo(err)
	}
	return buf, nil
}

// readAtWith returns n bytes at off, aliasing the mapping when one exists
// and otherwise pread-ing through the given handle. Parallel workers pass
// their own handle (from newHandle) so that, on platforms without mmap,
// no two workers pread through the same *os.File.
func (mf *mappedFile) readAtWith(handle *os.File, off, n uint64) ([]byte, error) {
	if mf.data != nil {
		if off+n > uint64(len(mf.data)) {
			return nil, errIo(os.ErrInvalid)
		}
		return mf.data[off : off+n], nil
	}
	buf := make([]byte, n)
	if _, err := handle.ReadAt(buf, int64(off)); err != nil {
		return nil, errIo(err)
	}
	return buf, nil
}

// newHandle returns an independent *os.File pointing at the same path,
// for a worker to pread from without contending on the shared handle's
// implicit seek offset. Returns nil when a mapping is available, since
// workers can then read the mapping directly with no file handle at all.
func (mf *mappedFile) newHandle() (*os.File, error) {
	if mf.data != nil {
		return nil, nil
	}
	f, err := os.Open(mf.f.Name())
	if err != nil {
		return nil, errIo(err)
	}
	return f, nil
}

func (mf *mappedFile) Size() int64 {
	return mf.size
}

func (mf *mappedFile) Close() error {
	if mf.data != nil {
		_ = munmap(mf.data)
	}
	return mf.f.Close()
}
