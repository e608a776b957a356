//go:build !unix

package binseq

import (
	"errors"
	"os"
)

// errMmapUnsupported causes openMappedFile to fall back to pread-based
// access with a per-worker file handle.
var errMmapUnsupported = errors.New("binseq: memory mapping not supported on this platform")

func mmapReadOnly(f *os.File, size int64) ([]byte, error) {
	return nil, errMmapUnsupported
}

func munmap(data []byte) error {
	return nil
}
