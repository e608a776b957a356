//go:build unix

package binseq

import (
	"os"

	"golang.org/x/sys/unix"
)

// mmapReadOnly maps size bytes of f read-only, shared. Grounded on
// other_examples/1d851c96_calvinalkan-agent-task__pkg-slotcache-open.go.go's
// syscall.Mmap(fd, 0, size, PROT_READ|PROT_WRITE, MAP_SHARED) usage, adapted
// to read-only (this package never mutates a written file) and to
// golang.org/x/sys/unix, the ecosystem's non-deprecated mmap binding.
func mmapReadOnly(f *os.File, size int64) ([]byte, error) {
	return unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ, unix.MAP_SHARED)
}

func munmap(data []byte) error {
	return unix.Munmap(data)
}
