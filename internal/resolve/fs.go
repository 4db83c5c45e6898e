package resolve

import (
	"io/fs"
	"os"
)

// hostFS is an fs.FS over the real filesystem that accepts the absolute,
// OS-specific paths found in library configuration. os.DirFS cannot be used
// because library directories do not share a common root.
type hostFS struct{}

func (hostFS) Open(name string) (fs.File, error) {
	return os.Open(name)
}

func (hostFS) ReadDir(name string) ([]fs.DirEntry, error) {
	return os.ReadDir(name)
}

func (hostFS) ReadFile(name string) ([]byte, error) {
	return os.ReadFile(name)
}

func (hostFS) Stat(name string) (fs.FileInfo, error) {
	return os.Stat(name)
}
