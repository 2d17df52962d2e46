// Package loader reads packer input from disk and writes results back.
package loader

import (
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"

	"github.com/psp-tools/psp-packer/pkg/packerr"
)

// Input is a file loaded for packing. Data is writable: when the file is
// mapped, the mapping is private, so writes never reach the file.
type Input struct {
	Path string
	Data []byte
	Mode os.FileMode

	mmapped bool
}

// Open maps path copy-on-write. If mmap is unavailable, it falls back to
// ReadAt-based loading. The returned input must be closed to release any
// mapping; Data is invalid afterwards.
func Open(path string) (*Input, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	stat, err := f.Stat()
	if err != nil {
		return nil, err
	}
	if !stat.Mode().IsRegular() {
		return nil, &os.PathError{Op: "open", Path: path, Err: fmt.Errorf("not a regular file")}
	}

	size64 := stat.Size()
	if size64 < 0 || uint64(size64) >= math.MaxInt {
		return nil, fmt.Errorf("%s: %d bytes: %w", path, size64, packerr.ErrFileTooBig)
	}
	size := int(size64)
	in := &Input{Path: path, Mode: stat.Mode().Perm()}
	if size == 0 {
		in.Data = []byte{}
		return in, nil
	}

	data, err := unix.Mmap(
		int(f.Fd()),
		0,
		size,
		unix.PROT_READ|unix.PROT_WRITE,
		unix.MAP_PRIVATE,
	)
	if err == nil {
		in.Data = data
		in.mmapped = true
		return in, nil
	}

	data, err = readAllAt(f, size)
	if err != nil {
		return nil, &os.PathError{Op: "read", Path: path, Err: err}
	}
	in.Data = data
	return in, nil
}

// Mapped reports whether Data is backed by a memory mapping.
func (in *Input) Mapped() bool { return in.mmapped }

func (in *Input) Close() error {
	if !in.mmapped || in.Data == nil {
		in.Data = nil
		return nil
	}
	err := unix.Munmap(in.Data)
	in.Data = nil
	in.mmapped = false
	return err
}

func readAllAt(r io.ReaderAt, size int) ([]byte, error) {
	if size == 0 {
		return []byte{}, nil
	}
	out := make([]byte, size)
	var off int64
	for off < int64(size) {
		n, err := r.ReadAt(out[off:], off)
		off += int64(n)
		if err == nil {
			continue
		}
		if err == io.EOF && off == int64(size) {
			break
		}
		if err == io.EOF {
			return nil, io.ErrUnexpectedEOF
		}
		return nil, err
	}
	return out, nil
}

// WriteFile replaces path with data. The bytes go to a temporary file in
// the same directory which is then renamed over path, so readers never see
// a partial file and a mapping of the old file stays intact.
func WriteFile(path string, data []byte, perm os.FileMode) error {
	dir, base := filepath.Split(path)
	if dir == "" {
		dir = "."
	}
	tmp, err := os.CreateTemp(dir, "."+base+".*")
	if err != nil {
		return err
	}
	name := tmp.Name()
	defer func() {
		if name != "" {
			_ = os.Remove(name)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Chmod(perm); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(name, path); err != nil {
		return err
	}
	name = ""
	return nil
}
