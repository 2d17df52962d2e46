package psp

import (
	"bytes"
	"fmt"

	"github.com/klauspost/compress/gzip"
)

// gzipOSHeader is the OS byte of the gzip member (NTFS filesystem). The
// loader does not check it; it is kept for byte-compatibility with
// existing tooling.
const gzipOSHeader = 0x0B

// maxGzipSize bounds the compressed size of n input bytes at 16 KiB
// stored blocks plus the gzip framing.
func maxGzipSize(n int) int {
	blocks := (n + 16383) / 16384
	return blocks + 6 + blocks*5 + 18
}

// Compress gzips image at best compression into a buffer whose first
// reserve bytes are left zero for the header.
func Compress(image []byte, reserve int) ([]byte, error) {
	buf := bytes.NewBuffer(make([]byte, reserve, reserve+maxGzipSize(len(image))))
	zw, err := gzip.NewWriterLevel(buf, gzip.BestCompression)
	if err != nil {
		return nil, err
	}
	zw.OS = gzipOSHeader
	if _, err := zw.Write(image); err != nil {
		return nil, fmt.Errorf("gzip: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("gzip: %w", err)
	}
	return buf.Bytes(), nil
}
