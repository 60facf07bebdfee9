// Package loader reads cartridge and ROM images from disk. Images may be
// stored raw or inside a zip, gzip, tar.gz, 7z or rar archive; archives are
// searched for the first entry with a matching extension.
package loader

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

var (
	magicZIP    = []byte{0x50, 0x4B, 0x03, 0x04}
	magicZIPEnd = []byte{0x50, 0x4B, 0x05, 0x06} // empty zip
	magic7z     = []byte{0x37, 0x7A, 0xBC, 0xAF, 0x27, 0x1C}
	magicGzip   = []byte{0x1F, 0x8B}
	magicRAR    = []byte{0x52, 0x61, 0x72, 0x21} // "Rar!"
)

// MaxImageSize caps how much is read from any single image.
const MaxImageSize = 8 * 1024 * 1024

// Extensions accepted inside archives.
var (
	CartridgeExtensions = []string{".lnx", ".lyx", ".o", ".bin"}
	ROMExtensions       = []string{".img", ".rom", ".bin"}
)

var (
	ErrNoImageFile  = errors.New("no image file found in archive")
	ErrFileTooLarge = errors.New("file exceeds maximum size limit")
)

type format int

const (
	formatRaw format = iota
	formatZIP
	format7z
	formatGzip
	formatRAR
)

// Load returns the image bytes stored at path and the name of the file they
// came from (the archive entry for archives).
func Load(path string, extensions []string) ([]byte, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	header := make([]byte, 16)
	n, err := f.Read(header)
	if err != nil && err != io.EOF {
		return nil, "", fmt.Errorf("read header %s: %w", path, err)
	}
	header = header[:n]

	switch detectFormat(header, path) {
	case formatZIP:
		return extractFromZIP(path, extensions)
	case format7z:
		return extractFrom7z(path, extensions)
	case formatGzip:
		return extractFromGzip(path, extensions)
	case formatRAR:
		return extractFromRAR(path, extensions)
	}

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, "", fmt.Errorf("seek %s: %w", path, err)
	}
	data, err := limitedRead(f)
	if err != nil {
		return nil, "", fmt.Errorf("read %s: %w", path, err)
	}
	return data, filepath.Base(path), nil
}

// detectFormat trusts magic bytes first and falls back to the extension.
// Anything unrecognized is a raw image.
func detectFormat(header []byte, path string) format {
	switch {
	case bytes.HasPrefix(header, magicZIP), bytes.HasPrefix(header, magicZIPEnd):
		return formatZIP
	case bytes.HasPrefix(header, magicRAR):
		return formatRAR
	case bytes.HasPrefix(header, magic7z):
		return format7z
	case bytes.HasPrefix(header, magicGzip):
		return formatGzip
	}

	lower := strings.ToLower(path)
	switch {
	case strings.HasSuffix(lower, ".zip"):
		return formatZIP
	case strings.HasSuffix(lower, ".7z"):
		return format7z
	case strings.HasSuffix(lower, ".gz"), strings.HasSuffix(lower, ".tgz"):
		return formatGzip
	case strings.HasSuffix(lower, ".rar"):
		return formatRAR
	}
	return formatRaw
}

func hasExtension(name string, extensions []string) bool {
	lower := strings.ToLower(name)
	for _, ext := range extensions {
		if strings.HasSuffix(lower, strings.ToLower(ext)) {
			return true
		}
	}
	return false
}

func limitedRead(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxImageSize+1))
	if err != nil {
		return nil, err
	}
	if len(data) > MaxImageSize {
		return nil, ErrFileTooLarge
	}
	return data, nil
}
