package wrapper

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

const (
	tiffMagicClassic = 42
	tiffMagicBig     = 43

	// maxIFDs bounds the IFD walk against corrupt or cyclic chains.
	maxIFDs = 1 << 20
)

// ReadIFDOffsets walks the IFD chain of a TIFF or BigTIFF file and returns
// the byte offset of each image file directory. Viewers use these offsets
// to seek directly to pyramid levels and channels without scanning the
// whole file.
func ReadIFDOffsets(path string) ([]int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return readIFDOffsets(f)
}

func readIFDOffsets(r io.ReaderAt) ([]int64, error) {
	var header [8]byte
	if _, err := r.ReadAt(header[:], 0); err != nil {
		return nil, fmt.Errorf("read tiff header: %w", err)
	}

	var order binary.ByteOrder
	switch {
	case header[0] == 'I' && header[1] == 'I':
		order = binary.LittleEndian
	case header[0] == 'M' && header[1] == 'M':
		order = binary.BigEndian
	default:
		return nil, fmt.Errorf("not a tiff file: bad byte-order mark %q", header[:2])
	}

	magic := order.Uint16(header[2:4])
	switch magic {
	case tiffMagicClassic:
		return walkIFDs(r, order, int64(order.Uint32(header[4:8])), false)
	case tiffMagicBig:
		var big [8]byte
		if _, err := r.ReadAt(big[:], 8); err != nil {
			return nil, fmt.Errorf("read bigtiff header: %w", err)
		}
		if offsetSize := order.Uint16(header[4:6]); offsetSize != 8 {
			return nil, fmt.Errorf("unsupported bigtiff offset size %d", offsetSize)
		}
		return walkIFDs(r, order, int64(order.Uint64(big[:])), true)
	default:
		return nil, fmt.Errorf("not a tiff file: bad magic %d", magic)
	}
}

func walkIFDs(r io.ReaderAt, order binary.ByteOrder, first int64, big bool) ([]int64, error) {
	entrySize := int64(12)
	if big {
		entrySize = 20
	}

	var offsets []int64
	next := first
	for next != 0 {
		if len(offsets) >= maxIFDs {
			return nil, fmt.Errorf("ifd chain exceeds %d entries", maxIFDs)
		}
		offsets = append(offsets, next)

		var count int64
		if big {
			var buf [8]byte
			if _, err := r.ReadAt(buf[:], next); err != nil {
				return nil, fmt.Errorf("read ifd at %d: %w", next, err)
			}
			count = int64(order.Uint64(buf[:]))
			next += 8
		} else {
			var buf [2]byte
			if _, err := r.ReadAt(buf[:], next); err != nil {
				return nil, fmt.Errorf("read ifd at %d: %w", next, err)
			}
			count = int64(order.Uint16(buf[:]))
			next += 2
		}

		// The next-IFD pointer follows the entry table.
		pos := next + count*entrySize
		if big {
			var buf [8]byte
			if _, err := r.ReadAt(buf[:], pos); err != nil {
				return nil, fmt.Errorf("read next-ifd pointer at %d: %w", pos, err)
			}
			next = int64(order.Uint64(buf[:]))
		} else {
			var buf [4]byte
			if _, err := r.ReadAt(buf[:], pos); err != nil {
				return nil, fmt.Errorf("read next-ifd pointer at %d: %w", pos, err)
			}
			next = int64(order.Uint32(buf[:]))
		}
	}
	return offsets, nil
}
