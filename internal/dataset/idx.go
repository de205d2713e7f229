package dataset

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

// idxUnsignedByte is the IDX element type code for uint8 data.
const idxUnsignedByte = 0x08

// idxHeader is the header of an IDX file as used by MNIST.
type idxHeader struct {
	Type byte
	Dims []int
}

// readIDXHeader parses the IDX header of path and checks the file holds
// exactly the number of uint8 elements the header announces.
func readIDXHeader(path string) (*idxHeader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}

	var magic [4]byte
	if _, err := io.ReadFull(f, magic[:]); err != nil {
		return nil, fmt.Errorf("%s: short header: %w", path, ErrCorrupt)
	}
	if magic[0] != 0 || magic[1] != 0 {
		return nil, fmt.Errorf("%s: bad magic %x: %w", path, magic, ErrCorrupt)
	}
	if magic[2] != idxUnsignedByte {
		return nil, fmt.Errorf("%s: unsupported element type 0x%02x: %w", path, magic[2], ErrCorrupt)
	}

	ndim := int(magic[3])
	if ndim == 0 {
		return nil, fmt.Errorf("%s: no dimensions: %w", path, ErrCorrupt)
	}

	raw := make([]uint32, ndim)
	if err := binary.Read(f, binary.BigEndian, raw); err != nil {
		return nil, fmt.Errorf("%s: short header: %w", path, ErrCorrupt)
	}

	h := &idxHeader{Type: magic[2], Dims: make([]int, ndim)}
	elems := int64(1)
	for i, d := range raw {
		h.Dims[i] = int(d)
		// Stop before the product can overflow: it must fit in the file.
		if d != 0 && elems > info.Size()/int64(d) {
			return nil, fmt.Errorf("%s: dimensions %v exceed file size %d: %w", path, raw, info.Size(), ErrCorrupt)
		}
		elems *= int64(d)
	}

	if want := int64(4+4*ndim) + elems; info.Size() != want {
		return nil, fmt.Errorf("%s: size %d, header implies %d: %w", path, info.Size(), want, ErrCorrupt)
	}

	return h, nil
}
