// Package bytecode implements the on-disk bytecode image format: a
// deduplicated string table followed by the instruction stream, all
// little-endian. It is the sole coupling point between pkg/codegen and
// pkg/vm.
package bytecode

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

// Image is an in-memory bytecode program ready to load into the VM or to
// serialize to disk.
type Image struct {
	Strings []string
	Code    []byte
}

// Encode writes the file format described in SPEC_FULL.md/spec.md §6:
// u32 string_count, then per string a u32 length plus its UTF-8 bytes, then
// u32 code_size, then the code bytes.
func (img *Image) Encode() []byte {
	buf := make([]byte, 0, 8+len(img.Code))
	buf = appendU32(buf, uint32(len(img.Strings)))
	for _, s := range img.Strings {
		buf = appendU32(buf, uint32(len(s)))
		buf = append(buf, s...)
	}
	buf = appendU32(buf, uint32(len(img.Code)))
	buf = append(buf, img.Code...)
	return buf
}

func appendU32(buf []byte, v uint32) []byte {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], v)
	return append(buf, tmp[:]...)
}

// Decode parses the file format produced by Encode.
func Decode(data []byte) (*Image, error) {
	r := &reader{data: data}

	count, err := r.u32()
	if err != nil {
		return nil, errors.Wrap(err, "reading string_count")
	}

	img := &Image{Strings: make([]string, 0, count)}
	for i := uint32(0); i < count; i++ {
		length, err := r.u32()
		if err != nil {
			return nil, errors.Wrapf(err, "reading length of string %d", i)
		}
		s, err := r.bytes(int(length))
		if err != nil {
			return nil, errors.Wrapf(err, "reading string %d", i)
		}
		img.Strings = append(img.Strings, string(s))
	}

	codeSize, err := r.u32()
	if err != nil {
		return nil, errors.Wrap(err, "reading code_size")
	}
	code, err := r.bytes(int(codeSize))
	if err != nil {
		return nil, errors.Wrap(err, "reading code segment")
	}
	img.Code = code
	return img, nil
}

type reader struct {
	data []byte
	pos  int
}

func (r *reader) u32() (uint32, error) {
	b, err := r.bytes(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (r *reader) bytes(n int) ([]byte, error) {
	if r.pos+n > len(r.data) {
		return nil, errors.Errorf("truncated bytecode: need %d bytes at offset %d, have %d", n, r.pos, len(r.data))
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}
