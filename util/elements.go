package util

import (
	"encoding/binary"
	"io"
)

// MaxMoney is the maximum number of satoshis that can ever exist.
const MaxMoney = 21000000 * 100000000

// WriteElements serializes each element to w in little-endian order.
func WriteElements(w io.Writer, elements ...interface{}) error {
	for _, e := range elements {
		if err := binary.Write(w, binary.LittleEndian, e); err != nil {
			return err
		}
	}
	return nil
}

// ReadElements deserializes each element from r in little-endian order.
// Each element must be a pointer to the destination value.
func ReadElements(r io.Reader, elements ...interface{}) error {
	for _, e := range elements {
		if err := binary.Read(r, binary.LittleEndian, e); err != nil {
			return err
		}
	}
	return nil
}
