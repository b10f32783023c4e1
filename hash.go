package maglev

import (
	"encoding/binary"
)

// Seeds used to derive per-node permutation parameters.
//
// seedOffset is reused for hashing lookup keys. This is not an arbitrary
// choice: the published Maglev construction assumes that keys and node
// offsets are drawn from the same hash stream.
const (
	seedOffset uint32 = 0xdeadbabe
	seedSkip   uint32 = 0xdeadbeef
)

func encodeSeed(seed uint32) []byte {
	p := make([]byte, 4)
	binary.LittleEndian.PutUint32(p, seed)
	return p
}
