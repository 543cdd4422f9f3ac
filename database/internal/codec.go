// Package internal holds encodings shared by the persistent record stores.
package internal

import "encoding/binary"

// EncodeTimestamp stores a uint64 timestamp in a signed 64-bit column by
// keeping its bit pattern.
func EncodeTimestamp(ts uint64) int64 {
	return int64(ts) //nolint:gosec // bit pattern is preserved intentionally
}

// DecodeTimestamp reverses EncodeTimestamp.
func DecodeTimestamp(v int64) uint64 {
	return uint64(v) //nolint:gosec // bit pattern is preserved intentionally
}

// PositionKey encodes an iteration position as an 8-byte big-endian key so
// that byte-ordered key/value stores iterate in position order.
func PositionKey(pos uint64) []byte {
	k := make([]byte, 8)
	binary.BigEndian.PutUint64(k, pos)
	return k
}

// ParsePositionKey reverses PositionKey. Malformed keys decode as 0, false.
func ParsePositionKey(k []byte) (uint64, bool) {
	if len(k) != 8 {
		return 0, false
	}
	return binary.BigEndian.Uint64(k), true
}
