package eventdb

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"math"

	"market-event-monitor/internal/types"
)

// On-disk layout, little-endian throughout.
//
//	Header : magic "EMER" | version u32 | record_count u64 | crc32 over the
//	         preceding 16 bytes
//	Record : len u32 | payload | crc32 over len and payload
//
// Record payload:
//
//	symbol [16] | date [16] | type u8 | pad [3] | magnitude f64 |
//	sentiment f32 | impact i8 | pad [3] | timestamp i64 |
//	desc_len u16 | desc | url_len u16 | url | source_len u16 | source
//
// Event IDs are not stored; they are reassigned in insertion order on load.

var magic = [4]byte{'E', 'M', 'E', 'R'}

const (
	formatVersion  = 1
	headerSize     = 20
	fixedPayload   = 16 + 16 + 1 + 3 + 8 + 4 + 1 + 3 + 8
	maxPayloadSize = 1 << 20 // sanity bound while reading
)

func encodeHeader(count uint64) []byte {
	buf := make([]byte, headerSize)
	copy(buf[0:4], magic[:])
	binary.LittleEndian.PutUint32(buf[4:8], formatVersion)
	binary.LittleEndian.PutUint64(buf[8:16], count)
	binary.LittleEndian.PutUint32(buf[16:20], crc32.ChecksumIEEE(buf[:16]))
	return buf
}

func decodeHeader(buf []byte) (count uint64, err error) {
	if len(buf) < headerSize {
		return 0, fmt.Errorf("%w: short header", ErrCorrupt)
	}
	if !bytes.Equal(buf[0:4], magic[:]) {
		return 0, fmt.Errorf("%w: bad magic", ErrCorrupt)
	}
	if v := binary.LittleEndian.Uint32(buf[4:8]); v != formatVersion {
		return 0, fmt.Errorf("%w: unsupported version %d", ErrCorrupt, v)
	}
	if crc32.ChecksumIEEE(buf[:16]) != binary.LittleEndian.Uint32(buf[16:20]) {
		return 0, fmt.Errorf("%w: header checksum mismatch", ErrCorrupt)
	}
	return binary.LittleEndian.Uint64(buf[8:16]), nil
}

func encodeRecord(ev types.DetectedEvent) []byte {
	payload := make([]byte, fixedPayload, fixedPayload+len(ev.Description)+len(ev.URL)+len(ev.Source)+6)

	copyPadded(payload[0:16], ev.Symbol)
	copyPadded(payload[16:32], ev.Date)
	payload[32] = byte(ev.Type)
	// payload[33:36] pad
	binary.LittleEndian.PutUint64(payload[36:44], math.Float64bits(ev.Magnitude))
	binary.LittleEndian.PutUint32(payload[44:48], math.Float32bits(ev.Sentiment))
	payload[48] = byte(ev.Impact)
	// payload[49:52] pad
	binary.LittleEndian.PutUint64(payload[52:60], uint64(ev.Timestamp))

	payload = appendString(payload, ev.Description)
	payload = appendString(payload, ev.URL)
	payload = appendString(payload, ev.Source)

	rec := make([]byte, 4, 4+len(payload)+4)
	binary.LittleEndian.PutUint32(rec, uint32(len(payload)))
	rec = append(rec, payload...)
	sum := crc32.ChecksumIEEE(rec)
	rec = binary.LittleEndian.AppendUint32(rec, sum)
	return rec
}

func decodePayload(payload []byte) (types.DetectedEvent, error) {
	if len(payload) < fixedPayload {
		return types.DetectedEvent{}, fmt.Errorf("%w: short record payload", ErrCorrupt)
	}
	ev := types.DetectedEvent{
		Symbol:    trimPadded(payload[0:16]),
		Date:      trimPadded(payload[16:32]),
		Type:      types.EventType(payload[32]),
		Magnitude: math.Float64frombits(binary.LittleEndian.Uint64(payload[36:44])),
		Sentiment: math.Float32frombits(binary.LittleEndian.Uint32(payload[44:48])),
		Impact:    int8(payload[48]),
		Timestamp: int64(binary.LittleEndian.Uint64(payload[52:60])),
	}
	if !ev.Type.Valid() {
		return types.DetectedEvent{}, fmt.Errorf("%w: unknown event type %d", ErrCorrupt, payload[32])
	}

	rest := payload[fixedPayload:]
	var err error
	if ev.Description, rest, err = readString(rest); err != nil {
		return types.DetectedEvent{}, err
	}
	if ev.URL, rest, err = readString(rest); err != nil {
		return types.DetectedEvent{}, err
	}
	if ev.Source, rest, err = readString(rest); err != nil {
		return types.DetectedEvent{}, err
	}
	if len(rest) != 0 {
		return types.DetectedEvent{}, fmt.Errorf("%w: %d trailing payload bytes", ErrCorrupt, len(rest))
	}
	return ev, nil
}

func copyPadded(dst []byte, s string) {
	if len(s) > len(dst) {
		s = s[:len(dst)]
	}
	copy(dst, s)
}

func trimPadded(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b)
}

func appendString(buf []byte, s string) []byte {
	if len(s) > math.MaxUint16 {
		s = s[:math.MaxUint16]
	}
	buf = binary.LittleEndian.AppendUint16(buf, uint16(len(s)))
	return append(buf, s...)
}

func readString(buf []byte) (string, []byte, error) {
	if len(buf) < 2 {
		return "", nil, fmt.Errorf("%w: truncated string field", ErrCorrupt)
	}
	n := int(binary.LittleEndian.Uint16(buf))
	buf = buf[2:]
	if len(buf) < n {
		return "", nil, fmt.Errorf("%w: truncated string field", ErrCorrupt)
	}
	return string(buf[:n]), buf[n:], nil
}
