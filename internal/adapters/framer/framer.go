// Package framer assembles the on-wire frame:
//
//	0xB2 type seq len payload[0..len] crc_lo crc_hi
//
// CRC-16/CCITT covers type..payload. The pre-frame is then COBS-encoded and
// terminated with a single 0x00 delimiter.
package framer

import (
	"fmt"

	"github.com/latticebyte/bpu/internal/domain"
	"github.com/latticebyte/bpu/internal/ports"
)

// MaxPayload is the largest payload length the wire frame admits.
const MaxPayload = 64

const (
	startByte     = 0xB2
	preframeFixed = 4 // start, type, seq, len — crc added separately
	crcLen        = 2

	preLenMax = preframeFixed + MaxPayload + crcLen // 70
	// maxEncodedLen is EncodedLen(preLenMax) computed as a constant
	// expression (array lengths cannot call functions): the leading code
	// byte, one overhead byte per full 254-byte block, plus the trailing
	// delimiter.
	maxEncodedLen = preLenMax + preLenMax/MaxBlock + 1 + 1
)

// Framer holds the rolling sequence counter and reusable scratch buffers so
// SendFrame never allocates on the hot path.
type Framer struct {
	seq     byte
	pre     [preLenMax]byte
	encoded [maxEncodedLen]byte
}

// New returns a Framer with seq starting at 0.
func New() *Framer {
	return &Framer{}
}

// Seq returns the next sequence number that will be stamped on a frame.
func (f *Framer) Seq() byte { return f.seq }

// SendFrame builds, encodes, and writes one frame to sink. It returns the
// exact number of bytes written (encoded length + 1 delimiter byte) and
// true on success. It fails (false, 0) if len(payload) > MaxPayload or if
// the encoding would overflow the scratch buffer; seq is only advanced on
// success.
func (f *Framer) SendFrame(sink ports.ByteSink, kind domain.Kind, payload []byte) (int, bool) {
	n := len(payload)
	if n > MaxPayload {
		return 0, false
	}

	preLen := preframeFixed + n
	f.pre[0] = startByte
	f.pre[1] = kind.WireType()
	f.pre[2] = f.seq
	f.pre[3] = byte(n)
	copy(f.pre[preframeFixed:preframeFixed+n], payload)

	crc := crc16CCITT(f.pre[1:preLen]) // type, seq, len, payload
	f.pre[preLen] = byte(crc)
	f.pre[preLen+1] = byte(crc >> 8)
	preLen += crcLen

	need := EncodedLen(preLen) + 1 // + delimiter
	if need > len(f.encoded) {
		return 0, false
	}

	encLen := Encode(f.encoded[:], f.pre[:preLen])
	f.encoded[encLen] = 0x00
	total := encLen + 1

	written, err := sink.Write(f.encoded[:total])
	if err != nil || written != total {
		return 0, false
	}

	f.seq++
	return total, true
}

// DecodeFrame reverses SendFrame's encoding for tests/tools: given the
// COBS-encoded region (without the trailing delimiter), it returns the
// decoded type, seq, payload, and whether the CRC validated.
func DecodeFrame(encoded []byte) (kind byte, seq byte, payload []byte, crcOK bool, err error) {
	dst := make([]byte, len(encoded))
	n, derr := Decode(dst, encoded)
	if derr != nil {
		return 0, 0, nil, false, derr
	}
	if n < preframeFixed+crcLen {
		return 0, 0, nil, false, fmt.Errorf("framer: decoded frame too short: %d bytes", n)
	}
	if dst[0] != startByte {
		return 0, 0, nil, false, fmt.Errorf("framer: bad start byte 0x%02x", dst[0])
	}

	kind = dst[1]
	seq = dst[2]
	l := int(dst[3])
	if preframeFixed+l+crcLen != n {
		return 0, 0, nil, false, fmt.Errorf("framer: length mismatch: len=%d frame=%d", l, n)
	}
	payload = dst[preframeFixed : preframeFixed+l]

	wantCRC := uint16(dst[n-2]) | uint16(dst[n-1])<<8
	gotCRC := crc16CCITT(dst[1 : n-2])
	crcOK = wantCRC == gotCRC
	return kind, seq, payload, crcOK, nil
}
