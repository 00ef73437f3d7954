// Package codec implements the streaming packet encoder and decoder that sit
// between protocol.ProtocolState and the caller's transport. Neither type
// performs I/O: both operate on caller-supplied byte views across
// potentially many calls, so the caller is free to drive them from a
// blocking socket, an async event loop, or a test harness one byte at a
// time.
package codec

import "github.com/coremq/mqttproto/packet"

// ServiceStatus reports whether Encoder.Service finished writing the
// current packet or needs to be called again with more buffer space.
type ServiceStatus int

const (
	InProgress ServiceStatus = iota
	Complete
)

// EncodeResult is the return value of Encoder.Service.
type EncodeResult struct {
	Status ServiceStatus
	// NextView is the suffix of the buffer passed to Service that went
	// unused. For InProgress this is always empty; for Complete it is
	// whatever room was left after the packet's last byte.
	NextView []byte
}

// Encoder serializes one packet at a time into caller-supplied buffers.
// InitForPacket must be called before the first Service call for a given
// packet, and again before encoding the next one; Service may be called
// any number of times in between, each consuming the prefix of its
// argument that fits and no more.
type Encoder struct {
	buf []byte
	pos int
}

func NewEncoder() *Encoder {
	return &Encoder{}
}

// InitForPacket encodes pkt in full into an internal buffer and primes the
// encoder to stream it out via Service. If pkt requires a packet id and
// doesn't have one yet, nextPacketID supplies it — written into both the
// outgoing bytes and pkt itself, so the caller can look the operation up
// again when its ack arrives. maximumPacketSize of 0 disables the size
// check.
func (e *Encoder) InitForPacket(pkt *packet.Packet, maximumPacketSize uint32, nextPacketID func() uint16) error {
	if pkt.RequiresPacketID() {
		if id, _ := pkt.PacketID(); id == 0 {
			pkt.SetPacketID(nextPacketID())
		}
	}
	buf, err := packet.Encode(nil, pkt)
	if err != nil {
		return err
	}
	if maximumPacketSize != 0 && uint32(len(buf)) > maximumPacketSize {
		return ErrPacketTooLarge
	}
	e.buf = buf
	e.pos = 0
	return nil
}

// Service writes as many bytes of the current packet as fit in dst and
// reports whether the packet is now fully emitted.
func (e *Encoder) Service(dst []byte) EncodeResult {
	n := copy(dst, e.buf[e.pos:])
	e.pos += n
	if e.pos >= len(e.buf) {
		return EncodeResult{Status: Complete, NextView: dst[n:]}
	}
	return EncodeResult{Status: InProgress, NextView: dst[n:]}
}

// Reset discards any partially-emitted packet, for use when the underlying
// connection is torn down mid-write.
func (e *Encoder) Reset() {
	e.buf = nil
	e.pos = 0
}
