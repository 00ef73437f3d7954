package codec

import (
	"github.com/coremq/mqttproto/packet"
	"github.com/coremq/mqttproto/wire"
)

const initialScratchCapacity = 128

type decoderState int

const (
	pendingFirstByte decoderState = iota
	pendingRemainingLength
	pendingPayload
)

// Decoder is the three-state cooperative packet decoder: PendingFirstByte
// saves the fixed header's first byte, PendingRemainingLength accumulates
// the Variable Byte Integer one byte at a time, and PendingPayload copies
// the remainder into a scratch buffer until a full packet is assembled.
// It is re-entrant across arbitrary chunk boundaries, including a single
// fixed-header byte followed by a later chunk containing the rest.
type Decoder struct {
	version packet.Version

	state        decoderState
	scratch      []byte
	scratchIndex int
	headerLen    int
	remaining    uint32

	// fatal latches the first malformed-input error. Once set, every
	// subsequent Decode call returns it immediately: a decode failure is
	// protocol-fatal and the caller must halt the state machine, not retry.
	fatal error
}

func NewDecoder(version packet.Version) *Decoder {
	d := &Decoder{version: version}
	d.reset()
	return d
}

func (d *Decoder) reset() {
	d.state = pendingFirstByte
	if cap(d.scratch) == 0 {
		d.scratch = make([]byte, 0, initialScratchCapacity)
	} else {
		d.scratch = d.scratch[:0]
	}
	d.scratchIndex = 0
	d.headerLen = 0
	d.remaining = 0
}

// Reset discards any partial frame carried over from a prior connection.
// The state machine calls this on every ConnectionOpened.
func (d *Decoder) Reset() {
	d.reset()
	d.fatal = nil
}

func (d *Decoder) grow(need int) {
	if cap(d.scratch) >= need {
		return
	}
	next := cap(d.scratch) + cap(d.scratch)/2
	if next < need {
		next = need
	}
	buf := make([]byte, len(d.scratch), next)
	copy(buf, d.scratch)
	d.scratch = buf
}

// Decode consumes view, a chunk of inbound bytes of any length, and returns
// every packet it was able to fully assemble from it; bytes of an
// unfinished packet are kept for the next call. A non-nil error is always
// fatal; the caller must not call Decode again.
func (d *Decoder) Decode(view []byte) ([]*packet.Packet, error) {
	if d.fatal != nil {
		return nil, d.fatal
	}
	var out []*packet.Packet
	for len(view) > 0 {
		switch d.state {
		case pendingFirstByte:
			d.scratch = append(d.scratch[:0], view[0])
			view = view[1:]
			d.state = pendingRemainingLength

		case pendingRemainingLength:
			d.scratch = append(d.scratch, view[0])
			view = view[1:]
			_, _, done, err := wire.DecodeVarInt(d.scratch[1:])
			if err != nil {
				return out, d.fail(err)
			}
			if !done {
				continue
			}
			fh, n, err := packet.DecodeFixedHeader(d.scratch)
			if err != nil {
				return out, d.fail(err)
			}
			d.headerLen = n
			d.remaining = fh.RemainingLength
			d.grow(n + int(fh.RemainingLength))
			d.scratchIndex = n
			if fh.RemainingLength == 0 {
				pkt, err := d.assemble()
				if err != nil {
					return out, d.fail(err)
				}
				out = append(out, pkt)
				d.reset()
				continue
			}
			d.state = pendingPayload

		case pendingPayload:
			total := d.headerLen + int(d.remaining)
			need := total - d.scratchIndex
			take := len(view)
			if take > need {
				take = need
			}
			d.scratch = append(d.scratch, view[:take]...)
			d.scratchIndex += take
			view = view[take:]
			if d.scratchIndex >= total {
				pkt, err := d.assemble()
				if err != nil {
					return out, d.fail(err)
				}
				out = append(out, pkt)
				d.reset()
			}
		}
	}
	return out, nil
}

func (d *Decoder) fail(err error) error {
	d.fatal = err
	return err
}

func (d *Decoder) assemble() (*packet.Packet, error) {
	fh, n, err := packet.DecodeFixedHeader(d.scratch)
	if err != nil {
		return nil, err
	}
	body := d.scratch[n : n+int(fh.RemainingLength)]
	return packet.Decode(fh, body, d.version)
}
