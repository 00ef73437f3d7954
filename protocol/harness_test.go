package protocol

import (
	"testing"

	"github.com/coremq/mqttproto/codec"
	"github.com/coremq/mqttproto/packet"
)

// harness drives a ProtocolState the way transport.Driver would, but
// in-process: it decodes whatever Service emits with a peer decoder and
// feeds peer-built packets back through HandleNetworkEvent(IncomingData),
// without ever touching a real socket.
type harness struct {
	t    *testing.T
	p    *ProtocolState
	now  int64
	peer *codec.Decoder
	buf  []byte
}

func newHarness(t *testing.T, cfg Config) *harness {
	t.Helper()
	return &harness{
		t:    t,
		p:    New(cfg),
		peer: codec.NewDecoder(cfg.ProtocolVersion),
		buf:  make([]byte, 4096),
	}
}

func (h *harness) open(establishMillis int64) {
	h.t.Helper()
	if err := h.p.HandleNetworkEvent(NetworkEvent{
		Kind:                   ConnectionOpened,
		EstablishmentTimeoutAt: h.now + establishMillis,
		ElapsedMillis:          h.now,
	}); err != nil {
		h.t.Fatalf("ConnectionOpened: %v", err)
	}
}

// drainOutbound services the encoder until no more bytes are produced,
// decoding each one with the peer decoder and reporting WriteCompletion
// after every chunk, exactly as transport.Driver's pump loop does.
func (h *harness) drainOutbound() []*packet.Packet {
	h.t.Helper()
	var got []*packet.Packet
	for {
		out := h.p.Service(h.now, h.buf)
		if len(out) == 0 {
			return got
		}
		pkts, err := h.peer.Decode(out)
		if err != nil {
			h.t.Fatalf("peer decode: %v", err)
		}
		got = append(got, pkts...)
		if err := h.p.HandleNetworkEvent(NetworkEvent{Kind: WriteCompletion, ElapsedMillis: h.now}); err != nil {
			h.t.Fatalf("WriteCompletion: %v", err)
		}
	}
}

// deliver encodes pkt with a throwaway encoder and feeds the bytes in as a
// single IncomingData event.
func (h *harness) deliver(pkt *packet.Packet) {
	h.t.Helper()
	buf, err := packet.Encode(nil, pkt)
	if err != nil {
		h.t.Fatalf("encode inbound fixture: %v", err)
	}
	if err := h.p.HandleNetworkEvent(NetworkEvent{Kind: IncomingData, Bytes: buf, ElapsedMillis: h.now}); err != nil {
		h.t.Fatalf("IncomingData: %v", err)
	}
}

// handshake opens the connection, drains the implicit Connect, and delivers
// a successful Connack — leaving the machine Connected.
func (h *harness) handshake(version packet.Version) {
	h.t.Helper()
	h.open(5000)
	pkts := h.drainOutbound()
	if len(pkts) != 1 || pkts[0].Type != packet.CONNECT {
		h.t.Fatalf("expected a single outbound Connect, got %+v", pkts)
	}
	h.deliver(&packet.Packet{Type: packet.CONNACK, Version: version, Connack: &packet.Connack{ReasonCode: packet.ReasonSuccess}})
	if h.p.State() != Connected {
		h.t.Fatalf("expected Connected after Connack, got %v (halt=%v)", h.p.State(), h.p.HaltErr())
	}
}

func (h *harness) advance(millis int64) {
	h.now += millis
}
