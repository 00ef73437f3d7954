package transport

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/coremq/mqttproto/packet"
	"github.com/coremq/mqttproto/protocol"
)

// fakeClock advances only when asked, for deterministic timeout arithmetic
// in tests that don't want Driver racing real wall-clock time.
type fakeClock struct{ ms int64 }

func (c *fakeClock) NowMillis() int64 { return c.ms }

func encodeConnack(t *testing.T) []byte {
	t.Helper()
	pkt := &packet.Packet{
		Type:    packet.CONNACK,
		Version: packet.Version311,
		Connack: &packet.Connack{ReasonCode: packet.ReasonSuccess},
	}
	buf, err := packet.Encode(nil, pkt)
	require.NoError(t, err)
	return buf
}

// TestDriverHandshake spins up a loopback fake broker that replies CONNACK
// to whatever the Driver sends, and asserts ProtocolState reaches Connected.
func TestDriverHandshake(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	go func() {
		c, err := ln.Accept()
		if err != nil {
			return
		}
		defer c.Close()
		buf := make([]byte, 512)
		_, _ = c.Read(buf) // CONNECT
		_, _ = c.Write(encodeConnack(t))
	}()

	conn, err := Dial(t.Context(), ln.Addr().String(), nil)
	require.NoError(t, err)

	proto := protocol.New(protocol.Config{
		ProtocolVersion: packet.Version311,
		ConnectOptions: protocol.ConnectOptions{
			ClientID:                 "test-client",
			KeepAliveIntervalSeconds: 60,
		},
	})

	drv := NewDriver(conn, proto, &fakeClock{}, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- drv.Run(ctx, 5000) }()

	deadline := time.Now().Add(time.Second)
	for proto.State() != protocol.Connected {
		if time.Now().After(deadline) {
			t.Fatalf("protocol never reached Connected, state=%v haltErr=%v", proto.State(), proto.HaltErr())
		}
		time.Sleep(time.Millisecond)
	}

	cancel()
	<-done
}
