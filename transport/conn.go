package transport

import (
	"context"
	"crypto/tls"
	"net"
	"sync/atomic"
	"time"
)

// Conn is the single outbound socket a Driver reads from and writes to. It
// wraps a net.Conn (plain TCP or, when TLSConfig is set, TLS over TCP),
// applying read/write deadlines and tracking basic byte counters — there is
// always exactly one, unlike a broker's many concurrent inbound sockets.
type Conn struct {
	conn   net.Conn
	isTLS  bool
	closed atomic.Bool

	readDeadline  time.Duration
	writeDeadline time.Duration

	bytesRead    atomic.Uint64
	bytesWritten atomic.Uint64
}

// ConnConfig configures timeouts applied to every Read/Write.
type ConnConfig struct {
	ReadDeadline  time.Duration
	WriteDeadline time.Duration
	TLSConfig     *tls.Config
}

func DefaultConnConfig() *ConnConfig {
	return &ConnConfig{
		ReadDeadline:  60 * time.Second,
		WriteDeadline: 30 * time.Second,
	}
}

// Dial opens a new connection to addr, optionally over TLS when cfg.TLSConfig
// is non-nil.
func Dial(ctx context.Context, addr string, cfg *ConnConfig) (*Conn, error) {
	if addr == "" {
		return nil, ErrInvalidAddress
	}
	if cfg == nil {
		cfg = DefaultConnConfig()
	}

	var d net.Dialer
	raw, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}

	c := &Conn{
		conn:          raw,
		readDeadline:  cfg.ReadDeadline,
		writeDeadline: cfg.WriteDeadline,
	}

	if cfg.TLSConfig != nil {
		tlsConn := tls.Client(raw, cfg.TLSConfig)
		if err := tlsConn.HandshakeContext(ctx); err != nil {
			_ = raw.Close()
			return nil, err
		}
		c.conn = tlsConn
		c.isTLS = true
	}

	return c, nil
}

func (c *Conn) IsTLS() bool { return c.isTLS }

func (c *Conn) RemoteAddr() net.Addr { return c.conn.RemoteAddr() }

func (c *Conn) LocalAddr() net.Addr { return c.conn.LocalAddr() }

// Read blocks for at most readDeadline and reports ErrConnectionClosed once
// Close has been called.
func (c *Conn) Read(b []byte) (int, error) {
	if c.closed.Load() {
		return 0, ErrConnectionClosed
	}
	if c.readDeadline > 0 {
		_ = c.conn.SetReadDeadline(time.Now().Add(c.readDeadline))
	}
	n, err := c.conn.Read(b)
	if n > 0 {
		c.bytesRead.Add(uint64(n))
	}
	return n, err
}

// Write blocks for at most writeDeadline and reports ErrConnectionClosed
// once Close has been called.
func (c *Conn) Write(b []byte) (int, error) {
	if c.closed.Load() {
		return 0, ErrConnectionClosed
	}
	if c.writeDeadline > 0 {
		_ = c.conn.SetWriteDeadline(time.Now().Add(c.writeDeadline))
	}
	n, err := c.conn.Write(b)
	if n > 0 {
		c.bytesWritten.Add(uint64(n))
	}
	return n, err
}

func (c *Conn) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	return c.conn.Close()
}

func (c *Conn) BytesRead() uint64 { return c.bytesRead.Load() }

func (c *Conn) BytesWritten() uint64 { return c.bytesWritten.Load() }

func (c *Conn) TLSConnectionState() (tls.ConnectionState, bool) {
	if tlsConn, ok := c.conn.(*tls.Conn); ok {
		return tlsConn.ConnectionState(), true
	}
	return tls.ConnectionState{}, false
}
