// Package transport supplies the reference host loop for protocol.ProtocolState:
// Dial a single net.Conn/tls.Conn, pump inbound bytes into the decoder side
// via HandleNetworkEvent(IncomingData), and drain Service's encoder output
// back onto the socket, acknowledging every write with WriteCompletion. It
// is the one piece of the module that actually performs I/O — ProtocolState
// itself never does.
package transport

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/coremq/mqttproto/pkg/logger"
	"github.com/coremq/mqttproto/protocol"
)

// Clock abstracts elapsed-millis timekeeping so tests can drive Driver
// without real time passing.
type Clock interface {
	NowMillis() int64
}

type realClock struct{ start time.Time }

func NewRealClock() Clock {
	return &realClock{start: time.Now()}
}

func (c *realClock) NowMillis() int64 {
	return time.Since(c.start).Milliseconds()
}

// Driver owns the read loop and the Service pump for one Conn/ProtocolState
// pair. Callers submit operations against the ProtocolState directly
// (HandleUserEvent) — Driver only owns the network side.
type Driver struct {
	conn  *Conn
	proto *protocol.ProtocolState
	clock Clock
	log   logger.Logger

	readBuf   []byte
	writeBuf  []byte
	closed    chan struct{}
	closeOnce chan struct{}
}

func NewDriver(conn *Conn, proto *protocol.ProtocolState, clock Clock, log logger.Logger) *Driver {
	if clock == nil {
		clock = NewRealClock()
	}
	return &Driver{
		conn:     conn,
		proto:    proto,
		clock:    clock,
		log:      log,
		readBuf:  make([]byte, 4096),
		writeBuf: make([]byte, 4096),
		closed:   make(chan struct{}),
	}
}

// Run opens the session (HandleNetworkEvent(ConnectionOpened)) and blocks,
// alternately reading inbound bytes and servicing outbound ones, until ctx
// is cancelled, the socket errors, or ProtocolState halts. It always closes
// the underlying Conn before returning.
func (d *Driver) Run(ctx context.Context, establishmentTimeoutMillis int64) error {
	defer d.conn.Close()
	defer close(d.closed)

	now := d.clock.NowMillis()
	if err := d.proto.HandleNetworkEvent(protocol.NetworkEvent{
		Kind:                   protocol.ConnectionOpened,
		EstablishmentTimeoutAt: now + establishmentTimeoutMillis,
		ElapsedMillis:          now,
	}); err != nil {
		return err
	}

	reads := make(chan readResult, 1)
	go d.readLoop(reads)

	for {
		if err := d.pump(); err != nil {
			d.notifyClosed()
			return err
		}
		if d.proto.HaltErr() != nil {
			d.notifyClosed()
			return d.proto.HaltErr()
		}

		timeout := 5 * time.Second
		if tp, ok := d.proto.GetNextServiceTimepoint(d.clock.NowMillis()); ok {
			if wait := tp - d.clock.NowMillis(); wait >= 0 {
				timeout = time.Duration(wait) * time.Millisecond
			} else {
				timeout = 0
			}
		}
		timer := time.NewTimer(timeout)

		select {
		case <-ctx.Done():
			timer.Stop()
			d.notifyClosed()
			return ctx.Err()
		case r, ok := <-reads:
			timer.Stop()
			if !ok {
				d.notifyClosed()
				return io.EOF
			}
			if r.err != nil {
				d.notifyClosed()
				return r.err
			}
			if err := d.proto.HandleNetworkEvent(protocol.NetworkEvent{
				Kind:          protocol.IncomingData,
				Bytes:         r.data,
				ElapsedMillis: d.clock.NowMillis(),
			}); err != nil {
				return err
			}
		case <-timer.C:
		}
	}
}

type readResult struct {
	data []byte
	err  error
}

func (d *Driver) readLoop(out chan<- readResult) {
	defer close(out)
	for {
		n, err := d.conn.Read(d.readBuf)
		if n > 0 {
			cp := make([]byte, n)
			copy(cp, d.readBuf[:n])
			select {
			case out <- readResult{data: cp}:
			case <-d.closed:
				return
			}
		}
		if err != nil {
			if !errors.Is(err, ErrConnectionClosed) {
				select {
				case out <- readResult{err: err}:
				case <-d.closed:
				}
			}
			return
		}
	}
}

// pump drains every byte Service is ready to emit right now, writing each
// chunk and immediately reporting WriteCompletion — there is never more
// than one outstanding write because ProtocolState gates on
// awaitingWriteCompletion between Service calls.
func (d *Driver) pump() error {
	for {
		out := d.proto.Service(d.clock.NowMillis(), d.writeBuf)
		if len(out) == 0 {
			return nil
		}
		if _, err := d.conn.Write(out); err != nil {
			return err
		}
		if err := d.proto.HandleNetworkEvent(protocol.NetworkEvent{
			Kind:          protocol.WriteCompletion,
			ElapsedMillis: d.clock.NowMillis(),
		}); err != nil {
			return err
		}
	}
}

func (d *Driver) notifyClosed() {
	_ = d.proto.HandleNetworkEvent(protocol.NetworkEvent{
		Kind:          protocol.ConnectionClosed,
		ElapsedMillis: d.clock.NowMillis(),
	})
}
