package hook

import "github.com/coremq/mqttproto/packet"

// Event identifies one lifecycle point a Hook can observe. Unlike the
// broker-side hook surface this package started from, every event here
// fires from inside ProtocolState's HandleUserEvent/HandleNetworkEvent/
// Service — synchronously, on the calling goroutine, with the state
// machine's own invariants already re-established. A hook must not call
// back into the ProtocolState that invoked it.
type Event byte

const (
	OnConnectionOpened Event = iota
	OnConnectionClosed
	OnConnack
	OnPublishReceived
	OnPongReceived
	OnOperationCompleted
	OnOperationFailed
	OnHalted
)

func (e Event) String() string {
	names := [...]string{
		"OnConnectionOpened",
		"OnConnectionClosed",
		"OnConnack",
		"OnPublishReceived",
		"OnPongReceived",
		"OnOperationCompleted",
		"OnOperationFailed",
		"OnHalted",
	}
	if int(e) < len(names) {
		return names[e]
	}
	return "Unknown"
}

// OperationKind mirrors protocol.UserEventKind without importing the
// protocol package, which would create an import cycle (protocol imports
// hook to invoke it). toHookKind in protocol/hooks.go does the conversion.
type OperationKind byte

const (
	OpPublish OperationKind = iota
	OpSubscribe
	OpUnsubscribe
	OpDisconnect
)

// Hook is the interface every observer implements. Embed Base to pick up
// no-op defaults and override only what's needed.
type Hook interface {
	ID() string
	Provides(event Event) bool

	OnConnectionOpened() error
	OnConnectionClosed() error
	OnConnack(connack *packet.Connack) error
	OnPublishReceived(pub *packet.Publish) error
	OnPongReceived() error
	OnOperationCompleted(kind OperationKind) error
	OnOperationFailed(kind OperationKind, err error) error
	OnHalted(err error) error
}
