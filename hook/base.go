package hook

import "github.com/coremq/mqttproto/packet"

// Base is a no-op Hook. Embed it and override only the methods a concrete
// hook cares about.
type Base struct {
	id string
}

// NewHookBase creates a new base hook with the given ID.
func NewHookBase(id string) *Base {
	return &Base{id: id}
}

func (h *Base) ID() string { return h.id }

func (h *Base) Provides(event Event) bool { return false }

func (h *Base) OnConnectionOpened() error { return nil }

func (h *Base) OnConnectionClosed() error { return nil }

func (h *Base) OnConnack(connack *packet.Connack) error { return nil }

func (h *Base) OnPublishReceived(pub *packet.Publish) error { return nil }

func (h *Base) OnPongReceived() error { return nil }

func (h *Base) OnOperationCompleted(kind OperationKind) error { return nil }

func (h *Base) OnOperationFailed(kind OperationKind, err error) error { return nil }

func (h *Base) OnHalted(err error) error { return nil }
