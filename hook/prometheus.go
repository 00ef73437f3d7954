package hook

import (
	"github.com/coremq/mqttproto/packet"
	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusHook exports ProtocolState lifecycle counters to Prometheus. It
// provides every event so a single instance gives full coverage; register
// it once per ProtocolState (or share one across several, since the
// counters carry no per-client labels).
type PrometheusHook struct {
	*Base

	connectionsOpened prometheus.Counter
	connectionsClosed prometheus.Counter
	connacksReceived  prometheus.Counter
	publishesReceived prometheus.Counter
	pongsReceived     prometheus.Counter
	operationsOK      *prometheus.CounterVec
	operationsFailed  *prometheus.CounterVec
	halts             prometheus.Counter
}

// NewPrometheusHook builds a PrometheusHook and registers its collectors against
// reg. Pass prometheus.DefaultRegisterer for the global registry.
func NewPrometheusHook(reg prometheus.Registerer) *PrometheusHook {
	h := &PrometheusHook{
		Base: NewHookBase("metrics"),
		connectionsOpened: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mqttproto_connections_opened_total",
			Help: "Transport connections the state machine has seen opened.",
		}),
		connectionsClosed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mqttproto_connections_closed_total",
			Help: "Transport connections the state machine has seen closed.",
		}),
		connacksReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mqttproto_connacks_received_total",
			Help: "Connack packets received.",
		}),
		publishesReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mqttproto_publishes_received_total",
			Help: "Inbound Publish packets received.",
		}),
		pongsReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mqttproto_pongs_received_total",
			Help: "Pingresp packets received.",
		}),
		operationsOK: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mqttproto_operations_completed_total",
			Help: "Client operations that completed successfully, by kind.",
		}, []string{"kind"}),
		operationsFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mqttproto_operations_failed_total",
			Help: "Client operations that failed, by kind.",
		}, []string{"kind"}),
		halts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mqttproto_halts_total",
			Help: "Times the state machine halted on a fatal error.",
		}),
	}
	reg.MustRegister(
		h.connectionsOpened, h.connectionsClosed, h.connacksReceived,
		h.publishesReceived, h.pongsReceived, h.operationsOK, h.operationsFailed, h.halts,
	)
	return h
}

func (h *PrometheusHook) Provides(event Event) bool { return true }

func (h *PrometheusHook) OnConnectionOpened() error {
	h.connectionsOpened.Inc()
	return nil
}

func (h *PrometheusHook) OnConnectionClosed() error {
	h.connectionsClosed.Inc()
	return nil
}

func (h *PrometheusHook) OnConnack(connack *packet.Connack) error {
	h.connacksReceived.Inc()
	return nil
}

func (h *PrometheusHook) OnPublishReceived(pub *packet.Publish) error {
	h.publishesReceived.Inc()
	return nil
}

func (h *PrometheusHook) OnPongReceived() error {
	h.pongsReceived.Inc()
	return nil
}

func (h *PrometheusHook) OnOperationCompleted(kind OperationKind) error {
	h.operationsOK.WithLabelValues(kindLabel(kind)).Inc()
	return nil
}

func (h *PrometheusHook) OnOperationFailed(kind OperationKind, err error) error {
	h.operationsFailed.WithLabelValues(kindLabel(kind)).Inc()
	return nil
}

func (h *PrometheusHook) OnHalted(err error) error {
	h.halts.Inc()
	return nil
}

func kindLabel(kind OperationKind) string {
	switch kind {
	case OpPublish:
		return "publish"
	case OpSubscribe:
		return "subscribe"
	case OpUnsubscribe:
		return "unsubscribe"
	case OpDisconnect:
		return "disconnect"
	default:
		return "unknown"
	}
}
