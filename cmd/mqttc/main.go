// Command mqttc is a minimal MQTT client exercising protocol.ProtocolState
// end to end over a real socket via transport.Driver: connect, subscribe to
// a topic, publish one message to it, and log the subscribe and publish
// acknowledgements. Incoming publishes are not printed. On interrupt the
// Driver closes the socket; no DISCONNECT packet is sent. It is a
// demonstration harness, not a production client.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coremq/mqttproto/hook"
	"github.com/coremq/mqttproto/packet"
	"github.com/coremq/mqttproto/pkg/logger"
	"github.com/coremq/mqttproto/protocol"
	"github.com/coremq/mqttproto/store"
	"github.com/coremq/mqttproto/transport"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	var (
		addr       = flag.String("addr", "127.0.0.1:1883", "broker address")
		clientID   = flag.String("client-id", "mqttc", "MQTT client id")
		topic      = flag.String("topic", "mqttc/demo", "topic to subscribe and publish to")
		payload    = flag.String("payload", "hello from mqttc", "publish payload")
		qos        = flag.Int("qos", 1, "publish/subscribe QoS (0, 1, or 2)")
		useMQTT5   = flag.Bool("mqtt5", false, "use MQTT 5 instead of 3.1.1")
		keepAlive  = flag.Uint("keepalive", 30, "keep-alive interval in seconds")
		metricsReg = flag.Bool("metrics", true, "register a PrometheusHook against the default registry")
	)
	flag.Parse()

	log := logger.NewSlogLogger(*clientID, slog.LevelInfo, os.Stdout)

	version := packet.Version311
	if *useMQTT5 {
		version = packet.Version5
	}

	hooks := hook.NewManager()
	if *metricsReg {
		promHook := hook.NewPrometheusHook(prometheus.DefaultRegisterer)
		if err := hooks.Add(promHook); err != nil {
			log.Warn("failed to register metrics hook", "error", err)
		}
	}

	cfg := protocol.Config{
		ProtocolVersion:    version,
		OfflineQueuePolicy: protocol.PreserveQos1PlusPublishes,
		ConnectOptions: protocol.ConnectOptions{
			ClientID:                 *clientID,
			KeepAliveIntervalSeconds: uint16(*keepAlive),
			ResumeSessionPolicy:      protocol.PostSuccess,
		},
		PingTimeoutMillis: 10_000,
	}

	proto := protocol.New(cfg).WithHooks(hooks)

	opStore := store.NewResubmitStore()
	defer opStore.Close()
	restoreResubmitQueue(context.Background(), proto, opStore, *clientID, log)

	conn, err := transport.Dial(context.Background(), *addr, nil)
	if err != nil {
		log.Error("dial failed", "addr", *addr, "error", err)
		os.Exit(1)
	}

	drv := transport.NewDriver(conn, proto, transport.NewRealClock(), log)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	runErr := make(chan error, 1)
	go func() { runErr <- drv.Run(ctx, 5000) }()

	waitConnected(ctx, proto, log)
	subscribeAndPublish(proto, version, *topic, *payload, packet.QoS(*qos), log)

	select {
	case <-ctx.Done():
	case err := <-runErr:
		log.Info("driver stopped", "error", err)
	}

	snapshotResubmitQueue(context.Background(), proto, opStore, *clientID, log)
	fmt.Println("mqttc exiting")
}

func waitConnected(ctx context.Context, proto *protocol.ProtocolState, log logger.Logger) {
	ticker := time.NewTicker(20 * time.Millisecond)
	defer ticker.Stop()
	for {
		if proto.State() == protocol.Connected {
			log.Info("connected")
			return
		}
		if proto.HaltErr() != nil {
			log.Error("halted before connecting", "error", proto.HaltErr())
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func subscribeAndPublish(proto *protocol.ProtocolState, version packet.Version, topicFilter, payload string, qos packet.QoS, log logger.Logger) {
	err := proto.HandleUserEvent(protocol.UserEvent{
		Kind: protocol.OpSubscribe,
		Packet: &packet.Packet{
			Type:    packet.SUBSCRIBE,
			Version: version,
			Subscribe: &packet.Subscribe{
				Subscriptions: []packet.Subscription{{Filter: topicFilter, QoS: qos}},
			},
		},
		Handlers: protocol.ResultHandler{
			OnSuccess: func(protocol.Result) { log.Info("subscribed", "topic", topicFilter) },
			OnFailure: func(err error) { log.Error("subscribe failed", "error", err) },
		},
	})
	if err != nil {
		log.Error("failed to submit subscribe", "error", err)
		return
	}

	err = proto.HandleUserEvent(protocol.UserEvent{
		Kind: protocol.OpPublish,
		Packet: &packet.Packet{
			Type:    packet.PUBLISH,
			Version: version,
			Publish: &packet.Publish{Topic: topicFilter, Payload: []byte(payload), QoS: qos},
		},
		Handlers: protocol.ResultHandler{
			OnSuccess: func(protocol.Result) { log.Info("publish acknowledged", "topic", topicFilter) },
			OnFailure: func(err error) { log.Error("publish failed", "error", err) },
		},
	})
	if err != nil {
		log.Error("failed to submit publish", "error", err)
	}
}

// restoreResubmitQueue rehydrates any QoS 1+ publishes snapshotted into s
// under this client id, before the first ConnectionOpened — per
// protocol.RestoreResubmitQueue's contract. The s that main passes is an
// in-memory store created at startup, so it holds nothing from an earlier run.
func restoreResubmitQueue(ctx context.Context, proto *protocol.ProtocolState, s store.ResubmitStore, clientID string, log logger.Logger) {
	ok, err := s.Exists(ctx, clientID)
	if err != nil || !ok {
		return
	}
	persisted, err := s.Load(ctx, clientID)
	if err != nil {
		log.Warn("failed to load persisted operations", "error", err)
		return
	}
	if err := proto.RestoreResubmitQueue(persisted); err != nil {
		log.Warn("failed to restore resubmit queue", "error", err)
		return
	}
	log.Info("restored resubmit queue", "count", len(persisted))
}

func snapshotResubmitQueue(ctx context.Context, proto *protocol.ProtocolState, s store.ResubmitStore, clientID string, log logger.Logger) {
	persisted, err := proto.SnapshotResubmitQueue()
	if err != nil {
		log.Warn("failed to snapshot resubmit queue", "error", err)
		return
	}
	if len(persisted) == 0 {
		return
	}
	if err := s.Save(ctx, clientID, persisted); err != nil {
		log.Warn("failed to persist resubmit queue", "error", err)
	}
}
