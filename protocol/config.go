package protocol

import "github.com/coremq/mqttproto/packet"

// OfflineQueuePolicy controls which operation kinds survive submission while
// Disconnected, and which in-flight operations survive a ConnectionClosed.
type OfflineQueuePolicy byte

const (
	// PreserveAll accepts any operation regardless of connection state.
	PreserveAll OfflineQueuePolicy = iota
	// PreserveAcknowledged accepts Subscribe/Unsubscribe and QoS >= 1
	// Publish, rejecting QoS 0 Publish.
	PreserveAcknowledged
	// PreserveQos1PlusPublishes accepts only QoS >= 1 Publish.
	PreserveQos1PlusPublishes
	// PreserveNothing rejects every non-connect/disconnect operation.
	PreserveNothing
)

// ResumeSessionPolicy controls the derivation of CleanStart on each connect
// attempt.
type ResumeSessionPolicy byte

const (
	// PostSuccess sends cleanStart=true on the first connect and
	// cleanStart=false on every connect after the first successful Connack.
	PostSuccess ResumeSessionPolicy = iota
	// Never always sends cleanStart=true.
	Never
	// Always always sends cleanStart=false. Intentionally non-spec-compliant
	// but accepted: some brokers require it for a desired failover behavior.
	Always
)

// Will mirrors packet.Will plus the options layer the caller configures it
// with; ProtocolState copies it into the Connect packet it schedules.
type Will struct {
	Topic             string
	Payload           []byte
	QoS               packet.QoS
	Retain            bool
	DelayIntervalSecs uint32
	Properties        packet.Properties
}

// ConnectOptions configures the implicit Connect ProtocolState schedules on
// every transition into PendingConnack.
type ConnectOptions struct {
	ClientID                     string
	Username                     *string
	Password                     []byte
	KeepAliveIntervalSeconds     uint16
	SessionExpiryIntervalSeconds uint32
	RequestResponseInformation   bool
	RequestProblemInformation    bool
	ReceiveMaximum               uint16
	MaximumPacketSizeBytes       uint32
	Will                         *Will
	UserProperties               []packet.Property
	ResumeSessionPolicy          ResumeSessionPolicy

	// ConnectPacketTransformer, if set, runs last against the built Connect
	// packet before it is hand off to the encoder — an escape hatch for
	// host-specific auth schemes the core has no opinion on.
	ConnectPacketTransformer func(*packet.Connect)
}

// Config is the full set of values ProtocolState needs at construction; it
// never changes for the lifetime of a ProtocolState value.
type Config struct {
	ProtocolVersion     packet.Version
	OfflineQueuePolicy  OfflineQueuePolicy
	ConnectOptions      ConnectOptions
	PingTimeoutMillis   int64
	MaximumPacketSize   uint32 // initial outbound ceiling; an MQTT 5 CONNACK's Maximum Packet Size replaces ProtocolState's working copy, not this field
}
