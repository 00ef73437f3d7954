// Package packet is the typed representation of every MQTT 3.1.1 and MQTT 5
// control packet, plus the "internal" mutable fields (assigned packet id,
// duplicate flag) that protocol.ProtocolState updates as an operation moves
// through its lifecycle. It owns no I/O; codec.Encoder/codec.Decoder do the
// byte pushing and pulling, this package only describes and validates shape.
package packet

import "github.com/coremq/mqttproto/wire"

// Version selects which MQTT protocol revision a Packet was built for.
// MQTT 5 packets carry a property block (possibly empty); MQTT 3.1.1
// packets never do.
type Version byte

const (
	Version311 Version = 4
	Version5   Version = 5
)

// Type is the MQTT control packet type, carried in the high nibble of the
// fixed header's first byte.
type Type byte

const (
	Reserved    Type = 0
	CONNECT     Type = 1
	CONNACK     Type = 2
	PUBLISH     Type = 3
	PUBACK      Type = 4
	PUBREC      Type = 5
	PUBREL      Type = 6
	PUBCOMP     Type = 7
	SUBSCRIBE   Type = 8
	SUBACK      Type = 9
	UNSUBSCRIBE Type = 10
	UNSUBACK    Type = 11
	PINGREQ     Type = 12
	PINGRESP    Type = 13
	DISCONNECT  Type = 14
	AUTH        Type = 15
)

func (t Type) String() string {
	names := [16]string{
		Reserved: "RESERVED", CONNECT: "CONNECT", CONNACK: "CONNACK",
		PUBLISH: "PUBLISH", PUBACK: "PUBACK", PUBREC: "PUBREC",
		PUBREL: "PUBREL", PUBCOMP: "PUBCOMP", SUBSCRIBE: "SUBSCRIBE",
		SUBACK: "SUBACK", UNSUBSCRIBE: "UNSUBSCRIBE", UNSUBACK: "UNSUBACK",
		PINGREQ: "PINGREQ", PINGRESP: "PINGRESP", DISCONNECT: "DISCONNECT",
		AUTH: "AUTH",
	}
	if t <= AUTH {
		return names[t]
	}
	return "UNKNOWN"
}

// QoS is the MQTT Quality of Service level.
type QoS byte

const (
	QoS0 QoS = 0
	QoS1 QoS = 1
	QoS2 QoS = 2
)

func (q QoS) IsValid() bool { return q <= QoS2 }

func (q QoS) String() string {
	switch q {
	case QoS0:
		return "QoS0"
	case QoS1:
		return "QoS1"
	case QoS2:
		return "QoS2"
	default:
		return "INVALID"
	}
}

// FixedHeader is the first byte (type + flags) plus the Remaining Length
// of every MQTT control packet.
type FixedHeader struct {
	Type            Type
	Flags           byte
	RemainingLength uint32

	// PUBLISH-only, decoded out of Flags.
	DUP    bool
	QoS    QoS
	Retain bool
}

// reservedFlags names the fixed flags bits every non-PUBLISH packet type
// must carry. PUBREL, SUBSCRIBE, and UNSUBSCRIBE reuse the QoS1 publish
// flag pattern (0b0010) for historical reasons baked into the spec.
var reservedFlags = map[Type]byte{
	CONNECT: 0x00, CONNACK: 0x00, PUBACK: 0x00, PUBREC: 0x00,
	PUBREL: 0x02, PUBCOMP: 0x00, SUBSCRIBE: 0x02, SUBACK: 0x00,
	UNSUBSCRIBE: 0x02, UNSUBACK: 0x00, PINGREQ: 0x00, PINGRESP: 0x00,
	DISCONNECT: 0x00, AUTH: 0x00,
}

// DecodeFixedHeader parses the first byte and Remaining Length out of the
// head of data, returning the number of bytes consumed.
func DecodeFixedHeader(data []byte) (FixedHeader, int, error) {
	if len(data) < 1 {
		return FixedHeader{}, 0, ErrShortBuffer
	}
	fh := FixedHeader{}
	fh.Type = Type(data[0] >> 4)
	if fh.Type == Reserved {
		return FixedHeader{}, 0, ErrInvalidReservedType
	}
	if fh.Type > AUTH {
		return FixedHeader{}, 0, ErrInvalidType
	}
	fh.Flags = data[0] & 0x0F

	if fh.Type == PUBLISH {
		fh.DUP = fh.Flags&0x08 != 0
		fh.QoS = QoS((fh.Flags & 0x06) >> 1)
		fh.Retain = fh.Flags&0x01 != 0
		if !fh.QoS.IsValid() {
			return FixedHeader{}, 0, ErrInvalidQoS
		}
	} else if expected, ok := reservedFlags[fh.Type]; ok && fh.Flags != expected {
		return FixedHeader{}, 0, ErrInvalidFlags
	}

	remainingLength, n, done, err := wire.DecodeVarInt(data[1:])
	if err != nil {
		return FixedHeader{}, 0, err
	}
	if !done {
		return FixedHeader{}, 0, ErrShortBuffer
	}
	fh.RemainingLength = remainingLength
	return fh, 1 + n, nil
}

// EncodeFixedHeader appends the first byte and Remaining Length to dst.
func EncodeFixedHeader(dst []byte, fh FixedHeader) ([]byte, error) {
	flags := fh.Flags
	if fh.Type == PUBLISH {
		flags = 0
		if fh.DUP {
			flags |= 0x08
		}
		flags |= byte(fh.QoS) << 1
		if fh.Retain {
			flags |= 0x01
		}
	}
	dst = append(dst, byte(fh.Type)<<4|flags)
	return wire.EncodeVarInt(dst, fh.RemainingLength)
}
