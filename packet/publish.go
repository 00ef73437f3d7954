package packet

import (
	"github.com/coremq/mqttproto/topic"
	"github.com/coremq/mqttproto/wire"
)

// Publish is the PUBLISH packet (type 3). Duplicate is the "internal" flag
// ProtocolState flips on retransmission after a ConnectionClosed while the
// operation was awaiting its ack.
type Publish struct {
	PacketID   uint16
	Topic      string
	Payload    []byte
	QoS        QoS
	Duplicate  bool
	Retain     bool
	Properties Properties // MQTT 5 only
}

func (p *Publish) Validate() error {
	if !p.QoS.IsValid() {
		return ErrInvalidQoS
	}
	if p.QoS != QoS0 && (p.PacketID == 0 || p.PacketID > 65535) {
		return ErrMissingPacketID
	}
	if p.QoS == QoS0 && p.PacketID != 0 {
		return ErrUnexpectedPacketID
	}
	if err := topic.ValidateTopic(p.Topic); err != nil {
		return ErrInvalidTopicName
	}
	return nil
}

func (p *Publish) fixedHeader(remainingLength uint32) FixedHeader {
	return FixedHeader{
		Type: PUBLISH, DUP: p.Duplicate, QoS: p.QoS, Retain: p.Retain,
		RemainingLength: remainingLength,
	}
}

func (p *Publish) encodeVariableHeaderAndPayload(dst []byte, version Version) ([]byte, error) {
	if err := p.Validate(); err != nil {
		return dst, err
	}
	var err error
	dst, err = wire.PutString(dst, p.Topic)
	if err != nil {
		return dst, err
	}
	if p.QoS != QoS0 {
		dst = wire.PutU16(dst, p.PacketID)
	}
	if version == Version5 {
		dst, err = p.Properties.Encode(dst)
		if err != nil {
			return dst, err
		}
	}
	return append(dst, p.Payload...), nil
}

func decodePublish(fh FixedHeader, body []byte, version Version) (*Publish, error) {
	p := &Publish{QoS: fh.QoS, Duplicate: fh.DUP, Retain: fh.Retain}
	var n int
	var err error

	p.Topic, n, err = wire.GetString(body)
	if err != nil {
		return nil, err
	}
	body = body[n:]

	if p.QoS != QoS0 {
		p.PacketID, n, err = wire.GetU16(body)
		if err != nil {
			return nil, err
		}
		if p.PacketID == 0 {
			return nil, ErrInvalidPacketID
		}
		body = body[n:]
	}

	if version == Version5 {
		p.Properties, n, err = DecodeProperties(body)
		if err != nil {
			return nil, err
		}
		body = body[n:]
	}

	p.Payload = append([]byte(nil), body...)
	return p, nil
}
