package packet

import "github.com/coremq/mqttproto/wire"

// Ack is the shared shape of PUBACK, PUBREC, PUBREL, and PUBCOMP (types
// 4-7): a packet id, and on MQTT 5 an optional reason code and property
// block. MQTT 5 permits the short form (just the packet id) when the
// reason code is Success and there are no properties.
type Ack struct {
	PacketID   uint16
	ReasonCode ReasonCode
	Properties Properties // MQTT 5 only
}

func (a *Ack) encode(dst []byte, version Version) ([]byte, error) {
	dst = wire.PutU16(dst, a.PacketID)
	if version != Version5 {
		return dst, nil
	}
	if a.ReasonCode == ReasonSuccess && len(a.Properties.List) == 0 {
		return dst, nil
	}
	dst = wire.PutU8(dst, byte(a.ReasonCode))
	return a.Properties.Encode(dst)
}

func decodeAck(body []byte, version Version) (*Ack, error) {
	a := &Ack{ReasonCode: ReasonSuccess}
	id, n, err := wire.GetU16(body)
	if err != nil {
		return nil, err
	}
	if id == 0 {
		return nil, ErrInvalidPacketID
	}
	a.PacketID = id
	body = body[n:]

	if version != Version5 || len(body) == 0 {
		return a, nil
	}

	reason, n, err := wire.GetU8(body)
	if err != nil {
		return nil, err
	}
	a.ReasonCode = ReasonCode(reason)
	body = body[n:]
	if len(body) == 0 {
		return a, nil
	}
	a.Properties, _, err = DecodeProperties(body)
	if err != nil {
		return nil, err
	}
	return a, nil
}
