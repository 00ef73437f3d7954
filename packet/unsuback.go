package packet

import "github.com/coremq/mqttproto/wire"

// Unsuback is the UNSUBACK packet (type 11). MQTT 3.1.1 carries no reason
// codes on the wire at all; ReasonCodes is left empty by decodeUnsuback in
// that case; the ProtocolState, which knows the filter count of the
// originating UNSUBSCRIBE, synthesizes a same-length all-Success array
// rather than this package guessing a count it doesn't have.
type Unsuback struct {
	PacketID    uint16
	ReasonCodes []ReasonCode // MQTT 5 only on the wire
	Properties  Properties   // MQTT 5 only
}

func (u *Unsuback) encode(dst []byte, version Version) ([]byte, error) {
	dst = wire.PutU16(dst, u.PacketID)
	if version != Version5 {
		return dst, nil
	}
	var err error
	dst, err = u.Properties.Encode(dst)
	if err != nil {
		return dst, err
	}
	for _, rc := range u.ReasonCodes {
		dst = wire.PutU8(dst, byte(rc))
	}
	return dst, nil
}

func decodeUnsuback(body []byte, version Version) (*Unsuback, error) {
	u := &Unsuback{}
	id, n, err := wire.GetU16(body)
	if err != nil {
		return nil, err
	}
	if id == 0 {
		return nil, ErrInvalidPacketID
	}
	u.PacketID = id
	body = body[n:]

	if version != Version5 {
		return u, nil
	}

	u.Properties, n, err = DecodeProperties(body)
	if err != nil {
		return nil, err
	}
	body = body[n:]
	for len(body) > 0 {
		rc, n, err := wire.GetU8(body)
		if err != nil {
			return nil, err
		}
		u.ReasonCodes = append(u.ReasonCodes, ReasonCode(rc))
		body = body[n:]
	}
	return u, nil
}
