package packet

import "github.com/coremq/mqttproto/wire"

// Suback is the SUBACK packet (type 9): one reason code per filter in the
// originating SUBSCRIBE, in order. On MQTT 3.1.1 these are the legacy grant
// codes (0x00-0x02, 0x80); on MQTT 5 they are the full reason code set.
type Suback struct {
	PacketID    uint16
	ReasonCodes []ReasonCode
	Properties  Properties // MQTT 5 only
}

func (s *Suback) encode(dst []byte, version Version) ([]byte, error) {
	dst = wire.PutU16(dst, s.PacketID)
	var err error
	if version == Version5 {
		dst, err = s.Properties.Encode(dst)
		if err != nil {
			return dst, err
		}
	}
	for _, rc := range s.ReasonCodes {
		dst = wire.PutU8(dst, byte(rc))
	}
	return dst, nil
}

func decodeSuback(body []byte, version Version) (*Suback, error) {
	s := &Suback{}
	id, n, err := wire.GetU16(body)
	if err != nil {
		return nil, err
	}
	if id == 0 {
		return nil, ErrInvalidPacketID
	}
	s.PacketID = id
	body = body[n:]

	if version == Version5 {
		s.Properties, n, err = DecodeProperties(body)
		if err != nil {
			return nil, err
		}
		body = body[n:]
	}

	for len(body) > 0 {
		rc, n, err := wire.GetU8(body)
		if err != nil {
			return nil, err
		}
		s.ReasonCodes = append(s.ReasonCodes, ReasonCode(rc))
		body = body[n:]
	}
	return s, nil
}
