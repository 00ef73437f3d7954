package packet

import "github.com/coremq/mqttproto/wire"

// Connack is the CONNACK packet (type 2).
type Connack struct {
	SessionPresent bool
	ReasonCode     ReasonCode
	Properties     Properties // MQTT 5 only
}

func (c *Connack) encode(dst []byte, version Version) ([]byte, error) {
	var flags byte
	if c.SessionPresent {
		flags = 0x01
	}
	dst = wire.PutU8(dst, flags)
	dst = wire.PutU8(dst, byte(c.ReasonCode))
	if version == Version5 {
		var err error
		dst, err = c.Properties.Encode(dst)
		if err != nil {
			return dst, err
		}
	}
	return dst, nil
}

func decodeConnack(body []byte, version Version) (*Connack, error) {
	flags, n, err := wire.GetU8(body)
	if err != nil {
		return nil, err
	}
	body = body[n:]
	reason, n, err := wire.GetU8(body)
	if err != nil {
		return nil, err
	}
	body = body[n:]

	c := &Connack{SessionPresent: flags&0x01 != 0, ReasonCode: ReasonCode(reason)}
	if version == Version5 {
		c.Properties, _, err = DecodeProperties(body)
		if err != nil {
			return nil, err
		}
	}
	return c, nil
}
