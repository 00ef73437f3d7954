package packet

import "github.com/coremq/mqttproto/wire"

// Will is the MQTT Last Will and Testament carried in a CONNECT payload.
type Will struct {
	Topic             string
	Payload           []byte
	QoS               QoS
	Retain            bool
	Properties        Properties // MQTT 5 only
	DelayIntervalSecs uint32     // MQTT 5 only; encode does not write it and decodeConnect leaves it 0 — on the wire a will delay travels only as PropWillDelayInterval in Properties
}

// Connect is the CONNECT packet (type 1).
type Connect struct {
	ProtocolName    string
	ProtocolVersion Version
	CleanStart      bool
	KeepAlive       uint16
	ClientID        string
	Username        *string
	Password        []byte
	Will            *Will
	Properties      Properties // MQTT 5 only
}

func (c *Connect) flags() byte {
	var f byte
	if c.CleanStart {
		f |= 0x02
	}
	if c.Will != nil {
		f |= 0x04
		f |= byte(c.Will.QoS) << 3
		if c.Will.Retain {
			f |= 0x20
		}
	}
	if c.Password != nil {
		f |= 0x40
	}
	if c.Username != nil {
		f |= 0x80
	}
	return f
}

// Validate enforces the password-requires-username rule and a valid will
// QoS. The reserved flag bit (MQTT-3.1.2-3) is never set by encode and is
// rejected by decodeConnect, not checked here.
func (c *Connect) Validate() error {
	if c.Password != nil && c.Username == nil {
		return ErrUsernamePassword
	}
	if c.Will != nil && !c.Will.QoS.IsValid() {
		return ErrInvalidQoS
	}
	return nil
}

func (c *Connect) encode(dst []byte, version Version) ([]byte, error) {
	if err := c.Validate(); err != nil {
		return dst, err
	}
	name := c.ProtocolName
	if name == "" {
		name = "MQTT"
	}
	var err error
	dst, err = wire.PutString(dst, name)
	if err != nil {
		return dst, err
	}
	dst = wire.PutU8(dst, byte(version))
	dst = wire.PutU8(dst, c.flags())
	dst = wire.PutU16(dst, c.KeepAlive)

	if version == Version5 {
		dst, err = c.Properties.Encode(dst)
		if err != nil {
			return dst, err
		}
	}

	dst, err = wire.PutString(dst, c.ClientID)
	if err != nil {
		return dst, err
	}

	if c.Will != nil {
		if version == Version5 {
			dst, err = c.Will.Properties.Encode(dst)
			if err != nil {
				return dst, err
			}
		}
		dst, err = wire.PutString(dst, c.Will.Topic)
		if err != nil {
			return dst, err
		}
		dst, err = wire.PutBinary(dst, c.Will.Payload)
		if err != nil {
			return dst, err
		}
	}
	if c.Username != nil {
		dst, err = wire.PutString(dst, *c.Username)
		if err != nil {
			return dst, err
		}
	}
	if c.Password != nil {
		dst, err = wire.PutBinary(dst, c.Password)
		if err != nil {
			return dst, err
		}
	}
	return dst, nil
}

func decodeConnect(body []byte, version Version) (*Connect, error) {
	c := &Connect{ProtocolVersion: version}
	var n int
	var err error

	c.ProtocolName, n, err = wire.GetString(body)
	if err != nil {
		return nil, err
	}
	body = body[n:]

	protoLevel, n, err := wire.GetU8(body)
	if err != nil {
		return nil, err
	}
	body = body[n:]
	c.ProtocolVersion = Version(protoLevel)

	flags, n, err := wire.GetU8(body)
	if err != nil {
		return nil, err
	}
	body = body[n:]
	if flags&0x01 != 0 {
		return nil, ErrInvalidConnectFlags
	}
	usernameFlag := flags&0x80 != 0
	passwordFlag := flags&0x40 != 0
	willRetain := flags&0x20 != 0
	willQoS := QoS((flags >> 3) & 0x03)
	willFlag := flags&0x04 != 0
	c.CleanStart = flags&0x02 != 0
	if passwordFlag && !usernameFlag {
		return nil, ErrUsernamePassword
	}

	c.KeepAlive, n, err = wire.GetU16(body)
	if err != nil {
		return nil, err
	}
	body = body[n:]

	if version == Version5 {
		c.Properties, n, err = DecodeProperties(body)
		if err != nil {
			return nil, err
		}
		body = body[n:]
	}

	c.ClientID, n, err = wire.GetString(body)
	if err != nil {
		return nil, err
	}
	body = body[n:]

	if willFlag {
		will := &Will{QoS: willQoS, Retain: willRetain}
		if !will.QoS.IsValid() {
			return nil, ErrInvalidQoS
		}
		if version == Version5 {
			will.Properties, n, err = DecodeProperties(body)
			if err != nil {
				return nil, err
			}
			body = body[n:]
		}
		will.Topic, n, err = wire.GetString(body)
		if err != nil {
			return nil, err
		}
		body = body[n:]
		var payload []byte
		payload, n, err = wire.GetBinary(body)
		if err != nil {
			return nil, err
		}
		will.Payload = append([]byte(nil), payload...)
		body = body[n:]
		c.Will = will
	}

	if usernameFlag {
		var username string
		username, n, err = wire.GetString(body)
		if err != nil {
			return nil, err
		}
		body = body[n:]
		c.Username = &username
	}
	if passwordFlag {
		var password []byte
		password, n, err = wire.GetBinary(body)
		if err != nil {
			return nil, err
		}
		c.Password = append([]byte(nil), password...)
		body = body[n:]
	}
	return c, nil
}
