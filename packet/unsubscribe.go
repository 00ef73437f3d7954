package packet

import (
	"github.com/coremq/mqttproto/topic"
	"github.com/coremq/mqttproto/wire"
)

// Unsubscribe is the UNSUBSCRIBE packet (type 10).
type Unsubscribe struct {
	PacketID   uint16
	Filters    []string
	Properties Properties // MQTT 5 only
}

func (u *Unsubscribe) Validate() error {
	if len(u.Filters) == 0 {
		return ErrEmptyUnsubscribeList
	}
	for _, f := range u.Filters {
		if topic.IsSharedSubscription(f) {
			if _, _, err := topic.ValidateSharedSubscription(f); err != nil {
				return ErrInvalidTopicFilter
			}
			continue
		}
		if err := topic.ValidateTopicFilter(f); err != nil {
			return ErrInvalidTopicFilter
		}
	}
	return nil
}

func (u *Unsubscribe) encode(dst []byte, version Version) ([]byte, error) {
	if err := u.Validate(); err != nil {
		return dst, err
	}
	dst = wire.PutU16(dst, u.PacketID)
	var err error
	if version == Version5 {
		dst, err = u.Properties.Encode(dst)
		if err != nil {
			return dst, err
		}
	}
	for _, f := range u.Filters {
		dst, err = wire.PutString(dst, f)
		if err != nil {
			return dst, err
		}
	}
	return dst, nil
}

func decodeUnsubscribe(body []byte, version Version) (*Unsubscribe, error) {
	u := &Unsubscribe{}
	id, n, err := wire.GetU16(body)
	if err != nil {
		return nil, err
	}
	if id == 0 {
		return nil, ErrInvalidPacketID
	}
	u.PacketID = id
	body = body[n:]

	if version == Version5 {
		u.Properties, n, err = DecodeProperties(body)
		if err != nil {
			return nil, err
		}
		body = body[n:]
	}

	for len(body) > 0 {
		filter, n, err := wire.GetString(body)
		if err != nil {
			return nil, err
		}
		body = body[n:]
		u.Filters = append(u.Filters, filter)
	}
	if err := u.Validate(); err != nil {
		return nil, err
	}
	return u, nil
}
