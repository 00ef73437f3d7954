package packet

import (
	"github.com/coremq/mqttproto/topic"
	"github.com/coremq/mqttproto/wire"
)

// RetainHandling controls whether the broker resends retained messages on a
// new subscription (MQTT 5 only, part of SubscribeOptions).
type RetainHandling byte

const (
	SendRetainedAlways RetainHandling = iota
	SendRetainedIfNewSubscription
	SendRetainedNever
)

// Subscription is one entry of a SUBSCRIBE packet's filter list.
type Subscription struct {
	Filter            string
	QoS               QoS
	NoLocal           bool // MQTT 5 only
	RetainAsPublished bool // MQTT 5 only
	RetainHandling    RetainHandling
}

func (s Subscription) options() byte {
	b := byte(s.QoS)
	if s.NoLocal {
		b |= 0x04
	}
	if s.RetainAsPublished {
		b |= 0x08
	}
	b |= byte(s.RetainHandling) << 4
	return b
}

// Subscribe is the SUBSCRIBE packet (type 8).
type Subscribe struct {
	PacketID      uint16
	Subscriptions []Subscription
	Properties    Properties // MQTT 5 only
}

func (s *Subscribe) Validate() error {
	if len(s.Subscriptions) == 0 {
		return ErrEmptySubscriptionList
	}
	for _, sub := range s.Subscriptions {
		if !sub.QoS.IsValid() {
			return ErrInvalidQoS
		}
		if topic.IsSharedSubscription(sub.Filter) {
			if _, _, err := topic.ValidateSharedSubscription(sub.Filter); err != nil {
				return ErrInvalidTopicFilter
			}
			continue
		}
		if err := topic.ValidateTopicFilter(sub.Filter); err != nil {
			return ErrInvalidTopicFilter
		}
	}
	return nil
}

func (s *Subscribe) encode(dst []byte, version Version) ([]byte, error) {
	if err := s.Validate(); err != nil {
		return dst, err
	}
	dst = wire.PutU16(dst, s.PacketID)
	var err error
	if version == Version5 {
		dst, err = s.Properties.Encode(dst)
		if err != nil {
			return dst, err
		}
	}
	for _, sub := range s.Subscriptions {
		dst, err = wire.PutString(dst, sub.Filter)
		if err != nil {
			return dst, err
		}
		dst = wire.PutU8(dst, sub.options())
	}
	return dst, nil
}

func decodeSubscribe(body []byte, version Version) (*Subscribe, error) {
	s := &Subscribe{}
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
		filter, n, err := wire.GetString(body)
		if err != nil {
			return nil, err
		}
		body = body[n:]
		opts, n, err := wire.GetU8(body)
		if err != nil {
			return nil, err
		}
		body = body[n:]
		s.Subscriptions = append(s.Subscriptions, Subscription{
			Filter:            filter,
			QoS:               QoS(opts & 0x03),
			NoLocal:           opts&0x04 != 0,
			RetainAsPublished: opts&0x08 != 0,
			RetainHandling:    RetainHandling((opts >> 4) & 0x03),
		})
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}
