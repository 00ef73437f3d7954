package packet

import "errors"

var (
	ErrInvalidType         = errors.New("packet: invalid control packet type")
	ErrInvalidFlags        = errors.New("packet: invalid fixed header flags for packet type")
	ErrInvalidQoS          = errors.New("packet: invalid QoS level")
	ErrInvalidReservedType = errors.New("packet: reserved packet type (0) not allowed")
	ErrInvalidPacketID     = errors.New("packet: packet identifier must be in [1, 65535]")
	ErrMissingPacketID     = errors.New("packet: missing packet identifier for QoS > 0")
	ErrUnexpectedPacketID  = errors.New("packet: packet identifier must be absent for QoS 0")

	ErrInvalidPropertyID   = errors.New("packet: invalid property identifier")
	ErrInvalidPropertyType = errors.New("packet: invalid property value type")
	ErrDuplicateProperty   = errors.New("packet: duplicate single-valued property")
	ErrPropertyForVersion  = errors.New("packet: MQTT 3.1.1 packet must not carry properties")

	ErrEmptySubscriptionList = errors.New("packet: SUBSCRIBE must name at least one topic filter")
	ErrEmptyUnsubscribeList  = errors.New("packet: UNSUBSCRIBE must name at least one topic filter")
	ErrInvalidTopicFilter    = errors.New("packet: invalid topic filter")
	ErrInvalidTopicName      = errors.New("packet: invalid topic name")
	ErrWillFlagMismatch      = errors.New("packet: will flag inconsistent with will fields")
	ErrInvalidConnectFlags   = errors.New("packet: reserved bit set in CONNECT flags")
	ErrUsernamePassword      = errors.New("packet: password flag requires username flag")

	ErrShortBuffer       = errors.New("packet: buffer too short")
	ErrUnexpectedPayload = errors.New("packet: unexpected trailing bytes for this packet type")
)
