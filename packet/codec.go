package packet

// Decode parses the variable header and payload of a single control packet
// given its already-decoded FixedHeader and exactly FixedHeader.RemainingLength
// bytes of body. It dispatches through a fixed table indexed by packet type
// rather than a type switch spread across call sites, so adding a packet
// type only ever touches this one table.
func Decode(fh FixedHeader, body []byte, version Version) (*Packet, error) {
	p := &Packet{Type: fh.Type, Version: version}
	var err error
	switch fh.Type {
	case CONNECT:
		p.Connect, err = decodeConnect(body, version)
	case CONNACK:
		p.Connack, err = decodeConnack(body, version)
	case PUBLISH:
		p.Publish, err = decodePublish(fh, body, version)
	case PUBACK:
		p.Puback, err = decodeAck(body, version)
	case PUBREC:
		p.Pubrec, err = decodeAck(body, version)
	case PUBREL:
		p.Pubrel, err = decodeAck(body, version)
	case PUBCOMP:
		p.Pubcomp, err = decodeAck(body, version)
	case SUBSCRIBE:
		p.Subscribe, err = decodeSubscribe(body, version)
	case SUBACK:
		p.Suback, err = decodeSuback(body, version)
	case UNSUBSCRIBE:
		p.Unsubscribe, err = decodeUnsubscribe(body, version)
	case UNSUBACK:
		p.Unsuback, err = decodeUnsuback(body, version)
	case PINGREQ:
		p.Pingreq, err = decodePingreq(body, version)
	case PINGRESP:
		p.Pingresp, err = decodePingresp(body, version)
	case DISCONNECT:
		p.Disconnect, err = decodeDisconnect(body, version)
	case AUTH:
		p.Auth, err = decodeAuth(body, version)
	default:
		return nil, ErrInvalidType
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Encode appends the fixed header, variable header, and payload of p to dst.
func Encode(dst []byte, p *Packet) ([]byte, error) {
	var body []byte
	var err error
	switch p.Type {
	case CONNECT:
		body, err = p.Connect.encode(body, p.Version)
	case CONNACK:
		body, err = p.Connack.encode(body, p.Version)
	case PUBLISH:
		return encodePublish(dst, p.Publish, p.Version)
	case PUBACK:
		body, err = p.Puback.encode(body, p.Version)
	case PUBREC:
		body, err = p.Pubrec.encode(body, p.Version)
	case PUBREL:
		body, err = p.Pubrel.encode(body, p.Version)
	case PUBCOMP:
		body, err = p.Pubcomp.encode(body, p.Version)
	case SUBSCRIBE:
		body, err = p.Subscribe.encode(body, p.Version)
	case SUBACK:
		body, err = p.Suback.encode(body, p.Version)
	case UNSUBSCRIBE:
		body, err = p.Unsubscribe.encode(body, p.Version)
	case UNSUBACK:
		body, err = p.Unsuback.encode(body, p.Version)
	case PINGREQ:
		body, err = p.Pingreq.encode(body, p.Version)
	case PINGRESP:
		body, err = p.Pingresp.encode(body, p.Version)
	case DISCONNECT:
		body, err = p.Disconnect.encode(body, p.Version)
	case AUTH:
		body, err = p.Auth.encode(body, p.Version)
	default:
		return dst, ErrInvalidType
	}
	if err != nil {
		return dst, err
	}
	fh := fixedHeaderFor(p, uint32(len(body)))
	dst, err = EncodeFixedHeader(dst, fh)
	if err != nil {
		return dst, err
	}
	return append(dst, body...), nil
}

// fixedHeaderFor builds the non-PUBLISH fixed header (flags come straight
// from reservedFlags); PUBLISH is handled separately since its flags carry
// DUP/QoS/Retain rather than a fixed reserved pattern.
func fixedHeaderFor(p *Packet, remainingLength uint32) FixedHeader {
	return FixedHeader{
		Type:            p.Type,
		Flags:           reservedFlags[p.Type],
		RemainingLength: remainingLength,
	}
}

// encodePublish handles PUBLISH's two-stage body: the remaining length must
// be known before the fixed header is written, but PUBLISH's fixed header
// flags (DUP/QoS/Retain) come from the Publish struct rather than a static
// table entry.
func encodePublish(dst []byte, pub *Publish, version Version) ([]byte, error) {
	var body []byte
	body, err := pub.encodeVariableHeaderAndPayload(body, version)
	if err != nil {
		return dst, err
	}
	dst, err = EncodeFixedHeader(dst, pub.fixedHeader(uint32(len(body))))
	if err != nil {
		return dst, err
	}
	return append(dst, body...), nil
}
