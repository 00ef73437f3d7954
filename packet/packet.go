package packet

// Packet is a closed tagged union over every MQTT control packet kind: a
// decode or construction call populates exactly one of the variant fields
// named after Type, leaving the rest nil. This is the "packet model" the
// protocol state machine owns and mutates — PacketID assignment and the
// Publish duplicate flag are the two internal fields a ProtocolState
// operation rewrites after creation.
type Packet struct {
	Type    Type
	Version Version

	Connect     *Connect
	Connack     *Connack
	Publish     *Publish
	Puback      *Ack
	Pubrec      *Ack
	Pubrel      *Ack
	Pubcomp     *Ack
	Subscribe   *Subscribe
	Suback      *Suback
	Unsubscribe *Unsubscribe
	Unsuback    *Unsuback
	Pingreq     *Pingreq
	Pingresp    *Pingresp
	Disconnect  *Disconnect
	Auth        *Auth
}

// PacketID returns the packet identifier carried by this packet, if any.
// Pingreq, Pingresp, and (in practice) QoS0 Publish carry none.
func (p *Packet) PacketID() (uint16, bool) {
	switch p.Type {
	case PUBLISH:
		if p.Publish.QoS == QoS0 {
			return 0, false
		}
		return p.Publish.PacketID, true
	case PUBACK:
		return p.Puback.PacketID, true
	case PUBREC:
		return p.Pubrec.PacketID, true
	case PUBREL:
		return p.Pubrel.PacketID, true
	case PUBCOMP:
		return p.Pubcomp.PacketID, true
	case SUBSCRIBE:
		return p.Subscribe.PacketID, true
	case SUBACK:
		return p.Suback.PacketID, true
	case UNSUBSCRIBE:
		return p.Unsubscribe.PacketID, true
	case UNSUBACK:
		return p.Unsuback.PacketID, true
	default:
		return 0, false
	}
}

// SetPacketID assigns a packet identifier to whichever variant carries one.
// It is a no-op for packet types that never carry an id.
func (p *Packet) SetPacketID(id uint16) {
	switch p.Type {
	case PUBLISH:
		p.Publish.PacketID = id
	case PUBACK:
		p.Puback.PacketID = id
	case PUBREC:
		p.Pubrec.PacketID = id
	case PUBREL:
		p.Pubrel.PacketID = id
	case PUBCOMP:
		p.Pubcomp.PacketID = id
	case SUBSCRIBE:
		p.Subscribe.PacketID = id
	case SUBACK:
		p.Suback.PacketID = id
	case UNSUBSCRIBE:
		p.Unsubscribe.PacketID = id
	case UNSUBACK:
		p.Unsuback.PacketID = id
	}
}

// RequiresPacketID reports whether this packet's type/QoS combination must
// carry a non-zero packet id.
func (p *Packet) RequiresPacketID() bool {
	switch p.Type {
	case PUBLISH:
		return p.Publish.QoS != QoS0
	case PUBACK, PUBREC, PUBREL, PUBCOMP, SUBSCRIBE, SUBACK, UNSUBSCRIBE, UNSUBACK:
		return true
	default:
		return false
	}
}
