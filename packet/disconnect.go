package packet

import "github.com/coremq/mqttproto/wire"

// Disconnect is the DISCONNECT packet (type 14). On MQTT 3.1.1 it carries no
// variable header; ReasonCode and Properties are MQTT 5 only. MQTT 3.1.1
// never sends DISCONNECT inbound (only outbound, client-to-broker) — an
// inbound DISCONNECT on a 3.1.1 session decodes successfully here but is
// rejected by the protocol state machine as a ForbiddenPacketForState.
type Disconnect struct {
	ReasonCode ReasonCode
	Properties Properties // MQTT 5 only
}

func (d *Disconnect) encode(dst []byte, version Version) ([]byte, error) {
	if version != Version5 {
		return dst, nil
	}
	if d.ReasonCode == ReasonNormalDisconnection && len(d.Properties.List) == 0 {
		return dst, nil
	}
	dst = wire.PutU8(dst, byte(d.ReasonCode))
	return d.Properties.Encode(dst)
}

func decodeDisconnect(body []byte, version Version) (*Disconnect, error) {
	d := &Disconnect{ReasonCode: ReasonNormalDisconnection}
	if version != Version5 || len(body) == 0 {
		return d, nil
	}
	reason, n, err := wire.GetU8(body)
	if err != nil {
		return nil, err
	}
	d.ReasonCode = ReasonCode(reason)
	body = body[n:]
	if len(body) == 0 {
		return d, nil
	}
	d.Properties, _, err = DecodeProperties(body)
	if err != nil {
		return nil, err
	}
	return d, nil
}
