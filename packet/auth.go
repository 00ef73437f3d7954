package packet

import "github.com/coremq/mqttproto/wire"

// Auth is the AUTH packet (type 15), MQTT 5 only. It never appears on an
// MQTT 3.1.1 connection.
type Auth struct {
	ReasonCode ReasonCode
	Properties Properties
}

func (a *Auth) encode(dst []byte, _ Version) ([]byte, error) {
	if a.ReasonCode == ReasonSuccess && len(a.Properties.List) == 0 {
		return dst, nil
	}
	dst = wire.PutU8(dst, byte(a.ReasonCode))
	return a.Properties.Encode(dst)
}

func decodeAuth(body []byte, _ Version) (*Auth, error) {
	a := &Auth{ReasonCode: ReasonSuccess}
	if len(body) == 0 {
		return a, nil
	}
	reason, n, err := wire.GetU8(body)
	if err != nil {
		return nil, err
	}
	a.ReasonCode = ReasonCode(reason)
	body = body[n:]
	if len(body) == 0 {
		return a, nil
	}
	a.Properties, _, err = DecodeProperties(body)
	if err != nil {
		return nil, err
	}
	return a, nil
}
