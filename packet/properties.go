package packet

import "github.com/coremq/mqttproto/wire"

// PropertyID identifies an MQTT 5 property.
type PropertyID byte

const (
	PropPayloadFormatIndicator          PropertyID = 0x01
	PropMessageExpiryInterval           PropertyID = 0x02
	PropContentType                     PropertyID = 0x03
	PropResponseTopic                   PropertyID = 0x08
	PropCorrelationData                 PropertyID = 0x09
	PropSubscriptionIdentifier          PropertyID = 0x0B
	PropSessionExpiryInterval           PropertyID = 0x11
	PropAssignedClientIdentifier        PropertyID = 0x12
	PropServerKeepAlive                 PropertyID = 0x13
	PropAuthenticationMethod            PropertyID = 0x15
	PropAuthenticationData              PropertyID = 0x16
	PropRequestProblemInformation       PropertyID = 0x17
	PropWillDelayInterval               PropertyID = 0x18
	PropRequestResponseInformation      PropertyID = 0x19
	PropResponseInformation             PropertyID = 0x1A
	PropServerReference                 PropertyID = 0x1C
	PropReasonString                    PropertyID = 0x1F
	PropReceiveMaximum                  PropertyID = 0x21
	PropTopicAliasMaximum               PropertyID = 0x22
	PropTopicAlias                      PropertyID = 0x23
	PropMaximumQoS                      PropertyID = 0x24
	PropRetainAvailable                 PropertyID = 0x25
	PropUserProperty                    PropertyID = 0x26
	PropMaximumPacketSize               PropertyID = 0x27
	PropWildcardSubscriptionAvailable   PropertyID = 0x28
	PropSubscriptionIdentifierAvailable PropertyID = 0x29
	PropSharedSubscriptionAvailable     PropertyID = 0x2A
)

// valueType is the wire encoding for a property's value.
type valueType byte

const (
	typeByte valueType = iota + 1
	typeU16
	typeU32
	typeVarInt
	typeString
	typeUserProp
	typeBinary
)

type propertySpec struct {
	kind     valueType
	multiple bool
}

var propertySpecs = map[PropertyID]propertySpec{
	PropPayloadFormatIndicator:          {typeByte, false},
	PropMessageExpiryInterval:           {typeU32, false},
	PropContentType:                     {typeString, false},
	PropResponseTopic:                   {typeString, false},
	PropCorrelationData:                 {typeBinary, false},
	PropSubscriptionIdentifier:          {typeVarInt, true},
	PropSessionExpiryInterval:           {typeU32, false},
	PropAssignedClientIdentifier:        {typeString, false},
	PropServerKeepAlive:                 {typeU16, false},
	PropAuthenticationMethod:            {typeString, false},
	PropAuthenticationData:              {typeBinary, false},
	PropRequestProblemInformation:       {typeByte, false},
	PropWillDelayInterval:               {typeU32, false},
	PropRequestResponseInformation:      {typeByte, false},
	PropResponseInformation:             {typeString, false},
	PropServerReference:                 {typeString, false},
	PropReasonString:                    {typeString, false},
	PropReceiveMaximum:                  {typeU16, false},
	PropTopicAliasMaximum:               {typeU16, false},
	PropTopicAlias:                      {typeU16, false},
	PropMaximumQoS:                      {typeByte, false},
	PropRetainAvailable:                 {typeByte, false},
	PropUserProperty:                    {typeUserProp, true},
	PropMaximumPacketSize:               {typeU32, false},
	PropWildcardSubscriptionAvailable:   {typeByte, false},
	PropSubscriptionIdentifierAvailable: {typeByte, false},
	PropSharedSubscriptionAvailable:     {typeByte, false},
}

// Property is a single decoded MQTT 5 property. Value holds byte, uint16,
// uint32, or string depending on the property's kind, except
// PropUserProperty which holds a wire.UserProperty.
type Property struct {
	ID    PropertyID
	Value interface{}
}

// Properties is the ordered collection of properties carried by an MQTT 5
// packet's property block. The block is emitted in whatever order
// Properties holds them; the decoder accepts any order.
type Properties struct {
	List []Property
}

// Get returns the first property with the given id, mirroring the common
// case of single-valued properties.
func (p Properties) Get(id PropertyID) (Property, bool) {
	for _, prop := range p.List {
		if prop.ID == id {
			return prop, true
		}
	}
	return Property{}, false
}

// All returns every property with the given id, for repeatable properties
// (SubscriptionIdentifier, UserProperty).
func (p Properties) All(id PropertyID) []Property {
	var out []Property
	for _, prop := range p.List {
		if prop.ID == id {
			out = append(out, prop)
		}
	}
	return out
}

func (p *Properties) add(id PropertyID, value interface{}) {
	p.List = append(p.List, Property{ID: id, Value: value})
}

// encodedLen returns the byte length of the property block's contents,
// excluding its own length prefix.
func (p Properties) encodedLen() (uint32, error) {
	var n uint32
	for _, prop := range p.List {
		spec, ok := propertySpecs[prop.ID]
		if !ok {
			return 0, ErrInvalidPropertyID
		}
		n++ // property id byte
		switch spec.kind {
		case typeByte:
			n++
		case typeU16:
			n += 2
		case typeU32:
			n += 4
		case typeVarInt:
			v, ok := prop.Value.(uint32)
			if !ok {
				return 0, ErrInvalidPropertyType
			}
			size := wire.SizeVarInt(v)
			if size == 0 {
				return 0, ErrInvalidPropertyType
			}
			n += uint32(size)
		case typeString:
			s, ok := prop.Value.(string)
			if !ok {
				return 0, ErrInvalidPropertyType
			}
			n += 2 + uint32(len(s))
		case typeUserProp:
			up, ok := prop.Value.(wire.UserProperty)
			if !ok {
				return 0, ErrInvalidPropertyType
			}
			n += 2 + uint32(len(up.Key)) + 2 + uint32(len(up.Value))
		case typeBinary:
			b, ok := prop.Value.([]byte)
			if !ok {
				return 0, ErrInvalidPropertyType
			}
			n += 2 + uint32(len(b))
		}
	}
	return n, nil
}

// Encode appends the full property block (length prefix + entries) to dst.
func (p Properties) Encode(dst []byte) ([]byte, error) {
	length, err := p.encodedLen()
	if err != nil {
		return dst, err
	}
	dst, err = wire.EncodeVarInt(dst, length)
	if err != nil {
		return dst, err
	}
	for _, prop := range p.List {
		spec := propertySpecs[prop.ID]
		dst = wire.PutU8(dst, byte(prop.ID))
		switch spec.kind {
		case typeByte:
			dst = wire.PutU8(dst, prop.Value.(byte))
		case typeU16:
			dst = wire.PutU16(dst, prop.Value.(uint16))
		case typeU32:
			dst = wire.PutU32(dst, prop.Value.(uint32))
		case typeVarInt:
			dst, err = wire.EncodeVarInt(dst, prop.Value.(uint32))
			if err != nil {
				return dst, err
			}
		case typeString:
			dst, err = wire.PutString(dst, prop.Value.(string))
			if err != nil {
				return dst, err
			}
		case typeUserProp:
			dst, err = wire.PutUserProperty(dst, prop.Value.(wire.UserProperty))
			if err != nil {
				return dst, err
			}
		case typeBinary:
			dst, err = wire.PutBinary(dst, prop.Value.([]byte))
			if err != nil {
				return dst, err
			}
		}
	}
	return dst, nil
}

// DecodeProperties reads the property block (length prefix + entries) from
// the head of data and returns the bytes consumed.
func DecodeProperties(data []byte) (Properties, int, error) {
	length, n, done, err := wire.DecodeVarInt(data)
	if err != nil {
		return Properties{}, 0, err
	}
	if !done {
		return Properties{}, 0, ErrShortBuffer
	}
	if len(data[n:]) < int(length) {
		return Properties{}, 0, ErrShortBuffer
	}
	block := data[n : n+int(length)]
	end := n + int(length)

	var props Properties
	seen := make(map[PropertyID]bool, 4)
	for len(block) > 0 {
		id := PropertyID(block[0])
		spec, ok := propertySpecs[id]
		if !ok {
			return Properties{}, 0, ErrInvalidPropertyID
		}
		if seen[id] && !spec.multiple {
			return Properties{}, 0, ErrDuplicateProperty
		}
		seen[id] = true
		block = block[1:]

		var value interface{}
		var used int
		switch spec.kind {
		case typeByte:
			var v byte
			v, used, err = wire.GetU8(block)
			value = v
		case typeU16:
			var v uint16
			v, used, err = wire.GetU16(block)
			value = v
		case typeU32:
			var v uint32
			v, used, err = wire.GetU32(block)
			value = v
		case typeVarInt:
			var v uint32
			var vdone bool
			v, used, vdone, err = wire.DecodeVarInt(block)
			if err == nil && !vdone {
				err = ErrShortBuffer
			}
			value = v
		case typeString:
			var v string
			v, used, err = wire.GetString(block)
			value = v
		case typeUserProp:
			var v wire.UserProperty
			v, used, err = wire.GetUserProperty(block)
			value = v
		case typeBinary:
			var v []byte
			v, used, err = wire.GetBinary(block)
			value = append([]byte(nil), v...)
		}
		if err != nil {
			return Properties{}, 0, err
		}
		props.add(id, value)
		block = block[used:]
	}
	return props, end, nil
}
