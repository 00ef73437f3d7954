package packet

import "testing"

func FuzzDecodeFixedHeader(f *testing.F) {
	seeds := [][]byte{
		{0x10, 0x00},
		{0x20, 0x02},
		{0x30, 0x00},
		{0x32, 0x05},
		{0x34, 0x07},
		{0x3D, 0x08},
		{0x40, 0x02},
		{0x82, 0x05},
		{0xC0, 0x00},
		{0xD0, 0x00},
		{0xE0, 0x00},
		{0xF0, 0x00},
		{0x10, 0x7F},
		{0x10, 0x80, 0x01},
		{0x00, 0x00},
		{0xF1, 0x00},
	}
	for _, seed := range seeds {
		f.Add(seed)
	}

	f.Fuzz(func(t *testing.T, data []byte) {
		fh, n, err := DecodeFixedHeader(data)
		if err != nil {
			return
		}
		if fh.Type == Reserved || fh.Type > AUTH {
			t.Fatalf("decoded an out-of-range type: %v", fh.Type)
		}
		if fh.Type == PUBLISH && !fh.QoS.IsValid() {
			t.Fatalf("decoded an invalid PUBLISH QoS: %v", fh.QoS)
		}
		if fh.RemainingLength > 268435455 {
			t.Fatalf("decoded a remaining length beyond the VLI maximum: %d", fh.RemainingLength)
		}
		if n <= 0 || n > len(data) {
			t.Fatalf("consumed byte count %d out of range for input length %d", n, len(data))
		}

		reencoded, err := EncodeFixedHeader(nil, fh)
		if err != nil {
			t.Fatalf("failed to re-encode a decoded fixed header: %v", err)
		}
		refh, rn, err := DecodeFixedHeader(reencoded)
		if err != nil {
			t.Fatalf("re-encoded fixed header failed to decode: %v", err)
		}
		if refh.Type != fh.Type || refh.RemainingLength != fh.RemainingLength {
			t.Fatalf("fixed header did not round-trip: got %+v, want %+v", refh, fh)
		}
		if rn != len(reencoded) {
			t.Fatalf("DecodeFixedHeader consumed %d of %d re-encoded bytes", rn, len(reencoded))
		}
	})
}

// FuzzPublishRoundTrip feeds arbitrary topic/payload/QoS/packet-id
// combinations through encode then decode for both protocol versions.
func FuzzPublishRoundTrip(f *testing.F) {
	f.Add("a/b", []byte("hello"), byte(0), uint16(0), false)
	f.Add("a/b/c", []byte{}, byte(1), uint16(1), true)
	f.Add("topic", []byte{0x00, 0xFF}, byte(2), uint16(65535), false)

	f.Fuzz(func(t *testing.T, topicName string, payload []byte, qos byte, packetID uint16, retain bool) {
		if qos > 2 {
			return
		}
		q := QoS(qos)
		if q != QoS0 {
			if packetID == 0 {
				packetID = 1
			}
		} else {
			packetID = 0
		}

		for _, version := range []Version{Version311, Version5} {
			pkt := &Packet{Type: PUBLISH, Version: version, Publish: &Publish{
				PacketID: packetID, Topic: topicName, Payload: payload, QoS: q, Retain: retain,
			}}
			encoded, err := Encode(nil, pkt)
			if err != nil {
				continue // invalid topic (e.g. embedded NUL) correctly rejected
			}
			fh, n, err := DecodeFixedHeader(encoded)
			if err != nil {
				t.Fatalf("failed to decode fixed header of a packet we just encoded: %v", err)
			}
			body := encoded[n : n+int(fh.RemainingLength)]
			decoded, err := Decode(fh, body, version)
			if err != nil {
				t.Fatalf("failed to decode a packet we just encoded: %v", err)
			}
			if decoded.Publish.Topic != topicName {
				t.Fatalf("topic mismatch: got %q, want %q", decoded.Publish.Topic, topicName)
			}
			if decoded.Publish.QoS != q {
				t.Fatalf("QoS mismatch: got %v, want %v", decoded.Publish.QoS, q)
			}
			if decoded.Publish.Retain != retain {
				t.Fatalf("retain mismatch: got %v, want %v", decoded.Publish.Retain, retain)
			}
		}
	})
}
