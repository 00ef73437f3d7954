package codec

import "errors"

// ErrPacketTooLarge is returned by Encoder.InitForPacket when the fully
// encoded packet would exceed the negotiated maximumPacketSize. No bytes are
// produced for a packet that fails this check.
var ErrPacketTooLarge = errors.New("codec: encoded packet exceeds maximum packet size")
