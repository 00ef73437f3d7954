package wire

import "errors"

var (
	ErrShortBuffer           = errors.New("wire: buffer too short")
	ErrInvalidUTF8           = errors.New("wire: invalid UTF-8 encoding")
	ErrNullCharacter         = errors.New("wire: null character (U+0000) not allowed")
	ErrSurrogateCodePoint    = errors.New("wire: UTF-16 surrogate code point not allowed")
	ErrNonCharacterCodePoint = errors.New("wire: non-character code point not allowed")
	ErrFieldTooLong          = errors.New("wire: length-prefixed field exceeds 65535 bytes")
)
