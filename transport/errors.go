package transport

import "errors"

var (
	ErrConnectionClosed        = errors.New("transport: connection closed")
	ErrInvalidTLSConfig        = errors.New("transport: invalid TLS configuration")
	ErrInvalidAddress          = errors.New("transport: invalid address")
	ErrMaxRetriesExceeded      = errors.New("transport: max retries exceeded")
	ErrInvalidBackoffConfig    = errors.New("transport: invalid backoff configuration")
	ErrCertificateVerification = errors.New("transport: certificate verification failed")
)
