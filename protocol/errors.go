package protocol

import "errors"

// Operation-level errors: surfaced to the submitting caller via
// ResultHandler.OnFailure. Non-fatal to the machine.
var (
	ErrOfflineQueuePolicyRejection    = errors.New("protocol: operation did not pass offline queue policy")
	ErrOutboundValidationFailure      = errors.New("protocol: outbound packet validation failed")
	ErrOperationTimeout               = errors.New("protocol: operation timed out")
	ErrConnectionClosedBeforeAck      = errors.New("protocol: connection closed before acknowledgement")
	ErrReconnectWithoutSessionNoRetry = errors.New("protocol: failed offline queue policy check on reconnect")
)

// Protocol-fatal errors: set haltErr, purge all state, and reject every
// subsequent event.
var (
	ErrIllegalStateTransition     = errors.New("protocol: illegal state transition")
	ErrDecoderFailure             = errors.New("protocol: handleNetworkEvent() failure")
	ErrForbiddenPacketForState    = errors.New("protocol: packet type not valid for current state")
	ErrConnackTimeout             = errors.New("protocol: Connack timeout")
	ErrConnackRejection           = errors.New("protocol: connection rejected")
	ErrPingrespTimeout            = errors.New("protocol: Pingresp timeout")
	ErrNoWritePending             = errors.New("protocol: no write was pending")
	ErrOpenedWhileNotDisconnected = errors.New("protocol: ConnectionOpened while not disconnected")
	ErrEventWhileDisconnected     = errors.New("protocol: event not valid while disconnected")
	ErrHalted                    = errors.New("protocol: state machine is halted")
	ErrServerDisconnected         = errors.New("protocol: server sent DISCONNECT")
)

// IsFatal reports whether err is one that halts the state machine, as
// opposed to an operation-level failure delivered through a ResultHandler.
func IsFatal(err error) bool {
	switch {
	case errors.Is(err, ErrIllegalStateTransition),
		errors.Is(err, ErrDecoderFailure),
		errors.Is(err, ErrForbiddenPacketForState),
		errors.Is(err, ErrConnackTimeout),
		errors.Is(err, ErrConnackRejection),
		errors.Is(err, ErrPingrespTimeout),
		errors.Is(err, ErrNoWritePending),
		errors.Is(err, ErrOpenedWhileNotDisconnected),
		errors.Is(err, ErrEventWhileDisconnected),
		errors.Is(err, ErrHalted),
		errors.Is(err, ErrServerDisconnected):
		return true
	default:
		return false
	}
}

// IsTimeout reports whether err is a timeout of either kind: a single
// operation's deadline (non-fatal) or the connection-level keep-alive
// deadlines (fatal).
func IsTimeout(err error) bool {
	return errors.Is(err, ErrOperationTimeout) ||
		errors.Is(err, ErrConnackTimeout) ||
		errors.Is(err, ErrPingrespTimeout)
}
