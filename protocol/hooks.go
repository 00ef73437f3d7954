package protocol

import "github.com/coremq/mqttproto/hook"

// toHookKind adapts UserEventKind to hook.OperationKind. The hook package
// can't import protocol (protocol already imports hook to invoke it), so it
// declares its own parallel enum; this is the one place the two are kept in
// sync. opInternal operations (implicit Connect, Pingreq) never reach a
// hook call site; any unlisted kind falls through to hook.OpDisconnect.
func toHookKind(kind UserEventKind) hook.OperationKind {
	switch kind {
	case OpPublish:
		return hook.OpPublish
	case OpSubscribe:
		return hook.OpSubscribe
	case OpUnsubscribe:
		return hook.OpUnsubscribe
	case OpDisconnect:
		return hook.OpDisconnect
	default:
		return hook.OpDisconnect
	}
}
