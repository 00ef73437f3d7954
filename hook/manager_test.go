package hook

import (
	"testing"

	"github.com/coremq/mqttproto/packet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingHook struct {
	*Base
	id     string
	events []Event
	fail   Event
	failErr error
}

func newRecordingHook(id string) *recordingHook {
	return &recordingHook{Base: NewHookBase(id), id: id}
}

func (h *recordingHook) Provides(event Event) bool { return true }

func (h *recordingHook) OnConnectionOpened() error {
	h.events = append(h.events, OnConnectionOpened)
	return h.errIfFailing(OnConnectionOpened)
}

func (h *recordingHook) OnConnectionClosed() error {
	h.events = append(h.events, OnConnectionClosed)
	return h.errIfFailing(OnConnectionClosed)
}

func (h *recordingHook) OnConnack(connack *packet.Connack) error {
	h.events = append(h.events, OnConnack)
	return h.errIfFailing(OnConnack)
}

func (h *recordingHook) OnPublishReceived(pub *packet.Publish) error {
	h.events = append(h.events, OnPublishReceived)
	return h.errIfFailing(OnPublishReceived)
}

func (h *recordingHook) OnPongReceived() error {
	h.events = append(h.events, OnPongReceived)
	return h.errIfFailing(OnPongReceived)
}

func (h *recordingHook) OnOperationCompleted(kind OperationKind) error {
	h.events = append(h.events, OnOperationCompleted)
	return h.errIfFailing(OnOperationCompleted)
}

func (h *recordingHook) OnOperationFailed(kind OperationKind, err error) error {
	h.events = append(h.events, OnOperationFailed)
	return h.errIfFailing(OnOperationFailed)
}

func (h *recordingHook) OnHalted(err error) error {
	h.events = append(h.events, OnHalted)
	return h.errIfFailing(OnHalted)
}

func (h *recordingHook) errIfFailing(event Event) error {
	if h.failErr != nil && h.fail == event {
		return h.failErr
	}
	return nil
}

func TestManagerAddRemoveGet(t *testing.T) {
	m := NewManager()
	h := newRecordingHook("a")

	require.NoError(t, m.Add(h))
	assert.ErrorIs(t, m.Add(h), ErrHookAlreadyExists)
	assert.Equal(t, 1, m.Count())

	got, ok := m.Get("a")
	require.True(t, ok)
	assert.Same(t, h, got)

	require.NoError(t, m.Remove("a"))
	assert.ErrorIs(t, m.Remove("a"), ErrHookNotFound)
	assert.Equal(t, 0, m.Count())
}

func TestManagerAddRejectsEmptyID(t *testing.T) {
	m := NewManager()
	assert.ErrorIs(t, m.Add(nil), ErrEmptyHookID)
	assert.ErrorIs(t, m.Add(newRecordingHook("")), ErrEmptyHookID)
}

func TestManagerDispatchesToEveryProvidingHook(t *testing.T) {
	m := NewManager()
	a := newRecordingHook("a")
	b := newRecordingHook("b")
	require.NoError(t, m.Add(a))
	require.NoError(t, m.Add(b))

	require.NoError(t, m.OnConnectionOpened())
	require.NoError(t, m.OnConnack(&packet.Connack{}))
	require.NoError(t, m.OnOperationCompleted(OpSubscribe))

	assert.Equal(t, []Event{OnConnectionOpened, OnConnack, OnOperationCompleted}, a.events)
	assert.Equal(t, []Event{OnConnectionOpened, OnConnack, OnOperationCompleted}, b.events)
}

func TestManagerDispatchStopsOnFirstError(t *testing.T) {
	m := NewManager()
	a := newRecordingHook("a")
	a.fail, a.failErr = OnHalted, assert.AnError
	b := newRecordingHook("b")
	require.NoError(t, m.Add(a))
	require.NoError(t, m.Add(b))

	err := m.OnHalted(assert.AnError)
	assert.ErrorIs(t, err, assert.AnError)
	// b comes after a in insertion order, so it never runs once a errors.
	assert.Empty(t, b.events)
}

func TestManagerClear(t *testing.T) {
	m := NewManager()
	require.NoError(t, m.Add(newRecordingHook("a")))
	m.Clear()
	assert.Equal(t, 0, m.Count())
	assert.Empty(t, m.List())
}
