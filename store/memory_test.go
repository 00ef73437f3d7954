package store

import (
	"context"
	"testing"

	"github.com/coremq/mqttproto/packet"
	"github.com/coremq/mqttproto/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func persistedOps(seed byte) []protocol.PersistedOperation {
	return []protocol.PersistedOperation{
		{PacketID: uint16(seed), Kind: protocol.OpPublish, EncodedPacket: []byte{seed, seed + 1}, Duplicate: false},
	}
}

func TestMemoryStore_Save(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		value   []protocol.PersistedOperation
		wantErr bool
	}{
		{
			name:    "save new resubmit snapshot",
			key:     "client-1",
			value:   persistedOps(1),
			wantErr: false,
		},
		{
			name:    "save a different snapshot under the same client id",
			key:     "client-1",
			value:   persistedOps(2),
			wantErr: false,
		},
		{
			name:    "save with empty client id",
			key:     "",
			value:   persistedOps(3),
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := NewResubmitStore()
			defer store.Close()

			err := store.Save(context.Background(), tt.key, tt.value)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestMemoryStore_SaveWithCanceledContext(t *testing.T) {
	store := NewResubmitStore()
	defer store.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := store.Save(ctx, "client-1", persistedOps(1))
	assert.Error(t, err)
}

func TestMemoryStore_SaveAfterClose(t *testing.T) {
	store := NewResubmitStore()
	store.Close()

	err := store.Save(context.Background(), "client-1", persistedOps(1))
	assert.ErrorIs(t, err, ErrStoreClosed)
}

func TestMemoryStore_Load(t *testing.T) {
	tests := []struct {
		name      string
		setupData map[string][]protocol.PersistedOperation
		key       string
		want      []protocol.PersistedOperation
		wantErr   error
	}{
		{
			name:      "load existing snapshot",
			setupData: map[string][]protocol.PersistedOperation{"client-1": persistedOps(1)},
			key:       "client-1",
			want:      persistedOps(1),
			wantErr:   nil,
		},
		{
			name:      "load non-existing client",
			setupData: map[string][]protocol.PersistedOperation{},
			key:       "client-404",
			want:      nil,
			wantErr:   ErrNotFound,
		},
		{
			name:      "load with empty client id",
			setupData: map[string][]protocol.PersistedOperation{"": persistedOps(0)},
			key:       "",
			want:      persistedOps(0),
			wantErr:   nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := NewResubmitStore()
			defer store.Close()

			for k, v := range tt.setupData {
				require.NoError(t, store.Save(context.Background(), k, v))
			}

			got, err := store.Load(context.Background(), tt.key)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestMemoryStore_LoadWithCanceledContext(t *testing.T) {
	store := NewResubmitStore()
	defer store.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.Load(ctx, "client-1")
	assert.Error(t, err)
}

func TestMemoryStore_LoadAfterClose(t *testing.T) {
	store := NewResubmitStore()
	store.Close()

	_, err := store.Load(context.Background(), "client-1")
	assert.ErrorIs(t, err, ErrStoreClosed)
}

func TestMemoryStore_Delete(t *testing.T) {
	tests := []struct {
		name      string
		setupData map[string][]protocol.PersistedOperation
		key       string
		wantErr   bool
	}{
		{
			name:      "delete existing snapshot",
			setupData: map[string][]protocol.PersistedOperation{"client-1": persistedOps(1)},
			key:       "client-1",
			wantErr:   false,
		},
		{
			name:      "delete non-existing client",
			setupData: map[string][]protocol.PersistedOperation{},
			key:       "client-404",
			wantErr:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := NewResubmitStore()
			defer store.Close()

			for k, v := range tt.setupData {
				require.NoError(t, store.Save(context.Background(), k, v))
			}

			err := store.Delete(context.Background(), tt.key)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				exists, _ := store.Exists(context.Background(), tt.key)
				assert.False(t, exists)
			}
		})
	}
}

func TestMemoryStore_DeleteWithCanceledContext(t *testing.T) {
	store := NewResubmitStore()
	defer store.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := store.Delete(ctx, "client-1")
	assert.Error(t, err)
}

func TestMemoryStore_DeleteAfterClose(t *testing.T) {
	store := NewResubmitStore()
	store.Close()

	err := store.Delete(context.Background(), "client-1")
	assert.ErrorIs(t, err, ErrStoreClosed)
}

func TestMemoryStore_Exists(t *testing.T) {
	tests := []struct {
		name      string
		setupData map[string][]protocol.PersistedOperation
		key       string
		want      bool
	}{
		{
			name:      "existing client",
			setupData: map[string][]protocol.PersistedOperation{"client-1": persistedOps(1)},
			key:       "client-1",
			want:      true,
		},
		{
			name:      "non-existing client",
			setupData: map[string][]protocol.PersistedOperation{},
			key:       "client-404",
			want:      false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := NewResubmitStore()
			defer store.Close()

			for k, v := range tt.setupData {
				require.NoError(t, store.Save(context.Background(), k, v))
			}

			got, err := store.Exists(context.Background(), tt.key)
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMemoryStore_ExistsWithCanceledContext(t *testing.T) {
	store := NewResubmitStore()
	defer store.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.Exists(ctx, "client-1")
	assert.Error(t, err)
}

func TestMemoryStore_ExistsAfterClose(t *testing.T) {
	store := NewResubmitStore()
	store.Close()

	_, err := store.Exists(context.Background(), "client-1")
	assert.ErrorIs(t, err, ErrStoreClosed)
}

func TestMemoryStore_List(t *testing.T) {
	tests := []struct {
		name      string
		setupData map[string][]protocol.PersistedOperation
		wantKeys  []string
	}{
		{
			name: "list multiple client ids",
			setupData: map[string][]protocol.PersistedOperation{
				"client-1": persistedOps(1),
				"client-2": persistedOps(2),
				"client-3": persistedOps(3),
			},
			wantKeys: []string{"client-1", "client-2", "client-3"},
		},
		{
			name:      "list empty store",
			setupData: map[string][]protocol.PersistedOperation{},
			wantKeys:  []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := NewResubmitStore()
			defer store.Close()

			for k, v := range tt.setupData {
				require.NoError(t, store.Save(context.Background(), k, v))
			}

			keys, err := store.List(context.Background())
			assert.NoError(t, err)
			assert.ElementsMatch(t, tt.wantKeys, keys)
		})
	}
}

func TestMemoryStore_ListWithCanceledContext(t *testing.T) {
	store := NewResubmitStore()
	defer store.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.List(ctx)
	assert.Error(t, err)
}

func TestMemoryStore_ListAfterClose(t *testing.T) {
	store := NewResubmitStore()
	store.Close()

	_, err := store.List(context.Background())
	assert.ErrorIs(t, err, ErrStoreClosed)
}

func TestMemoryStore_Count(t *testing.T) {
	tests := []struct {
		name      string
		setupData map[string][]protocol.PersistedOperation
		want      int64
	}{
		{
			name: "count multiple clients",
			setupData: map[string][]protocol.PersistedOperation{
				"client-1": persistedOps(1),
				"client-2": persistedOps(2),
				"client-3": persistedOps(3),
			},
			want: 3,
		},
		{
			name:      "count empty store",
			setupData: map[string][]protocol.PersistedOperation{},
			want:      0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := NewResubmitStore()
			defer store.Close()

			for k, v := range tt.setupData {
				require.NoError(t, store.Save(context.Background(), k, v))
			}

			count, err := store.Count(context.Background())
			assert.NoError(t, err)
			assert.Equal(t, tt.want, count)
		})
	}
}

func TestMemoryStore_CountWithCanceledContext(t *testing.T) {
	store := NewResubmitStore()
	defer store.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.Count(ctx)
	assert.Error(t, err)
}

func TestMemoryStore_CountAfterClose(t *testing.T) {
	store := NewResubmitStore()
	store.Close()

	_, err := store.Count(context.Background())
	assert.ErrorIs(t, err, ErrStoreClosed)
}

func TestMemoryStore_Close(t *testing.T) {
	store := NewResubmitStore()

	err := store.Close()
	assert.NoError(t, err)

	err = store.Close()
	assert.ErrorIs(t, err, ErrStoreClosed)
}

func TestMemoryStore_ConcurrentOperations(t *testing.T) {
	store := NewResubmitStore()
	defer store.Close()

	ctx := context.Background()
	iterations := 100

	done := make(chan bool)
	go func() {
		for i := 0; i < iterations; i++ {
			store.Save(ctx, "client-1", persistedOps(byte(i)))
		}
		done <- true
	}()

	go func() {
		for i := 0; i < iterations; i++ {
			store.Load(ctx, "client-1")
		}
		done <- true
	}()

	go func() {
		for i := 0; i < iterations; i++ {
			store.Exists(ctx, "client-1")
		}
		done <- true
	}()

	<-done
	<-done
	<-done
}

// TestResubmitRoundTripThroughProtocolState exercises the path cmd/mqttc
// actually drives: a ProtocolState snapshots its Resubmit queue, the host
// saves it under the client ID, a fresh ProtocolState for the same client
// loads and restores it.
func TestResubmitRoundTripThroughProtocolState(t *testing.T) {
	cfg := protocol.Config{
		ProtocolVersion:    packet.Version311,
		OfflineQueuePolicy: protocol.PreserveAll,
		ConnectOptions:     protocol.ConnectOptions{ClientID: "client-1", KeepAliveIntervalSeconds: 60},
	}
	source := protocol.New(cfg)

	rs := NewResubmitStore()
	defer rs.Close()
	ctx := context.Background()

	// An empty snapshot (no publishes in flight) still saves, loads and
	// restores cleanly; cmd/mqttc skips the Save in that case.
	snap, err := source.SnapshotResubmitQueue()
	require.NoError(t, err)
	assert.Empty(t, snap)

	err = rs.Save(ctx, "client-1", snap)
	assert.NoError(t, err)

	exists, err := rs.Exists(ctx, "client-1")
	require.NoError(t, err)
	assert.True(t, exists)

	loaded, err := rs.Load(ctx, "client-1")
	require.NoError(t, err)

	restored := protocol.New(cfg)
	err = restored.RestoreResubmitQueue(loaded)
	assert.NoError(t, err)
}

func BenchmarkMemoryStore_Save(b *testing.B) {
	store := NewResubmitStore()
	defer store.Close()
	ctx := context.Background()
	data := persistedOps(1)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		store.Save(ctx, "client-1", data)
	}
}

func BenchmarkMemoryStore_Load(b *testing.B) {
	store := NewResubmitStore()
	defer store.Close()
	ctx := context.Background()
	store.Save(ctx, "client-1", persistedOps(1))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		store.Load(ctx, "client-1")
	}
}

func BenchmarkMemoryStore_Delete(b *testing.B) {
	store := NewResubmitStore()
	defer store.Close()
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		b.StopTimer()
		store.Save(ctx, "client-1", persistedOps(1))
		b.StartTimer()
		store.Delete(ctx, "client-1")
	}
}

func BenchmarkMemoryStore_List(b *testing.B) {
	store := NewResubmitStore()
	defer store.Close()
	ctx := context.Background()

	for i := 0; i < 100; i++ {
		store.Save(ctx, string(rune(i)), persistedOps(byte(i)))
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		store.List(ctx)
	}
}

func BenchmarkMemoryStore_Count(b *testing.B) {
	store := NewResubmitStore()
	defer store.Close()
	ctx := context.Background()

	for i := 0; i < 100; i++ {
		store.Save(ctx, string(rune(i)), persistedOps(byte(i)))
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		store.Count(ctx)
	}
}
