package sequence

import (
	"context"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/tabledesk/internal/memstore"
	"github.com/mesh-intelligence/tabledesk/pkg/tabular"
	"github.com/mesh-intelligence/tabledesk/pkg/types"
)

func setupTestRedis(t *testing.T) (*RedisSequence, *miniredis.Miniredis) {
	t.Helper()
	s := miniredis.RunT(t)
	seq, err := NewRedisSequence("redis://" + s.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { _ = seq.Close() })
	return seq, s
}

func TestNewRedisSequenceBadURL(t *testing.T) {
	_, err := NewRedisSequence("not-a-url")
	assert.Error(t, err)
}

func TestNextFollowsScannedMaximum(t *testing.T) {
	seq, _ := setupTestRedis(t)
	ctx := context.Background()

	n, err := seq.Next(ctx, types.SheetTasks, "CV", 10)
	require.NoError(t, err)
	assert.Equal(t, 11, n)

	// a stale scan never moves the counter backwards
	n, err = seq.Next(ctx, types.SheetTasks, "CV", 10)
	require.NoError(t, err)
	assert.Equal(t, 12, n)

	// rows written by a scan-based writer pull the counter forward
	n, err = seq.Next(ctx, types.SheetTasks, "CV", 40)
	require.NoError(t, err)
	assert.Equal(t, 41, n)

	cur, err := seq.Current(ctx, types.SheetTasks, "CV")
	require.NoError(t, err)
	assert.Equal(t, 41, cur)
}

func TestCurrentUnset(t *testing.T) {
	seq, _ := setupTestRedis(t)
	cur, err := seq.Current(context.Background(), types.SheetChat, "CHAT")
	require.NoError(t, err)
	assert.Zero(t, cur)
}

func TestKeysAreIndependent(t *testing.T) {
	seq, mr := setupTestRedis(t)
	ctx := context.Background()
	_, err := seq.Next(ctx, types.SheetTasks, "CV", 0)
	require.NoError(t, err)
	n, err := seq.Next(ctx, types.SheetChat, "CHAT", 0)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.True(t, mr.Exists("tabledesk:seq:7_CONG_VIEC:CV"))
}

func TestConcurrentAppendersGetDistinctIDs(t *testing.T) {
	seq, _ := setupTestRedis(t)
	ctx := context.Background()
	store := memstore.New()
	a := &tabular.Appender{Store: store, Sequence: seq}

	const writers = 20
	var wg sync.WaitGroup
	ids := make(chan string, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, err := a.Append(ctx, types.SheetTasks, "ID_CONG_VIEC", "CV", types.Record{})
			assert.NoError(t, err)
			ids <- id
		}()
	}
	wg.Wait()
	close(ids)

	seen := map[string]bool{}
	for id := range ids {
		assert.False(t, seen[id], "duplicate %s", id)
		seen[id] = true
	}
	assert.Len(t, seen, writers)
}

func TestNextFailsWhenServerDown(t *testing.T) {
	seq, mr := setupTestRedis(t)
	mr.Close()
	_, err := seq.Next(context.Background(), types.SheetTasks, "CV", 0)
	assert.Error(t, err)
}
