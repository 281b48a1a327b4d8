package worker

import (
	"StudyVault/config"
	"StudyVault/internal/storage"
	"StudyVault/internal/task"
	"StudyVault/utils"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBroker struct {
	retries [][]byte
	delays  []time.Duration
	dlq     [][]byte
}

func (f *fakeBroker) PublishRetry(_ context.Context, body []byte, delay time.Duration) error {
	f.retries = append(f.retries, body)
	f.delays = append(f.delays, delay)
	return nil
}

func (f *fakeBroker) PublishDLQ(_ context.Context, body []byte) error {
	f.dlq = append(f.dlq, body)
	return nil
}

type fakeNotifier struct {
	err  error
	sent []string
}

func (f *fakeNotifier) SendShareNotice(to, fileName, sharedBy string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, to+"|"+fileName+"|"+sharedBy)
	return nil
}

// fakeRefs treats the listed paths as still pointed at by a file record.
type fakeRefs struct {
	paths map[string]bool
	err   error
}

func (f fakeRefs) ExistsByStoragePath(_ context.Context, path string) (bool, error) {
	return f.paths[path], f.err
}

func testWorker(store storage.Store, notifier Notifier) *Worker {
	return testWorkerWithRefs(store, fakeRefs{}, notifier)
}

func testWorkerWithRefs(store storage.Store, refs BlobReferences, notifier Notifier) *Worker {
	return New(config.Config{
		WorkerRetryMax:    2,
		WorkerRetryDelays: []time.Duration{time.Second, 5 * time.Second},
		WorkerConcurrency: 1,
	}, NewProcessor(store, refs, notifier))
}

func encode(t *testing.T, msg task.Message) []byte {
	body, err := task.Encode(msg)
	require.NoError(t, err)
	return body
}

func TestReclaimDeletesOrphanedBlob(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	require.NoError(t, store.Put(ctx, "1/100_a.txt", bytes.NewReader([]byte("x")), 1, "text/plain"))

	broker := &fakeBroker{}
	out := testWorker(store, nil).dispatch(ctx, broker, encode(t, task.NewBlobReclaim("1/100_a.txt")))

	assert.Equal(t, outcomeAck, out)
	assert.False(t, store.Has("1/100_a.txt"))
	assert.Empty(t, broker.retries)
	assert.Empty(t, broker.dlq)
}

func TestReclaimKeepsReferencedBlob(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	require.NoError(t, store.Put(ctx, "1/100_a.txt", bytes.NewReader([]byte("x")), 1, "text/plain"))
	refs := fakeRefs{paths: map[string]bool{"1/100_a.txt": true}}

	broker := &fakeBroker{}
	out := testWorkerWithRefs(store, refs, nil).dispatch(ctx, broker, encode(t, task.NewBlobReclaim("1/100_a.txt")))

	assert.Equal(t, outcomeAck, out)
	assert.True(t, store.Has("1/100_a.txt"), "record committed despite the reported failure")
	assert.Empty(t, broker.retries)
}

func TestReclaimReferenceLookupFailureIsRetried(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	require.NoError(t, store.Put(ctx, "1/100_a.txt", bytes.NewReader([]byte("x")), 1, "text/plain"))
	refs := fakeRefs{err: errors.New("db down")}

	broker := &fakeBroker{}
	out := testWorkerWithRefs(store, refs, nil).dispatch(ctx, broker, encode(t, task.NewBlobReclaim("1/100_a.txt")))

	assert.Equal(t, outcomeAck, out)
	assert.True(t, store.Has("1/100_a.txt"))
	assert.Len(t, broker.retries, 1)
}

func TestFailedReclaimIsRetriedThenDeadLettered(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	store.DeleteErr = errors.New("store down")
	broker := &fakeBroker{}
	w := testWorker(store, nil)

	body := encode(t, task.NewBlobReclaim("1/100_a.txt"))
	assert.Equal(t, outcomeAck, w.dispatch(ctx, broker, body))
	require.Len(t, broker.retries, 1)
	assert.Equal(t, time.Second, broker.delays[0])

	retried, err := task.Decode(broker.retries[0])
	require.NoError(t, err)
	assert.Equal(t, 1, retried.Attempt)

	assert.Equal(t, outcomeAck, w.dispatch(ctx, broker, broker.retries[0]))
	require.Len(t, broker.retries, 2)
	assert.Equal(t, 5*time.Second, broker.delays[1])

	assert.Equal(t, outcomeAck, w.dispatch(ctx, broker, broker.retries[1]))
	assert.Len(t, broker.retries, 2)
	require.Len(t, broker.dlq, 1)

	var dead dlqMessage
	require.NoError(t, json.Unmarshal(broker.dlq[0], &dead))
	assert.Equal(t, 2, dead.Attempt)
	assert.Contains(t, dead.Error, "store down")
}

func TestInvalidMessageIsDeadLettered(t *testing.T) {
	broker := &fakeBroker{}
	out := testWorker(storage.NewMemoryStore(), nil).dispatch(context.Background(), broker, []byte(`{"kind":"nope"}`))
	assert.Equal(t, outcomeAck, out)
	assert.Len(t, broker.dlq, 1)
	assert.Empty(t, broker.retries)
}

func TestShareNotice(t *testing.T) {
	ctx := context.Background()
	notifier := &fakeNotifier{}
	broker := &fakeBroker{}
	msg := task.NewShareNotice("f1", "notes.pdf", "bob@example.com", "ann@example.com")

	out := testWorker(storage.NewMemoryStore(), notifier).dispatch(ctx, broker, encode(t, msg))
	assert.Equal(t, outcomeAck, out)
	assert.Equal(t, []string{"bob@example.com|notes.pdf|ann@example.com"}, notifier.sent)
}

func TestShareNoticeWithoutSMTPIsDropped(t *testing.T) {
	broker := &fakeBroker{}
	notifier := &fakeNotifier{err: utils.ErrSMTPConfig}
	msg := task.NewShareNotice("f1", "notes.pdf", "bob@example.com", "ann@example.com")

	out := testWorker(storage.NewMemoryStore(), notifier).dispatch(context.Background(), broker, encode(t, msg))
	assert.Equal(t, outcomeAck, out)
	assert.Empty(t, broker.retries)
	assert.Empty(t, broker.dlq)
}

func TestPickRetryDelay(t *testing.T) {
	delays := []time.Duration{time.Second, time.Minute}
	assert.Equal(t, time.Duration(0), pickRetryDelay(1, nil))
	assert.Equal(t, time.Second, pickRetryDelay(0, delays))
	assert.Equal(t, time.Second, pickRetryDelay(1, delays))
	assert.Equal(t, time.Minute, pickRetryDelay(2, delays))
	assert.Equal(t, time.Minute, pickRetryDelay(9, delays))
}
