package processor

import (
	"context"
	"sync"

	"iat/reconciler-service/internal/app/reconciler/entity"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/mock"
)

// MockReconciler мок для service.Reconciler
type MockReconciler struct {
	mock.Mock
}

func (m *MockReconciler) ReconcileUser(ctx context.Context, userID string) (entity.Report, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(entity.Report), args.Error(1)
}

func (m *MockReconciler) ReconcileGroup(ctx context.Context, groupID string) (entity.Report, error) {
	args := m.Called(ctx, groupID)
	return args.Get(0).(entity.Report), args.Error(1)
}

func (m *MockReconciler) ReconcileAll(ctx context.Context) (entity.Report, error) {
	args := m.Called(ctx)
	return args.Get(0).(entity.Report), args.Error(1)
}

// fakeReader отдает заранее заданные сообщения, затем блокируется до отмены контекста
type fakeReader struct {
	mu        sync.Mutex
	messages  []kafka.Message
	committed []kafka.Message
	closed    bool
	drained   chan struct{}
}

func newFakeReader(messages ...kafka.Message) *fakeReader {
	return &fakeReader{messages: messages, drained: make(chan struct{})}
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	r.mu.Lock()
	if len(r.messages) > 0 {
		msg := r.messages[0]
		r.messages = r.messages[1:]
		r.mu.Unlock()
		return msg, nil
	}
	r.mu.Unlock()

	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func (r *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.committed = append(r.committed, msgs...)
	if len(r.messages) == 0 {
		select {
		case <-r.drained:
		default:
			close(r.drained)
		}
	}
	return nil
}

func (r *fakeReader) Stats() kafka.ReaderStats { return kafka.ReaderStats{} }

func (r *fakeReader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

func (r *fakeReader) committedOffsets() []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	offsets := make([]int64, 0, len(r.committed))
	for _, m := range r.committed {
		offsets = append(offsets, m.Offset)
	}
	return offsets
}
