package notify

import (
	"context"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"pravo-monitor/internal/domain/entity"
	"pravo-monitor/internal/observability/logging"
	"pravo-monitor/internal/observability/metrics"
	"pravo-monitor/internal/observability/slo"
	"pravo-monitor/internal/repository"
)

const (
	defaultMaxConcurrent = 5
	workerPoolTimeout    = 5 * time.Second  // acquiring a worker slot
	deliveryTimeout      = 60 * time.Second // whole per-chat message sequence
)

// Service fans a new-document batch out to every subscribed chat.
//
// NotifyNewDocuments is non-blocking: delivery happens in background
// goroutines, one per subscriber, limited by a semaphore. A failing chat is
// logged and skipped; it never affects other subscribers or the caller.
type Service struct {
	messenger   Messenger
	subscribers repository.SubscriberRepository

	workerPool     chan struct{}
	wg             sync.WaitGroup
	shutdownCtx    context.Context
	shutdownCancel context.CancelFunc

	deliveries       atomic.Int64
	failedDeliveries atomic.Int64
}

// NewService creates a notification service. maxConcurrent bounds parallel
// per-chat deliveries; values <= 0 fall back to the default.
func NewService(messenger Messenger, subscribers repository.SubscriberRepository, maxConcurrent int) *Service {
	if maxConcurrent <= 0 {
		maxConcurrent = defaultMaxConcurrent
	}
	shutdownCtx, shutdownCancel := context.WithCancel(context.Background())
	return &Service{
		messenger:      messenger,
		subscribers:    subscribers,
		workerPool:     make(chan struct{}, maxConcurrent),
		shutdownCtx:    shutdownCtx,
		shutdownCancel: shutdownCancel,
	}
}

// NotifyNewDocuments dispatches the batch announcement to all subscribers:
// a summary, detail cards for the first few documents, and a tail line for
// the rest. total is the database document count after the batch was added.
// The call returns once goroutines are dispatched; delivery errors are
// handled internally.
func (s *Service) NotifyNewDocuments(ctx context.Context, added []entity.Document, total int) error {
	if len(added) == 0 {
		return nil
	}

	// Reuse the discovery cycle's batch ID when the caller put one in the
	// context, so announcement records correlate with the cycle's own logs.
	batchID := logging.BatchIDFromContext(ctx)
	if batchID == "" {
		batchID = uuid.New().String()
	}

	chats, err := s.subscribers.List(ctx)
	if err != nil {
		slog.Error("listing subscribers failed, batch not announced",
			slog.String("batch_id", batchID),
			slog.Any("error", err))
		return nil
	}
	if len(chats) == 0 {
		slog.Debug("no subscribers, batch not announced",
			slog.String("batch_id", batchID),
			slog.Int("documents", len(added)))
		return nil
	}

	slog.Info("dispatching new-document announcements",
		slog.String("batch_id", batchID),
		slog.Int("documents", len(added)),
		slog.Int("subscribers", len(chats)))

	messages := buildSequence(added, total, time.Now())
	for _, chat := range chats {
		chatID := chat
		s.wg.Add(1)
		go s.deliver(batchID, chatID, messages)
	}
	return nil
}

// buildSequence renders the ordered message sequence sent to each chat.
func buildSequence(added []entity.Document, total int, now time.Time) []string {
	messages := []string{summaryMessage(len(added), total, now)}
	for i, doc := range added {
		if i >= maxDetailMessages {
			break
		}
		messages = append(messages, detailMessage(doc))
	}
	if remaining := len(added) - maxDetailMessages; remaining > 0 {
		messages = append(messages, tailMessage(remaining))
	}
	return messages
}

// recordDeliveryOutcome feeds the SLO gauge with the lifetime delivery error
// ratio.
func (s *Service) recordDeliveryOutcome(failed bool) {
	total := s.deliveries.Add(1)
	failures := s.failedDeliveries.Load()
	if failed {
		failures = s.failedDeliveries.Add(1)
	}
	slo.UpdateDeliveryErrorRate(float64(failures) / float64(total))
}

// deliver sends the message sequence to one chat. The first failed message
// aborts the rest of the sequence for that chat.
func (s *Service) deliver(batchID, chatID string, messages []string) {
	defer s.wg.Done()

	defer func() {
		if r := recover(); r != nil {
			slog.Error("panic during announcement delivery",
				slog.String("batch_id", batchID),
				slog.String("chat_id", chatID),
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())))
		}
	}()

	select {
	case s.workerPool <- struct{}{}:
		defer func() { <-s.workerPool }()
	case <-time.After(workerPoolTimeout):
		slog.Warn("announcement dropped, worker pool full",
			slog.String("batch_id", batchID),
			slog.String("chat_id", chatID))
		return
	case <-s.shutdownCtx.Done():
		return
	}

	ctx, cancel := context.WithTimeout(s.shutdownCtx, deliveryTimeout)
	defer cancel()

	start := time.Now()
	for i, msg := range messages {
		if err := s.messenger.Send(ctx, chatID, msg); err != nil {
			metrics.RecordDelivery(false)
			s.recordDeliveryOutcome(true)
			slog.Warn("announcement delivery failed",
				slog.String("batch_id", batchID),
				slog.String("chat_id", chatID),
				slog.Int("sent", i),
				slog.Int("planned", len(messages)),
				slog.Any("error", err))
			return
		}
	}

	metrics.RecordDelivery(true)
	s.recordDeliveryOutcome(false)
	slog.Info("announcement delivered",
		slog.String("batch_id", batchID),
		slog.String("chat_id", chatID),
		slog.Int("messages", len(messages)),
		slog.Duration("duration", time.Since(start)))
}

// Shutdown waits for in-flight deliveries to finish or the context to
// expire, whichever comes first.
func (s *Service) Shutdown(ctx context.Context) error {
	slog.Info("shutting down notification service")
	s.shutdownCancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		slog.Info("notification service shutdown complete")
		return nil
	case <-ctx.Done():
		slog.Warn("notification service shutdown timeout")
		return ctx.Err()
	}
}
