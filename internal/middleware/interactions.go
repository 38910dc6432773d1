package middleware

import (
	"context"
	"net/http"
	"sync"

	"github.com/rs/zerolog"

	"creatorhub/internal/model"
	"creatorhub/internal/service"
)

// InteractionRecorder stores interaction log entries. service.TelemetryService implements it.
type InteractionRecorder interface {
	RecordInteraction(ctx context.Context, i model.UserInteraction)
}

// DropObserver counts interactions discarded because the queue was full.
type DropObserver interface {
	ObserveInteractionDropped()
}

// InteractionQueue hands interactions to a fixed pool of workers through a bounded buffer.
// Enqueue never blocks; a full buffer drops the entry.
type InteractionQueue struct {
	recorder InteractionRecorder
	observer DropObserver
	logger   zerolog.Logger
	ch       chan model.UserInteraction
	wg       sync.WaitGroup
	once     sync.Once
	mu       sync.RWMutex
	closed   bool
}

// NewInteractionQueue starts workers goroutines draining a buffer of size entries. observer may be nil.
func NewInteractionQueue(recorder InteractionRecorder, size, workers int, observer DropObserver, logger zerolog.Logger) *InteractionQueue {
	if size < 1 {
		size = 1
	}
	if workers < 1 {
		workers = 1
	}
	q := &InteractionQueue{
		recorder: recorder,
		observer: observer,
		logger:   logger.With().Str("middleware", "Interactions").Logger(),
		ch:       make(chan model.UserInteraction, size),
	}
	q.wg.Add(workers)
	for range workers {
		go q.work()
	}
	return q
}

func (q *InteractionQueue) work() {
	defer q.wg.Done()
	for i := range q.ch {
		q.recorder.RecordInteraction(context.Background(), i)
	}
}

// Enqueue reports whether the interaction was accepted.
func (q *InteractionQueue) Enqueue(i model.UserInteraction) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return false
	}
	select {
	case q.ch <- i:
		return true
	default:
		if q.observer != nil {
			q.observer.ObserveInteractionDropped()
		}
		q.logger.Warn().Str("user_id", i.UserID).Msg("Interaction queue full, dropping entry")
		return false
	}
}

// Close stops accepting entries and waits for the workers to drain the buffer.
func (q *InteractionQueue) Close() {
	q.once.Do(func() {
		q.mu.Lock()
		q.closed = true
		close(q.ch)
		q.mu.Unlock()
		q.wg.Wait()
	})
}

// Interactions records an api_call interaction for every authenticated request without
// delaying the response. A nil queue disables tracking.
func Interactions(queue *InteractionQueue) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if queue == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if id, ok := IdentityFromContext(r.Context()); ok {
				ua := r.UserAgent()
				queue.Enqueue(model.UserInteraction{
					UserID:     id.UserID,
					ActionType: model.InteractionAPICall,
					Query:      r.URL.RawQuery,
					Details: map[string]string{
						"endpoint": r.URL.Path,
						"method":   r.Method,
					},
					Metadata: model.InteractionMetadata{
						IPAddress:  r.RemoteAddr,
						UserAgent:  ua,
						DeviceType: service.DeviceType(ua),
					},
				})
			}
			next.ServeHTTP(w, r)
		})
	}
}
