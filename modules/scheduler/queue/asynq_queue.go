package queue

import (
	"context"
	"encoding/json"
	stdErrors "errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"go-event-roster/core/cache"
	"go-event-roster/core/constants"
	"go-event-roster/core/logger"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
)

type taskPayload struct {
	EventID uuid.UUID `json:"event_id"`
}

// TaskClient is the part of *asynq.Client the queue enqueues through.
type TaskClient interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// TaskInspector is the part of *asynq.Inspector the queue deletes through.
type TaskInspector interface {
	DeleteTask(queue, id string) error
	GetTaskInfo(queue, id string) (*asynq.TaskInfo, error)
}

// AsynqQueue persists timers in Redis so they survive restarts. Task ids
// carry the target time, so a re-arm never collides with a task that is
// already running. The id of the pending task per (kind, event) is kept
// under RedisKeyTimer; scheduling swaps it and deletes the displaced task.
type AsynqQueue struct {
	client    TaskClient
	inspector TaskInspector
	redis     redis.UniversalClient
	queue     string
	timeout   time.Duration

	mu      sync.RWMutex
	handler Handler
}

func NewAsynqQueue(client TaskClient, inspector TaskInspector, c cache.Cache, queueName string, fireTimeout time.Duration) *AsynqQueue {
	if queueName == "" {
		queueName = "default"
	}
	return &AsynqQueue{
		client:    client,
		inspector: inspector,
		redis:     c.Client(),
		queue:     queueName,
		timeout:   fireTimeout,
	}
}

func taskType(kind Kind) string {
	if kind == KindClose {
		return constants.TaskTypeVenueClose
	}
	return constants.TaskTypeVenueOpen
}

func taskID(kind Kind, eventID uuid.UUID, at time.Time) string {
	return key(kind, eventID) + ":" + strconv.FormatInt(at.Unix(), 10)
}

func pointerKey(kind Kind, eventID uuid.UUID) string {
	return constants.RedisKeyTimer + key(kind, eventID)
}

func (q *AsynqQueue) SetHandler(h Handler) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.handler = h
}

// Schedule enqueues the new task before dropping the old one, so there is
// never a moment with no pending timer.
func (q *AsynqQueue) Schedule(ctx context.Context, kind Kind, eventID uuid.UUID, at time.Time) error {
	payload, err := json.Marshal(taskPayload{EventID: eventID})
	if err != nil {
		return err
	}
	id := taskID(kind, eventID, at)
	opts := []asynq.Option{
		asynq.TaskID(id),
		asynq.Queue(q.queue),
		asynq.ProcessAt(at),
		asynq.MaxRetry(0),
	}
	if q.timeout > 0 {
		opts = append(opts, asynq.Timeout(q.timeout))
	}

	_, err = q.client.EnqueueContext(ctx, asynq.NewTask(taskType(kind), payload), opts...)
	if err != nil && !stdErrors.Is(err, asynq.ErrTaskIDConflict) {
		return fmt.Errorf("enqueue %s timer: %w", kind, err)
	}

	prev, err := q.redis.GetSet(ctx, pointerKey(kind, eventID), id).Result()
	if err != nil && !stdErrors.Is(err, redis.Nil) {
		return fmt.Errorf("track %s timer: %w", kind, err)
	}
	if prev == "" || prev == id {
		return nil
	}
	return q.deleteTask(kind, eventID, prev)
}

func (q *AsynqQueue) Cancel(ctx context.Context, kind Kind, eventID uuid.UUID) error {
	id, err := q.redis.GetDel(ctx, pointerKey(kind, eventID)).Result()
	if stdErrors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("untrack %s timer: %w", kind, err)
	}
	return q.deleteTask(kind, eventID, id)
}

// deleteTask removes a pending task. A task that is already running cannot be
// deleted; that is not an error since its handler re-reads the event.
func (q *AsynqQueue) deleteTask(kind Kind, eventID uuid.UUID, id string) error {
	err := q.inspector.DeleteTask(q.queue, id)
	if err == nil || stdErrors.Is(err, asynq.ErrTaskNotFound) || stdErrors.Is(err, asynq.ErrQueueNotFound) {
		return nil
	}
	info, infoErr := q.inspector.GetTaskInfo(q.queue, id)
	if infoErr == nil && info.State == asynq.TaskStateActive {
		logger.Info("AsynqQueue:deleteTask:Active", "kind", kind, "event_id", eventID.String(), "task_id", id)
		return nil
	}
	if stdErrors.Is(infoErr, asynq.ErrTaskNotFound) {
		return nil
	}
	return fmt.Errorf("delete %s timer: %w", kind, err)
}

// ServeMux routes fired tasks to the handler. Failures are marked SkipRetry.
func (q *AsynqQueue) ServeMux() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(constants.TaskTypeVenueOpen, q.process(KindOpen))
	mux.HandleFunc(constants.TaskTypeVenueClose, q.process(KindClose))
	return mux
}

func (q *AsynqQueue) process(kind Kind) func(context.Context, *asynq.Task) error {
	return func(ctx context.Context, task *asynq.Task) error {
		var payload taskPayload
		if err := json.Unmarshal(task.Payload(), &payload); err != nil {
			return fmt.Errorf("decode %s payload: %v: %w", kind, err, asynq.SkipRetry)
		}

		q.mu.RLock()
		h := q.handler
		q.mu.RUnlock()
		if h == nil {
			return fmt.Errorf("no handler for %s: %w", kind, asynq.SkipRetry)
		}

		if err := h(ctx, kind, payload.EventID); err != nil {
			logger.Error("AsynqQueue:process", "kind", kind, "event_id", payload.EventID.String(), "error", err)
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}
		return nil
	}
}
