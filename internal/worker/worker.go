package worker

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/example/skysweep/internal/fetcher"
	"github.com/example/skysweep/internal/logging"
	"github.com/example/skysweep/internal/queue"
	"github.com/example/skysweep/internal/repository"
	"github.com/example/skysweep/internal/scorer"
)

// WaypointStore is the persistence surface the worker writes through.
type WaypointStore interface {
	RecordWaypoint(ctx context.Context, flight repository.Flight, wp repository.Waypoint) error
}

// Invalidator drops cached read results after a successful write.
type Invalidator interface {
	Invalidate(ctx context.Context) error
}

// Worker is the single-consumer ingestion loop: it polls the capture-event
// queue, downloads and scores each image, records the waypoint, and only then
// acknowledges the message. Failures leave the message for redelivery.
type Worker struct {
	consumer queue.Consumer
	fetcher  fetcher.Fetcher
	scorer   scorer.Scorer
	store    WaypointStore
	cache    Invalidator
	logger   *zap.Logger

	pollWait       time.Duration
	idleSleep      time.Duration
	transportPause time.Duration
}

// NewWorker constructs a worker with explicitly injected collaborators. The
// cache invalidator may be nil.
func NewWorker(consumer queue.Consumer, f fetcher.Fetcher, s scorer.Scorer, store WaypointStore, cache Invalidator, logger *zap.Logger) *Worker {
	return &Worker{
		consumer:       consumer,
		fetcher:        f,
		scorer:         s,
		store:          store,
		cache:          cache,
		logger:         logger.Named("ingestion_worker"),
		pollWait:       20 * time.Second,
		idleSleep:      5 * time.Second,
		transportPause: 15 * time.Second,
	}
}

// SetPollIntervals overrides the queue long-poll wait and the flat sleep used
// between empty polls.
func (w *Worker) SetPollIntervals(pollWait, idleSleep time.Duration) {
	if pollWait > 0 {
		w.pollWait = pollWait
	}
	if idleSleep > 0 {
		w.idleSleep = idleSleep
	}
}

// Run polls the queue until ctx is cancelled. Cancellation is honoured
// between cycles; a message already received is processed to completion so no
// half-finished state is left behind. Transport errors pause the loop and
// retry rather than terminate it.
func (w *Worker) Run(ctx context.Context) {
	w.logger.Info("worker started")
	for {
		if ctx.Err() != nil {
			w.logger.Info("worker stopped")
			return
		}

		delivery, err := w.consumer.Receive(ctx, w.pollWait)
		if err != nil {
			if ctx.Err() != nil {
				w.logger.Info("worker stopped")
				return
			}
			w.logger.Error("queue receive failed", zap.Error(err))
			if !w.sleep(ctx, w.transportPause) {
				w.logger.Info("worker stopped")
				return
			}
			continue
		}

		if delivery == nil {
			// Empty queue. The long-poll wait is the primary throttle; the
			// sleep here stays flat.
			if !w.sleep(ctx, w.idleSleep) {
				w.logger.Info("worker stopped")
				return
			}
			continue
		}

		// Finish the cycle even if shutdown begins mid-flight.
		w.process(context.WithoutCancel(ctx), delivery)
	}
}

// process runs one full message cycle: parse, fetch, score, persist,
// acknowledge. Every error is handled here; nothing escapes to kill the loop.
func (w *Worker) process(ctx context.Context, delivery queue.Delivery) {
	cycleID := uuid.NewString()

	defer func() {
		if r := recover(); r != nil {
			w.logger.Error("panic while processing message",
				zap.Any("panic", r),
				zap.String("cycle_id", cycleID))
			w.rejectDelivery(delivery)
		}
	}()

	ev, err := queue.ParseCaptureEvent(delivery.Body())
	if err != nil {
		w.logger.Warn("abandoning malformed message",
			zap.Error(err),
			zap.String("cycle_id", cycleID))
		w.rejectDelivery(delivery)
		return
	}

	opLogger := logging.WithOperation(w.logger, "worker.process", ev.S3Key).
		With(zap.String("cycle_id", cycleID))
	opLogger.Info("processing capture event",
		zap.Float64("lat", ev.Latitude()),
		zap.Float64("lng", ev.Longitude()))

	score, scoreUnavailable := w.scoreCapture(ctx, ev, opLogger)

	flight := repository.Flight{ID: ev.FlightID(), Date: ev.CaptureDate()}
	wp := repository.Waypoint{
		ID:               ev.S3Key,
		FlightID:         flight.ID,
		Lat:              ev.Latitude(),
		Lng:              ev.Longitude(),
		TrashScore:       score,
		ScoreUnavailable: scoreUnavailable,
		ImageURL:         ev.S3Location,
		Timestamp:        ev.TimeOfDay(),
	}

	switch err := w.store.RecordWaypoint(ctx, flight, wp); {
	case err == nil:
		opLogger.Info("waypoint recorded",
			zap.String("flight_id", flight.ID),
			zap.Int("trash_score", score),
			zap.Bool("score_unavailable", scoreUnavailable))
		w.invalidateCache(ctx, opLogger)
	case errors.Is(err, repository.ErrDuplicateWaypoint):
		// Redelivered message whose waypoint is already on disk. The data
		// exists, so acknowledge instead of looping forever.
		opLogger.Info("waypoint already recorded, acknowledging duplicate")
	default:
		opLogger.Error("failed to persist waypoint, leaving message for redelivery",
			zap.Error(logging.NewOperationError("worker.record_waypoint", ev.S3Key, err)))
		w.rejectDelivery(delivery)
		return
	}

	if err := delivery.Ack(); err != nil {
		// The waypoint is durable; the unique ID makes the inevitable
		// redelivery a no-op duplicate.
		opLogger.Error("failed to acknowledge message", zap.Error(err))
	}
}

// scoreCapture downloads and scores the image. When either step fails the
// waypoint is still recorded with a zero score and an explicit unavailable
// flag, so "could not be scored" never reads as "scored clean" and a
// permanently missing image cannot redeliver forever.
func (w *Worker) scoreCapture(ctx context.Context, ev *queue.CaptureEvent, opLogger *zap.Logger) (int, bool) {
	img, err := w.fetcher.Fetch(ctx, ev.Bucket, ev.S3Key)
	if err != nil {
		opLogger.Warn("image unavailable, recording unscored waypoint", zap.Error(err))
		return 0, true
	}
	defer img.Close()

	score, err := w.scorer.Score(ctx, img.Path)
	if err != nil {
		opLogger.Warn("scoring failed, recording unscored waypoint", zap.Error(err))
		return 0, true
	}

	if score < 0 {
		score = 0
	} else if score > 100 {
		score = 100
	}
	return score, false
}

func (w *Worker) invalidateCache(ctx context.Context, opLogger *zap.Logger) {
	if w.cache == nil {
		return
	}
	if err := w.cache.Invalidate(ctx); err != nil {
		// Stale cache entries expire on their own; never fail the cycle.
		opLogger.Warn("failed to invalidate flights cache", zap.Error(err))
	}
}

func (w *Worker) rejectDelivery(delivery queue.Delivery) {
	if err := delivery.Reject(); err != nil {
		w.logger.Error("failed to reject message", zap.Error(err))
	}
}

// sleep waits for the given duration, returning false if ctx is cancelled
// first.
func (w *Worker) sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}
