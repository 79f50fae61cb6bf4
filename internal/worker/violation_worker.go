package worker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/hiremind/hiremind-backend/internal/config"
	"github.com/hiremind/hiremind-backend/internal/metrics"
	"github.com/hiremind/hiremind-backend/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	BatchSize    = 50
	BatchTimeout = 2 * time.Second
	PollTimeout  = 1 * time.Second // Must be >= 1s to satisfy Redis
)

var violationColumns = []string{"user_id", "quiz_id", "kind", "message", "strike", "recorded_at"}

// ViolationStore is the subset of pgxpool.Pool the worker writes through.
type ViolationStore interface {
	CopyFrom(ctx context.Context, table pgx.Identifier, columns []string, src pgx.CopyFromSource) (int64, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// ViolationWorker drains persist_violations_queue into the quiz_violations
// audit table in batches.
type ViolationWorker struct {
	store ViolationStore
	rdb   *redis.Client
	log   zerolog.Logger

	// retryPause is how long the worker backs off after a Redis error or a requeue.
	retryPause time.Duration
}

func NewViolationWorker(store ViolationStore, rdb *redis.Client, log zerolog.Logger) *ViolationWorker {
	return &ViolationWorker{
		store:      store,
		rdb:        rdb,
		log:        log.With().Str("component", "violation_worker").Logger(),
		retryPause: 2 * time.Second,
	}
}

// Start consumes the queue until ctx is cancelled, then flushes what it holds.
func (w *ViolationWorker) Start(ctx context.Context) {
	w.log.Info().Msg("ViolationWorker started")

	buffer := make([]model.ViolationLog, 0, BatchSize)
	lastFlushTime := time.Now()

	for {
		if len(buffer) > 0 && (len(buffer) >= BatchSize || time.Since(lastFlushTime) >= BatchTimeout) {
			w.flushSafe(ctx, buffer)
			buffer = buffer[:0]
			lastFlushTime = time.Now()
		}

		select {
		case <-ctx.Done():
			w.shutdown(buffer)
			return
		default:
		}

		// BLPop blocks for PollTimeout and returns immediately if data exists.
		result, err := w.rdb.BLPop(ctx, PollTimeout, config.WorkerKey.PersistViolationsQueue).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			if ctx.Err() != nil {
				w.shutdown(buffer)
				return
			}
			w.log.Error().Err(err).Msg("Redis connection error, backing off")
			w.pause(ctx)
			continue
		}
		if len(result) < 2 {
			continue
		}

		var v model.ViolationLog
		if err := json.Unmarshal([]byte(result[1]), &v); err != nil {
			// Malformed payloads cannot be retried.
			w.log.Error().Err(err).Str("data", result[1]).Msg("Discarding malformed violation")
			continue
		}
		buffer = append(buffer, v)
	}
}

// flushSafe tries a bulk copy, then row-by-row inserts, then a requeue.
func (w *ViolationWorker) flushSafe(ctx context.Context, batch []model.ViolationLog) {
	if err := w.bulkInsert(ctx, batch); err != nil {
		w.log.Warn().Err(err).Int("count", len(batch)).Msg("Bulk insert failed, attempting row-by-row recovery")
		w.fallbackInsert(ctx, batch)
		return
	}
	metrics.PersistedViolationsTotal.WithLabelValues("copied").Add(float64(len(batch)))
}

func (w *ViolationWorker) bulkInsert(ctx context.Context, batch []model.ViolationLog) error {
	rows := make([][]any, 0, len(batch))
	for _, v := range batch {
		quizID, err := uuid.Parse(v.QuizID)
		if err != nil {
			// The fallback drops the bad row individually.
			return err
		}
		rows = append(rows, []any{v.UserID, quizID, v.Kind, v.Message, v.Strike, v.RecordedAt})
	}

	_, err := w.store.CopyFrom(ctx, pgx.Identifier{"quiz_violations"}, violationColumns, pgx.CopyFromRows(rows))
	return err
}

func (w *ViolationWorker) fallbackInsert(ctx context.Context, batch []model.ViolationLog) {
	var requeueList []model.ViolationLog

	for _, v := range batch {
		quizID, err := uuid.Parse(v.QuizID)
		if err != nil {
			w.log.Error().Str("quiz_id", v.QuizID).Msg("Dropping violation with invalid quiz ID")
			metrics.PersistedViolationsTotal.WithLabelValues("dropped").Inc()
			continue
		}

		_, err = w.store.Exec(ctx,
			`INSERT INTO quiz_violations (user_id, quiz_id, kind, message, strike, recorded_at)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			v.UserID, quizID, v.Kind, v.Message, v.Strike, v.RecordedAt,
		)
		if err != nil {
			w.log.Error().Err(err).Int("user_id", v.UserID).Msg("Insert failed, requeueing")
			requeueList = append(requeueList, v)
			continue
		}
		metrics.PersistedViolationsTotal.WithLabelValues("inserted").Inc()
	}

	if len(requeueList) > 0 {
		w.requeue(ctx, requeueList)
	}
}

func (w *ViolationWorker) requeue(ctx context.Context, items []model.ViolationLog) {
	pipe := w.rdb.Pipeline()
	for _, v := range items {
		data, _ := json.Marshal(v)
		pipe.RPush(ctx, config.WorkerKey.PersistViolationsQueue, data)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		w.log.Error().Err(err).Int("count", len(items)).Msg("CRITICAL: Failed to requeue violations, audit rows lost")
		metrics.PersistedViolationsTotal.WithLabelValues("lost").Add(float64(len(items)))
		return
	}
	w.log.Info().Int("count", len(items)).Msg("Requeued failed violations")
	metrics.PersistedViolationsTotal.WithLabelValues("requeued").Add(float64(len(items)))
	w.pause(ctx)
}

func (w *ViolationWorker) pause(ctx context.Context) {
	t := time.NewTimer(w.retryPause)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

func (w *ViolationWorker) shutdown(buffer []model.ViolationLog) {
	w.log.Info().Int("pending", len(buffer)).Msg("Worker stopping, flushing remaining buffer")
	if len(buffer) == 0 {
		return
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	w.flushSafe(shutdownCtx, buffer)
}
