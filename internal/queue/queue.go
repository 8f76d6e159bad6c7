// Package queue runs render requests from a redis list. Requests move
// atomically from the jobs list to a processing list while they render, and
// results land in a hash keyed by request ID.
package queue

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/ZacxDev/video-captioner/internal/compositor"
	"github.com/ZacxDev/video-captioner/pkg/types"
	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

var ErrNoResult = errors.New("no result for request")

// Client is the subset of *redis.Client the queue uses.
type Client interface {
	RPopLPush(ctx context.Context, source, destination string) *redis.StringCmd
	LPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
	LRem(ctx context.Context, key string, count int64, value interface{}) *redis.IntCmd
	LRange(ctx context.Context, key string, start, stop int64) *redis.StringSliceCmd
	HSet(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
	HGet(ctx context.Context, key, field string) *redis.StringCmd
}

// Renderer runs one export.
type Renderer interface {
	StartRender(ctx context.Context, video *types.Video, tier types.QualityTier) (string, error)
}

type RenderRequest struct {
	ID         string            `json:"id"`
	Video      types.Video       `json:"video"`
	Tier       types.QualityTier `json:"tier"`
	EnqueuedAt time.Time         `json:"enqueued_at"`
}

type RenderResult struct {
	ID         string    `json:"id"`
	State      string    `json:"state"`
	OutputPath string    `json:"output_path,omitempty"`
	ErrorKind  string    `json:"error_kind,omitempty"`
	Error      string    `json:"error,omitempty"`
	WorkerID   string    `json:"worker_id"`
	FinishedAt time.Time `json:"finished_at"`
}

type Options struct {
	JobsKey       string
	ProcessingKey string
	ResultsKey    string
	Concurrency   int
	PollInterval  time.Duration
}

type Worker struct {
	id       string
	client   Client
	renderer Renderer
	opts     Options
	logger   zerolog.Logger
	wg       sync.WaitGroup
}

// Dial connects to redis and checks the connection.
func Dial(ctx context.Context, url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, errors.Wrap(err, "invalid redis url")
	}
	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrap(err, "failed to reach redis")
	}
	return client, nil
}

func New(client Client, renderer Renderer, opts Options, logger zerolog.Logger) *Worker {
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = 5 * time.Second
	}
	id := uuid.NewString()
	return &Worker{
		id:       id,
		client:   client,
		renderer: renderer,
		opts:     opts,
		logger:   logger.With().Str("worker_id", id).Logger(),
	}
}

// Run processes requests with Concurrency loops until ctx is cancelled, then
// waits for in-flight renders to stop.
func (w *Worker) Run(ctx context.Context) {
	w.logger.Info().Int("concurrency", w.opts.Concurrency).Msg("starting worker")
	for i := 0; i < w.opts.Concurrency; i++ {
		w.wg.Add(1)
		go w.loop(ctx, i)
	}
	w.wg.Wait()
	w.logger.Info().Msg("worker stopped")
}

func (w *Worker) loop(ctx context.Context, n int) {
	defer w.wg.Done()
	logger := w.logger.With().Int("loop", n).Logger()

	for {
		if ctx.Err() != nil {
			return
		}
		processed, err := w.ProcessNext(ctx)
		if err != nil {
			logger.Error().Err(err).Msg("error processing request")
		}
		if processed {
			continue
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(w.opts.PollInterval):
		}
	}
}

// ProcessNext renders one queued request. It reports false when the queue
// was empty.
func (w *Worker) ProcessNext(ctx context.Context) (bool, error) {
	data, err := w.client.RPopLPush(ctx, w.opts.JobsKey, w.opts.ProcessingKey).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrap(err, "failed to pop request")
	}

	var req RenderRequest
	if err := json.Unmarshal([]byte(data), &req); err != nil || req.ID == "" {
		w.logger.Warn().Str("payload", data).Msg("dropping malformed request")
		if rmErr := w.client.LRem(ctx, w.opts.ProcessingKey, 1, data).Err(); rmErr != nil {
			w.logger.Error().Err(rmErr).Msg("failed to drop malformed request")
		}
		if err == nil {
			err = errors.New("request without id")
		}
		return true, errors.Wrap(err, "malformed request")
	}

	logger := w.logger.With().Str("request", req.ID).Str("tier", string(req.Tier)).Logger()
	logger.Info().Str("source", req.Video.Source).Msg("rendering")

	out, renderErr := w.renderer.StartRender(compositor.WithJobID(ctx, req.ID), &req.Video, req.Tier)
	if renderErr != nil && ctx.Err() != nil {
		// Shutting down: leave the request in the processing list for recovery
		logger.Warn().Err(renderErr).Msg("render interrupted by shutdown")
		return true, nil
	}

	result := RenderResult{
		ID:         req.ID,
		State:      string(compositor.StateDone),
		OutputPath: out,
		WorkerID:   w.id,
		FinishedAt: time.Now().UTC(),
	}
	if renderErr != nil {
		result.State = string(compositor.StateFailed)
		result.ErrorKind = string(compositor.KindOf(renderErr))
		result.Error = renderErr.Error()
		logger.Error().Err(renderErr).Str("kind", result.ErrorKind).Msg("render failed")
	} else {
		logger.Info().Str("output", out).Msg("render finished")
	}

	payload, err := json.Marshal(result)
	if err != nil {
		return true, errors.WithStack(err)
	}
	if err := w.client.HSet(ctx, w.opts.ResultsKey, req.ID, payload).Err(); err != nil {
		return true, errors.Wrapf(err, "failed to store result of %s", req.ID)
	}
	if err := w.client.LRem(ctx, w.opts.ProcessingKey, 1, data).Err(); err != nil {
		return true, errors.Wrapf(err, "failed to release %s", req.ID)
	}
	return true, nil
}

// Recover moves every request left in the processing list back onto the
// jobs list. Only call it while no other worker is running.
func (w *Worker) Recover(ctx context.Context) (int, error) {
	stale, err := w.client.LRange(ctx, w.opts.ProcessingKey, 0, -1).Result()
	if err != nil {
		return 0, errors.Wrap(err, "failed to list processing requests")
	}

	for _, data := range stale {
		if err := w.client.LRem(ctx, w.opts.ProcessingKey, 1, data).Err(); err != nil {
			return 0, errors.WithStack(err)
		}
		if err := w.client.LPush(ctx, w.opts.JobsKey, data).Err(); err != nil {
			return 0, errors.WithStack(err)
		}
		w.logger.Info().Msg("requeued stale request")
	}
	return len(stale), nil
}

// Enqueue pushes a request, assigning an ID when it has none.
func Enqueue(ctx context.Context, client Client, jobsKey string, req RenderRequest) (string, error) {
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	if req.EnqueuedAt.IsZero() {
		req.EnqueuedAt = time.Now().UTC()
	}
	payload, err := json.Marshal(req)
	if err != nil {
		return "", errors.WithStack(err)
	}
	if err := client.LPush(ctx, jobsKey, payload).Err(); err != nil {
		return "", errors.Wrap(err, "failed to enqueue request")
	}
	return req.ID, nil
}

// Result returns the stored result of request id.
func Result(ctx context.Context, client Client, resultsKey, id string) (*RenderResult, error) {
	data, err := client.HGet(ctx, resultsKey, id).Result()
	if err == redis.Nil {
		return nil, errors.Wrap(ErrNoResult, id)
	}
	if err != nil {
		return nil, errors.WithStack(err)
	}

	var res RenderResult
	if err := json.Unmarshal([]byte(data), &res); err != nil {
		return nil, errors.WithStack(err)
	}
	return &res, nil
}
