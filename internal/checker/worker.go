package checker

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/MimoJanra/PortPulse/internal/models"
)

var ErrPoolStopped = errors.New("worker pool stopped")

const defaultAlertThreshold = 5

// ResultStore persists probe outcomes produced by the pool.
type ResultStore interface {
	Add(rec models.Record) (models.Record, error)
}

// Alerter is told when a target reaches the failure threshold and when it
// recovers afterwards.
type Alerter interface {
	Notify(ctx context.Context, alert models.Alert) error
}

type WorkerPool struct {
	workers        int
	prober         *Prober
	store          ResultStore
	alerter        Alerter
	alertThreshold int
	jobQueue       chan ProbeJob
	wg             sync.WaitGroup
	stopChan       chan struct{}
	stopOnce       sync.Once
	targetStats    map[string]*TargetMetrics
	metricsMu      sync.RWMutex
}

type TargetMetrics struct {
	mu              sync.Mutex
	failureStreak   int
	lastFailureTime time.Time
	averageDuration time.Duration
	sampleCount     int
	lastProbeTime   time.Time
}

type ProbeJob struct {
	// Ctx bounds the job. Jobs whose Ctx is done are skipped and not stored.
	// A nil Ctx means the job runs to its own timeout.
	Ctx     context.Context
	Request models.ProbeRequest
	WatchID *int
	BatchID string
	OnDone  func(models.ProbeResult)
}

// NewWorkerPool builds a pool of workers sharing prober. store may be nil, in
// which case results are only handed to job callbacks.
func NewWorkerPool(workers int, prober *Prober, store ResultStore) *WorkerPool {
	if workers < 1 {
		workers = 1
	}
	return &WorkerPool{
		workers:        workers,
		prober:         prober,
		store:          store,
		alertThreshold: defaultAlertThreshold,
		jobQueue:       make(chan ProbeJob, 100),
		stopChan:       make(chan struct{}),
		targetStats:    make(map[string]*TargetMetrics),
	}
}

// SetAlerter must be called before Start. A threshold below 1 keeps the default.
func (wp *WorkerPool) SetAlerter(alerter Alerter, threshold int) {
	wp.alerter = alerter
	if threshold >= 1 {
		wp.alertThreshold = threshold
	}
}

func (wp *WorkerPool) Start() {
	for i := 0; i < wp.workers; i++ {
		wp.wg.Add(1)
		go wp.worker(i)
	}
}

func (wp *WorkerPool) Stop() {
	wp.stopOnce.Do(func() {
		close(wp.stopChan)
	})
	wp.wg.Wait()
}

// Submit enqueues job without blocking. Jobs are dropped when the queue is full.
func (wp *WorkerPool) Submit(job ProbeJob) bool {
	select {
	case <-wp.stopChan:
		return false
	default:
	}

	select {
	case wp.jobQueue <- job:
		return true
	case <-wp.stopChan:
		return false
	default:
		log.Warn().
			Str("target", job.Request.Target).
			Int("port", job.Request.Port).
			Msg("worker pool queue full, dropping probe")
		return false
	}
}

// SubmitWait enqueues job, blocking until there is room, ctx ends or the pool stops.
func (wp *WorkerPool) SubmitWait(ctx context.Context, job ProbeJob) error {
	select {
	case wp.jobQueue <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-wp.stopChan:
		return ErrPoolStopped
	}
}

// ProbeMany runs every request through the pool and returns results in input
// order. All requests are validated before any of them is dispatched.
func (wp *WorkerPool) ProbeMany(ctx context.Context, reqs []models.ProbeRequest, batchID string) ([]models.ProbeResult, error) {
	for i := range reqs {
		if err := reqs[i].Validate(); err != nil {
			return nil, fmt.Errorf("probe %d: %w", i, err)
		}
	}

	type indexed struct {
		idx int
		res models.ProbeResult
	}
	out := make(chan indexed, len(reqs))

	for i, req := range reqs {
		job := ProbeJob{
			Ctx:     ctx,
			Request: req,
			BatchID: batchID,
			OnDone: func(res models.ProbeResult) {
				out <- indexed{idx: i, res: res}
			},
		}
		if err := wp.SubmitWait(ctx, job); err != nil {
			return nil, err
		}
	}

	results := make([]models.ProbeResult, len(reqs))
	for n := 0; n < len(reqs); n++ {
		select {
		case r := <-out:
			results[r.idx] = r.res
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-wp.stopChan:
			return nil, ErrPoolStopped
		}
	}
	return results, nil
}

func (wp *WorkerPool) worker(id int) {
	defer wp.wg.Done()

	for {
		select {
		case <-wp.stopChan:
			return
		case job := <-wp.jobQueue:
			wp.executeProbe(job)
		}
	}
}

func (wp *WorkerPool) executeProbe(job ProbeJob) {
	ctx := job.Ctx
	if ctx == nil {
		ctx = context.Background()
	}
	if ctx.Err() != nil {
		log.Debug().
			Str("target", job.Request.Target).
			Int("port", job.Request.Port).
			Msg("skipping cancelled probe job")
		return
	}

	res, err := wp.prober.Probe(ctx, job.Request)
	if err != nil {
		log.Error().
			Err(err).
			Str("target", job.Request.Target).
			Int("port", job.Request.Port).
			Msg("rejected probe job")
		return
	}
	// A result cut short by the caller says nothing about the target.
	if ctx.Err() != nil {
		return
	}

	if wp.store != nil {
		rec := models.Record{
			WatchID:     job.WatchID,
			BatchID:     job.BatchID,
			ProbeResult: res,
		}
		if _, err := wp.store.Add(rec); err != nil {
			log.Error().Err(err).Str("target", res.Target).Int("port", res.Port).Msg("failed to save probe result")
		}
	}

	if alert := wp.updateMetrics(res); alert != nil {
		wp.sendAlert(*alert)
	}

	if job.OnDone != nil {
		job.OnDone(res)
	}
}

func metricsKey(target string, port int) string {
	return net.JoinHostPort(target, strconv.Itoa(port))
}

// updateMetrics returns an alert when res crosses the failure threshold or
// ends a streak that had crossed it.
func (wp *WorkerPool) updateMetrics(res models.ProbeResult) *models.Alert {
	key := metricsKey(res.Target, res.Port)

	wp.metricsMu.Lock()
	metrics, exists := wp.targetStats[key]
	if !exists {
		metrics = &TargetMetrics{}
		wp.targetStats[key] = metrics
	}
	wp.metricsMu.Unlock()

	metrics.mu.Lock()
	defer metrics.mu.Unlock()

	now := time.Now()
	duration := time.Duration(res.DurationMS) * time.Millisecond

	previousStreak := metrics.failureStreak
	if res.Succeeded() {
		metrics.failureStreak = 0
	} else {
		metrics.failureStreak++
		metrics.lastFailureTime = now
	}

	if metrics.sampleCount < 10 {
		metrics.sampleCount++
		metrics.averageDuration = (metrics.averageDuration*time.Duration(metrics.sampleCount-1) + duration) / time.Duration(metrics.sampleCount)
	} else {
		alpha := 0.2
		metrics.averageDuration = time.Duration(float64(metrics.averageDuration)*(1-alpha) + float64(duration)*alpha)
	}

	metrics.lastProbeTime = now

	switch {
	case metrics.failureStreak == wp.alertThreshold:
		log.Warn().
			Str("address", key).
			Int("failures", metrics.failureStreak).
			Dur("avg_duration", metrics.averageDuration).
			Msg("target failing repeatedly")
		return newAlert(res, metrics.failureStreak, false)
	case res.Succeeded() && previousStreak >= wp.alertThreshold:
		log.Info().
			Str("address", key).
			Int("failures", previousStreak).
			Msg("target recovered")
		return newAlert(res, previousStreak, true)
	}
	return nil
}

func newAlert(res models.ProbeResult, failures int, recovered bool) *models.Alert {
	return &models.Alert{
		Target:     res.Target,
		Port:       res.Port,
		Status:     res.ConnectionStatus,
		Failures:   failures,
		Recovered:  recovered,
		Error:      res.Error,
		DurationMS: res.DurationMS,
		CheckedAt:  res.CheckedAt,
	}
}

func (wp *WorkerPool) sendAlert(alert models.Alert) {
	if wp.alerter == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := wp.alerter.Notify(ctx, alert); err != nil {
		log.Error().
			Err(err).
			Str("target", alert.Target).
			Int("port", alert.Port).
			Msg("failed to send alert")
	}
}

// FailureStreak returns the number of consecutive failed probes seen for target:port.
func (wp *WorkerPool) FailureStreak(target string, port int) int {
	wp.metricsMu.RLock()
	metrics, ok := wp.targetStats[metricsKey(target, port)]
	wp.metricsMu.RUnlock()
	if !ok {
		return 0
	}
	metrics.mu.Lock()
	defer metrics.mu.Unlock()
	return metrics.failureStreak
}
