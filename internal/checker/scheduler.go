package checker

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/MimoJanra/PortPulse/internal/models"
)

type WatchSource interface {
	GetAll() ([]models.Watch, error)
}

type scheduledWatch struct {
	watch  models.Watch
	ticker *time.Ticker
	stop   chan struct{}
}

// Scheduler probes every enabled watch on its own interval and keeps the set
// of running watches in sync with the source. The worker pool is owned by the
// caller and must be started separately.
type Scheduler struct {
	watches     WatchSource
	workerPool  *WorkerPool
	reloadEvery time.Duration
	scheduled   map[int]*scheduledWatch
	stopChan    chan struct{}
	mu          sync.Mutex
	running     bool
}

func NewScheduler(watches WatchSource, pool *WorkerPool) *Scheduler {
	return &Scheduler{
		watches:     watches,
		workerPool:  pool,
		reloadEvery: 30 * time.Second,
		scheduled:   make(map[int]*scheduledWatch),
	}
}

func (s *Scheduler) Start() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	stop := make(chan struct{})
	s.stopChan = stop
	s.mu.Unlock()

	log.Info().Msg("scheduler started")

	s.Reload()

	go s.watchForChanges(stop)
}

func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	close(s.stopChan)

	for id, sw := range s.scheduled {
		s.unschedule(id, sw)
	}
	s.mu.Unlock()

	log.Info().Msg("scheduler stopped")
}

// Reload reconciles running watches with the source.
func (s *Scheduler) Reload() {
	watches, err := s.watches.GetAll()
	if err != nil {
		log.Error().Err(err).Msg("failed to load watches")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}

	current := make(map[int]bool, len(watches))
	for _, w := range watches {
		current[w.ID] = true

		existing, exists := s.scheduled[w.ID]
		if !w.Enabled {
			if exists {
				s.unschedule(w.ID, existing)
			}
			continue
		}
		if exists && existing.watch == w {
			continue
		}
		if exists {
			s.unschedule(w.ID, existing)
		}
		s.schedule(w)
	}

	for id, sw := range s.scheduled {
		if !current[id] {
			s.unschedule(id, sw)
		}
	}
}

func (s *Scheduler) Scheduled() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.scheduled)
}

func (s *Scheduler) schedule(w models.Watch) {
	interval := time.Duration(w.IntervalSeconds) * time.Second
	if interval <= 0 {
		interval = 60 * time.Second
	}

	sw := &scheduledWatch{
		watch:  w,
		ticker: time.NewTicker(interval),
		stop:   make(chan struct{}),
	}
	s.scheduled[w.ID] = sw

	go s.runWatch(w)

	go func(sw *scheduledWatch, global chan struct{}) {
		for {
			select {
			case <-sw.ticker.C:
				s.runWatch(sw.watch)
			case <-sw.stop:
				return
			case <-global:
				return
			}
		}
	}(sw, s.stopChan)

	log.Debug().
		Int("watch_id", w.ID).
		Str("target", w.Target).
		Int("port", w.Port).
		Dur("interval", interval).
		Msg("watch scheduled")
}

func (s *Scheduler) unschedule(id int, sw *scheduledWatch) {
	sw.ticker.Stop()
	close(sw.stop)
	delete(s.scheduled, id)
}

func (s *Scheduler) runWatch(w models.Watch) {
	id := w.ID
	s.workerPool.Submit(ProbeJob{
		Request: w.Request(),
		WatchID: &id,
	})
}

func (s *Scheduler) watchForChanges(stop chan struct{}) {
	ticker := time.NewTicker(s.reloadEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.Reload()
		case <-stop:
			return
		}
	}
}
