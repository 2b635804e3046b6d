package scheduler

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/mingleapp/mingle-server/pkg/logger"
)

// Job is one named fixed-interval routine.
type Job struct {
	Name     string
	Interval time.Duration
	Handler  func()
}

type managedJob struct {
	Job
	inFlight atomic.Bool
}

// Scheduler runs each registered job once at startup and then on a fixed
// ticker. A tick that arrives while the previous invocation of the same
// job is still running is skipped, not queued: at most one execution per
// job at a time. The guard is in-process only — running multiple scheduler
// instances needs an external lease, which this does not provide.
type Scheduler struct {
	jobs    []*managedJob
	stop    chan struct{}
	wg      sync.WaitGroup
	started bool
}

func New() *Scheduler {
	return &Scheduler{
		stop: make(chan struct{}),
	}
}

// Register adds a job. Must be called before Start.
func (s *Scheduler) Register(job Job) {
	s.jobs = append(s.jobs, &managedJob{Job: job})
}

// Start launches every registered job: one immediate run, then one run per
// interval tick.
func (s *Scheduler) Start() {
	if s.started {
		return
	}
	s.started = true

	for _, job := range s.jobs {
		s.wg.Add(1)
		go s.runLoop(job)
		logger.Info("Scheduled job", "job", job.Name, "interval", job.Interval.String())
	}
}

// Stop halts all tickers and waits for in-flight handlers to finish.
func (s *Scheduler) Stop() {
	if !s.started {
		return
	}
	close(s.stop)
	s.wg.Wait()
}

func (s *Scheduler) runLoop(job *managedJob) {
	defer s.wg.Done()

	s.dispatch(job)

	ticker := time.NewTicker(job.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.dispatch(job)
		case <-s.stop:
			return
		}
	}
}

func (s *Scheduler) dispatch(job *managedJob) {
	if !job.inFlight.CompareAndSwap(false, true) {
		logger.Warn("Job still running, skipping tick", "job", job.Name)
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer job.inFlight.Store(false)
		defer func() {
			if r := recover(); r != nil {
				logger.Error("Panic in job handler", "job", job.Name, "error", r)
			}
		}()

		job.Handler()
	}()
}
