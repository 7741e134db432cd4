package api

import (
	"context"
	"os"
	"strconv"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// job is a batch of slice operations for one user, run in order by a single worker.
type job struct {
	userID string
	steps  []func(ctx context.Context)
}

func (j job) run(ctx context.Context) {
	for _, step := range j.steps {
		step(ctx)
	}
}

// DispatcherConfig tunes the worker pool.
type DispatcherConfig struct {
	Workers int
	Buffer  int
	// Handoff is how long a submit may wait for buffer space before the
	// caller runs the job itself.
	Handoff time.Duration
}

// DispatcherConfigFromEnv reads DISPATCH_WORKERS, DISPATCH_BUFFER and
// DISPATCH_HANDOFF_TIMEOUT, falling back to defaults.
func DispatcherConfigFromEnv() DispatcherConfig {
	return DispatcherConfig{
		Workers: envInt("DISPATCH_WORKERS", 32),
		Buffer:  envInt("DISPATCH_BUFFER", 4096),
		Handoff: envDur("DISPATCH_HANDOFF_TIMEOUT", 15*time.Millisecond),
	}
}

// Dispatcher runs asynchronous slice operations off the request goroutine.
// Jobs run on a background context: a resolved remote call is always applied,
// even after the client disconnected.
type Dispatcher struct {
	jobs    chan job
	handoff time.Duration
	logger  *log.Logger

	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewDispatcher starts the workers.
func NewDispatcher(cfg DispatcherConfig, logger *log.Logger) *Dispatcher {
	if logger == nil {
		panic("Logger is not initialized")
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.Buffer < 0 {
		cfg.Buffer = 0
	}
	d := &Dispatcher{
		jobs:    make(chan job, cfg.Buffer),
		handoff: cfg.Handoff,
		logger:  logger,
	}
	for i := 0; i < cfg.Workers; i++ {
		d.wg.Add(1)
		go d.worker(i)
	}
	logger.Infof("command dispatcher started, workers: %d, buffer: %d, handoff: %v", cfg.Workers, cfg.Buffer, cfg.Handoff)
	return d
}

func (d *Dispatcher) worker(id int) {
	defer d.wg.Done()
	for j := range d.jobs {
		d.logger.WithFields(log.Fields{"worker": id, "user": j.userID, "steps": len(j.steps)}).Debug("running dispatched job")
		j.run(context.Background())
	}
}

// Close stops accepting jobs and waits for queued ones to finish.
func (d *Dispatcher) Close() {
	d.closeOnce.Do(func() {
		close(d.jobs)
	})
	d.wg.Wait()
}

// trySubmit hands j to the pool. It reports false when the buffer stayed
// full for the handoff period or the pool is closed.
func (d *Dispatcher) trySubmit(j job) bool {
	if d == nil {
		return false
	}
	if ok, closed := trySendNonBlocking(d.jobs, j); closed {
		return false
	} else if ok {
		return true
	}
	if d.handoff <= 0 {
		return false
	}

	timer := time.NewTimer(d.handoff)
	defer timer.Stop()
	ok, _ := sendWithTimer(d.jobs, j, timer.C)
	return ok
}

// Sending on a closed channel panics; both helpers turn that into closed=true.
func trySendNonBlocking(ch chan job, j job) (ok bool, closed bool) {
	defer func() {
		if r := recover(); r != nil {
			ok, closed = false, true
		}
	}()
	select {
	case ch <- j:
		return true, false
	default:
		return false, false
	}
}

func sendWithTimer(ch chan job, j job, timer <-chan time.Time) (ok bool, closed bool) {
	defer func() {
		if r := recover(); r != nil {
			ok, closed = false, true
		}
	}()
	select {
	case ch <- j:
		return true, false
	case <-timer:
		return false, false
	}
}

func envInt(name string, def int) int {
	if v := os.Getenv(name); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
		log.Warnf("ignoring invalid %s=%q", name, v)
	}
	return def
}

func envDur(name string, def time.Duration) time.Duration {
	if v := os.Getenv(name); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d >= 0 {
			return d
		}
		log.Warnf("ignoring invalid %s=%q", name, v)
	}
	return def
}
