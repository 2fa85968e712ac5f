// Package taskrunner executes dub tasks with a bounded in-process worker
// pool, the default execution path when no Redis queue is configured.
package taskrunner

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"echodub/internal/dto"
	"echodub/internal/service"
	"echodub/log"
)

const (
	defaultQueueSize   = 128
	defaultConcurrency = 2
)

var (
	ErrRunnerStopped = errors.New("task runner stopped")
	ErrQueueFull     = errors.New("task queue is full")
)

// Config controls in-process task runner behavior.
type Config struct {
	QueueSize   int
	Concurrency int
}

func DefaultConfig() Config {
	return Config{
		QueueSize:   defaultQueueSize,
		Concurrency: defaultConcurrency,
	}
}

type queuedTask struct {
	taskId string
	req    dto.StartDubTaskReq
}

// Runner executes queued dub tasks with in-memory workers.
type Runner struct {
	service *service.Service
	config  Config

	queue  chan queuedTask
	ctx    context.Context
	cancel context.CancelFunc

	workerWg sync.WaitGroup
	closed   atomic.Bool
}

// New creates and starts a task runner.
func New(svc *service.Service, cfg Config) *Runner {
	if svc == nil {
		svc = service.NewService()
	}

	cfg = normalizeConfig(cfg)
	ctx, cancel := context.WithCancel(context.Background())

	runner := &Runner{
		service: svc,
		config:  cfg,
		queue:   make(chan queuedTask, cfg.QueueSize),
		ctx:     ctx,
		cancel:  cancel,
	}

	for i := 0; i < cfg.Concurrency; i++ {
		runner.workerWg.Add(1)
		go runner.worker(i + 1)
	}

	return runner
}

func normalizeConfig(cfg Config) Config {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = defaultQueueSize
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = defaultConcurrency
	}
	return cfg
}

// SubmitDubTask persists the task record and queues its run. The returned
// task id is immediately queryable even before a worker picks the run up.
func (r *Runner) SubmitDubTask(req dto.StartDubTaskReq) (string, error) {
	if r.closed.Load() {
		return "", ErrRunnerStopped
	}

	taskId, err := r.service.PrepareDubTask(&req)
	if err != nil {
		return "", err
	}

	select {
	case <-r.ctx.Done():
		return "", ErrRunnerStopped
	case r.queue <- queuedTask{taskId: taskId, req: req}:
		log.GetLogger().Info("[TaskRunner] task submitted",
			zap.String("task_id", taskId))
		return taskId, nil
	default:
		return "", ErrQueueFull
	}
}

func (r *Runner) worker(workerID int) {
	defer r.workerWg.Done()

	for {
		select {
		case <-r.ctx.Done():
			return
		default:
		}

		select {
		case <-r.ctx.Done():
			return
		case task := <-r.queue:
			r.processTask(workerID, task)
		}
	}
}

func (r *Runner) processTask(workerID int, task queuedTask) {
	if err := r.service.RunDubTask(task.taskId, task.req); err != nil {
		log.GetLogger().Error("[TaskRunner] task failed",
			zap.Int("worker_id", workerID),
			zap.String("task_id", task.taskId),
			zap.Error(err))
		return
	}

	log.GetLogger().Info("[TaskRunner] task completed",
		zap.Int("worker_id", workerID),
		zap.String("task_id", task.taskId))
}

// Close stops workers and rejects new tasks.
func (r *Runner) Close() {
	if !r.closed.CompareAndSwap(false, true) {
		return
	}

	r.cancel()
	r.workerWg.Wait()
}

// Pending returns the number of queued tasks waiting for workers.
func (r *Runner) Pending() int {
	return len(r.queue)
}
