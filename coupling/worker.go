package coupling

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/deepexcav/femadapt/field"
)

// TaskType identifies an exchange task.
type TaskType string

const (
	TaskFEMToPINN         TaskType = "fem_to_pinn"
	TaskPINNToFEM         TaskType = "pinn_to_fem"
	TaskParameterExchange TaskType = "parameter_exchange"
)

// Task is one unit of exchange work. Tasks are created by a producer,
// consumed exactly once in FIFO order, and never mutated after
// enqueue.
type Task struct {
	ID   uuid.UUID
	Type TaskType

	// Data carries the fields for the two projection task types.
	Data map[string]field.Field

	// Variables optionally restricts projection to named fields.
	Variables []string

	// FEMParams/PINNParams carry the inputs of a parameter exchange.
	FEMParams  map[string]any
	PINNParams map[string]any

	// Save persists the task's output as an exchange artifact before
	// the callback fires.
	Save bool
}

// worker is the single background consumer of an interface's exchange
// queue. Exactly one worker per interface serializes every mutation of
// the mapping operators, so no further locking is needed around them.
type worker struct {
	c     *Interface
	tasks chan Task
	quit  chan struct{}
	wg    sync.WaitGroup
}

func newWorker(c *Interface, queueSize int) *worker {
	return &worker{
		c:     c,
		tasks: make(chan Task, queueSize),
		quit:  make(chan struct{}),
	}
}

func (w *worker) start() {
	w.wg.Add(1)
	go w.run()
	w.c.status.SetRealtimeStatus("running")
	w.c.log.Info("exchange worker started", "queue_size", cap(w.tasks))
}

// stop requests a cooperative shutdown and waits for the worker to
// exit. An in-flight task runs to completion; queued tasks are
// dropped.
func (w *worker) stop() {
	close(w.quit)
	w.wg.Wait()
}

func (w *worker) run() {
	defer w.wg.Done()
	for {
		select {
		case <-w.quit:
			w.c.log.Info("exchange worker stopped")
			return
		case task := <-w.tasks:
			w.process(task)
		}
	}
}

// process executes one task. Panics are contained to the task: they
// are logged and the loop continues.
func (w *worker) process(task Task) {
	defer func() {
		if r := recover(); r != nil {
			w.c.log.Error("exchange task failed",
				"task", task.ID.String(), "type", string(task.Type), "panic", fmt.Sprint(r))
		}
	}()

	cb := w.c.getCallbacks()
	switch task.Type {
	case TaskFEMToPINN:
		out := w.c.FEMToPINN(task.Data, task.Variables)
		if task.Save {
			w.c.SaveExchangeData(out, "pinn", "")
		}
		if cb.OnPINNData != nil {
			cb.OnPINNData(out)
		}
	case TaskPINNToFEM:
		out := w.c.PINNToFEM(task.Data, task.Variables)
		if task.Save {
			w.c.SaveExchangeData(out, "fem", "")
		}
		if cb.OnFEMData != nil {
			cb.OnFEMData(out)
		}
	case TaskParameterExchange:
		merged := w.c.ExchangeParameters(task.FEMParams, task.PINNParams)
		if cb.OnParameterUpdate != nil {
			cb.OnParameterUpdate(merged)
		}
	default:
		w.c.log.Error("unknown task type", "task", task.ID.String(), "type", string(task.Type))
	}
}

// AddExchangeTask enqueues a task for the background worker. It fails
// when real-time mode is disabled (no worker exists to consume it),
// when the task type is missing, or when the bounded queue is full.
func (c *Interface) AddExchangeTask(task Task) bool {
	if !c.realtime || c.worker == nil {
		c.log.Error("real-time exchange not enabled, rejecting task")
		return false
	}
	if task.Type == "" {
		c.log.Error("task missing type, rejecting")
		return false
	}
	if task.ID == uuid.Nil {
		task.ID = uuid.New()
	}

	select {
	case c.worker.tasks <- task:
		c.log.Debug("exchange task enqueued",
			"task", task.ID.String(), "type", string(task.Type))
		return true
	default:
		c.log.Error("exchange queue full, rejecting task",
			"task", task.ID.String(), "capacity", cap(c.worker.tasks))
		return false
	}
}

// Drain blocks until every task enqueued before the call has been
// processed, or the timeout elapses. Intended for tests and orderly
// shutdown.
func (c *Interface) Drain(timeout time.Duration) bool {
	if c.worker == nil {
		return true
	}
	deadline := time.Now().Add(timeout)
	for len(c.worker.tasks) > 0 {
		if time.Now().After(deadline) {
			return false
		}
		time.Sleep(time.Millisecond)
	}
	// The channel is empty; give the in-flight task a moment.
	time.Sleep(5 * time.Millisecond)
	return true
}
