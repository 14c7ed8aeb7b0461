package workers

// Workers is an aggregate that holds a collection of Worker instances and
// starts or stops all of them together.
type Workers struct {
	workers []Worker
}

// NewWorkers constructs an aggregate over the given workers.
func NewWorkers(ws ...Worker) *Workers {
	return &Workers{workers: ws}
}

// Run starts all registered workers in the order they were added.
func (w *Workers) Run() {
	for _, worker := range w.workers {
		worker.Run()
	}
}

// Stop stops all registered workers in reverse order.
func (w *Workers) Stop() {
	for i := len(w.workers) - 1; i >= 0; i-- {
		w.workers[i].Stop()
	}
}
