package workers

// Worker is a long-lived background task started at application startup.
type Worker interface {
	// Run starts the worker. Implementations that need to outlive the call
	// spawn their own goroutine and return immediately.
	Run()

	// Stop signals the worker to finish. Safe to call more than once.
	Stop()
}
