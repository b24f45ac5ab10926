package shutdown

// Queue runs submitted actions one at a time on its own goroutine, off the UI
// thread. Once the manager starts shutting down, new and still-queued actions
// are dropped. Register the queue after the components its actions use so
// Shutdown closes it first.
type Queue struct {
	manager *Manager
	actions chan func()
	stopped chan struct{}
}

func NewQueue(m *Manager, size int) *Queue {
	q := &Queue{
		manager: m,
		actions: make(chan func(), size),
		stopped: make(chan struct{}),
	}
	go q.loop()
	return q
}

func (q *Queue) loop() {
	defer close(q.stopped)

	for {
		select {
		case <-q.manager.Done():
			return
		case fn := <-q.actions:
			select {
			case <-q.manager.Done():
				return
			default:
			}
			fn()
		}
	}
}

// Submit queues fn and reports whether it was accepted.
func (q *Queue) Submit(fn func()) bool {
	select {
	case <-q.manager.Done():
	default:
		select {
		case q.actions <- fn:
			return true
		case <-q.manager.Done():
		}
	}

	q.manager.logger.Debug("ActionQueue", "action dropped after shutdown", nil)
	return false
}

func (q *Queue) Name() string {
	return "ActionQueue"
}

// Close waits for the running action to return.
func (q *Queue) Close() error {
	<-q.stopped
	return nil
}
