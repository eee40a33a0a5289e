package queue

import (
	"time"
)

// This file contains the background goroutine loop wrapper. The logic inside
// the loop (next, processItem) is tested directly.

// dispatchLoop drains the queue each time it is signalled
func (q *Queue) dispatchLoop() {
	defer q.wg.Done()

	for {
		select {
		case <-q.wake:
			q.drain()
		case <-q.ctx.Done():
			return
		}
	}
}

// drain processes items one at a time until the queue is empty, pausing
// RedispatchDelay between items
func (q *Queue) drain() {
	for {
		item := q.next()
		if item == nil {
			return
		}
		q.processItem(item)

		if q.Len() == 0 {
			q.logger.Debug("All requests processed")
			return
		}

		timer := time.NewTimer(q.cfg.RedispatchDelay)
		select {
		case <-timer.C:
		case <-q.ctx.Done():
			timer.Stop()
			return
		}
	}
}
