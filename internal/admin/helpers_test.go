package admin

import (
	"sync"
	"time"

	"github.com/AltairaLabs/codegen-suggest/internal/queue"
	"github.com/AltairaLabs/codegen-suggest/internal/suggest"
)

type fakeQueue struct {
	mu      sync.Mutex
	waiting int
	clears  int
}

func (f *fakeQueue) Stats() queue.Stats {
	f.mu.Lock()
	defer f.mu.Unlock()
	items := make([]queue.ItemSnapshot, 0, f.waiting)
	for i := 0; i < f.waiting; i++ {
		items = append(items, queue.ItemSnapshot{
			ID:        int64(i + 1),
			UserID:    "user",
			ChannelID: "channel",
			Status:    queue.ItemStatusQueued,
		})
	}
	return queue.Stats{
		QueueLength:   f.waiting,
		IsProcessing:  true,
		TotalAdmitted: 9,
		Items:         items,
	}
}

func (f *fakeQueue) Clear() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := f.waiting
	f.waiting = 0
	f.clears++
	return n
}

type fakeConfig struct{}

func (fakeConfig) Info() suggest.Info {
	return suggest.Info{
		Configured:     true,
		Model:          "gemini-test",
		MaxRetries:     2,
		Timeout:        30 * time.Second,
		MaxInputLength: 10000,
	}
}
