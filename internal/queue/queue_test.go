package queue

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AltairaLabs/codegen-suggest/internal/config"
	"github.com/AltairaLabs/codegen-suggest/internal/suggest"
)

func TestEnqueueAssignsFIFOPositions(t *testing.T) {
	q := New(newGatedSuggester(), nil, nil, testQueueConfig())

	for i, ch := range []string{"a", "b", "c"} {
		res := q.Enqueue("user-"+ch, ch, "code "+ch, time.Time{})
		assert.False(t, res.Duplicate)
		assert.Equal(t, int64(i+1), res.ID)
		assert.Equal(t, i+1, res.Position)
		assert.Equal(t, i+1, res.QueueLength)
	}

	status := q.StatusFor("b")
	assert.True(t, status.InQueue)
	assert.Equal(t, 2, status.Position)
	assert.Equal(t, 3, status.QueueLength)
	assert.Equal(t, int64(2), status.RequestID)
}

func TestEstimatedWaitTime(t *testing.T) {
	q := New(newGatedSuggester(), nil, nil, testQueueConfig())
	for i := 0; i < 5; i++ {
		q.Enqueue("u", fmt.Sprintf("ch-%d", i), "code", time.Now())
	}

	for i := 0; i < 5; i++ {
		status := q.StatusFor(fmt.Sprintf("ch-%d", i))
		assert.Equal(t, status.Position*3, status.EstimatedWaitTime)
	}
}

func TestStatusForUnknownChannel(t *testing.T) {
	q := New(newGatedSuggester(), nil, nil, testQueueConfig())
	q.Enqueue("u", "a", "code", time.Now())

	status := q.StatusFor("missing")
	assert.False(t, status.InQueue)
	assert.Zero(t, status.Position)
	assert.Zero(t, status.EstimatedWaitTime)
	assert.Equal(t, 1, status.QueueLength)
}

func TestEnqueueDuplicateChannel(t *testing.T) {
	notifier := &recordingNotifier{}
	q := New(newGatedSuggester(), notifier, nil, testQueueConfig())

	q.Enqueue("u1", "other", "first", time.Now())
	first := q.Enqueue("u2", "a", "code", time.Now())
	notifier.reset()

	second := q.Enqueue("u2", "a", "different code", time.Now())

	assert.True(t, second.Duplicate)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 2, second.Position)
	assert.Equal(t, 2, second.QueueLength)
	assert.Equal(t, config.MsgDuplicateRequest, second.Message)
	assert.Equal(t, 2, q.Len())
	assert.Empty(t, notifier.forChannel("a"))
	assert.Equal(t, int64(2), q.Stats().TotalAdmitted)
}

func TestEnqueueBroadcastsPositions(t *testing.T) {
	notifier := &recordingNotifier{}
	q := New(newGatedSuggester(), notifier, nil, testQueueConfig())

	q.Enqueue("u", "a", "code", time.Now())
	q.Enqueue("u", "b", "code", time.Now())

	updates := notifier.named("a", config.EventQueuePositionUpdate)
	require.Len(t, updates, 2)
	last := updates[1].payload.(PositionUpdateEvent)
	assert.Equal(t, PositionUpdateEvent{Position: 1, QueueLength: 2, EstimatedWaitTime: 3, RequestID: 1}, last)

	updates = notifier.named("b", config.EventQueuePositionUpdate)
	require.Len(t, updates, 1)
	assert.Equal(t, 2, updates[0].payload.(PositionUpdateEvent).Position)
}

func TestDequeueByChannelShiftsPositions(t *testing.T) {
	notifier := &recordingNotifier{}
	q := New(newGatedSuggester(), notifier, nil, testQueueConfig())
	q.Enqueue("u", "a", "code", time.Now())
	q.Enqueue("u", "b", "code", time.Now())
	q.Enqueue("u", "c", "code", time.Now())
	notifier.reset()

	assert.True(t, q.DequeueByChannel("b"))

	assert.Equal(t, 2, q.Len())
	assert.Equal(t, 1, q.StatusFor("a").Position)
	assert.Equal(t, 2, q.StatusFor("c").Position)
	assert.False(t, q.StatusFor("b").InQueue)

	updates := notifier.named("c", config.EventQueuePositionUpdate)
	require.Len(t, updates, 1)
	assert.Equal(t, 2, updates[0].payload.(PositionUpdateEvent).Position)
	assert.Empty(t, notifier.forChannel("b"))
}

func TestDequeueByChannelUnknown(t *testing.T) {
	q := New(newGatedSuggester(), nil, nil, testQueueConfig())
	q.Enqueue("u", "a", "code", time.Now())

	assert.False(t, q.DequeueByChannel("missing"))
	assert.Equal(t, 1, q.Len())
}

func TestNextIsSingleFlight(t *testing.T) {
	notifier := &recordingNotifier{}
	q := New(newGatedSuggester(), notifier, nil, testQueueConfig())
	q.Enqueue("u", "a", "code a", time.Now())
	q.Enqueue("u", "b", "code b", time.Now())
	notifier.reset()

	item := q.next()
	require.NotNil(t, item)
	assert.Equal(t, "a", item.ChannelID)
	assert.Equal(t, ItemStatusProcessing, item.Status)
	assert.True(t, q.IsProcessing())

	assert.Nil(t, q.next(), "second dispatch must wait for the first to finish")

	started := notifier.named("a", config.EventProcessingStarted)
	require.Len(t, started, 1)
	assert.Equal(t, ProcessingStartedEvent{RequestID: 1, Message: config.MsgProcessingStarted}, started[0].payload)

	updates := notifier.named("b", config.EventQueuePositionUpdate)
	require.Len(t, updates, 1)
	assert.Equal(t, 1, updates[0].payload.(PositionUpdateEvent).Position)
}

func TestNextEmptyQueue(t *testing.T) {
	q := New(newGatedSuggester(), nil, nil, testQueueConfig())
	assert.Nil(t, q.next())
	assert.False(t, q.IsProcessing())
}

func TestInFlightChannelMayEnqueueAgain(t *testing.T) {
	q := New(newGatedSuggester(), nil, nil, testQueueConfig())
	q.Enqueue("u", "a", "code", time.Now())
	require.NotNil(t, q.next())

	res := q.Enqueue("u", "a", "more code", time.Now())
	assert.False(t, res.Duplicate)
	assert.Equal(t, int64(2), res.ID)
	assert.Equal(t, 1, res.Position)
}

func TestStatsListsInFlightFirst(t *testing.T) {
	q := New(newGatedSuggester(), nil, nil, testQueueConfig())
	q.Enqueue("u1", "a", "code", time.Now())
	q.Enqueue("u2", "b", "code", time.Now())
	q.Enqueue("u3", "c", "code", time.Now())
	require.NotNil(t, q.next())

	stats := q.Stats()
	assert.Equal(t, 2, stats.QueueLength)
	assert.True(t, stats.IsProcessing)
	assert.Equal(t, int64(3), stats.TotalAdmitted)
	require.Len(t, stats.Items, 3)
	assert.Equal(t, ItemStatusProcessing, stats.Items[0].Status)
	assert.Equal(t, "u1", stats.Items[0].UserID)
	assert.Equal(t, ItemStatusQueued, stats.Items[1].Status)
	assert.Equal(t, "b", stats.Items[1].ChannelID)
	assert.Equal(t, "c", stats.Items[2].ChannelID)
}

func TestClear(t *testing.T) {
	notifier := &recordingNotifier{}
	q := New(newGatedSuggester(), notifier, nil, testQueueConfig())
	q.Enqueue("u", "a", "code", time.Now())
	q.Enqueue("u", "b", "code", time.Now())
	q.Enqueue("u", "c", "code", time.Now())
	require.NotNil(t, q.next())
	notifier.reset()

	assert.Equal(t, 2, q.Clear())

	stats := q.Stats()
	assert.Zero(t, stats.QueueLength)
	assert.False(t, stats.IsProcessing)
	assert.Empty(t, stats.Items)
	assert.Empty(t, notifier.events)
	assert.Equal(t, 0, q.Clear())
}

func TestProcessItemSuccess(t *testing.T) {
	notifier := &recordingNotifier{}
	suggester := suggesterFunc(func(_ context.Context, code string) (*suggest.Suggestion, error) {
		return &suggest.Suggestion{Text: "try " + code, Attempts: 1}, nil
	})
	q := New(suggester, notifier, nil, testQueueConfig())
	q.Enqueue("u", "a", "this", time.Now())

	item := q.next()
	require.NotNil(t, item)
	q.processItem(item)

	assert.False(t, q.IsProcessing())
	responses := notifier.named("a", config.EventSuggestionResponse)
	require.Len(t, responses, 1)
	resp := responses[0].payload.(SuggestionResponseEvent)
	assert.True(t, resp.Success)
	assert.Equal(t, int64(1), resp.RequestID)
	assert.Equal(t, "try this", resp.Suggestion)
	assert.GreaterOrEqual(t, resp.ProcessingTime, int64(0))
	_, err := time.Parse(time.RFC3339Nano, resp.Timestamp)
	assert.NoError(t, err)
}

func TestProcessItemFailureRoutesToCapturedChannel(t *testing.T) {
	notifier := &recordingNotifier{}
	suggester := suggesterFunc(func(context.Context, string) (*suggest.Suggestion, error) {
		return nil, &suggest.Failure{Kind: suggest.KindQuota, Message: "Suggestion service quota exceeded. Please try again later."}
	})
	q := New(suggester, notifier, nil, testQueueConfig())
	q.Enqueue("u", "a", "code", time.Now())
	q.Enqueue("u", "b", "code", time.Now())

	item := q.next()
	require.NotNil(t, item)
	notifier.reset()
	q.processItem(item)

	errs := notifier.named("a", config.EventError)
	require.Len(t, errs, 1)
	assert.Equal(t, ErrorEvent{
		Message:   config.MsgSuggestionFailed,
		Error:     "Suggestion service quota exceeded. Please try again later.",
		RequestID: 1,
	}, errs[0].payload)
	assert.Empty(t, notifier.forChannel("b"))
}

func TestProcessItemRecoversPanic(t *testing.T) {
	notifier := &recordingNotifier{}
	suggester := suggesterFunc(func(context.Context, string) (*suggest.Suggestion, error) {
		panic("kaboom")
	})
	q := New(suggester, notifier, nil, testQueueConfig())
	q.Enqueue("u", "a", "code", time.Now())

	item := q.next()
	require.NotNil(t, item)
	q.processItem(item)

	errs := notifier.named("a", config.EventError)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].payload.(ErrorEvent).Error, "kaboom")
	assert.False(t, q.IsProcessing())
}

func TestProcessItemNilResult(t *testing.T) {
	notifier := &recordingNotifier{}
	suggester := suggesterFunc(func(context.Context, string) (*suggest.Suggestion, error) {
		return nil, nil
	})
	q := New(suggester, notifier, nil, testQueueConfig())
	q.Enqueue("u", "a", "code", time.Now())

	q.processItem(q.next())

	assert.Len(t, notifier.named("a", config.EventError), 1)
}

func TestCancelInFlightDropsResult(t *testing.T) {
	notifier := &recordingNotifier{}
	suggester := suggesterFunc(func(context.Context, string) (*suggest.Suggestion, error) {
		return &suggest.Suggestion{Text: "late", Attempts: 1}, nil
	})
	q := New(suggester, notifier, nil, testQueueConfig())
	q.Enqueue("u", "a", "code", time.Now())

	item := q.next()
	require.NotNil(t, item)
	assert.True(t, q.DequeueByChannel("a"))
	assert.False(t, q.DequeueByChannel("a"), "second cancel finds nothing")

	q.processItem(item)

	assert.Empty(t, notifier.named("a", config.EventSuggestionResponse))
	assert.Empty(t, notifier.named("a", config.EventError))
	assert.False(t, q.IsProcessing())
}

func TestDispatchLoopEndToEnd(t *testing.T) {
	notifier := &recordingNotifier{}
	suggester := newGatedSuggester()
	q := New(suggester, notifier, nil, testQueueConfig())
	q.Start()
	defer q.Stop()

	q.Enqueue("ua", "a", "A", time.Now())
	q.Enqueue("ub", "b", "B", time.Now())
	q.Enqueue("uc", "c", "C", time.Now())

	require.Eventually(t, func() bool {
		return len(notifier.named("a", config.EventProcessingStarted)) == 1
	}, time.Second, time.Millisecond)

	assert.True(t, q.DequeueByChannel("c"))
	suggester.release("A")
	suggester.release("B")

	require.Eventually(t, func() bool {
		return len(notifier.named("b", config.EventSuggestionResponse)) == 1
	}, time.Second, time.Millisecond)
	require.Eventually(t, func() bool {
		return !q.IsProcessing()
	}, time.Second, time.Millisecond)

	assert.Equal(t, []string{"A", "B"}, suggester.called())
	assert.Len(t, notifier.named("a", config.EventSuggestionResponse), 1)
	assert.Empty(t, notifier.named("c", config.EventProcessingStarted))
	assert.Empty(t, notifier.named("c", config.EventSuggestionResponse))
	assert.Zero(t, q.Len())
}

func TestDispatchLoopNeverRunsConcurrently(t *testing.T) {
	notifier := &recordingNotifier{}
	suggester := newGatedSuggester()
	q := New(suggester, notifier, nil, testQueueConfig())
	q.Start()
	defer q.Stop()

	const n = 5
	for i := 0; i < n; i++ {
		payload := fmt.Sprintf("code-%d", i)
		suggester.release(payload)
		q.Enqueue("u", fmt.Sprintf("ch-%d", i), payload, time.Now())
	}

	require.Eventually(t, func() bool {
		return len(suggester.called()) == n && !q.IsProcessing()
	}, 2*time.Second, time.Millisecond)

	assert.Equal(t, int32(1), suggester.peak.Load())
	for i := 0; i < n; i++ {
		assert.Len(t, notifier.named(fmt.Sprintf("ch-%d", i), config.EventSuggestionResponse), 1)
	}
	assert.Equal(t, []string{"code-0", "code-1", "code-2", "code-3", "code-4"}, suggester.called())
}

func TestStopCancelsInFlightCall(t *testing.T) {
	notifier := &recordingNotifier{}
	suggester := newGatedSuggester()
	q := New(suggester, notifier, nil, testQueueConfig())
	q.Start()

	q.Enqueue("u", "a", "never released", time.Now())
	require.Eventually(t, func() bool {
		return len(suggester.called()) == 1
	}, time.Second, time.Millisecond)

	q.Stop()

	assert.False(t, q.IsProcessing())
	assert.Len(t, notifier.named("a", config.EventError), 1)
}

func TestNotifierFunc(t *testing.T) {
	var got string
	n := NotifierFunc(func(channelID, event string, _ any) {
		got = channelID + ":" + event
	})
	n.Emit("a", "queued", nil)
	assert.Equal(t, "a:queued", got)
}

func TestProcessItemPlainError(t *testing.T) {
	suggester := suggesterFunc(func(context.Context, string) (*suggest.Suggestion, error) {
		return nil, errStub
	})
	notifier := &recordingNotifier{}
	q := New(suggester, notifier, nil, testQueueConfig())
	q.Enqueue("u", "a", "code", time.Now())
	q.processItem(q.next())

	errs := notifier.named("a", config.EventError)
	require.Len(t, errs, 1)
	assert.Equal(t, errStub.Error(), errs[0].payload.(ErrorEvent).Error)
}
