package queue

import (
	"context"
	"log"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/AltairaLabs/codegen-suggest/internal/queue"

var (
	admittedCounter  metric.Int64Counter
	duplicateCounter metric.Int64Counter
	cancelledCounter metric.Int64Counter
	processingHist   metric.Float64Histogram
)

func init() {
	meter := otel.Meter(meterName)

	var err error

	admittedCounter, err = meter.Int64Counter(
		"suggest.queue.admitted",
		metric.WithDescription("Number of requests admitted to the queue"),
	)
	if err != nil {
		log.Fatalf("failed to create suggest.queue.admitted counter: %v", err)
	}

	duplicateCounter, err = meter.Int64Counter(
		"suggest.queue.duplicates",
		metric.WithDescription("Number of admissions rejected because the channel already had a waiting request"),
	)
	if err != nil {
		log.Fatalf("failed to create suggest.queue.duplicates counter: %v", err)
	}

	cancelledCounter, err = meter.Int64Counter(
		"suggest.queue.cancelled",
		metric.WithDescription("Number of requests cancelled by their channel"),
	)
	if err != nil {
		log.Fatalf("failed to create suggest.queue.cancelled counter: %v", err)
	}

	processingHist, err = meter.Float64Histogram(
		"suggest.queue.processing_duration",
		metric.WithDescription("Time spent processing a dispatched request"),
		metric.WithUnit("s"),
	)
	if err != nil {
		log.Fatalf("failed to create suggest.queue.processing_duration histogram: %v", err)
	}
}

func registerQueueGauges(q *Queue) {
	meter := otel.Meter(meterName)

	_, err := meter.Int64ObservableGauge(
		"suggest.queue.length",
		metric.WithDescription("Number of requests waiting for dispatch"),
		metric.WithInt64Callback(func(_ context.Context, o metric.Int64Observer) error {
			o.Observe(int64(q.Len()))
			return nil
		}),
	)
	if err != nil {
		log.Fatalf("failed to create suggest.queue.length gauge: %v", err)
	}
}

func recordAdmitted() {
	admittedCounter.Add(context.Background(), 1)
}

func recordDuplicate() {
	duplicateCounter.Add(context.Background(), 1)
}

func recordCancelled(status ItemStatus) {
	cancelledCounter.Add(context.Background(), 1,
		metric.WithAttributes(attribute.String("status", string(status))))
}

func recordCompletion(outcome string, elapsed time.Duration) {
	processingHist.Record(context.Background(), elapsed.Seconds(),
		metric.WithAttributes(attribute.String("outcome", outcome)))
}
