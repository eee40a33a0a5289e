package suggest

import (
	"context"
	"log"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	attemptCounter metric.Int64Counter
	failureCounter metric.Int64Counter
)

func init() {
	meter := otel.Meter("github.com/AltairaLabs/codegen-suggest/internal/suggest")

	var err error

	attemptCounter, err = meter.Int64Counter(
		"suggest.client.attempts",
		metric.WithDescription("Number of calls issued to the suggestion service"),
	)
	if err != nil {
		log.Fatalf("failed to create suggest.client.attempts counter: %v", err)
	}

	failureCounter, err = meter.Int64Counter(
		"suggest.client.failures",
		metric.WithDescription("Number of suggestion requests that ended in a failure, by kind"),
	)
	if err != nil {
		log.Fatalf("failed to create suggest.client.failures counter: %v", err)
	}
}

func recordAttempt(ctx context.Context) {
	attemptCounter.Add(ctx, 1)
}

func recordFailure(ctx context.Context, kind Kind) {
	failureCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", string(kind))))
}
