package fanout

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"glot-server/internal/utils/apperrors"
)

func sseResponse(lines ...string) *http.Response {
	header := http.Header{}
	header.Set("Content-Type", "text/event-stream")
	return &http.Response{
		StatusCode: http.StatusOK,
		Header:     header,
		Body:       io.NopCloser(strings.NewReader(strings.Join(lines, "\n"))),
	}
}

func TestConsumeThrottlesPartialsButDeliversFinal(t *testing.T) {
	resp := sseResponse(
		`data: {"choices":[{"delta":{"content":"Hel"}}]}`,
		`data: {"choices":[{"delta":{"content":"lo"}}]}`,
		`data: {"choices":[{"delta":{"content":" world"}}]}`,
		`data: [DONE]`,
	)

	agg := aggregator{partialInterval: time.Hour}
	var calls []string
	final, err := agg.consume(context.Background(), "p1", resp, func(_, accumulated string) {
		calls = append(calls, accumulated)
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if final != "Hello world" {
		t.Fatalf("unexpected final text: %q", final)
	}

	// One throttled partial plus the unthrottled completed value.
	if len(calls) != 2 {
		t.Fatalf("expected 2 callbacks, got %d: %v", len(calls), calls)
	}
	if calls[0] != "Hel" || calls[1] != "Hello world" {
		t.Fatalf("unexpected callback sequence: %v", calls)
	}
}

func TestConsumeIgnoresNonDataLines(t *testing.T) {
	resp := sseResponse(
		`: keepalive comment`,
		`event: message`,
		`data: {"choices":[{"delta":{"content":"hi"}}]}`,
		``,
		`data: [DONE]`,
	)

	agg := aggregator{}
	final, err := agg.consume(context.Background(), "p1", resp, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if final != "hi" {
		t.Fatalf("unexpected final text: %q", final)
	}
}

func TestConsumeUpstreamErrorPreservesStatusAndBody(t *testing.T) {
	resp := &http.Response{
		StatusCode: http.StatusServiceUnavailable,
		Header:     http.Header{},
		Body:       io.NopCloser(strings.NewReader(`{"error":"overloaded"}`)),
	}

	agg := aggregator{}
	_, err := agg.consume(context.Background(), "p1", resp, nil)
	if !apperrors.Is(err, apperrors.KindUpstream) {
		t.Fatalf("expected upstream error, got %v", err)
	}
	var appErr *apperrors.Error
	if !errors.As(err, &appErr) {
		t.Fatalf("expected *apperrors.Error, got %T", err)
	}
	if appErr.Status != http.StatusServiceUnavailable {
		t.Fatalf("status not preserved: %d", appErr.Status)
	}
	if !strings.Contains(appErr.Message, "overloaded") {
		t.Fatalf("body not preserved: %q", appErr.Message)
	}
}

func TestConsumeMalformedChunksAreSkipped(t *testing.T) {
	resp := sseResponse(
		`data: not-json`,
		`data: {"choices":[{"delta":{"content":"ok"}}]}`,
		`data: [DONE]`,
	)

	agg := aggregator{}
	final, err := agg.consume(context.Background(), "p1", resp, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if final != "ok" {
		t.Fatalf("unexpected final text: %q", final)
	}
}
