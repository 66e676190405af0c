package fanout

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"glot-server/internal/infrastructure/logger"
	"glot-server/internal/utils/apperrors"
)

const (
	dataPrefix           = "data:"
	doneMarker           = "[DONE]"
	eventStreamMIME      = "text/event-stream"
	scannerInitialBuffer = 12 * 1024        // 12KB
	scannerMaxBuffer     = 10 * 1024 * 1024 // 10MB
)

// PartialFunc receives the growing aggregated text for one provider. It is
// invoked at most once per arriving delta; consecutive invocations may be
// rate limited, but the final completed value is always delivered.
type PartialFunc func(providerID, accumulated string)

type streamChoice struct {
	Delta struct {
		Content string `json:"content"`
	} `json:"delta"`
}

type streamChunk struct {
	Choices []streamChoice `json:"choices"`
}

// aggregator folds one provider response, streamed or not, into a single
// monotonically growing text.
type aggregator struct {
	// minimum gap between consecutive partial callbacks; zero disables
	// throttling.
	partialInterval time.Duration
}

// consume reads resp to completion and returns the final aggregated text.
// The response body is always closed. Cancellation surfaces as a
// KindCancelled error carrying whatever text had accumulated; the caller
// decides whether to keep it.
func (a *aggregator) consume(ctx context.Context, providerID string, resp *http.Response, onPartial PartialFunc) (string, error) {
	defer func() {
		if err := resp.Body.Close(); err != nil {
			log := logger.GetLogger()
			log.Warn().Err(err).Str("provider", providerID).Msg("unable to close provider body")
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return "", apperrors.Upstream(resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if strings.Contains(resp.Header.Get("Content-Type"), eventStreamMIME) {
		return a.consumeEventStream(ctx, providerID, resp.Body, onPartial)
	}
	return a.consumeJSONBody(providerID, resp.Body, onPartial)
}

// consumeEventStream folds `data:` lines into the accumulator until the
// [DONE] marker. The accumulated string's length never decreases across the
// life of one stream.
func (a *aggregator) consumeEventStream(ctx context.Context, providerID string, body io.Reader, onPartial PartialFunc) (string, error) {
	var accumulated strings.Builder
	var lastEmitted string
	var lastEmitAt time.Time

	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, scannerInitialBuffer), scannerMaxBuffer)

	for scanner.Scan() {
		payload, found := strings.CutPrefix(scanner.Text(), dataPrefix)
		if !found {
			continue
		}
		payload = strings.TrimSpace(payload)
		if payload == "" {
			continue
		}
		if payload == doneMarker {
			break
		}

		var chunk streamChunk
		if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
			log := logger.GetLogger()
			log.Warn().Err(err).Str("provider", providerID).Msg("skipping malformed stream chunk")
			continue
		}

		for _, choice := range chunk.Choices {
			accumulated.WriteString(choice.Delta.Content)
		}

		if onPartial != nil {
			now := time.Now()
			if a.partialInterval == 0 || now.Sub(lastEmitAt) >= a.partialInterval {
				lastEmitted = accumulated.String()
				lastEmitAt = now
				onPartial(providerID, lastEmitted)
			}
		}
	}

	if err := scanner.Err(); err != nil {
		if ctx.Err() != nil {
			return accumulated.String(), apperrors.Wrap(apperrors.KindCancelled, "stream cancelled", ctx.Err())
		}
		return accumulated.String(), apperrors.Wrap(apperrors.KindTransport, "stream read failed", err)
	}

	final := accumulated.String()
	if strings.TrimSpace(final) == "" {
		return "", apperrors.New(apperrors.KindContent, "model returned empty output")
	}

	// Deliver the completed value unthrottled.
	if onPartial != nil && lastEmitted != final {
		onPartial(providerID, final)
	}
	return final, nil
}

// consumeJSONBody decodes a single chat completion object; its trimmed
// content is the one and only emitted value.
func (a *aggregator) consumeJSONBody(providerID string, body io.Reader, onPartial PartialFunc) (string, error) {
	raw, err := io.ReadAll(body)
	if err != nil {
		return "", apperrors.Wrap(apperrors.KindTransport, "read response body", err)
	}

	var completion openai.ChatCompletionResponse
	if err := json.Unmarshal(raw, &completion); err != nil {
		return "", apperrors.Wrap(apperrors.KindContent, "malformed completion response", err)
	}

	var content string
	if len(completion.Choices) > 0 {
		content = completion.Choices[0].Message.Content
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return "", apperrors.New(apperrors.KindContent, "model returned empty output")
	}

	if onPartial != nil {
		onPartial(providerID, content)
	}
	return content, nil
}
