// Package fanout dispatches one request to many LLM providers concurrently
// and reassembles each provider's streamed output.
package fanout

import (
	"context"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"
	"resty.dev/v3"

	"glot-server/internal/domain/provider"
	"glot-server/internal/infrastructure/logger"
	"glot-server/internal/utils/apperrors"
	"glot-server/internal/utils/httpclients"
	"glot-server/internal/utils/signing"
)

// Action supplies the system prompt for a dispatch. An empty prompt means
// no system message is sent.
type Action struct {
	Prompt string
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithClient replaces the shared HTTP client. The client must be safe for
// concurrent use; it is the only resource provider tasks share.
func WithClient(client *resty.Client) Option {
	return func(o *Orchestrator) { o.client = client }
}

// WithKeepPartialOnCancel preserves the text accumulated before a
// cancellation as an incomplete result instead of dropping the provider
// from the output.
func WithKeepPartialOnCancel() Option {
	return func(o *Orchestrator) { o.keepPartialOnCancel = true }
}

// WithPartialInterval rate limits consecutive partial callbacks per
// provider. The final value is always delivered regardless.
func WithPartialInterval(interval time.Duration) Option {
	return func(o *Orchestrator) { o.aggregator.partialInterval = interval }
}

// Orchestrator fans one input out to N providers. Tasks are fully
// independent: a failure or cancellation of one never blocks the others,
// and the dispatch returns only once every spawned task reached a terminal
// state.
type Orchestrator struct {
	client              *resty.Client
	aggregator          aggregator
	keepPartialOnCancel bool
	logger              zerolog.Logger
}

func NewOrchestrator(opts ...Option) *Orchestrator {
	o := &Orchestrator{
		client: httpclients.NewClient("fanout"),
		logger: logger.GetLogger(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Dispatch sends text to every provider and joins the outcomes. The
// returned list is an unordered subset of the input providers: tasks whose
// context was torn down before completion do not appear (unless partial
// preservation is enabled). Callers must key results by ProviderID.
func (o *Orchestrator) Dispatch(ctx context.Context, text string, action Action, providers []provider.Config, onPartial PartialFunc) []ExecutionResult {
	start := time.Now()
	results := newCollector(len(providers))

	var wg sync.WaitGroup
	for _, p := range providers {
		wg.Add(1)
		go func(p provider.Config) {
			defer wg.Done()
			o.runProvider(ctx, start, text, action, p, onPartial, results)
		}(p)
	}
	wg.Wait()

	return results.take()
}

func (o *Orchestrator) runProvider(ctx context.Context, start time.Time, text string, action Action, p provider.Config, onPartial PartialFunc, results *collector) {
	if ctx.Err() != nil {
		// The owning context is already torn down; this provider simply
		// does not appear in the output.
		return
	}

	if !p.IsAvailable() {
		results.add(ExecutionResult{
			ProviderID: p.ID,
			Duration:   time.Since(start),
			Err:        apperrors.New(apperrors.KindConfig, "provider is not dispatchable"),
		})
		return
	}

	streaming := onPartial != nil && p.Capabilities().SupportsStreaming
	output, err := o.exchange(ctx, text, action, p, onPartial, streaming)

	if err != nil && apperrors.Is(err, apperrors.KindCancelled) {
		if o.keepPartialOnCancel && output != "" {
			results.add(ExecutionResult{
				ProviderID: p.ID,
				Duration:   time.Since(start),
				Text:       output,
				Incomplete: true,
			})
		}
		return
	}

	result := ExecutionResult{
		ProviderID: p.ID,
		Duration:   time.Since(start),
		Text:       output,
		Err:        err,
	}
	if err != nil {
		result.Text = ""
		o.logger.Warn().Err(err).Str("provider", p.ID).Msg("provider task failed")
	}
	results.add(result)
}

// exchange performs one request against a provider and aggregates the
// response body.
func (o *Orchestrator) exchange(ctx context.Context, text string, action Action, p provider.Config, onPartial PartialFunc, streaming bool) (string, error) {
	request := openai.ChatCompletionRequest{
		Model:    p.Model,
		Messages: buildMessages(action, text),
		Stream:   streaming,
	}

	req := o.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(request).
		SetDoNotParseResponse(true)
	if name, value := p.AuthHeader(); name != "" {
		req.SetHeader(name, value)
	}
	if p.SigningSecret != "" {
		if err := signRequest(req, p); err != nil {
			return "", apperrors.Wrap(apperrors.KindConfig, "unable to sign gateway request", err)
		}
	}
	if streaming {
		req.SetHeader("Accept-Encoding", "identity")
	}

	resp, err := req.Post(p.APIURL)
	if err != nil {
		if ctx.Err() != nil {
			return "", apperrors.Wrap(apperrors.KindCancelled, "request cancelled", ctx.Err())
		}
		return "", apperrors.Wrap(apperrors.KindTransport, "provider unreachable", err)
	}
	if resp.RawResponse == nil || resp.RawResponse.Body == nil {
		return "", apperrors.New(apperrors.KindTransport, "empty response from provider")
	}

	return o.aggregator.consume(ctx, p.ID, resp.RawResponse, onPartial)
}

// signRequest attaches the gateway's HMAC headers, signing the request path.
func signRequest(req *resty.Request, p provider.Config) error {
	parsed, err := url.Parse(p.APIURL)
	if err != nil {
		return err
	}
	timestamp := time.Now().Unix()
	req.SetHeader("X-Timestamp", strconv.FormatInt(timestamp, 10))
	req.SetHeader("X-Signature", signing.Sign([]byte(p.SigningSecret), timestamp, parsed.Path))
	return nil
}

// buildMessages assembles the chat message list: a system message from the
// action prompt when present, followed by the user text. Roles come from
// the closed go-openai constant set.
func buildMessages(action Action, text string) []openai.ChatCompletionMessage {
	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if action.Prompt != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: action.Prompt,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: text,
	})
	return messages
}
