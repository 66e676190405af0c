// Package proxyhandler forwards authorized requests to the paid upstreams.
package proxyhandler

import (
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"resty.dev/v3"

	"glot-server/internal/config"
	"glot-server/internal/domain/model"
	"glot-server/internal/infrastructure/metrics"
	"glot-server/internal/interfaces/httpserver/middlewares"
	"glot-server/internal/interfaces/httpserver/responses"
	"glot-server/internal/utils/apperrors"
)

const (
	HeaderPremium = "X-Premium"

	routeChat = "chat"
	routeTTS  = "tts"

	// Edge infrastructure prepends its own headers to every request;
	// they must not leak to the upstream.
	edgeHeaderPrefix = "cf-"
)

// hop-by-hop and length headers are managed by the transport, never cloned.
var skipResponseHeaders = map[string]struct{}{
	"Content-Length":    {},
	"Transfer-Encoding": {},
	"Connection":        {},
}

type ProxyHandler struct {
	cfg    *config.Config
	client *resty.Client
	policy *model.AccessPolicy
	logger zerolog.Logger
}

// NewProxyHandler wires the forwarding handler. The resty client must be
// configured to not follow redirects so callers observe upstream redirect
// semantics explicitly.
func NewProxyHandler(cfg *config.Config, client *resty.Client, policy *model.AccessPolicy, logger zerolog.Logger) *ProxyHandler {
	return &ProxyHandler{cfg: cfg, client: client, policy: policy, logger: logger}
}

// NewProxyClient builds the outbound client the proxy forwards through.
func NewProxyClient(base *resty.Client) *resty.Client {
	return base.SetRedirectPolicy(resty.NoRedirectPolicy())
}

// ChatCompletions proxies POST /{model}/chat/completions to the chat
// upstream after the model allow-list and premium entitlement checks.
func (h *ProxyHandler) ChatCompletions(c *gin.Context) {
	modelID := c.Param("model")
	premiumEntitled := strings.EqualFold(c.GetHeader(HeaderPremium), "true")

	if err := h.policy.CheckAccess(modelID, premiumEntitled); err != nil {
		metrics.ModelAccessRejectionsTotal.WithLabelValues(string(apperrors.KindOf(err))).Inc()
		responses.HandleError(c, err)
		return
	}

	if h.cfg.ChatUpstreamURL == "" {
		responses.HandleError(c, apperrors.New(apperrors.KindConfig, "chat upstream is not configured"))
		return
	}

	target, err := h.chatTargetURL(c.Request)
	if err != nil {
		responses.HandleError(c, apperrors.Wrap(apperrors.KindConfig, "invalid chat upstream URL", err))
		return
	}

	h.forward(c, routeChat, target, h.cfg.ChatUpstreamAPIKey)
}

// TTS proxies POST /tts verbatim to the text-to-speech upstream.
func (h *ProxyHandler) TTS(c *gin.Context) {
	if h.cfg.TTSUpstreamURL == "" {
		responses.HandleError(c, apperrors.New(apperrors.KindConfig, "tts upstream is not configured"))
		return
	}
	h.forward(c, routeTTS, h.cfg.TTSUpstreamURL, h.cfg.TTSUpstreamAPIKey)
}

// chatTargetURL joins the upstream base path with the inbound path,
// collapses duplicate slashes and injects the default api-version query
// parameter only when the caller did not supply one.
func (h *ProxyHandler) chatTargetURL(r *http.Request) (string, error) {
	base, err := url.Parse(h.cfg.ChatUpstreamURL)
	if err != nil {
		return "", err
	}

	base.Path = collapseSlashes(base.Path + "/" + r.URL.Path)

	query := r.URL.Query()
	if query.Get("api-version") == "" && h.cfg.ChatAPIVersion != "" {
		query.Set("api-version", h.cfg.ChatAPIVersion)
	}
	base.RawQuery = query.Encode()

	return base.String(), nil
}

// forward relays the inbound request to target and streams the upstream
// response back. Transport errors become a 502; upstream statuses and
// headers pass through untouched.
func (h *ProxyHandler) forward(c *gin.Context, route, target, upstreamKey string) {
	req := h.client.R().
		SetContext(c.Request.Context()).
		SetDoNotParseResponse(true)

	// Every value of a multi-valued header must reach the upstream as its
	// own line, so the header map is built directly.
	for name, values := range c.Request.Header {
		if !forwardableHeader(name) {
			continue
		}
		for _, v := range values {
			req.Header.Add(name, v)
		}
	}
	if upstreamKey != "" {
		req.SetHeader("Api-Key", upstreamKey)
	}

	// GET and HEAD never carry a forwarded body.
	method := c.Request.Method
	if method != http.MethodGet && method != http.MethodHead && c.Request.Body != nil {
		req.SetBody(c.Request.Body)
	}

	resp, err := req.Execute(method, target)
	if err != nil {
		metrics.UpstreamErrorsTotal.WithLabelValues(route).Inc()
		h.logger.Error().Err(err).Str("route", route).Msg("upstream request failed")
		responses.HandleError(c, apperrors.Wrap(apperrors.KindTransport, "upstream unreachable", err))
		return
	}

	body := resp.RawResponse.Body
	defer func() {
		if closeErr := body.Close(); closeErr != nil {
			h.logger.Error().Err(closeErr).Str("route", route).Msg("unable to close upstream body")
		}
	}()

	for name, values := range resp.RawResponse.Header {
		if _, skip := skipResponseHeaders[http.CanonicalHeaderKey(name)]; skip {
			continue
		}
		// The gateway's own CORS overlay wins over upstream values.
		if strings.HasPrefix(http.CanonicalHeaderKey(name), "Access-Control-") {
			continue
		}
		for _, v := range values {
			c.Writer.Header().Add(name, v)
		}
	}

	status := resp.StatusCode()
	metrics.ProxyRequestsTotal.WithLabelValues(route, strconv.Itoa(status)).Inc()
	c.Status(status)

	if err := copyFlushing(c.Writer, body); err != nil {
		// The response is already in flight; all we can do is log.
		h.logger.Warn().Err(err).Str("route", route).Msg("upstream body relay interrupted")
	}
}

// forwardableHeader reports whether an inbound header may reach the
// upstream. The signature headers and edge infrastructure headers are
// stripped; Host is rewritten by the transport.
func forwardableHeader(name string) bool {
	lower := strings.ToLower(name)
	if strings.HasPrefix(lower, edgeHeaderPrefix) {
		return false
	}
	switch http.CanonicalHeaderKey(name) {
	case middlewares.HeaderTimestamp, middlewares.HeaderSignature, "Host":
		return false
	}
	return true
}

// copyFlushing relays body to w, flushing after every read so event
// streams reach the client incrementally.
func copyFlushing(w gin.ResponseWriter, body io.Reader) error {
	buf := make([]byte, 32*1024)
	for {
		n, readErr := body.Read(buf)
		if n > 0 {
			if _, writeErr := w.Write(buf[:n]); writeErr != nil {
				return writeErr
			}
			w.Flush()
		}
		if readErr == io.EOF {
			return nil
		}
		if readErr != nil {
			return readErr
		}
	}
}

// collapseSlashes squashes runs of '/' in a path to single separators.
func collapseSlashes(path string) string {
	var b strings.Builder
	b.Grow(len(path))
	var prevSlash bool
	for _, r := range path {
		if r == '/' {
			if prevSlash {
				continue
			}
			prevSlash = true
		} else {
			prevSlash = false
		}
		b.WriteRune(r)
	}
	return b.String()
}
