package middlewares

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"glot-server/internal/infrastructure/metrics"
	"glot-server/internal/interfaces/httpserver/responses"
	"glot-server/internal/utils/signing"
)

const (
	HeaderTimestamp = "X-Timestamp"
	HeaderSignature = "X-Signature"
)

// AuthGate validates the HMAC signature and timestamp freshness on inbound
// requests. Replay protection relies on the freshness window plus transport
// encryption; no nonce store is kept.
type AuthGate struct {
	secret  []byte
	maxSkew time.Duration
	now     func() time.Time
	logger  zerolog.Logger
}

// NewAuthGate builds a gate over the shared secret. maxSkew bounds
// |now - timestamp| symmetrically, so future-dated requests are rejected
// like stale ones.
func NewAuthGate(secret []byte, maxSkew time.Duration, logger zerolog.Logger) *AuthGate {
	return &AuthGate{
		secret:  secret,
		maxSkew: maxSkew,
		now:     time.Now,
		logger:  logger,
	}
}

// WithClock overrides the gate's clock. Test hook.
func (g *AuthGate) WithClock(now func() time.Time) *AuthGate {
	g.now = now
	return g
}

// Middleware returns the gin handler enforcing the gate. Validation is
// pure: any failure is a 401 with a JSON body naming the reason.
func (g *AuthGate) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if reason := g.authorize(c.Request); reason != "" {
			metrics.RecordAuthFailure(reason)
			g.logger.Warn().
				Str("path", c.Request.URL.Path).
				Str("reason", reason).
				Msg("request signature rejected")
			responses.HandleErrorWithStatus(c, http.StatusUnauthorized, "auth", reason)
			return
		}
		c.Next()
	}
}

// authorize returns an empty string for valid requests, or the rejection
// reason.
func (g *AuthGate) authorize(r *http.Request) string {
	tsHeader := r.Header.Get(HeaderTimestamp)
	sigHeader := r.Header.Get(HeaderSignature)
	if tsHeader == "" || sigHeader == "" {
		return "missing timestamp or signature"
	}

	timestamp, err := strconv.ParseInt(tsHeader, 10, 64)
	if err != nil {
		return "invalid timestamp format"
	}

	// Bounds comparison in integer seconds; subtracting an extreme
	// timestamp from now would wrap around int64.
	now := g.now().Unix()
	window := int64(g.maxSkew / time.Second)
	if timestamp < now-window || timestamp > now+window {
		return "timestamp expired"
	}

	if !signing.Verify(g.secret, timestamp, r.URL.Path, sigHeader) {
		return "invalid signature"
	}
	return ""
}
