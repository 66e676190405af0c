package middlewares

import (
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"glot-server/internal/infrastructure/logger"
	"glot-server/internal/utils/signing"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

func gateEngine(t *testing.T, now time.Time) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	gate := NewAuthGate(testSecret, 120*time.Second, logger.GetLogger()).
		WithClock(func() time.Time { return now })

	engine := gin.New()
	engine.POST("/tts", gate.Middleware(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return engine
}

func doSigned(engine *gin.Engine, timestamp int64, signature string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/tts", nil)
	if timestamp != 0 {
		req.Header.Set(HeaderTimestamp, strconv.FormatInt(timestamp, 10))
	}
	if signature != "" {
		req.Header.Set(HeaderSignature, signature)
	}
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
}

func rejectionReason(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body %q: %v", rec.Body.String(), err)
	}
	return body.Message
}

func TestAuthGateAcceptsValidSignature(t *testing.T) {
	now := time.Unix(1700000000, 0)
	engine := gateEngine(t, now)

	sig := signing.Sign(testSecret, now.Unix(), "/tts")
	rec := doSigned(engine, now.Unix(), sig)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestAuthGateMissingHeaders(t *testing.T) {
	engine := gateEngine(t, time.Unix(1700000000, 0))

	rec := doSigned(engine, 0, "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if reason := rejectionReason(t, rec); reason != "missing timestamp or signature" {
		t.Fatalf("unexpected reason: %q", reason)
	}
}

func TestAuthGateInvalidTimestampFormat(t *testing.T) {
	engine := gateEngine(t, time.Unix(1700000000, 0))

	req := httptest.NewRequest(http.MethodPost, "/tts", nil)
	req.Header.Set(HeaderTimestamp, "not-a-number")
	req.Header.Set(HeaderSignature, "deadbeef")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if reason := rejectionReason(t, rec); reason != "invalid timestamp format" {
		t.Fatalf("unexpected reason: %q", reason)
	}
}

func TestAuthGateExpiredTimestamp(t *testing.T) {
	now := time.Unix(1700000000, 0)
	engine := gateEngine(t, now)

	stale := now.Unix() - 121
	rec := doSigned(engine, stale, signing.Sign(testSecret, stale, "/tts"))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if reason := rejectionReason(t, rec); reason != "timestamp expired" {
		t.Fatalf("unexpected reason: %q", reason)
	}
}

func TestAuthGateRejectsFutureDatedTimestamp(t *testing.T) {
	now := time.Unix(1700000000, 0)
	engine := gateEngine(t, now)

	future := now.Unix() + 121
	rec := doSigned(engine, future, signing.Sign(testSecret, future, "/tts"))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if reason := rejectionReason(t, rec); reason != "timestamp expired" {
		t.Fatalf("unexpected reason: %q", reason)
	}
}

func TestAuthGateRejectsExtremeTimestamps(t *testing.T) {
	now := time.Unix(1700000000, 0)
	engine := gateEngine(t, now)

	for _, ts := range []int64{math.MinInt64, math.MinInt64 + 1, math.MaxInt64} {
		rec := doSigned(engine, ts, signing.Sign(testSecret, ts, "/tts"))
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("timestamp %d: expected 401, got %d", ts, rec.Code)
		}
		if reason := rejectionReason(t, rec); reason != "timestamp expired" {
			t.Fatalf("timestamp %d: unexpected reason: %q", ts, reason)
		}
	}
}

func TestAuthGateBoundaryIsInclusive(t *testing.T) {
	now := time.Unix(1700000000, 0)
	engine := gateEngine(t, now)

	edge := now.Unix() - 120
	rec := doSigned(engine, edge, signing.Sign(testSecret, edge, "/tts"))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 at the window edge, got %d", rec.Code)
	}
}

func TestAuthGateInvalidSignature(t *testing.T) {
	now := time.Unix(1700000000, 0)
	engine := gateEngine(t, now)

	sig := []byte(signing.Sign(testSecret, now.Unix(), "/tts"))
	if sig[0] == 'a' {
		sig[0] = 'b'
	} else {
		sig[0] = 'a'
	}
	rec := doSigned(engine, now.Unix(), string(sig))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if reason := rejectionReason(t, rec); reason != "invalid signature" {
		t.Fatalf("unexpected reason: %q", reason)
	}
}
