package auth

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const (
	HeaderIngestTimestamp = "X-Ingest-Timestamp"
	HeaderIngestSignature = "X-Ingest-Signature"
)

// IngestAuthMiddleware validates status feed signatures.
type IngestAuthMiddleware struct {
	Secret  []byte
	MaxSkew time.Duration
	// OnReject, when set, is called with the reason a request was refused.
	OnReject func(r *http.Request, err error)

	now func() time.Time
}

// NewIngestAuthMiddleware constructs ingest auth middleware.
func NewIngestAuthMiddleware(secret []byte, maxSkew time.Duration) *IngestAuthMiddleware {
	return &IngestAuthMiddleware{Secret: secret, MaxSkew: maxSkew, now: time.Now}
}

// Wrap enforces ingest signature validation.
func (m *IngestAuthMiddleware) Wrap(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if len(m.Secret) == 0 {
			m.reject(w, r, errors.New("auth: ingest auth not configured"), http.StatusUnauthorized)
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			m.reject(w, r, err, http.StatusBadRequest)
			return
		}
		_ = r.Body.Close()

		err = VerifyIngestSignature(
			m.Secret,
			strings.TrimSpace(r.Header.Get(HeaderIngestTimestamp)),
			strings.TrimSpace(r.Header.Get(HeaderIngestSignature)),
			body,
			m.clock(),
			m.MaxSkew,
		)
		if err != nil {
			m.reject(w, r, err, http.StatusUnauthorized)
			return
		}

		r.Body = io.NopCloser(bytes.NewReader(body))
		next.ServeHTTP(w, r)
	})
}

func (m *IngestAuthMiddleware) clock() time.Time {
	if m.now == nil {
		return time.Now()
	}
	return m.now()
}

func (m *IngestAuthMiddleware) reject(w http.ResponseWriter, r *http.Request, err error, status int) {
	if m.OnReject != nil {
		m.OnReject(r, err)
	}
	http.Error(w, err.Error(), status)
}

// VerifyIngestSignature checks a hex HMAC-SHA256 over "timestamp\nbody".
// A zero maxSkew disables the freshness check.
func VerifyIngestSignature(secret []byte, timestamp, signature string, body []byte, now time.Time, maxSkew time.Duration) error {
	if timestamp == "" || signature == "" {
		return ErrMissingSignature
	}
	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return ErrInvalidTimestamp
	}
	skew := now.Sub(time.Unix(ts, 0))
	if skew < 0 {
		skew = -skew
	}
	if maxSkew > 0 && skew > maxSkew {
		return ErrSignatureExpired
	}
	expected := SignIngest(secret, timestamp, body)
	if !hmac.Equal([]byte(strings.ToLower(signature)), []byte(expected)) {
		return ErrInvalidSignature
	}
	return nil
}

// SignIngest returns the signature a feed must send for body at timestamp.
func SignIngest(secret []byte, timestamp string, body []byte) string {
	mac := hmac.New(sha256.New, secret)
	_, _ = mac.Write([]byte(timestamp))
	_, _ = mac.Write([]byte("\n"))
	_, _ = mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}
