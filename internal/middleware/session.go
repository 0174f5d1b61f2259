package middleware

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/vikenamera/CraftVersee/internal/platform/requestctx"
)

// SessionCookieName names the signed shopper session cookie.
const SessionCookieName = "MARKET_SESSION"

// SessionData identifies a shopper across requests. The shopper's cart lives in the
// key-value store under a namespace derived from ID.
type SessionData struct {
	ID        string    `json:"id"`
	CSRFToken string    `json:"csrf,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// SessionOptions configures the session middleware.
type SessionOptions struct {
	SigningKey string
	Secure     bool
	MaxAge     time.Duration
	Logger     *zap.Logger
	Now        func() time.Time
}

// Sessions issues and verifies signed shopper session cookies.
type Sessions struct {
	key    []byte
	secure bool
	maxAge time.Duration
	now    func() time.Time
}

// NewSessions builds the session middleware. Without a signing key a process-ephemeral key
// is generated, which invalidates sessions on restart.
func NewSessions(opts SessionOptions) *Sessions {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	key := []byte(opts.SigningKey)
	if len(key) == 0 {
		key = make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			logger.Error("session: failed to generate signing key", zap.Error(err))
			key = []byte("insecure-dev-key-please-set-MARKET_SESSION_SIGNING_KEY")
		}
		logger.Warn("session: using ephemeral signing key; set MARKET_SESSION_SIGNING_KEY for production")
	}
	maxAge := opts.MaxAge
	if maxAge <= 0 {
		maxAge = 30 * 24 * time.Hour
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Sessions{key: key, secure: opts.Secure, maxAge: maxAge, now: now}
}

// Middleware loads or initializes the session and stores it in request context.
func (s *Sessions) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sd, ok := s.read(r)
		if !ok {
			sd = &SessionData{
				ID:        ulid.Make().String(),
				CSRFToken: newCSRFToken(),
				CreatedAt: s.now().UTC(),
			}
			s.write(w, sd)
		}
		ctx := WithSession(r.Context(), sd)
		ctx = requestctx.WithShopperID(ctx, sd.ID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// read parses and verifies the session cookie
func (s *Sessions) read(r *http.Request) (*SessionData, bool) {
	c, err := r.Cookie(SessionCookieName)
	if err != nil || c.Value == "" {
		return nil, false
	}
	payloadPart, sigPart, found := strings.Cut(c.Value, ".")
	if !found {
		return nil, false
	}
	payload, err := base64.RawURLEncoding.DecodeString(payloadPart)
	if err != nil {
		return nil, false
	}
	sig, err := base64.RawURLEncoding.DecodeString(sigPart)
	if err != nil {
		return nil, false
	}
	if !hmac.Equal(sig, s.sign(payload)) {
		return nil, false
	}
	var sd SessionData
	if err := json.Unmarshal(payload, &sd); err != nil {
		return nil, false
	}
	if _, err := ulid.ParseStrict(sd.ID); err != nil {
		return nil, false
	}
	if sd.CSRFToken == "" {
		return nil, false
	}
	return &sd, true
}

func (s *Sessions) write(w http.ResponseWriter, sd *SessionData) {
	payload, _ := json.Marshal(sd)
	value := base64.RawURLEncoding.EncodeToString(payload) + "." + base64.RawURLEncoding.EncodeToString(s.sign(payload))
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(s.maxAge / time.Second),
	})
	// Double-submit cookie readable by the page scripts.
	http.SetCookie(w, &http.Cookie{
		Name:     CSRFCookieName,
		Value:    sd.CSRFToken,
		Path:     "/",
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(s.maxAge / time.Second),
	})
}

func (s *Sessions) sign(payload []byte) []byte {
	mac := hmac.New(sha256.New, s.key)
	mac.Write(payload)
	return mac.Sum(nil)
}

func newCSRFToken() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
