package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"net/http"
	"strings"
	"time"

	"github.com/fox-one/pkg/logger"
	"github.com/go-redis/redis"
)

// provisional lock must outlive the slowest mutating handler
const provisionalTTL = 60 * time.Second

type idempotencyEntry struct {
	InProgress bool   `json:"in_progress"`
	Code       int    `json:"code"`
	Body       []byte `json:"body"`
	BodyHash   string `json:"body_hash"`
	CreatedAt  int64  `json:"created_at"`
}

type responseRecorder struct {
	http.ResponseWriter
	buf  *bytes.Buffer
	code int
}

func (r *responseRecorder) Write(b []byte) (int, error) {
	r.buf.Write(b)
	return r.ResponseWriter.Write(b)
}

func (r *responseRecorder) WriteHeader(code int) {
	r.code = code
	r.ResponseWriter.WriteHeader(code)
}

// Idempotency replays the stored response when a mutating request
// arrives again with the same X-Request-Id. Requests without the
// header pass through untouched. A request id reused with a different
// body, or replayed while the first attempt is still running, gets a
// 409.
func Idempotency(rdb *redis.Client, ttl time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				next.ServeHTTP(w, r)
				return
			}

			requestID := strings.TrimSpace(r.Header.Get("X-Request-Id"))
			if requestID == "" {
				next.ServeHTTP(w, r)
				return
			}

			var body []byte
			if r.Body != nil {
				body, _ = ioutil.ReadAll(r.Body)
			}
			r.Body = ioutil.NopCloser(bytes.NewBuffer(body))

			sum := sha256.Sum256(body)
			bodyHash := hex.EncodeToString(sum[:])
			key := cacheKey(r.Method, r.URL.Path, requestID)

			entry := idempotencyEntry{
				InProgress: true,
				BodyHash:   bodyHash,
				CreatedAt:  time.Now().Unix(),
			}
			raw, _ := json.Marshal(entry)

			ok, err := rdb.SetNX(key, raw, provisionalTTL).Result()
			if err != nil {
				logger.FromContext(r.Context()).WithError(err).Error("idempotency: reserve key")
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "idempotency store unavailable"})
				return
			}

			if !ok {
				stored, err := loadEntry(rdb, key)
				if err != nil {
					logger.FromContext(r.Context()).WithError(err).Error("idempotency: load entry")
					writeJSON(w, http.StatusConflict, map[string]string{"error": "request is already in progress"})
					return
				}

				if stored.BodyHash != bodyHash {
					writeJSON(w, http.StatusConflict, map[string]string{"error": "request id reused with different body"})
					return
				}

				if !stored.InProgress && stored.Code != 0 {
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(stored.Code)
					_, _ = w.Write(stored.Body)
					return
				}

				writeJSON(w, http.StatusConflict, map[string]string{"error": "request is already in progress"})
				return
			}

			recorder := &responseRecorder{ResponseWriter: w, buf: &bytes.Buffer{}, code: http.StatusOK}
			next.ServeHTTP(recorder, r)

			final := idempotencyEntry{
				Code:      recorder.code,
				Body:      recorder.buf.Bytes(),
				BodyHash:  bodyHash,
				CreatedAt: time.Now().Unix(),
			}
			raw, _ = json.Marshal(final)
			if err := rdb.Set(key, raw, ttl).Err(); err != nil {
				logger.FromContext(r.Context()).WithError(err).Error("idempotency: store response")
			}
		})
	}
}

func loadEntry(rdb *redis.Client, key string) (*idempotencyEntry, error) {
	bs, err := rdb.Get(key).Bytes()
	if err != nil {
		return nil, err
	}

	var entry idempotencyEntry
	if err := json.Unmarshal(bs, &entry); err != nil {
		return nil, err
	}

	return &entry, nil
}

func cacheKey(method, path, requestID string) string {
	return fmt.Sprintf("termpool:idempotency:%s:%s:%s", method, path, requestID)
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
