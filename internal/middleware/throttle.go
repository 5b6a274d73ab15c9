package middleware

import (
	"net"
	"net/http"
	"sync"

	"golang.org/x/time/rate"

	"github.com/mojifeed/mojifeed/internal/errors"
	"github.com/mojifeed/mojifeed/internal/httputil"
	"github.com/mojifeed/mojifeed/pkg/logger"
)

// Throttle applies a coarse per-client request budget in front of every
// endpoint. This is abuse protection for the whole API surface; the
// per-author post-creation quota is enforced separately inside the creation
// service.
type Throttle struct {
	limiters map[string]*rate.Limiter
	mu       sync.Mutex
	rate     rate.Limit
	burst    int
	log      *logger.Logger
}

// NewThrottle creates a throttle allowing requestsPerSecond with the given
// burst per client key.
func NewThrottle(requestsPerSecond int, burst int, log *logger.Logger) *Throttle {
	if log == nil {
		log = logger.NewDefault("throttle")
	}
	return &Throttle{
		limiters: make(map[string]*rate.Limiter),
		rate:     rate.Limit(requestsPerSecond),
		burst:    burst,
		log:      log,
	}
}

// getLimiter returns the limiter for the given client key.
func (t *Throttle) getLimiter(key string) *rate.Limiter {
	t.mu.Lock()
	defer t.mu.Unlock()

	limiter, ok := t.limiters[key]
	if !ok {
		limiter = rate.NewLimiter(t.rate, t.burst)
		t.limiters[key] = limiter
	}
	return limiter
}

// Handler returns the throttling middleware handler. Authenticated callers
// are keyed by user id, anonymous ones by remote address.
func (t *Throttle) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := GetUserID(r.Context())
		if key == "" {
			key = clientAddr(r)
		}

		if !t.getLimiter(key).Allow() {
			t.log.WithContext(r.Context()).WithFields(map[string]interface{}{
				"key":    key,
				"path":   r.URL.Path,
				"method": r.Method,
			}).Warn("request throttled")

			serviceErr := errors.RateLimitExceeded(int(t.rate), "1s")
			httputil.WriteErrorResponse(w, r, serviceErr.HTTPStatus, string(serviceErr.Code), serviceErr.Message, serviceErr.Details)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// Prune resets the limiter map once it grows past a bound. Scheduled
// periodically from the server entry point.
func (t *Throttle) Prune() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.limiters) > 10000 {
		t.limiters = make(map[string]*rate.Limiter)
	}
}

// clientAddr keys anonymous callers by the connection's peer address.
// Forwarding headers are client-controlled and are deliberately ignored.
func clientAddr(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
