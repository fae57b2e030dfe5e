package webapi

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	initdata "github.com/telegram-mini-apps/init-data-golang"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

type contextKey string

const initDataKey contextKey = "initdata"

const initDataExpiry = 24 * time.Hour

func initDataFromContext(ctx context.Context) (initdata.InitData, bool) {
	data, ok := ctx.Value(initDataKey).(initdata.InitData)
	return data, ok
}

// auth validates the Telegram WebApp init data carried in the
// Authorization header ("tma <raw init data>") and stashes the parsed
// identity in the request context.
func (s *Server) auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "tma ")
		if !ok || raw == "" {
			http.Error(w, "invalid Authorization header", http.StatusUnauthorized)
			return
		}

		if err := initdata.Validate(raw, s.botToken, initDataExpiry); err != nil {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		data, err := initdata.Parse(raw)
		if err != nil {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), initDataKey, data)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// visitor holds the rate limiter for one authenticated user and the last
// time they were seen.
type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type visitorRegistry struct {
	mu       sync.Mutex
	visitors map[int64]*visitor
}

func newVisitorRegistry() *visitorRegistry {
	r := &visitorRegistry{visitors: make(map[int64]*visitor)}
	go r.cleanup()
	return r
}

func (r *visitorRegistry) get(userID int64) *rate.Limiter {
	r.mu.Lock()
	defer r.mu.Unlock()

	v, exists := r.visitors[userID]
	if !exists {
		limiter := rate.NewLimiter(3, 7)
		r.visitors[userID] = &visitor{limiter: limiter, lastSeen: time.Now()}
		return limiter
	}
	v.lastSeen = time.Now()
	return v.limiter
}

// Every minute drop visitors not seen for a few minutes.
func (r *visitorRegistry) cleanup() {
	for {
		time.Sleep(time.Minute)

		r.mu.Lock()
		for userID, v := range r.visitors {
			if time.Since(v.lastSeen) > 3*time.Minute {
				delete(r.visitors, userID)
			}
		}
		r.mu.Unlock()
	}
}

func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, ok := initDataFromContext(r.Context())
		if !ok {
			http.Error(w, "Something went wrong!", http.StatusInternalServerError)
			return
		}
		if !s.visitors.get(data.User.ID).Allow() {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) limitConcurrent(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case s.sem <- struct{}{}:
			defer func() { <-s.sem }()
			next.ServeHTTP(w, r)
		default:
			http.Error(w, "server is overloaded, please try again later", http.StatusServiceUnavailable)
		}
	})
}

// logging reports only slow requests.
func (s *Server) logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		if elapsed := time.Since(start); elapsed > 50*time.Millisecond {
			data, _ := initDataFromContext(r.Context())
			s.log.Info("slow request",
				zap.Int64("user_id", data.User.ID),
				zap.String("method", r.Method),
				zap.String("url", r.URL.String()),
				zap.Duration("elapsed", elapsed),
			)
		}
	})
}
