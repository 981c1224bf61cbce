package server

import (
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/temirov/roleaudit/internal/ratelimit"
)

const (
	// APIKeyHeaderConstant carries the shared API key.
	APIKeyHeaderConstant = "X-API-Key"

	requestHandledMessageConstant = "request handled"
	unauthorizedMessageConstant   = "Unauthorized"
	tooManyRequestsMessage        = "Too many requests"

	methodLogFieldConstant    = "method"
	pathLogFieldConstant      = "path"
	remoteLogFieldConstant    = "remote_ip"
	statusLogFieldConstant    = "status"
	durationLogFieldConstant  = "duration"
	requestIDLogFieldConstant = "request_id"
)

// RequestLogger logs every request once it completes.
func RequestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(responseWriter http.ResponseWriter, request *http.Request) {
			startTime := time.Now()
			wrappedWriter := middleware.NewWrapResponseWriter(responseWriter, request.ProtoMajor)

			next.ServeHTTP(wrappedWriter, request)

			status := wrappedWriter.Status()
			if status == 0 {
				status = http.StatusOK
			}
			logger.Info(
				requestHandledMessageConstant,
				zap.String(methodLogFieldConstant, request.Method),
				zap.String(pathLogFieldConstant, request.URL.Path),
				zap.String(remoteLogFieldConstant, request.RemoteAddr),
				zap.Int(statusLogFieldConstant, status),
				zap.Duration(durationLogFieldConstant, time.Since(startTime)),
				zap.String(requestIDLogFieldConstant, middleware.GetReqID(request.Context())),
			)
		})
	}
}

// RequireAPIKey rejects requests whose X-API-Key differs from expectedKey.
// An empty expectedKey rejects every request.
func RequireAPIKey(expectedKey string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(responseWriter http.ResponseWriter, request *http.Request) {
			providedKey := request.Header.Get(APIKeyHeaderConstant)
			if len(expectedKey) == 0 || subtle.ConstantTimeCompare([]byte(providedKey), []byte(expectedKey)) != 1 {
				writeError(responseWriter, http.StatusUnauthorized, unauthorizedMessageConstant)
				return
			}
			next.ServeHTTP(responseWriter, request)
		})
	}
}

// Throttle answers 429 once bucket is exhausted.
func Throttle(bucket *ratelimit.TokenBucket) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(responseWriter http.ResponseWriter, request *http.Request) {
			if !bucket.Allow() {
				writeError(responseWriter, http.StatusTooManyRequests, tooManyRequestsMessage)
				return
			}
			next.ServeHTTP(responseWriter, request)
		})
	}
}
