package middleware

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	redisstore "github.com/lifesync-ledger/internal/data/redis"
)

const (
	// IdempotencyKeyHeader is the header name for idempotency keys
	IdempotencyKeyHeader = "Idempotency-Key"

	// IdempotencyReplayHeader marks a response served from the idempotency store
	IdempotencyReplayHeader = "X-Idempotency-Replay"

	maxIdempotencyKeyLength = 255
)

// IdempotencyStore keeps the outcome of requests by owner and key
type IdempotencyStore interface {
	Reserve(ctx context.Context, ownerID, key, fingerprint string) (*redisstore.CachedResponse, error)
	Complete(ctx context.Context, ownerID, key string, resp *redisstore.CachedResponse) error
	Release(ctx context.Context, ownerID, key string) error
}

// Idempotency middleware replays the stored response of a mutating request retried with the same
// Idempotency-Key. Only successful responses are stored; failed or panicking attempts release the key.
// A key is bound to the method and path it was first used with. It must run after Auth so keys are
// scoped to the owner.
func Idempotency(logger *slog.Logger, store IdempotencyStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		default:
			c.Next()
			return
		}

		key := c.GetHeader(IdempotencyKeyHeader)
		if key == "" {
			c.Next()
			return
		}
		if len(key) > maxIdempotencyKeyLength {
			abortWithError(c, http.StatusBadRequest, "BAD_REQUEST", "Idempotency-Key is too long")
			return
		}

		ownerID := GetOwnerID(c)
		ctx := c.Request.Context()
		fingerprint := c.Request.Method + " " + c.Request.URL.Path

		cached, err := store.Reserve(ctx, ownerID, key, fingerprint)
		if errors.Is(err, redisstore.ErrRequestInFlight) {
			abortWithError(c, http.StatusConflict, "IDEMPOTENCY_IN_PROGRESS", "A request with this Idempotency-Key is still being processed")
			return
		}
		if errors.Is(err, redisstore.ErrKeyReused) {
			abortWithError(c, http.StatusUnprocessableEntity, "IDEMPOTENCY_KEY_REUSED", "This Idempotency-Key was already used for a different request")
			return
		}
		if err != nil {
			logger.Error("Idempotency check failed", "owner_id", ownerID, "correlation_id", GetCorrelationID(c), "error", err)
			abortWithError(c, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "An internal server error occurred")
			return
		}
		if cached != nil {
			c.Header(IdempotencyReplayHeader, "true")
			c.Data(cached.StatusCode, cached.ContentType, cached.Body)
			c.Abort()
			return
		}

		recorder := &bodyRecorder{ResponseWriter: c.Writer, body: &bytes.Buffer{}}
		c.Writer = recorder

		// The request context may already be cancelled once the client has gone.
		storeCtx := context.WithoutCancel(ctx)

		finished := false
		defer func() {
			if finished {
				return
			}
			// The handler panicked; Recovery answers the client, the key must not stay claimed.
			if err := store.Release(storeCtx, ownerID, key); err != nil {
				logger.Warn("Failed to release idempotency key", "owner_id", ownerID, "error", err)
			}
		}()

		c.Next()
		finished = true

		status := recorder.Status()
		if status >= http.StatusOK && status < http.StatusMultipleChoices {
			err = store.Complete(storeCtx, ownerID, key, &redisstore.CachedResponse{
				Fingerprint: fingerprint,
				StatusCode:  status,
				ContentType: recorder.Header().Get("Content-Type"),
				Body:        recorder.body.Bytes(),
			})
		} else {
			err = store.Release(storeCtx, ownerID, key)
		}
		if err != nil {
			logger.Warn("Failed to record idempotent response", "owner_id", ownerID, "status", status, "error", err)
		}
	}
}

type bodyRecorder struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (r *bodyRecorder) Write(b []byte) (int, error) {
	r.body.Write(b)
	return r.ResponseWriter.Write(b)
}

func (r *bodyRecorder) WriteString(s string) (int, error) {
	r.body.WriteString(s)
	return r.ResponseWriter.WriteString(s)
}
