package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

const (
	idempotencyHeader     = "Idempotency-Key"
	idempotencyKeyPrefix  = "idem:"
	idempotencyPending    = "pending"
	defaultIdempotencyTTL = 24 * time.Hour
	reservationTTL        = 30 * time.Second
)

type storedResponse struct {
	Status int    `json:"status"`
	Body   []byte `json:"body"`
}

// captureWriter tees the response body so it can be stored.
type captureWriter struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (w *captureWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

// IdempotencyMiddleware makes POST, PUT and PATCH calls carrying an
// Idempotency-Key replay their first answer. The first call reserves the
// key; a duplicate arriving while it still runs gets 409. Server errors
// release the reservation so the client can retry. A nil client disables it.
func IdempotencyMiddleware(client redis.Cmdable, ttl time.Duration) gin.HandlerFunc {
	if ttl <= 0 {
		ttl = defaultIdempotencyTTL
	}

	return func(c *gin.Context) {
		key := c.GetHeader(idempotencyHeader)
		if client == nil || key == "" || !mutating(c.Request.Method) {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		storeKey := idempotencyKeyPrefix + c.Request.Method + ":" + c.FullPath() + ":" + key

		reserved, err := client.SetNX(ctx, storeKey, idempotencyPending, reservationTTL).Result()
		if err != nil {
			// Redis unavailable, serve without idempotency.
			c.Next()
			return
		}
		if !reserved {
			replay(c, client, storeKey)
			return
		}

		w := &captureWriter{ResponseWriter: c.Writer}
		c.Writer = w
		c.Next()

		// The request context may already be cancelled once the handler returns.
		storeCtx := context.WithoutCancel(ctx)
		if w.Status() >= http.StatusInternalServerError {
			_ = client.Del(storeCtx, storeKey).Err()
			return
		}
		data, err := json.Marshal(storedResponse{Status: w.Status(), Body: w.body.Bytes()})
		if err != nil {
			return
		}
		_ = client.Set(storeCtx, storeKey, data, ttl).Err()
	}
}

func replay(c *gin.Context, client redis.Cmdable, storeKey string) {
	data, err := client.Get(c.Request.Context(), storeKey).Bytes()
	if err != nil {
		// Expired between SETNX and GET, or Redis failed.
		c.Next()
		return
	}
	if string(data) == idempotencyPending {
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "request with this idempotency key is in progress"})
		return
	}

	var stored storedResponse
	if err := json.Unmarshal(data, &stored); err != nil {
		c.Next()
		return
	}
	c.Data(stored.Status, "application/json; charset=utf-8", stored.Body)
	c.Abort()
}

func mutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
		return true
	}
	return false
}
