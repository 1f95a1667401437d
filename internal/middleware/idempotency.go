package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

const (
	idempotencyHeader = "Idempotency-Key"
	idempotencyTTL    = 24 * time.Hour

	// inFlightTTL bounds how long a crashed request can block its key.
	inFlightTTL = 30 * time.Second
)

// storedResponse is the replayable outcome of a request. An entry with a
// zero StatusCode marks a request that is still running.
type storedResponse struct {
	StatusCode  int             `json:"status_code"`
	ContentType string          `json:"content_type,omitempty"`
	Body        json.RawMessage `json:"body,omitempty"`
}

var inFlightMarker, _ = json.Marshal(storedResponse{})

// bodyRecorder tees the response body so it can be stored.
type bodyRecorder struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (w *bodyRecorder) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

// IdempotencyMiddleware makes POST/PUT/PATCH requests carrying an
// Idempotency-Key safe to retry: the first request runs, a concurrent
// duplicate gets 409, and later duplicates replay the stored response.
// Keys are scoped to the authenticated caller, so it must run after
// Authenticate. Redis failures fall through to normal processing.
func IdempotencyMiddleware(client redis.Cmdable) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader(idempotencyHeader)
		if key == "" || !isMutating(c.Request.Method) {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		cacheKey := idempotencyKey(UserID(c), c.Request.Method, c.Request.URL.Path, key)

		reserved, err := client.SetNX(ctx, cacheKey, inFlightMarker, inFlightTTL).Result()
		if err != nil {
			c.Next()
			return
		}

		if !reserved {
			stored, err := loadResponse(ctx, client, cacheKey)
			switch {
			case err != nil:
				c.Next()
			case stored.StatusCode == 0:
				c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "a request with this idempotency key is in progress"})
			default:
				c.Header("Idempotent-Replayed", "true")
				c.Data(stored.StatusCode, stored.ContentType, stored.Body)
				c.Abort()
			}
			return
		}

		rec := &bodyRecorder{ResponseWriter: c.Writer}
		c.Writer = rec
		c.Next()

		// Server errors are not final; free the key so the client can retry.
		status := rec.Status()
		storeCtx := context.WithoutCancel(ctx)
		if status >= http.StatusInternalServerError {
			_ = client.Del(storeCtx, cacheKey).Err()
			return
		}
		_ = storeResponse(storeCtx, client, cacheKey, storedResponse{
			StatusCode:  status,
			ContentType: rec.Header().Get("Content-Type"),
			Body:        rec.body.Bytes(),
		})
	}
}

func isMutating(method string) bool {
	return method == http.MethodPost || method == http.MethodPut || method == http.MethodPatch
}

// idempotencyKey scopes a client key to the caller and the request target.
func idempotencyKey(userID, method, path, key string) string {
	return fmt.Sprintf("idempotency:%s:%s:%s:%s", userID, method, path, key)
}

func loadResponse(ctx context.Context, client redis.Cmdable, key string) (*storedResponse, error) {
	data, err := client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		// Expired between SETNX and GET; treat as still running.
		return &storedResponse{}, nil
	}
	if err != nil {
		return nil, err
	}

	var stored storedResponse
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, err
	}
	return &stored, nil
}

func storeResponse(ctx context.Context, client redis.Cmdable, key string, resp storedResponse) error {
	data, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	return client.Set(ctx, key, data, idempotencyTTL).Err()
}
