package middleware

import (
	"bytes"
	"io"
	log "log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

const maxAuditBody = 16384

type responseBodyWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (r *responseBodyWriter) Write(b []byte) (int, error) {
	if r.body.Len() < maxAuditBody {
		r.body.Write(b)
	}
	return r.ResponseWriter.Write(b)
}

func (r *responseBodyWriter) Flush() {
	if flusher, ok := r.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

// AuditMiddleware 记录请求与响应，超过 slow 的请求以 Warn 级别输出
// WebSocket 握手只记录请求行，token 查询参数不落日志
func AuditMiddleware(slow time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		upgrade := strings.EqualFold(c.GetHeader("Upgrade"), "websocket")

		var reqBody []byte
		if c.Request.Body != nil && !upgrade {
			reqBody, _ = io.ReadAll(io.LimitReader(c.Request.Body, maxAuditBody))
			c.Request.Body = io.NopCloser(io.MultiReader(bytes.NewReader(reqBody), c.Request.Body))
		}

		log.InfoContext(ctx, "Recv Request",
			log.String("method", c.Request.Method),
			log.String("path", c.Request.URL.Path),
			log.String("query", redactQuery(c.Request.URL.RawQuery)),
			log.String("req_body", string(reqBody)),
		)

		if upgrade {
			c.Next()
			return
		}

		w := &responseBodyWriter{body: &bytes.Buffer{}, ResponseWriter: c.Writer}
		c.Writer = w
		startTime := time.Now()

		c.Next()

		latency := time.Since(startTime)
		level := log.LevelInfo
		if slow > 0 && latency > slow {
			level = log.LevelWarn
		}
		log.Log(ctx, level, "Send Response",
			log.Int("status", c.Writer.Status()),
			log.Duration("latency", latency),
			log.String("res_body", w.body.String()),
		)
	}
}

func redactQuery(rawQuery string) string {
	values, err := url.ParseQuery(rawQuery)
	if err != nil {
		return rawQuery
	}
	if values.Has("token") {
		values.Set("token", "***")
	}
	decoded, err := url.QueryUnescape(values.Encode())
	if err != nil {
		return values.Encode()
	}
	return decoded
}
