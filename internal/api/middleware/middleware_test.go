package middleware

import (
	"SetMatch/internal/api/config"
	"SetMatch/internal/api/dto"
	"SetMatch/internal/pkg/consts"
	"SetMatch/internal/pkg/logger"
	"SetMatch/internal/pkg/security"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubBlacklist struct {
	revoked map[string]bool
	err     error
}

func (s *stubBlacklist) IsRevoked(_ context.Context, signature string) (bool, error) {
	return s.revoked[signature], s.err
}

func init() {
	gin.SetMode(gin.TestMode)
	security.InitJWT(config.JWTConfig{Secret: "middleware-secret", ExpirationHours: 1})
}

func newAuthRouter(blacklist TokenBlacklist, extra ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	handlers := append([]gin.HandlerFunc{AuthMiddleware(blacklist)}, extra...)
	handlers = append(handlers, func(c *gin.Context) {
		c.JSON(http.StatusOK, dto.Response{Code: 200, Data: c.GetUint64(consts.UserIDKey)})
	})
	r.GET("/me", handlers...)
	return r
}

func doRequest(r http.Handler, target string, header map[string]string) dto.Response {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var resp dto.Response
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	return resp
}

func TestAuthMiddleware(t *testing.T) {
	token, err := security.GenerateToken(7, []string{"USER"})
	require.NoError(t, err)
	signature, err := security.ExtractSignature(token)
	require.NoError(t, err)

	tests := []struct {
		name      string
		blacklist *stubBlacklist
		target    string
		header    map[string]string
		wantCode  int
	}{
		{name: "bearer header", blacklist: &stubBlacklist{}, target: "/me", header: map[string]string{"Authorization": "Bearer " + token}, wantCode: 200},
		{name: "query token", blacklist: &stubBlacklist{}, target: "/me?token=" + token, wantCode: 200},
		{name: "missing", blacklist: &stubBlacklist{}, target: "/me", wantCode: 401},
		{name: "wrong scheme", blacklist: &stubBlacklist{}, target: "/me", header: map[string]string{"Authorization": "Basic " + token}, wantCode: 401},
		{name: "revoked", blacklist: &stubBlacklist{revoked: map[string]bool{signature: true}}, target: "/me", header: map[string]string{"Authorization": "Bearer " + token}, wantCode: 401},
		{name: "blacklist down", blacklist: &stubBlacklist{err: errors.New("redis down")}, target: "/me?token=" + token, wantCode: 500},
		{name: "garbage", blacklist: &stubBlacklist{}, target: "/me?token=a.b.c", wantCode: 401},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := doRequest(newAuthRouter(tt.blacklist), tt.target, tt.header)
			assert.Equal(t, tt.wantCode, resp.Code)
			if tt.wantCode == 200 {
				assert.EqualValues(t, 7, resp.Data)
			}
		})
	}
}

func TestCheckRoles(t *testing.T) {
	admin, err := security.GenerateToken(1, []string{"ADMIN"})
	require.NoError(t, err)
	user, err := security.GenerateToken(2, []string{"USER"})
	require.NoError(t, err)

	r := newAuthRouter(&stubBlacklist{}, CheckRoles("ADMIN"))

	assert.Equal(t, 200, doRequest(r, "/me?token="+admin, nil).Code)
	assert.Equal(t, 403, doRequest(r, "/me?token="+user, nil).Code)
}

func TestTraceMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(TraceMiddleware())
	r.GET("/trace", func(c *gin.Context) {
		c.String(http.StatusOK, logger.TraceID(c.Request.Context()))
	})

	req := httptest.NewRequest(http.MethodGet, "/trace", nil)
	req.Header.Set("X-Trace-ID", "abc")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc", w.Body.String())
	assert.Equal(t, "abc", w.Header().Get("X-Trace-ID"))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/trace", nil))
	assert.NotEmpty(t, w.Header().Get("X-Trace-ID"))
	assert.Equal(t, w.Header().Get("X-Trace-ID"), w.Body.String())
}

func TestCORSMiddleware_Preflight(t *testing.T) {
	r := gin.New()
	r.Use(CORSMiddleware())
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/x", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestAuditMiddleware_KeepsBodyReadable(t *testing.T) {
	r := gin.New()
	r.Use(AuditMiddleware(time.Second))
	r.POST("/echo", func(c *gin.Context) {
		var body map[string]string
		require.NoError(t, c.ShouldBindJSON(&body))
		c.JSON(http.StatusOK, body)
	})

	req := httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader(`{"a":"b"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.JSONEq(t, `{"a":"b"}`, w.Body.String())
}

func TestRedactQuery(t *testing.T) {
	assert.Equal(t, "token=***&unread=true", redactQuery("unread=true&token=secret"))
	assert.Equal(t, "page=1", redactQuery("page=1"))
}
