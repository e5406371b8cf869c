package respond

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/gloriosas/wellness/internal/cache"
)

func TestView(t *testing.T) {
	v := cache.View{Body: []byte(`{"ok":true}`), ETag: `W/"abc"`, TTL: 30 * time.Second, Hit: true}

	rec := httptest.NewRecorder()
	View(rec, httptest.NewRequest(http.MethodGet, "/", nil), v)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `{"ok":true}`, rec.Body.String())
	assert.Equal(t, "HIT", rec.Header().Get("X-Cache"))
	assert.Equal(t, "private, max-age=30", rec.Header().Get("Cache-Control"))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("If-None-Match", `W/"000", W/"abc"`)
	rec = httptest.NewRecorder()
	View(rec, req, v)
	assert.Equal(t, http.StatusNotModified, rec.Code)
	assert.Empty(t, rec.Body.String())
	assert.Equal(t, `W/"abc"`, rec.Header().Get("ETag"))
}

func TestHolds(t *testing.T) {
	assert.True(t, holds(`W/"abc"`, `W/"abc"`))
	assert.True(t, holds("*", `W/"abc"`))
	assert.False(t, holds("", `W/"abc"`))
	assert.False(t, holds(" , ", `W/"abc"`))
	assert.False(t, holds(`W/"000"`, `W/"abc"`))
}

func TestError(t *testing.T) {
	rec := httptest.NewRecorder()
	Error(rec, http.StatusBadRequest, Problem{Code: "OUT_OF_RANGE", Message: "Value out of range", Detail: "mood"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	assert.JSONEq(t, `{"error":{"code":"OUT_OF_RANGE","message":"Value out of range","detail":"mood"}}`, rec.Body.String())
}
