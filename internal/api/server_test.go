package api

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goccy/go-json"
	"github.com/labstack/echo/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/psp-tools/psp-packer/internal/testelf"
	"github.com/psp-tools/psp-packer/pkg/packerr"
	"github.com/psp-tools/psp-packer/pkg/psp"
)

func newTestEcho(cfg Config) *echo.Echo {
	if cfg.Keys == nil {
		cfg.Keys = psp.ConstKeys(0)
	}
	e := echo.New()
	NewServer(cfg).Register(e)
	return e
}

func do(t *testing.T, e *echo.Echo, method, path string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEOctetStream)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ResponseError {
	t.Helper()
	var body ErrorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Error
}

func TestHealth(t *testing.T) {
	t.Parallel()

	rec := do(t, newTestEcho(Config{}), http.MethodGet, "/healthz", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var got map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "ok", got["status"])
	assert.NotEmpty(t, got["version"])
}

func TestPackPRX(t *testing.T) {
	t.Parallel()

	img := testelf.Module{Name: "http"}.Build()
	rec := do(t, newTestEcho(Config{}), http.MethodPost, "/v1/pack", img)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	assert.Equal(t, "user_prx", rec.Header().Get(HeaderPSPKind))
	assert.Len(t, rec.Header().Get(echo.HeaderXRequestID), 36)
	assert.Equal(t, echo.MIMEOctetStream, rec.Header().Get(echo.HeaderContentType))

	out := rec.Body.Bytes()
	require.Greater(t, len(out), psp.HeaderSize)
	h, err := psp.Inspect(out, nil)
	require.NoError(t, err)
	assert.True(t, h.Packed)
	assert.Equal(t, "http", h.Module.Name)
	assert.Equal(t, psp.DefaultTags(psp.KindUserPRX), h.Tags)
}

func TestPackQueryTags(t *testing.T) {
	t.Parallel()

	e := newTestEcho(Config{Tags: &psp.Tags{Tag: 9, OETag: 9}})
	img := testelf.Module{}.Build()

	rec := do(t, e, http.MethodPost, "/v1/pack?tag=0x10&oe_tag=32", bytes.Clone(img))
	require.Equal(t, http.StatusOK, rec.Code)
	r, err := psp.Inspect(rec.Body.Bytes(), nil)
	require.NoError(t, err)
	assert.Equal(t, psp.Tags{Tag: 0x10, OETag: 32}, r.Tags)

	rec = do(t, e, http.MethodPost, "/v1/pack", bytes.Clone(img))
	require.Equal(t, http.StatusOK, rec.Code)
	r, err = psp.Inspect(rec.Body.Bytes(), nil)
	require.NoError(t, err)
	assert.Equal(t, psp.Tags{Tag: 9, OETag: 9}, r.Tags)

	rec = do(t, e, http.MethodPost, "/v1/pack?tag=1", img)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_request_error", decodeError(t, rec).Type)
}

func TestPackRequestIDEchoed(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodPost, "/v1/pack", bytes.NewReader(testelf.Module{}.Build()))
	req.Header.Set(echo.HeaderXRequestID, "abc-123")
	rec := httptest.NewRecorder()
	newTestEcho(Config{}).ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get(echo.HeaderXRequestID))
}

func TestPackErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body []byte
		typ  string
		code int
	}{
		{"empty", nil, "file_too_small", packerr.CodeFileTooSmall},
		{"already packed", []byte("~PSP"), "already_packed", packerr.CodeAlreadyPacked},
		{"not prx", testelf.Module{Type: 2}.Build(), "not_prx", packerr.CodeNotPRX},
		{"no bss", testelf.Module{NoBSS: true}.Build(), "bss_not_found", packerr.CodeBSSNotFound},
	}
	e := newTestEcho(Config{})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, e, http.MethodPost, "/v1/pack", tt.body)
			require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
			got := decodeError(t, rec)
			assert.Equal(t, tt.typ, got.Type)
			assert.Equal(t, tt.code, got.Code)
			assert.NotEmpty(t, got.Message)
		})
	}
}

func TestPackBodyTooLarge(t *testing.T) {
	t.Parallel()

	e := newTestEcho(Config{MaxBodySize: 64})
	rec := do(t, e, http.MethodPost, "/v1/pack", make([]byte, 65))
	require.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Equal(t, "request_too_large", decodeError(t, rec).Type)
}

func TestInspect(t *testing.T) {
	t.Parallel()

	in, _ := testelf.Container{}.PBP(testelf.Module{Name: "eboot"}.Build())
	rec := do(t, newTestEcho(Config{}), http.MethodPost, "/v1/inspect", in)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var r psp.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &r))
	assert.False(t, r.Packed)
	assert.Equal(t, "pbp", r.Kind)
	assert.Equal(t, "eboot", r.Module.Name)
	assert.Equal(t, "memory-stick", r.DecryptMode)
	assert.Equal(t, []string{"ms_api"}, r.Module.Flags)
}
