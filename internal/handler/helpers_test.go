package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	apperrors "github.com/DibVibe/SmartCropAdvisory-sub000/internal/pkg/errors"
)

type envelope struct {
	Success    bool              `json:"success"`
	Data       json.RawMessage   `json:"data"`
	Error      string            `json:"error"`
	Code       string            `json:"code"`
	Details    map[string]string `json:"details"`
	Pagination *struct {
		Count      int64 `json:"count"`
		Page       int   `json:"page"`
		PageSize   int   `json:"page_size"`
		TotalPages int   `json:"total_pages"`
		HasNext    bool  `json:"has_next"`
	} `json:"pagination"`
}

func newTestApp() *fiber.App {
	return fiber.New(fiber.Config{ErrorHandler: ErrorHandler(zap.NewNop())})
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body any) (*http.Response, envelope) {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req)
	require.NoError(t, err)

	var env envelope
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &env), string(raw))
	}
	return resp, env
}

func TestErrorResponse(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"app error", apperrors.NotFound("Farm"), http.StatusNotFound, apperrors.CodeNotFound},
		{"conflict", apperrors.Conflict("taken"), http.StatusConflict, apperrors.CodeConflict},
		{"fiber error", fiber.ErrMethodNotAllowed, http.StatusMethodNotAllowed, apperrors.CodeBadRequest},
		{"plain error", errors.New("boom"), http.StatusInternalServerError, apperrors.CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newTestApp()
			app.Get("/", func(c *fiber.Ctx) error {
				return errorResponse(c, zap.NewNop(), tt.err)
			})

			resp, env := doJSON(t, app, http.MethodGet, "/", nil)
			assert.Equal(t, tt.status, resp.StatusCode)
			assert.False(t, env.Success)
			assert.Equal(t, tt.code, env.Code)
		})
	}

	t.Run("internal errors hide their cause", func(t *testing.T) {
		app := newTestApp()
		app.Get("/", func(c *fiber.Ctx) error {
			return errorResponse(c, zap.NewNop(), errors.New("pq: connection refused"))
		})

		_, env := doJSON(t, app, http.MethodGet, "/", nil)
		assert.NotContains(t, env.Error, "connection refused")
	})
}

func TestErrorHandler_UnknownRoute(t *testing.T) {
	app := newTestApp()

	resp, env := doJSON(t, app, http.MethodGet, "/nowhere", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.False(t, env.Success)
	assert.Equal(t, apperrors.CodeNotFound, env.Code)
}

func TestQueryHelpers(t *testing.T) {
	app := newTestApp()
	app.Get("/range", func(c *fiber.Ctx) error {
		v, err := queryIntRange(c, "days", 7, 1, 14)
		if err != nil {
			return errorResponse(c, zap.NewNop(), err)
		}
		return ok(c, v)
	})
	app.Get("/date", func(c *fiber.Ctx) error {
		v, err := queryDate(c, "from")
		if err != nil {
			return errorResponse(c, zap.NewNop(), err)
		}
		return ok(c, v)
	})

	_, env := doJSON(t, app, http.MethodGet, "/range", nil)
	assert.JSONEq(t, `7`, string(env.Data))

	resp, env := doJSON(t, app, http.MethodGet, "/range?days=15", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, env.Details["days"], "between 1 and 14")

	resp, _ = doJSON(t, app, http.MethodGet, "/date?from=2024-06-01", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, env = doJSON(t, app, http.MethodGet, "/date?from=June", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, apperrors.CodeValidation, env.Code)
}
