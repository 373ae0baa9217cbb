package httputil

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "caregate/pkg/domain-errors"
)

func TestWriteError(t *testing.T) {
	decode := func(rr *httptest.ResponseRecorder) map[string]string {
		var body map[string]string
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
		return body
	}

	t.Run("invalid input includes the description", func(t *testing.T) {
		rr := httptest.NewRecorder()
		WriteError(rr, dErrors.New(dErrors.CodeInvalidInput, "patient_ref is required"))

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		body := decode(rr)
		assert.Equal(t, string(dErrors.CodeInvalidInput), body["error"])
		assert.Equal(t, "patient_ref is required", body["error_description"])
	})

	t.Run("internal errors omit the description", func(t *testing.T) {
		rr := httptest.NewRecorder()
		WriteError(rr, dErrors.Wrap(dErrors.CodeInternal, "pool exhausted", errors.New("pgx: too many clients")))

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		body := decode(rr)
		assert.Equal(t, string(dErrors.CodeInternal), body["error"])
		assert.NotContains(t, rr.Body.String(), "pgx")
		assert.Empty(t, body["error_description"])
	})

	t.Run("uncoded errors map to internal", func(t *testing.T) {
		rr := httptest.NewRecorder()
		WriteError(rr, errors.New("plain failure"))

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		assert.NotContains(t, rr.Body.String(), "plain failure")
	})

	t.Run("status mapping", func(t *testing.T) {
		cases := map[dErrors.Code]int{
			dErrors.CodeInvalidInput:     http.StatusBadRequest,
			dErrors.CodeNotFound:         http.StatusNotFound,
			dErrors.CodeInvalidState:     http.StatusConflict,
			dErrors.CodeInsufficientData: http.StatusUnprocessableEntity,
			dErrors.CodeTimeout:          http.StatusGatewayTimeout,
			dErrors.CodeUnavailable:      http.StatusServiceUnavailable,
			dErrors.CodeInternal:         http.StatusInternalServerError,
		}
		for code, status := range cases {
			rr := httptest.NewRecorder()
			WriteError(rr, dErrors.New(code, "x"))
			assert.Equal(t, status, rr.Code, "code %s", code)
		}
	})
}

func TestDecodeAndPrepare(t *testing.T) {
	type payload struct {
		Name string `json:"name"`
	}

	t.Run("decodes a valid body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"ok"}`))
		rr := httptest.NewRecorder()

		got, ok := DecodeAndPrepare[payload](rr, req, nil, req.Context(), "req-1")
		require.True(t, ok)
		assert.Equal(t, "ok", got.Name)
	})

	t.Run("answers 400 on malformed JSON", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{broken`))
		rr := httptest.NewRecorder()

		_, ok := DecodeAndPrepare[payload](rr, req, nil, req.Context(), "req-1")
		require.False(t, ok)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}
