package httputil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "sealedger/pkg/domain-errors"
	"sealedger/pkg/testutil"
)

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	return body
}

func TestWriteError(t *testing.T) {
	testutil.Given(t, "an internal error", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, dErrors.New(dErrors.CodeInternal, "db failed"))

		testutil.Then(t, "the description is omitted", func(t *testing.T) {
			assert.Equal(t, http.StatusInternalServerError, w.Code)
			body := decode(t, w)
			assert.Equal(t, "internal_error", body["error"])
			assert.NotContains(t, body, "error_description")
		})
	})

	testutil.Given(t, "a bad request error", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid input"))

		testutil.Then(t, "the description is returned", func(t *testing.T) {
			assert.Equal(t, http.StatusBadRequest, w.Code)
			body := decode(t, w)
			assert.Equal(t, "bad_request", body["error"])
			assert.Equal(t, "invalid input", body["error_description"])
		})
	})

	testutil.Given(t, "an uncoded error", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, fmt.Errorf("plain failure"))

		testutil.Then(t, "it maps to internal_error", func(t *testing.T) {
			assert.Equal(t, http.StatusInternalServerError, w.Code)
			assert.Equal(t, "internal_error", decode(t, w)["error"])
		})
	})
}

func TestStatusMapping(t *testing.T) {
	cases := map[dErrors.Code]int{
		dErrors.CodeBadRequest:    http.StatusBadRequest,
		dErrors.CodeValidation:    http.StatusBadRequest,
		dErrors.CodeAuthorization: http.StatusForbidden,
		dErrors.CodeNotFound:      http.StatusNotFound,
		dErrors.CodeInvalidState:  http.StatusConflict,
		dErrors.CodeTimeout:       http.StatusGatewayTimeout,
		dErrors.CodeExtraction:    http.StatusBadGateway,
		dErrors.CodeScoring:       http.StatusBadGateway,
		dErrors.CodeCommit:        http.StatusBadGateway,
		dErrors.CodeQuery:         http.StatusBadGateway,
		dErrors.CodeInternal:      http.StatusInternalServerError,
	}
	for code, want := range cases {
		w := httptest.NewRecorder()
		WriteError(w, dErrors.New(code, "x"))
		assert.Equal(t, want, w.Code, code)
	}
}

func TestWriteJSON(t *testing.T) {
	w := httptest.NewRecorder()
	WriteJSON(w, http.StatusAccepted, map[string]string{"status": "queued"})

	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"status":"queued"}`, w.Body.String())
}
