package respond

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"livestock-tracking/internal/domain/apperr"
	"livestock-tracking/internal/platform/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError_StatusMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		msg    string
	}{
		{"not found", apperr.NotFound("Cattle", "id", 9), http.StatusNotFound, "Cattle not found with id : '9'"},
		{"duplicate", apperr.DuplicateKey("Cattle", "code", "A1B2C3"), http.StatusBadRequest, "Cattle already exists with code : 'A1B2C3'"},
		{"validation", apperr.Invalid("code", "required", "code is required"), http.StatusBadRequest, "invalid input"},
		{"internal", errors.New("connection reset"), http.StatusInternalServerError, "internal error"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			Error(rec, logger.Nop(), tc.err)

			assert.Equal(t, tc.status, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

			var body errorBody
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tc.msg, body.Error)
		})
	}
}

func TestError_ValidationDetails(t *testing.T) {
	rec := httptest.NewRecorder()
	Error(rec, nil, apperr.Invalid("email", "email", "email must be a valid email"))

	var body errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Details, 1)
	assert.Equal(t, "email", body.Details[0].Field)
}
