package response_test

import (
	"campusbook/shared/failure"
	"campusbook/transport/http/response"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWithError(t *testing.T) {
	t.Run("failure with details", func(t *testing.T) {
		rec := httptest.NewRecorder()

		response.WithError(rec, failure.CapacityExceeded("capacity exceeded", []string{"R2", "R3"}))

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

		var body map[string]any
		assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "capacity exceeded", body["error"])
		assert.Equal(t, failure.KindCapacityExceeded, body["kind"])
		assert.Equal(t, []any{"R2", "R3"}, body["details"])
	})

	t.Run("plain error", func(t *testing.T) {
		rec := httptest.NewRecorder()

		response.WithError(rec, errors.New("boom"))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.JSONEq(t, `{"error":"boom","kind":"internal_error"}`, rec.Body.String())
	})
}

func TestWithJSON(t *testing.T) {
	rec := httptest.NewRecorder()

	response.WithJSON(rec, http.StatusCreated, map[string]string{"id": "b-1"})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"data":{"id":"b-1"}}`, rec.Body.String())
}

func TestWithMessage(t *testing.T) {
	rec := httptest.NewRecorder()

	response.WithRequestLimitExceeded(rec)

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.JSONEq(t, `{"message":"REQUEST LIMIT EXCEEDED"}`, rec.Body.String())
}
