package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestWriteErrorEnvelope(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	writeError(rec, http.StatusUnauthorized, "INVALID_CREDENTIALS", "invalid email or password")

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status: got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json; charset=utf-8" {
		t.Fatalf("content type: got %q", ct)
	}

	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["errorCode"] != "INVALID_CREDENTIALS" || body["message"] != "invalid email or password" {
		t.Fatalf("body: %+v", body)
	}
}

func TestWriteSuccessWrapsData(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	writeSuccess(rec, http.StatusOK, map[string]string{"title": "first entry"})

	var body struct {
		Data    map[string]string `json:"data"`
		Message string            `json:"message"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Data["title"] != "first entry" || body.Message != "" {
		t.Fatalf("body: %+v", body)
	}
}

func TestWriteMessageOmitsData(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	writeMessage(rec, http.StatusOK, "entry deleted")

	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["message"] != "entry deleted" {
		t.Fatalf("body: %+v", body)
	}
	if _, ok := body["data"]; ok {
		t.Fatal("data key must be omitted from message-only bodies")
	}
}
