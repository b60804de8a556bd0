package http

import (
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestJSONResponseBuilder(t *testing.T) {
	rec := httptest.NewRecorder()
	NewJSONResponse().
		Status(http.StatusCreated).
		Header("X-Test", "1").
		Payload(map[string]string{"category": "Фастфуд & <кафе>"}).
		Write(rec)

	if rec.Code != http.StatusCreated || rec.Header().Get("X-Test") != "1" {
		t.Fatalf("unexpected response %d %v", rec.Code, rec.Header())
	}
	if got, want := rec.Body.String(), `{"category":"Фастфуд & <кафе>"}`+"\n"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestErrorResponses(t *testing.T) {
	cases := []struct {
		builder *JSONResponseBuilder
		status  int
		body    string
	}{
		{BadRequestError("bad"), http.StatusBadRequest, `{"error":"bad"}` + "\n"},
		{InternalServerError("boom"), http.StatusInternalServerError, `{"error":"boom"}` + "\n"},
		{NewJSONResponse().Payload(math.Inf(1)), http.StatusInternalServerError, `{"error":"response encoding failed"}` + "\n"},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		tc.builder.Write(rec)
		if rec.Code != tc.status || rec.Body.String() != tc.body {
			t.Fatalf("got %d %q, want %d %q", rec.Code, rec.Body.String(), tc.status, tc.body)
		}
	}

	rec := httptest.NewRecorder()
	TooManyRequestsError().Write(rec)
	if rec.Code != http.StatusTooManyRequests || rec.Header().Get("Retry-After") != "60" {
		t.Fatalf("unexpected rate limit response %d %v", rec.Code, rec.Header())
	}
}
