package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRateLimitMiddleware_AllowsUnderLimit(t *testing.T) {
	mw := RateLimitMiddleware(100, 200)

	handlerCalled := false
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerCalled = true
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/repairs", nil)
	req.RemoteAddr = "10.0.0.1:51234"
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if !handlerCalled {
		t.Error("expected handler to be called")
	}
	if rr.Code != http.StatusOK {
		t.Errorf("got status %d, want %d", rr.Code, http.StatusOK)
	}
}

func TestRateLimitMiddleware_BlocksOverLimit(t *testing.T) {
	// Burst of 1: the second request must be rejected.
	mw := RateLimitMiddleware(1, 1)
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i, want := range []int{http.StatusOK, http.StatusTooManyRequests} {
		req := httptest.NewRequest(http.MethodPost, "/repairs", nil)
		req.RemoteAddr = "10.0.0.2:51234"
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		if rr.Code != want {
			t.Errorf("request %d: got status %d, want %d", i, rr.Code, want)
		}
	}
}

func TestRateLimitMiddleware_LimitsPerClient(t *testing.T) {
	mw := RateLimitMiddleware(1, 1)
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	// Exhaust one client's budget.
	req := httptest.NewRequest(http.MethodPost, "/repairs", nil)
	req.RemoteAddr = "10.0.0.3:51234"
	handler.ServeHTTP(httptest.NewRecorder(), req)

	// A different client still gets through.
	other := httptest.NewRequest(http.MethodPost, "/repairs", nil)
	other.RemoteAddr = "10.0.0.4:51234"
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, other)

	if rr.Code != http.StatusOK {
		t.Errorf("got status %d, want %d", rr.Code, http.StatusOK)
	}
}

func TestRateLimitMiddleware_ZeroDisables(t *testing.T) {
	mw := RateLimitMiddleware(0, 0)
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 10; i++ {
		req := httptest.NewRequest(http.MethodPost, "/repairs", nil)
		req.RemoteAddr = "10.0.0.5:51234"
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		if rr.Code != http.StatusOK {
			t.Fatalf("request %d: got status %d, want %d", i, rr.Code, http.StatusOK)
		}
	}
}
