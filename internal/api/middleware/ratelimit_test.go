package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

type fakeCounter struct {
	hits map[string]int
	err  error
}

func (f *fakeCounter) Hit(_ context.Context, key string) (int, time.Duration, error) {
	if f.err != nil {
		return 0, 0, f.err
	}
	f.hits[key]++
	return f.hits[key], 30 * time.Second, nil
}

func hitOnce(t *testing.T, mw echo.MiddlewareFunc) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/sweets", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := mw(func(c echo.Context) error { return c.NoContent(http.StatusOK) })(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	return rec
}

func TestRateLimit_BlocksAfterMax(t *testing.T) {
	counter := &fakeCounter{hits: map[string]int{}}
	mw := RateLimit(counter, 2, zerolog.Nop())

	for i := 0; i < 2; i++ {
		if rec := hitOnce(t, mw); rec.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i, rec.Code)
		}
	}

	rec := hitOnce(t, mw)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") != "30" {
		t.Fatalf("expected Retry-After 30, got %q", rec.Header().Get("Retry-After"))
	}
	if rec.Header().Get("X-RateLimit-Remaining") != "0" {
		t.Fatalf("expected remaining 0, got %q", rec.Header().Get("X-RateLimit-Remaining"))
	}
	if counter.hits["ip:10.0.0.1"] != 3 {
		t.Fatalf("expected hits keyed by ip, got %v", counter.hits)
	}
}

func TestRateLimit_FailsOpen(t *testing.T) {
	mw := RateLimit(&fakeCounter{err: errors.New("redis down")}, 1, zerolog.Nop())
	for i := 0; i < 3; i++ {
		if rec := hitOnce(t, mw); rec.Code != http.StatusOK {
			t.Fatalf("expected 200 while counter is down, got %d", rec.Code)
		}
	}
}
