package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	testActor = "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"
	testReqID = "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
)

func newIdemEcho(rdb *redis.Client, handler echo.HandlerFunc) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Use(IdempotencyMiddleware(rdb, 2*time.Minute, zerolog.Nop()))
	e.POST("/donations", handler)
	e.GET("/donations", handler)
	return e
}

func created(c echo.Context) error {
	return c.JSON(http.StatusCreated, map[string]bool{"ok": true})
}

// idemHeaders returns a valid header set; overrides with "" delete a header.
func idemHeaders(overrides map[string]string) http.Header {
	h := http.Header{}
	h.Set(HeaderRequestID, testReqID)
	h.Set(HeaderRequestAt, time.Now().UTC().Format(time.RFC3339))
	h.Set(HeaderActorID, testActor)
	for k, v := range overrides {
		if v == "" {
			h.Del(k)
			continue
		}
		h.Set(k, v)
	}
	return h
}

func send(e *echo.Echo, method, body string, h http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, "/donations", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	for k, vs := range h {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestIdempotency_ReadsBypass(t *testing.T) {
	mr, rdb := newMiniRedis(t)
	defer mr.Close()
	e := newIdemEcho(rdb, func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	if rec := send(e, http.MethodGet, "", nil); rec.Code != http.StatusOK {
		t.Fatalf("GET without headers = %d, want 200", rec.Code)
	}
}

func TestIdempotency_RejectsBadHeaders(t *testing.T) {
	mr, rdb := newMiniRedis(t)
	defer mr.Close()
	e := newIdemEcho(rdb, created)

	skewed := time.Now().UTC().Add(-maxClockSkew - time.Minute).Format(time.RFC3339)
	cases := map[string]map[string]string{
		"missing request id": {HeaderRequestID: ""},
		"invalid request id": {HeaderRequestID: "NOT-VALID"},
		"missing request at": {HeaderRequestAt: ""},
		"invalid request at": {HeaderRequestAt: "not-a-time"},
		"skewed request at":  {HeaderRequestAt: skewed},
		"missing actor":      {HeaderActorID: ""},
		"invalid actor":      {HeaderActorID: "not32hex"},
	}
	for name, overrides := range cases {
		t.Run(name, func(t *testing.T) {
			rec := send(e, http.MethodPost, `{"x":1}`, idemHeaders(overrides))
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400 (%s)", rec.Code, rec.Body.String())
			}
		})
	}
	if keys := mr.Keys(); len(keys) != 0 {
		t.Fatalf("rejected requests must not reserve keys: %v", keys)
	}
}

func TestIdempotency_ReplaysFinishedResponse(t *testing.T) {
	mr, rdb := newMiniRedis(t)
	defer mr.Close()
	calls := 0
	e := newIdemEcho(rdb, func(c echo.Context) error {
		calls++
		return c.JSON(http.StatusCreated, map[string]int{"call": calls})
	})

	h := idemHeaders(nil)
	first := send(e, http.MethodPost, `{"amount":"50.00"}`, h)
	second := send(e, http.MethodPost, `{"amount":"50.00"}`, h)

	if calls != 1 {
		t.Fatalf("handler ran %d times, want 1", calls)
	}
	if first.Code != http.StatusCreated || second.Code != http.StatusCreated {
		t.Fatalf("codes = %d, %d; want 201, 201", first.Code, second.Code)
	}
	if first.Body.String() != second.Body.String() {
		t.Fatalf("replayed body %q, want %q", second.Body.String(), first.Body.String())
	}
	if first.Header().Get(HeaderReplayed) != "" || second.Header().Get(HeaderReplayed) != "true" {
		t.Fatalf("replay header: first=%q second=%q", first.Header().Get(HeaderReplayed), second.Header().Get(HeaderReplayed))
	}
}

func TestIdempotency_Conflicts(t *testing.T) {
	key := requestKey{http.MethodPost, "/donations", testActor, testReqID}.String()
	body := `{"x":1}`

	cases := []struct {
		name string
		seed func(s recordStore) error
		body string
	}{
		{
			name: "request still in progress",
			seed: func(s recordStore) error {
				_, err := s.reserve(context.Background(), key, record{InProgress: true, BodySHA256: fingerprint([]byte(body))})
				return err
			},
			body: body,
		},
		{
			name: "same id with a different body",
			seed: func(s recordStore) error {
				final := record{Code: http.StatusCreated, Body: []byte(`{"ok":true}`), BodySHA256: fingerprint([]byte(body))}
				return s.save(context.Background(), key, final, 5*time.Minute)
			},
			body: `{"x":2}`,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			mr, rdb := newMiniRedis(t)
			defer mr.Close()
			if err := tc.seed(newRecordStore(rdb)); err != nil {
				t.Fatalf("seed: %v", err)
			}
			rec := send(newIdemEcho(rdb, created), http.MethodPost, tc.body, idemHeaders(nil))
			if rec.Code != http.StatusConflict {
				t.Fatalf("status = %d, want 409 (%s)", rec.Code, rec.Body.String())
			}
		})
	}
}

func TestIdempotency_StoreUnavailable(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	e := newIdemEcho(rdb, created)

	rec := send(e, http.MethodPost, `{}`, idemHeaders(nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
}

func TestIdempotency_ServerErrorIsNotRemembered(t *testing.T) {
	mr, rdb := newMiniRedis(t)
	defer mr.Close()
	fail := true
	e := newIdemEcho(rdb, func(c echo.Context) error {
		if fail {
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		}
		return created(c)
	})

	h := idemHeaders(nil)
	if rec := send(e, http.MethodPost, `{}`, h); rec.Code != http.StatusInternalServerError {
		t.Fatalf("first = %d, want 500", rec.Code)
	}
	if mr.Exists(requestKey{http.MethodPost, "/donations", testActor, testReqID}.String()) {
		t.Fatalf("5xx response must release the key")
	}

	fail = false
	if rec := send(e, http.MethodPost, `{}`, h); rec.Code != http.StatusCreated {
		t.Fatalf("retry = %d, want 201", rec.Code)
	}
}
