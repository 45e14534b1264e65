package middleware

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	keyPrefix = "idem:"
	// Epoch values above this are read as milliseconds.
	epochMillisFloor = 1e12
)

var (
	uuidPattern  = regexp.MustCompile(`^[a-f0-9]{8}-[a-f0-9]{4}-[1-5][a-f0-9]{3}-[89ab][a-f0-9]{3}-[a-f0-9]{12}$`)
	hex32Pattern = regexp.MustCompile(`^[a-f0-9]{32}$`)

	errMissingRequestAt = errors.New("missing " + HeaderRequestAt)
	errBadRequestAt     = errors.New(HeaderRequestAt + " must be epoch seconds, epoch milliseconds or RFC3339 with a zone")
)

// clock is swapped in tests.
var clock = func() time.Time { return time.Now().UTC() }

// requestKey scopes a remembered response to one actor calling one route.
type requestKey struct {
	method, route, actor, id string
}

func (k requestKey) String() string {
	return keyPrefix + strings.Join([]string{strings.ToLower(k.method), k.route, k.actor, k.id}, ":")
}

func fingerprint(body []byte) string {
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:])
}

// validRequestID accepts lowercase UUIDs and 32-char lowercase hex only.
func validRequestID(id string) bool {
	return uuidPattern.MatchString(id) || hex32Pattern.MatchString(id)
}

// requestTime parses Ax-Request-At. Timestamps without a zone are rejected.
func requestTime(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, errMissingRequestAt
	}
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		if n > epochMillisFloor {
			return time.UnixMilli(n).UTC(), nil
		}
		return time.Unix(n, 0).UTC(), nil
	}
	// RFC3339Nano also matches inputs without fractional seconds.
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, errBadRequestAt
	}
	return t.UTC(), nil
}

func withinSkew(t, now time.Time, skew time.Duration) bool {
	return !t.Before(now.Add(-skew)) && !t.After(now.Add(skew))
}
