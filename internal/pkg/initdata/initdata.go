// Package initdata verifies Telegram Mini App launch payloads ("init data").
//
// The payload is a query string signed by Telegram with a key derived from
// the bot token, so a request carrying it proves which platform user opened
// the app without any server-side session.
package initdata

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

const (
	hashKey       = "hash"
	userKey       = "user"
	authDateKey   = "auth_date"
	webAppDataKey = "WebAppData"
)

// Error is an authentication failure with a stable, client-facing reason code.
type Error struct {
	Reason string
}

func (e *Error) Error() string { return "init data: " + e.Reason }

var (
	ErrMissingInitData = &Error{Reason: "missing_init_data"}
	ErrMalformed       = &Error{Reason: "malformed_init_data"}
	ErrMissingHash     = &Error{Reason: "missing_hash"}
	ErrBadHash         = &Error{Reason: "bad_hash"}
	ErrMalformedUser   = &Error{Reason: "malformed_user"}
	ErrExpired         = &Error{Reason: "expired"}
)

// Reason returns the reason code of an authentication error, or "unauthorized"
// for anything else.
func Reason(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Reason
	}
	return "unauthorized"
}

// User is the identity claim embedded in the "user" field.
type User struct {
	ID           int64  `json:"id"`
	FirstName    string `json:"first_name,omitempty"`
	LastName     string `json:"last_name,omitempty"`
	Username     string `json:"username,omitempty"`
	LanguageCode string `json:"language_code,omitempty"`
	IsPremium    bool   `json:"is_premium,omitempty"`
}

// Claims is the verified content of a launch payload.
type Claims struct {
	User       User
	AuthDate   time.Time
	QueryID    string
	StartParam string
	Raw        string
}

type options struct {
	maxAge time.Duration
	now    func() time.Time
}

type Option func(*options)

// WithMaxAge rejects payloads whose auth_date is older than d. Zero disables the check.
func WithMaxAge(d time.Duration) Option { return func(o *options) { o.maxAge = d } }

// WithClock overrides the time source used by the freshness check.
func WithClock(now func() time.Time) Option { return func(o *options) { o.now = now } }

// Validate checks the signature of raw against botToken and extracts the claims.
//
// A payload whose signature verifies but whose user claim is absent or not a
// JSON object with a positive numeric id fails with ErrMalformedUser: callers
// get an identity or an error, never a signed payload with no one behind it.
func Validate(raw, botToken string, opts ...Option) (*Claims, error) {
	o := options{now: time.Now}
	for _, fn := range opts {
		fn(&o)
	}

	if strings.TrimSpace(raw) == "" {
		return nil, ErrMissingInitData
	}
	values, err := url.ParseQuery(raw)
	if err != nil {
		return nil, ErrMalformed
	}
	for _, vs := range values {
		if len(vs) > 1 {
			return nil, ErrMalformed
		}
	}
	got := values.Get(hashKey)
	if got == "" {
		return nil, ErrMissingHash
	}
	values.Del(hashKey)

	want := sign(CheckString(values), botToken)
	if !hmac.Equal([]byte(want), []byte(got)) {
		return nil, ErrBadHash
	}

	c := &Claims{
		QueryID:    values.Get("query_id"),
		StartParam: values.Get("start_param"),
		Raw:        raw,
	}
	if s := values.Get(authDateKey); s != "" {
		if sec, err := strconv.ParseInt(s, 10, 64); err == nil {
			c.AuthDate = time.Unix(sec, 0)
		}
	}
	if o.maxAge > 0 {
		if c.AuthDate.IsZero() || o.now().Sub(c.AuthDate) > o.maxAge {
			return nil, ErrExpired
		}
	}

	userJSON := values.Get(userKey)
	if userJSON == "" {
		return nil, ErrMalformedUser
	}
	if err := json.Unmarshal([]byte(userJSON), &c.User); err != nil || c.User.ID <= 0 {
		return nil, ErrMalformedUser
	}
	return c, nil
}

// CheckString builds the canonical data-check string: every pair except hash,
// sorted by key, joined as key=value lines. Only the first value of a key is
// used; Validate rejects payloads that repeat one.
func CheckString(values url.Values) string {
	keys := make([]string, 0, len(values))
	for k := range values {
		if k == hashKey {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(values.Get(k))
	}
	return b.String()
}

// Sign returns values encoded as a launch payload with a valid hash for
// botToken. It is what Telegram does on its side; tests and local tooling use it
// to mint payloads.
func Sign(values url.Values, botToken string) string {
	cp := url.Values{}
	for k, vs := range values {
		if k == hashKey {
			continue
		}
		cp[k] = append([]string(nil), vs...)
	}
	cp.Set(hashKey, sign(CheckString(cp), botToken))
	return cp.Encode()
}

func sign(checkString, botToken string) string {
	secret := hmac.New(sha256.New, []byte(webAppDataKey))
	secret.Write([]byte(botToken))

	mac := hmac.New(sha256.New, secret.Sum(nil))
	mac.Write([]byte(checkString))
	return hex.EncodeToString(mac.Sum(nil))
}
