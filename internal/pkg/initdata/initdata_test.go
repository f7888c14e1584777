package initdata

import (
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testToken = "7342037359:AAHI25ES9xCOMPLETELYFAKETOKEN"

// Signed with Telegram's algorithm outside of Go; fields deliberately not in key order.
const externalPayload = "user=%7B%22id%22%3A42%2C%22first_name%22%3A%22Ada%22%2C%22username%22%3A%22ada%22%7D" +
	"&query_id=AAHdF6IQAAAAAN0XohDhrOrc&auth_date=1717000000" +
	"&hash=414ec2407a864dec3b11655a1f185723ca2cbf51ff0d91be1265e2f811726214"

func payload(user string) url.Values {
	v := url.Values{}
	v.Set("auth_date", "1717000000")
	v.Set("query_id", "AAHdF6IQAAAAAN0XohDhrOrc")
	if user != "" {
		v.Set("user", user)
	}
	return v
}

func TestValidate_ExternalVector(t *testing.T) {
	c, err := Validate(externalPayload, testToken)
	require.NoError(t, err)
	assert.Equal(t, int64(42), c.User.ID)
	assert.Equal(t, "Ada", c.User.FirstName)
	assert.Equal(t, "ada", c.User.Username)
	assert.Equal(t, "AAHdF6IQAAAAAN0XohDhrOrc", c.QueryID)
	assert.Equal(t, time.Unix(1717000000, 0), c.AuthDate)
	assert.Equal(t, externalPayload, c.Raw)
}

func TestValidate_SignRoundTrip(t *testing.T) {
	raw := Sign(payload(`{"id":777,"last_name":"Lovelace"}`), testToken)
	c, err := Validate(raw, testToken)
	require.NoError(t, err)
	assert.Equal(t, int64(777), c.User.ID)
	assert.Equal(t, "Lovelace", c.User.LastName)
}

func TestValidate_WrongToken(t *testing.T) {
	_, err := Validate(externalPayload, "other:token")
	assert.ErrorIs(t, err, ErrBadHash)
	assert.Equal(t, "bad_hash", Reason(err))
}

func TestValidate_AnySingleCharMutationFails(t *testing.T) {
	for i := 0; i < len(externalPayload); i++ {
		repl := byte('x')
		if externalPayload[i] == 'x' {
			repl = 'y'
		}
		mutated := externalPayload[:i] + string(repl) + externalPayload[i+1:]
		_, err := Validate(mutated, testToken)
		assert.Error(t, err, "mutation at %d: %q accepted", i, mutated)
	}
}

func TestValidate_PairOrderDoesNotMatter(t *testing.T) {
	parts := strings.Split(externalPayload, "&")
	reversed := make([]string, len(parts))
	for i, p := range parts {
		reversed[len(parts)-1-i] = p
	}
	a, err := url.ParseQuery(externalPayload)
	require.NoError(t, err)
	b, err := url.ParseQuery(strings.Join(reversed, "&"))
	require.NoError(t, err)
	assert.Equal(t, CheckString(a), CheckString(b))

	_, err = Validate(strings.Join(reversed, "&"), testToken)
	assert.NoError(t, err)
}

func TestCheckString_SortedLinesWithoutHash(t *testing.T) {
	v := url.Values{}
	v.Set("user", "u")
	v.Set("auth_date", "1")
	v.Set("hash", "zz")
	v.Set("chat_type", "private")
	assert.Equal(t, "auth_date=1\nchat_type=private\nuser=u", CheckString(v))
}

func TestValidate_Failures(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want *Error
	}{
		{"empty", "", ErrMissingInitData},
		{"blank", "   ", ErrMissingInitData},
		{"no hash", "auth_date=1&user=%7B%22id%22%3A1%7D", ErrMissingHash},
		{"bad escape", "user=%zz&hash=abc", ErrMalformed},
		{"forged", "auth_date=1&user=%7B%22id%22%3A1%7D&hash=deadbeef", ErrBadHash},
		{"no user", Sign(payload(""), testToken), ErrMalformedUser},
		{"user not json", Sign(payload("not-json"), testToken), ErrMalformedUser},
		{"user without id", Sign(payload(`{"first_name":"Ada"}`), testToken), ErrMalformedUser},
		{"repeated user", Sign(url.Values{
			"auth_date": {"1717000000"},
			"user":      {`{"id":1}`, `{"id":2}`},
		}, testToken), ErrMalformed},
		{"repeated hash", Sign(payload(`{"id":1}`), testToken) + "&hash=deadbeef", ErrMalformed},
		{"repeated key after signing", Sign(payload(`{"id":1}`), testToken) + "&auth_date=1", ErrMalformed},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, err := Validate(tc.raw, testToken)
			assert.Nil(t, c)
			assert.ErrorIs(t, err, tc.want)
			assert.Equal(t, tc.want.Reason, Reason(err))
		})
	}
}

func TestValidate_MaxAge(t *testing.T) {
	authDate := time.Unix(1717000000, 0)

	_, err := Validate(externalPayload, testToken,
		WithMaxAge(time.Hour),
		WithClock(func() time.Time { return authDate.Add(30 * time.Minute) }))
	assert.NoError(t, err)

	_, err = Validate(externalPayload, testToken,
		WithMaxAge(time.Hour),
		WithClock(func() time.Time { return authDate.Add(2 * time.Hour) }))
	assert.ErrorIs(t, err, ErrExpired)

	noDate := url.Values{}
	noDate.Set("user", `{"id":5}`)
	_, err = Validate(Sign(noDate, testToken), testToken, WithMaxAge(time.Hour))
	assert.ErrorIs(t, err, ErrExpired)
}

func TestReason_UnknownError(t *testing.T) {
	assert.Equal(t, "unauthorized", Reason(assert.AnError))
}
