package id

import (
	"crypto/rand"
	"strings"

	"github.com/oklog/ulid/v2"
)

// New generates a new ULID string. ULIDs are lexicographically sortable
// by creation time and safe for use as DynamoDB partition keys.
func New() string {
	return ulid.MustNew(ulid.Now(), rand.Reader).String()
}

// NewReference returns a human-facing transaction reference such as
// "tx_ref_3k9qz7ma". The suffix comes from the ULID entropy bytes.
func NewReference() string {
	s := New()
	return "tx_ref_" + strings.ToLower(s[len(s)-8:])
}
