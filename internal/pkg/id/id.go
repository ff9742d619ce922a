package id

import (
	"crypto/rand"

	"github.com/oklog/ulid/v2"
)

// New generates the account_id for a freshly signed-up account. ULIDs are
// lexicographically sortable by creation time and serve directly as the
// accounts table partition key.
func New() string {
	return ulid.MustNew(ulid.Now(), rand.Reader).String()
}
