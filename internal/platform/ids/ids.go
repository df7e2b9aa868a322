// Package ids generates prefix-qualified, K-sortable identifiers for ledger
// entities in the form "prefix_suffix".
package ids

import (
	"fmt"

	"github.com/google/uuid"
	"go.jetify.com/typeid/v2"
)

// Prefix identifies the entity type encoded in an id.
type Prefix string

const (
	PrefixTenant  Prefix = "tnt"
	PrefixCompany Prefix = "co"
	PrefixAccount Prefix = "acct"
	PrefixJournal Prefix = "jrnl"
	PrefixLine    Prefix = "jln"
	PrefixFxRate  Prefix = "fx"
	PrefixAudit   Prefix = "aud"
)

// New generates an id with the given prefix. It panics on an invalid
// prefix, which is a programming error.
func New(prefix Prefix) string {
	tid, err := typeid.Generate(string(prefix))
	if err != nil {
		panic(fmt.Sprintf("ids: invalid prefix %q: %v", prefix, err))
	}
	return tid.String()
}

// HasPrefix reports whether s parses as an id carrying prefix.
func HasPrefix(s string, prefix Prefix) bool {
	tid, err := typeid.Parse(s)
	if err != nil {
		return false
	}
	return tid.Prefix() == string(prefix)
}

// NewToken returns an opaque random token, used for claims and request ids.
func NewToken() string {
	return uuid.NewString()
}
