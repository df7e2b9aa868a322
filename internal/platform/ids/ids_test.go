package ids

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew_PrefixedAndUnique(t *testing.T) {
	a := New(PrefixJournal)
	b := New(PrefixJournal)

	assert.True(t, strings.HasPrefix(a, "jrnl_"))
	assert.NotEqual(t, a, b)
	assert.True(t, HasPrefix(a, PrefixJournal))
	assert.False(t, HasPrefix(a, PrefixAccount))
	assert.False(t, HasPrefix("not-an-id", PrefixJournal))
}

func TestNewToken(t *testing.T) {
	assert.Len(t, NewToken(), 36)
}
