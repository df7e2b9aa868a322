package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_IsMatchesSentinelByCode(t *testing.T) {
	err := New(CodeImmutableJournal, "journal jrnl_1 is posted")
	wrapped := fmt.Errorf("update journal: %w", err)

	assert.True(t, errors.Is(wrapped, ErrImmutableJournal))
	assert.False(t, errors.Is(wrapped, ErrUnbalancedJournal))
	assert.Equal(t, CodeImmutableJournal, CodeOf(wrapped))
}

func TestAppError_DetailedTargetDoesNotMatchOthers(t *testing.T) {
	a := New(CodeValidation, "a")
	b := New(CodeValidation, "b")
	assert.False(t, errors.Is(a, b))
}

func TestCodeOf_UnknownErrorIsInternal(t *testing.T) {
	assert.Equal(t, CodeInternal, CodeOf(errors.New("boom")))
	assert.Equal(t, Code(""), CodeOf(nil))
}

func TestDetailOf_HidesInternalCause(t *testing.T) {
	err := Wrap(CodeInternal, "insert failed for jrnl_1", errors.New("pq: connection reset"))
	assert.Equal(t, "internal error", DetailOf(err))
	assert.Equal(t, "internal error", DetailOf(errors.New("raw")))
	assert.Equal(t, "bad line", DetailOf(New(CodeInvalidLine, "bad line")))
}

func TestTransient(t *testing.T) {
	err := Transient("serialization failure", errors.New("40001"))
	assert.True(t, IsTransient(fmt.Errorf("post: %w", err)))
	assert.False(t, IsTransient(ErrNotFound))
}

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusForbidden, HTTPStatus(CodeScopeViolation))
	assert.Equal(t, http.StatusConflict, HTTPStatus(CodeIdempotencyConflict))
	assert.Equal(t, http.StatusUnprocessableEntity, HTTPStatus(CodeUnbalancedJournal))
	assert.Equal(t, http.StatusServiceUnavailable, HTTPStatus(CodeUnavailable))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(CodeInternal))
}
