package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDomainError_MessageIncludesCodeCauseAndSortedContext(t *testing.T) {
	err := Wrap(fmt.Errorf("unexpected indent"), CodeParseFailure, "syntax error")
	err = AddContext(err, CtxPath, "pkg/mod.py")
	err = AddContext(err, CtxLine, 7)

	assert.Equal(t, "[PARSE_FAILURE] syntax error: unexpected indent {line=7 path=pkg/mod.py}", err.Error())
}

func TestIsCode(t *testing.T) {
	err := New(CodeNotFound, "missing")
	assert.True(t, IsCode(err, CodeNotFound))
	assert.False(t, IsCode(err, CodeInternal))

	wrapped := fmt.Errorf("outer: %w", err)
	assert.True(t, IsCode(wrapped, CodeNotFound))
	assert.False(t, IsCode(fmt.Errorf("plain"), CodeNotFound))
}

func TestAddContext_WrapsPlainErrorsAsInternal(t *testing.T) {
	base := fmt.Errorf("disk full")
	err := AddContext(base, CtxOperation, "write")

	require.True(t, IsCode(err, CodeInternal))
	assert.ErrorIs(t, err, base)
}
