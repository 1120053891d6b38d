package errors

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCodeNamesAreUnique(t *testing.T) {
	seen := make(map[Code]bool)
	for code := range codeNames {
		assert.False(t, seen[code], "duplicate code %d", code)
		seen[code] = true
	}
}

func TestCodeOfTranslatesKnownTypes(t *testing.T) {
	assert.Equal(t, QExecDmlDuplicate, CodeOf(New(QExecDmlDuplicate, "duplicate key")))
	assert.Equal(t, TxnIoError, CodeOf(NewRuntime(RuntimeIO, TxnIoError, assert.AnError)))
	assert.Equal(t, SysUnknownError, CodeOf(assert.AnError))
	assert.Equal(t, Code(0), CodeOf(nil))
}
