package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-03-05")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), d)

	d, err = ParseDate("2024-03-05T10:30:00+02:00")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 5, 8, 30, 0, 0, time.UTC), d)

	_, err = ParseDate("05/03/2024")
	assert.Error(t, err)
}

func TestStrHelpers(t *testing.T) {
	assert.Equal(t, "", StrOrEmpty(nil))
	assert.Nil(t, StrPtrOrNil("  "))
	assert.Equal(t, "x", *StrPtrOrNil(" x "))
	assert.Equal(t, "héllo", Truncate("héllo world", 5))
}
