// SPDX-License-Identifier: MIT

package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseHelpers(t *testing.T) {
	t.Setenv("T_STR", "value")
	t.Setenv("T_EMPTY", "")
	t.Setenv("T_INT", "42")
	t.Setenv("T_DUR", "1m30s")
	t.Setenv("T_BOOL", "YES")
	t.Setenv("T_FLOAT", "0.5")
	t.Setenv("T_LIST", "a, b,,c ")
	t.Setenv("T_BAD", "x")

	assert.Equal(t, "value", ParseString("T_STR", "d"))
	assert.Equal(t, "d", ParseString("T_EMPTY", "d"))
	assert.Equal(t, "d", ParseString("T_UNSET", "d"))

	assert.Equal(t, 42, ParseInt("T_INT", 1))
	assert.Equal(t, 1, ParseInt("T_BAD", 1))
	assert.Equal(t, int64(42), ParseInt64("T_INT", 1))

	assert.Equal(t, 90*time.Second, ParseDuration("T_DUR", time.Second))
	assert.Equal(t, time.Second, ParseDuration("T_BAD", time.Second))

	assert.True(t, ParseBool("T_BOOL", false))
	assert.False(t, ParseBool("T_BAD", false))

	assert.Equal(t, 0.5, ParseFloat("T_FLOAT", 1))
	assert.Equal(t, 1.0, ParseFloat("T_BAD", 1))

	assert.Equal(t, []string{"a", "b", "c"}, ParseList("T_LIST", nil))
	assert.Equal(t, []string{"d"}, ParseList("T_EMPTY", []string{"d"}))
}
