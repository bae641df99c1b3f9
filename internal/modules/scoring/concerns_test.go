package scoring

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConcerns_OrderedDedupe(t *testing.T) {
	c := NewConcerns("b", "a")
	c.Add("c", "a", "b", "d")
	c.Add("c")

	assert.Equal(t, []string{"b", "a", "c", "d"}, c.Items())
	assert.Equal(t, 4, c.Len())
	assert.True(t, c.Contains("d"))
	assert.False(t, c.Contains("e"))
}

func TestConcerns_ZeroValueUsable(t *testing.T) {
	var c Concerns
	c.Add("x")
	assert.Equal(t, []string{"x"}, c.Items())
}

func TestConcerns_EmptyEncodesAsArray(t *testing.T) {
	data, err := json.Marshal(NewConcerns().Items())
	assert.NoError(t, err)
	assert.Equal(t, "[]", string(data))
}

func TestConcerns_ItemsIsACopy(t *testing.T) {
	c := NewConcerns("a")
	items := c.Items()
	items[0] = "mutated"
	assert.Equal(t, []string{"a"}, c.Items())
}
