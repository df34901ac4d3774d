package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quickedit/internal/models"
)

func TestKey_NormalizesMessageAndPathOrder(t *testing.T) {
	files := map[string]string{"a.css": "x", "b.css": "y"}

	k1 := Key("Change  the Button color", files, []string{"b.css", "a.css"})
	k2 := Key("change the button color ", files, []string{"a.css", "b.css"})
	assert.Equal(t, k1, k2)

	assert.NotEqual(t, k1, Key("change the button colour", files, []string{"a.css", "b.css"}))
	assert.NotEqual(t, k1, Key("change the button color", files, []string{"a.css"}))
	assert.NotEqual(t, k1, Key("change the button color", map[string]string{"a.css": "z", "b.css": "y"}, []string{"a.css", "b.css"}))
}

func TestResultCache_GetPut(t *testing.T) {
	c := New(2, time.Minute)
	_, ok := c.Get("k")
	assert.False(t, ok)

	in := &models.EditResult{Success: true, UpdatedFiles: map[string]string{"a.css": "1"}}
	c.Put("k", in)
	in.UpdatedFiles["a.css"] = "mutated"

	got, ok := c.Get("k")
	require.True(t, ok)
	assert.True(t, got.Cached)
	assert.Equal(t, "1", got.UpdatedFiles["a.css"])
	assert.False(t, in.Cached)

	st := c.Stats()
	assert.Equal(t, int64(1), st.Hits)
	assert.Equal(t, int64(1), st.Misses)
	assert.Equal(t, 1, st.Size)
}

func TestResultCache_Capacity(t *testing.T) {
	c := New(2, time.Minute)
	c.Put("a", &models.EditResult{})
	c.Put("b", &models.EditResult{})
	c.Put("c", &models.EditResult{})

	_, ok := c.Get("a")
	assert.False(t, ok)
	assert.Equal(t, 2, c.Stats().Size)
}

func TestResultCache_Expiry(t *testing.T) {
	c := New(10, 20*time.Millisecond)
	c.Put("a", &models.EditResult{})
	assert.Eventually(t, func() bool {
		_, ok := c.Get("a")
		return !ok
	}, time.Second, 10*time.Millisecond)
}
