package webdav

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRemoteName(t *testing.T) {
	t.Run("short path untouched", func(t *testing.T) {
		assert.Equal(t, "cat.jpg", remoteName("dav/u1/photos", "cat.jpg"))
	})

	t.Run("long path hashed, extension kept", func(t *testing.T) {
		dir := "dav/u1/" + strings.Repeat("deeply-nested/", 20)
		got := remoteName(dir, "holiday-photos-from-last-summer.jpg")
		assert.NotEqual(t, "holiday-photos-from-last-summer.jpg", got)
		assert.True(t, strings.HasSuffix(got, ".jpg"))
		assert.LessOrEqual(t, len(got), 32+len(".jpg"))
	})

	t.Run("stable for the same location", func(t *testing.T) {
		dir := "dav/u1/" + strings.Repeat("deeply-nested/", 20)
		assert.Equal(t, remoteName(dir, "a.bin"), remoteName(dir, "a.bin"))
		assert.NotEqual(t, remoteName(dir, "a.bin"), remoteName(dir, "b.bin"))
	})

	t.Run("absurd extension dropped", func(t *testing.T) {
		dir := strings.Repeat("d/", 150)
		got := remoteName(dir, "x."+strings.Repeat("e", 40))
		assert.False(t, strings.Contains(got, "."))
		assert.Len(t, got, 32)
	})
}

func TestNewValidatesConfig(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)
}
