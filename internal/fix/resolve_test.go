package fix

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolve(t *testing.T) {
	t.Run("all equal needs no update", func(t *testing.T) {
		r := Resolve(Versions{
			Directory: "2020-01-01",
			Metadata:  "2020-01-01",
			Commit:    "2020-01-01",
		})

		assert.False(t, r.NeedsUpdate())
		assert.Equal(t, "2020-01-01", r.Target)
	})

	t.Run("target ignores the directory version", func(t *testing.T) {
		// the directory is way ahead of everything, still it never
		// becomes the target
		r := Resolve(Versions{
			Directory: "2030-12-31",
			Metadata:  "2020-01-01",
			Commit:    "2020-06-15",
		})

		assert.Equal(t, "2020-06-15", r.Target)
		assert.True(t, r.UpdateMetadata)
		assert.True(t, r.UpdateDirectory)
	})

	t.Run("newer commit wins over metadata", func(t *testing.T) {
		r := Resolve(Versions{
			Directory: "2020-01-01",
			Metadata:  "2020-01-01",
			Commit:    "2020-06-15",
		})

		assert.Equal(t, "2020-06-15", r.Target)
		assert.True(t, r.UpdateMetadata)
		assert.True(t, r.UpdateDirectory)
	})

	t.Run("newer metadata wins over commit", func(t *testing.T) {
		r := Resolve(Versions{
			Directory: "2020-01-01",
			Metadata:  "2021-03-03",
			Commit:    "2020-06-15",
		})

		assert.Equal(t, "2021-03-03", r.Target)
		assert.False(t, r.UpdateMetadata)
		assert.True(t, r.UpdateDirectory)
	})

	t.Run("only the directory is behind", func(t *testing.T) {
		r := Resolve(Versions{
			Directory: "2019-12-31",
			Metadata:  "2020-01-01",
			Commit:    "2020-01-01",
		})

		assert.Equal(t, "2020-01-01", r.Target)
		assert.False(t, r.UpdateMetadata)
		assert.True(t, r.UpdateDirectory)
	})

	t.Run("the flags are reported separately", func(t *testing.T) {
		for _, tc := range []struct {
			versions  Versions
			metadata  bool
			directory bool
		}{
			{Versions{"2020-01-01", "2020-01-01", "2020-01-01"}, false, false},
			{Versions{"2020-01-01", "2020-06-15", "2020-01-01"}, false, true},
			{Versions{"2020-06-15", "2020-06-15", "2020-01-01"}, false, false},
			{Versions{"2020-06-15", "2020-01-01", "2020-06-15"}, true, false},
		} {
			r := Resolve(tc.versions)
			assert.Equal(t, tc.metadata, r.UpdateMetadata, "%+v", tc.versions)
			assert.Equal(t, tc.directory, r.UpdateDirectory, "%+v", tc.versions)
		}
	})
}
