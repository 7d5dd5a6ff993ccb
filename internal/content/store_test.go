package content

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OssamaKing555/Beatrix-Media-Hub-sub001/internal/platform/httpx"
)

func fixtureFS(t *testing.T) fstest.MapFS {
	t.Helper()
	return fstest.MapFS{
		"fixtures/platforms.json": &fstest.MapFile{Data: []byte(`[
			{"id":"beatrix-studio","name":"Beatrix Studio","tagline":"Production","description":"Video production.","category":"production","url":"https://studio.beatrix.media","featured":true},
			{"id":"beatrix-reach","name":"Beatrix Reach","tagline":"Distribution","description":"Campaign placement.","category":"distribution","featured":false}
		]`)},
		"fixtures/services.json": &fstest.MapFile{Data: []byte(`[
			{"id":"svc-production","name":"Production","description":"Crewed shoots.","icon":"camera"}
		]`)},
		"fixtures/team.json": &fstest.MapFile{Data: []byte(`[
			{"id":"tm-lena","name":"Lena Ortiz","title":"Creative Director","bio":"Leads the studio."}
		]`)},
	}
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(fixtureFS(t))
	require.NoError(t, err)
	return store
}

func TestNewStoreDecodesFixtures(t *testing.T) {
	store := newTestStore(t)
	assert.Len(t, store.Platforms(), 2)
	assert.Len(t, store.Services(), 1)
	assert.Len(t, store.Team(), 1)
}

func TestNewStoreRejectsMissingFixture(t *testing.T) {
	fsys := fixtureFS(t)
	delete(fsys, "fixtures/team.json")
	_, err := NewStore(fsys)
	assert.ErrorContains(t, err, "fixtures/team.json")
}

func TestPlatformLookup(t *testing.T) {
	store := newTestStore(t)

	platform, err := store.Platform("beatrix-reach")
	require.NoError(t, err)
	assert.Equal(t, "Beatrix Reach", platform.Name)

	_, err = store.Platform("no-such-platform")
	assert.ErrorIs(t, err, httpx.ErrNotFound)
}

func TestUpdatePlatform(t *testing.T) {
	store := newTestStore(t)

	updated, err := store.UpdatePlatform("beatrix-studio", Platform{
		ID:          "attempted-rename",
		Name:        "Beatrix Studio",
		Tagline:     "New tagline",
		Description: "Refreshed copy.",
		Category:    "production",
	})
	require.NoError(t, err)
	assert.Equal(t, "beatrix-studio", updated.ID, "platform ID is immutable")
	assert.Equal(t, "New tagline", updated.Tagline)

	stored, err := store.Platform("beatrix-studio")
	require.NoError(t, err)
	assert.Equal(t, "New tagline", stored.Tagline)

	_, err = store.UpdatePlatform("no-such-platform", updated)
	assert.ErrorIs(t, err, httpx.ErrNotFound)
}

func TestPlatformsReturnsCopy(t *testing.T) {
	store := newTestStore(t)
	list := store.Platforms()
	list[0].Name = "mutated"

	fresh, err := store.Platform(list[0].ID)
	require.NoError(t, err)
	assert.NotEqual(t, "mutated", fresh.Name)
}
