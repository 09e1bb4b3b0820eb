package dedup

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vertextoedge/audio-dedup/internal/domain"
)

func TestHashGrouper_ByteIdenticalFilesGroupRegardlessOfName(t *testing.T) {
	fs := newFakeFS().
		add("/m/a.mp3", "same bytes").
		add("/m/zzz totally different.mp3", "unique-ish").
		add("/m/other/b.mp3", "same bytes")

	result, err := NewHashGrouper(fs, nil, nil).Group(context.Background(), fs.files())
	require.NoError(t, err)

	require.Len(t, result.Groups, 1)
	assert.Equal(t, domain.GroupExact, result.Groups[0].Kind)
	assert.Equal(t, []string{"/m/a.mp3", "/m/other/b.mp3"}, result.Groups[0].Paths())
	assert.Equal(t, result.Groups[0].Files[0].Hash, result.Groups[0].Files[1].Hash)

	require.Len(t, result.Residual, 1)
	assert.Equal(t, "/m/zzz totally different.mp3", result.Residual[0].Path)
}

func TestHashGrouper_OnlySizeCollisionsAreHashed(t *testing.T) {
	fs := newFakeFS().
		add("/m/1.mp3", "a").
		add("/m/2.mp3", "bb").
		add("/m/3.mp3", "cc").
		add("/m/4.mp3", "ddd")

	result, err := NewHashGrouper(fs, nil, nil).Group(context.Background(), fs.files())
	require.NoError(t, err)

	assert.Empty(t, result.Groups)
	assert.Equal(t, 2, result.Hashed)
	assert.Zero(t, fs.calls("/m/1.mp3"))
	assert.Equal(t, 1, fs.calls("/m/2.mp3"))
	assert.Equal(t, 1, fs.calls("/m/3.mp3"))
	assert.Zero(t, fs.calls("/m/4.mp3"))

	// residual keeps discovery order and unhashed files have no hash
	require.Len(t, result.Residual, 4)
	for i, f := range result.Residual {
		assert.Equal(t, i, f.Index)
	}
	assert.False(t, result.Residual[0].HasHash())
}

func TestHashGrouper_GroupOrderFollowsFirstAppearance(t *testing.T) {
	fs := newFakeFS().
		add("/m/long1.mp3", "xxxxxx").
		add("/m/short1.mp3", "yy").
		add("/m/short2.mp3", "yy").
		add("/m/long2.mp3", "xxxxxx").
		add("/m/long3.mp3", "zzzzzz").
		add("/m/long4.mp3", "zzzzzz")

	result, err := NewHashGrouper(fs, nil, nil).Group(context.Background(), fs.files())
	require.NoError(t, err)

	assert.Equal(t, [][]string{
		{"/m/long1.mp3", "/m/long2.mp3"},
		{"/m/long3.mp3", "/m/long4.mp3"},
		{"/m/short1.mp3", "/m/short2.mp3"},
	}, groupPaths(result.Groups))
	assert.Empty(t, result.Residual)
}

func TestHashGrouper_UnreadableFileFallsThrough(t *testing.T) {
	fs := newFakeFS().
		add("/m/a.mp3", "dup").
		add("/m/b.mp3", "dup").
		add("/m/c.mp3", "dup")
	fs.hashErr["/m/b.mp3"] = errors.New("permission denied")

	result, err := NewHashGrouper(fs, nil, nil).Group(context.Background(), fs.files())
	require.NoError(t, err)

	assert.Equal(t, [][]string{{"/m/a.mp3", "/m/c.mp3"}}, groupPaths(result.Groups))
	require.Len(t, result.Residual, 1)
	assert.Equal(t, "/m/b.mp3", result.Residual[0].Path)
}

func TestHashGrouper_ReusesFreshCachedHash(t *testing.T) {
	fs := newFakeFS().
		add("/m/a.mp3", "same").
		add("/m/b.mp3", "same")

	repo := newMemSignalRepo()
	// a fresh entry with a deliberately different hash proves the cache is used
	repo.entries["/m/a.mp3"] = &domain.CachedSignals{Path: "/m/a.mp3", Size: 4, ModTime: testModTime, Hash: "cached"}
	// a stale entry must be ignored
	repo.entries["/m/b.mp3"] = &domain.CachedSignals{Path: "/m/b.mp3", Size: 4, ModTime: testModTime.Add(-time.Hour), Hash: "stale"}

	cache := NewSignalCache(repo, "fake", nil)
	files := fs.files()
	cache.Load(context.Background(), files)

	result, err := NewHashGrouper(fs, cache, nil).Group(context.Background(), files)
	require.NoError(t, err)

	assert.Zero(t, fs.calls("/m/a.mp3"))
	assert.Equal(t, 1, fs.calls("/m/b.mp3"))
	assert.Equal(t, "cached", files[0].Hash)
	assert.Empty(t, result.Groups, "different hashes must not group")

	require.Equal(t, 1, cache.Flush(context.Background()))
	saved, err := repo.GetSignals(context.Background(), "/m/b.mp3")
	require.NoError(t, err)
	assert.Equal(t, files[1].Hash, saved.Hash)
	assert.True(t, saved.ModTime.Equal(testModTime))
}

func TestHashGrouper_Cancelled(t *testing.T) {
	fs := newFakeFS().add("/m/a.mp3", "x").add("/m/b.mp3", "x")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewHashGrouper(fs, nil, nil).Group(ctx, fs.files())
	assert.ErrorIs(t, err, context.Canceled)
}
