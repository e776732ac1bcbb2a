package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func testCache(t *testing.T) *graphCache {
	t.Helper()
	t.Setenv("ONNXSCRIPT_CACHE", t.TempDir())
	gc, err := openCache()
	require.NoError(t, err)
	return gc
}

func TestCacheRoundTrip(t *testing.T) {
	gc := testCache(t)
	source := []byte("def f(x):\n    return x\n")

	_, ok := gc.load("f.osc", source)
	require.False(t, ok)

	require.NoError(t, gc.store("f.osc", source, "graph text"))
	text, ok := gc.load("f.osc", source)
	require.True(t, ok)
	require.Equal(t, "graph text", text)
}

func TestCacheKeyDependsOnSource(t *testing.T) {
	gc := testCache(t)
	require.NoError(t, gc.store("f.osc", []byte("a"), "one"))

	_, ok := gc.load("f.osc", []byte("b"))
	require.False(t, ok)
}

func TestCacheWriteIsAtomic(t *testing.T) {
	gc := testCache(t)
	source := []byte("src")
	require.NoError(t, gc.store("f.osc", source, "text"))

	entries, err := os.ReadDir(gc.dir)
	require.NoError(t, err)
	for _, e := range entries {
		require.NotEqual(t, ".tmp", filepath.Ext(e.Name()))
	}
}

func TestDefaultCacheDirHonorsEnv(t *testing.T) {
	t.Setenv("ONNXSCRIPT_CACHE", "/tmp/osc-cache-test")
	require.Equal(t, "/tmp/osc-cache-test", defaultCacheDir())
}
