package main

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"

	"github.com/gofrs/flock"
	"github.com/xyproto/env/v2"

	"github.com/khushi-411/onnxscript/schema"
)

// The graph cache keyes compiled text on a hash of the source, the compiler
// version, and the operator set version: any of those changing invalidates
// the entry. Writes take a file lock so concurrent invocations do not
// corrupt each other.

// defaultCacheDir returns ONNXSCRIPT_CACHE, or the per-OS cache location.
func defaultCacheDir() string {
	if dir := env.Str("ONNXSCRIPT_CACHE"); dir != "" {
		return dir
	}

	homeDir, _ := os.UserHomeDir()
	switch runtime.GOOS {
	case "windows":
		if localAppData := env.Str("LocalAppData"); localAppData != "" {
			return filepath.Join(localAppData, "onnxscript")
		}
		return filepath.Join(homeDir, "AppData", "Local", "onnxscript")
	case "darwin":
		return filepath.Join(homeDir, "Library", "Caches", "onnxscript")
	default:
		if xdg := env.Str("XDG_CACHE_HOME"); xdg != "" {
			return filepath.Join(xdg, "onnxscript")
		}
		return filepath.Join(homeDir, ".cache", "onnxscript")
	}
}

type graphCache struct {
	dir   string
	lock  *flock.Flock
	debug bool
}

func openCache() (*graphCache, error) {
	dir := filepath.Join(defaultCacheDir(), "graphs")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	return &graphCache{
		dir:   dir,
		lock:  flock.New(filepath.Join(dir, ".lock")),
		debug: env.Bool("ONNXSCRIPT_DEBUG"),
	}, nil
}

// sourceHash computes the cache key for one script file.
func sourceHash(source []byte) string {
	h := sha256.New()
	h.Write([]byte(Version))
	h.Write([]byte(strconv.Itoa(schema.Default().Version)))
	h.Write(source)
	return hex.EncodeToString(h.Sum(nil))[:16]
}

func (gc *graphCache) path(file string, source []byte) string {
	base := filepath.Base(file)
	return filepath.Join(gc.dir, fmt.Sprintf("%s-%s.txt", base, sourceHash(source)))
}

func (gc *graphCache) load(file string, source []byte) (string, bool) {
	data, err := os.ReadFile(gc.path(file, source))
	if err != nil {
		return "", false
	}
	if gc.debug {
		fmt.Fprintf(os.Stderr, "%s: cache hit\n", file)
	}
	return string(data), true
}

func (gc *graphCache) store(file string, source []byte, text string) error {
	if err := gc.lock.Lock(); err != nil {
		return err
	}
	defer gc.lock.Unlock()

	path := gc.path(file, source)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, []byte(text), 0644); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}
	if gc.debug {
		fmt.Fprintf(os.Stderr, "%s: cached at %s\n", file, path)
	}
	return nil
}
