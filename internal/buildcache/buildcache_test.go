package buildcache_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/corrosion-lang/corrosion/internal/buildcache"
)

func open(t *testing.T) *buildcache.Cache {
	t.Helper()
	c, err := buildcache.Open(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestDigestIsOrderIndependent(t *testing.T) {
	a := buildcache.Digest(map[string]string{"main": "fn main() {}", "util": "pub fn f() {}"})
	b := buildcache.Digest(map[string]string{"util": "pub fn f() {}", "main": "fn main() {}"})
	if a != b {
		t.Error("digest must not depend on map iteration order")
	}
}

func TestDigestSeesContentAndPath(t *testing.T) {
	base := buildcache.Digest(map[string]string{"main": "fn main() {}"})
	if buildcache.Digest(map[string]string{"main": "fn main() { 1 }"}) == base {
		t.Error("content change must change the digest")
	}
	if buildcache.Digest(map[string]string{"app": "fn main() {}"}) == base {
		t.Error("path change must change the digest")
	}
}

func TestPutGetRoundTrip(t *testing.T) {
	c := open(t)
	digest := buildcache.Digest(map[string]string{"main": "fn main() {}"})
	if err := c.Put(digest, "build-1", []byte("CRIR\x01bundle")); err != nil {
		t.Fatalf("put: %v", err)
	}

	bundle, buildID, ok, err := c.Get(digest)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !ok {
		t.Fatal("expected a hit")
	}
	if buildID != "build-1" || string(bundle) != "CRIR\x01bundle" {
		t.Errorf("got %q %q", buildID, bundle)
	}
}

func TestGetMissesCleanly(t *testing.T) {
	c := open(t)
	_, _, ok, err := c.Get("no-such-digest")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if ok {
		t.Fatal("unexpected hit")
	}
}

func TestPutReplacesEntry(t *testing.T) {
	c := open(t)
	if err := c.Put("d", "old", []byte("a")); err != nil {
		t.Fatal(err)
	}
	if err := c.Put("d", "new", []byte("b")); err != nil {
		t.Fatal(err)
	}
	_, buildID, ok, err := c.Get("d")
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if buildID != "new" {
		t.Errorf("buildID = %q", buildID)
	}

	entries, _, err := c.Stats()
	if err != nil {
		t.Fatal(err)
	}
	if entries != 1 {
		t.Errorf("entries = %d", entries)
	}
}

func TestPruneDropsOldEntries(t *testing.T) {
	c := open(t)
	if err := c.Put("d", "b", []byte("x")); err != nil {
		t.Fatal(err)
	}
	// Entries written just now survive a one-hour cutoff.
	n, err := c.Prune(time.Hour)
	if err != nil {
		t.Fatalf("prune: %v", err)
	}
	if n != 0 {
		t.Errorf("pruned %d fresh entries", n)
	}
	// A negative age makes the cutoff land in the future.
	n, err = c.Prune(-time.Hour)
	if err != nil {
		t.Fatalf("prune: %v", err)
	}
	if n != 1 {
		t.Errorf("pruned %d, want 1", n)
	}
}
