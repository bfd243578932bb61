package cache

import (
	"bytes"
	"context"
	"os"
	"strings"
	"testing"
	"time"

	apperrors "github.com/matzehuels/latmesh/pkg/errors"
)

func TestNullCache(t *testing.T) {
	ctx := context.Background()
	c := NewNullCache()
	defer c.Close()

	// Get always returns miss
	data, hit, err := c.Get(ctx, "key")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if hit {
		t.Error("NullCache.Get should always return miss")
	}
	if data != nil {
		t.Error("NullCache.Get should return nil data")
	}

	// Set does nothing (no error)
	if err := c.Set(ctx, "key", []byte("value"), time.Hour); err != nil {
		t.Errorf("Set error: %v", err)
	}

	// Still a miss after Set
	_, hit, _ = c.Get(ctx, "key")
	if hit {
		t.Error("NullCache should not store data")
	}

	// Delete does nothing (no error)
	if err := c.Delete(ctx, "key"); err != nil {
		t.Errorf("Delete error: %v", err)
	}
}

func TestFileCache(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	defer c.Close()

	key := RouteTableKey("abc123", 1)
	value := []byte(`{"1":0,"2":100}`)

	// Miss before Set
	if _, hit, err := c.Get(ctx, key); err != nil || hit {
		t.Fatalf("Get before Set: hit=%v err=%v", hit, err)
	}

	if err := c.Set(ctx, key, value, time.Hour); err != nil {
		t.Fatalf("Set: %v", err)
	}

	data, hit, err := c.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !hit {
		t.Fatal("Get after Set: miss")
	}
	if !bytes.Equal(data, value) {
		t.Errorf("Get = %q, want %q", data, value)
	}

	if err := c.Delete(ctx, key); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, hit, _ := c.Get(ctx, key); hit {
		t.Error("Get after Delete: hit")
	}

	// Deleting a missing key is fine
	if err := c.Delete(ctx, "routes:missing:9"); err != nil {
		t.Errorf("Delete missing key: %v", err)
	}
}

// Backend failures surface as structured cache errors so the CLI and
// API boundaries can report them by code.
func TestFileCacheErrorCode(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	defer c.Close()

	// A directory squatting on the entry path makes the read fail with
	// something other than not-exist.
	fc := c.(*FileCache)
	if err := os.MkdirAll(fc.path("broken"), 0o755); err != nil {
		t.Fatal(err)
	}

	_, _, err = c.Get(ctx, "broken")
	if err == nil {
		t.Fatal("Get on unreadable entry: want error")
	}
	if got := apperrors.GetCode(err); got != apperrors.ErrCodeCache {
		t.Errorf("GetCode(err) = %q, want %q", got, apperrors.ErrCodeCache)
	}
}

func TestFileCacheExpiration(t *testing.T) {
	ctx := context.Background()
	c, err := NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	defer c.Close()

	// Already-expired entry reads back as a miss.
	if err := c.Set(ctx, "expired", []byte("x"), -time.Second); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "expired"); hit {
		t.Error("expired entry returned as hit")
	}

	// Zero TTL means no expiration.
	if err := c.Set(ctx, "forever", []byte("y"), 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if _, hit, _ := c.Get(ctx, "forever"); !hit {
		t.Error("zero-TTL entry reported as miss")
	}
}

func TestHash(t *testing.T) {
	// Test determinism
	h1 := Hash([]byte("hello"))
	h2 := Hash([]byte("hello"))
	if h1 != h2 {
		t.Error("Hash should be deterministic")
	}

	// Test different inputs produce different hashes
	h3 := Hash([]byte("world"))
	if h1 == h3 {
		t.Error("Different inputs should produce different hashes")
	}

	// Test hash length (SHA-256 produces 64 hex chars)
	if len(h1) != 64 {
		t.Errorf("Hash length should be 64, got %d", len(h1))
	}
}

func TestRouteTableKey(t *testing.T) {
	k1 := RouteTableKey("fp1", 1)
	k2 := RouteTableKey("fp1", 2)
	k3 := RouteTableKey("fp2", 1)

	if k1 == k2 {
		t.Error("different sources should produce different keys")
	}
	if k1 == k3 {
		t.Error("different fingerprints should produce different keys")
	}
	if !strings.HasPrefix(k1, "routes:") {
		t.Errorf("unexpected key format: %s", k1)
	}
}

func TestArtifactKey(t *testing.T) {
	if ArtifactKey("fp", "svg") == ArtifactKey("fp", "dot") {
		t.Error("different formats should produce different keys")
	}
}
