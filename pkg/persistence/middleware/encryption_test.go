package middleware_test

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"io"
	"reflect"
	"testing"
	"time"

	"github.com/aretw0/scheme/pkg/adapters/memory"
	"github.com/aretw0/scheme/pkg/persistence/middleware"
	"github.com/aretw0/scheme/pkg/ports"
)

func generateKey(t *testing.T) []byte {
	k := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, k); err != nil {
		t.Fatal(err)
	}
	return k
}

func testDocument(name string) *ports.Document {
	return &ports.Document{
		Name: name,
		Description: map[string]any{
			"__type__":   "text",
			"name":       "secret",
			"min_length": float64(8),
			"required":   true,
		},
		Version:   3,
		UpdatedAt: time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestEncryptionMiddleware_Roundtrip(t *testing.T) {
	underlying := memory.NewStore()
	key := generateKey(t)
	mw := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: key})
	secureStore := mw(underlying)

	ctx := context.Background()
	original := testDocument("credentials")

	if err := secureStore.Put(ctx, original); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	// The underlying store should only see the envelope.
	stored, err := underlying.Get(ctx, "credentials")
	if err != nil {
		t.Fatalf("Underlying get failed: %v", err)
	}
	if _, ok := stored.Description["__type__"]; ok {
		t.Fatal("Expected description to be hidden in the stored envelope")
	}
	if _, ok := stored.Description["__encrypted__"].(string); !ok {
		t.Fatal("Expected __encrypted__ entry in the stored envelope")
	}
	if stored.Name != "credentials" || stored.Version != 3 {
		t.Errorf("Expected name and version to stay readable, got %q v%d", stored.Name, stored.Version)
	}

	loaded, err := secureStore.Get(ctx, "credentials")
	if err != nil {
		t.Fatalf("Get via middleware failed: %v", err)
	}
	if !reflect.DeepEqual(original, loaded) {
		t.Errorf("Expected %+v, got %+v", original, loaded)
	}

	names, err := secureStore.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(names) != 1 || names[0] != "credentials" {
		t.Errorf("Expected [credentials], got %v", names)
	}
}

func TestEncryptionMiddleware_KeyRotation(t *testing.T) {
	underlying := memory.NewStore()
	oldKey := generateKey(t)
	newKey := generateKey(t)

	mwOld := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: oldKey})
	secureStoreOld := mwOld(underlying)

	ctx := context.Background()
	if err := secureStoreOld.Put(ctx, testDocument("rotated")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	// Load with the NEW key active and the OLD key as fallback.
	mwNew := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
		ActiveKey:    newKey,
		FallbackKeys: [][]byte{oldKey},
	})
	secureStoreNew := mwNew(underlying)

	loaded, err := secureStoreNew.Get(ctx, "rotated")
	if err != nil {
		t.Fatalf("Get with rotated key failed: %v", err)
	}

	// Re-put so the document is re-encrypted with the new key.
	if err := secureStoreNew.Put(ctx, loaded); err != nil {
		t.Fatalf("Put with new key failed: %v", err)
	}

	if _, err := secureStoreOld.Get(ctx, "rotated"); err == nil {
		t.Error("Expected failure when loading new-key encryption with old-key middleware")
	}
}

func TestEncryptionMiddleware_PlainDocument(t *testing.T) {
	underlying := memory.NewStore()
	mw := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	secureStore := mw(underlying)

	ctx := context.Background()
	if err := underlying.Put(ctx, testDocument("plain")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	if _, err := secureStore.Get(ctx, "plain"); err == nil {
		t.Error("Expected failure when loading a document without an envelope")
	}
}

func TestEncryptionMiddleware_TamperedCiphertext(t *testing.T) {
	underlying := memory.NewStore()
	mw := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	secureStore := mw(underlying)

	ctx := context.Background()
	garbage := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, garbage); err != nil {
		t.Fatal(err)
	}
	tampered := &ports.Document{
		Name: "tampered",
		Description: map[string]any{
			"__encrypted__": base64.StdEncoding.EncodeToString(garbage),
		},
	}
	if err := underlying.Put(ctx, tampered); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	if _, err := secureStore.Get(ctx, "tampered"); err == nil {
		t.Error("Expected failure when the ciphertext does not authenticate")
	}
}

func TestEncryptionMiddleware_InvalidKey(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Errorf("Expected panic for invalid key size")
		}
	}()
	middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: []byte("short-key")})
}
