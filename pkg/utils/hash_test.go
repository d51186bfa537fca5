package utils

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestSessionFingerprint(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "session.json")
	if err := os.WriteFile(path, []byte(`{"samples": []}`), 0o600); err != nil {
		t.Fatal(err)
	}

	fp1, err := SessionFingerprint(path)
	if err != nil {
		t.Fatalf("SessionFingerprint() error = %v", err)
	}
	fp2, err := SessionFingerprint(path)
	if err != nil {
		t.Fatalf("SessionFingerprint() error = %v", err)
	}
	if fp1 != fp2 {
		t.Error("fingerprint not stable for an unchanged file")
	}

	// a rewrite changes size and mtime, either must flip the fingerprint
	if err := os.WriteFile(path, []byte(`{"samples": [{"sessionTime": 0}]}`), 0o600); err != nil {
		t.Fatal(err)
	}
	fp3, err := SessionFingerprint(path)
	if err != nil {
		t.Fatalf("SessionFingerprint() error = %v", err)
	}
	if fp3 == fp1 {
		t.Error("fingerprint unchanged after rewrite")
	}

	// same content, size and mtime at a different path must still differ
	other := filepath.Join(dir, "other.json")
	if err := os.WriteFile(other, []byte(`{"samples": [{"sessionTime": 0}]}`), 0o600); err != nil {
		t.Fatal(err)
	}
	now := time.Now()
	if err := os.Chtimes(path, now, now); err != nil {
		t.Fatal(err)
	}
	if err := os.Chtimes(other, now, now); err != nil {
		t.Fatal(err)
	}
	fpPath, err := SessionFingerprint(path)
	if err != nil {
		t.Fatalf("SessionFingerprint() error = %v", err)
	}
	fpOther, err := SessionFingerprint(other)
	if err != nil {
		t.Fatalf("SessionFingerprint() error = %v", err)
	}
	if fpPath == fpOther {
		t.Error("distinct paths with identical stats share a fingerprint")
	}

	if _, err := SessionFingerprint(filepath.Join(dir, "missing.json")); err == nil {
		t.Error("SessionFingerprint() on missing file succeeded, want error")
	}
}
