package backup

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestGenerateSalt(t *testing.T) {
	salt1, err := GenerateSalt()
	if err != nil {
		t.Fatalf("generate salt: %v", err)
	}
	if len(salt1) != saltSize {
		t.Errorf("salt length = %d, want %d", len(salt1), saltSize)
	}

	salt2, err := GenerateSalt()
	if err != nil {
		t.Fatalf("generate salt 2: %v", err)
	}
	if bytes.Equal(salt1, salt2) {
		t.Error("two salts should not be equal")
	}
}

func TestDeriveKeyDeterminism(t *testing.T) {
	salt := []byte("1234567890abcdef")

	key1 := DeriveKey("mypassphrase", salt)
	key2 := DeriveKey("mypassphrase", salt)

	if !bytes.Equal(key1, key2) {
		t.Error("same passphrase+salt should produce same key")
	}
	if len(key1) != keySize {
		t.Errorf("key length = %d, want %d", len(key1), keySize)
	}
}

func TestSealOpenRoundTrip(t *testing.T) {
	salt, err := GenerateSalt()
	if err != nil {
		t.Fatalf("generate salt: %v", err)
	}

	original := []byte("ledger snapshot bytes")
	sealed, err := Seal(original, "hunter2", salt)
	if err != nil {
		t.Fatalf("seal: %v", err)
	}

	if bytes.Equal(sealed, original) {
		t.Error("sealed payload should differ from plaintext")
	}
	if !bytes.Equal(sealed[:saltSize], salt) {
		t.Error("sealed payload should start with the salt")
	}

	opened, err := Open(sealed, "hunter2")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if !bytes.Equal(opened, original) {
		t.Error("opened payload should match original")
	}
}

func TestOpenWrongPassphrase(t *testing.T) {
	salt, _ := GenerateSalt()
	sealed, err := Seal([]byte("secret data"), "correct-password", salt)
	if err != nil {
		t.Fatalf("seal: %v", err)
	}

	if _, err := Open(sealed, "wrong-password"); err == nil {
		t.Fatal("expected error with wrong passphrase")
	}
}

func TestOpenTamperedCiphertext(t *testing.T) {
	salt, _ := GenerateSalt()
	sealed, err := Seal([]byte("secret data"), "passphrase", salt)
	if err != nil {
		t.Fatalf("seal: %v", err)
	}

	sealed[len(sealed)-1] ^= 0xff

	if _, err := Open(sealed, "passphrase"); err == nil {
		t.Fatal("expected error for tampered ciphertext")
	}
}

func TestOpenTruncatedPayload(t *testing.T) {
	if _, err := Open([]byte("short"), "passphrase"); err == nil {
		t.Fatal("expected error for truncated payload")
	}
}

func TestEncryptDecryptFileRoundTrip(t *testing.T) {
	dir := t.TempDir()
	srcPath := filepath.Join(dir, "source.db")
	encPath := filepath.Join(dir, "encrypted.db.enc")
	decPath := filepath.Join(dir, "decrypted.db")

	original := []byte("This is test database content with some data in it.")
	if err := os.WriteFile(srcPath, original, 0600); err != nil {
		t.Fatalf("write source: %v", err)
	}

	salt, err := GenerateSalt()
	if err != nil {
		t.Fatalf("generate salt: %v", err)
	}

	if err := EncryptFile(srcPath, encPath, "test-passphrase-123", salt); err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	if err := DecryptFile(encPath, decPath, "test-passphrase-123"); err != nil {
		t.Fatalf("decrypt: %v", err)
	}

	decrypted, err := os.ReadFile(decPath)
	if err != nil {
		t.Fatalf("read decrypted: %v", err)
	}
	if !bytes.Equal(original, decrypted) {
		t.Error("decrypted content should match original")
	}
}
