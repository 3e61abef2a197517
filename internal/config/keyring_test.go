package config

import "testing"

func keyringOrSkip(t *testing.T) *KeyringManager {
	t.Helper()
	km := NewKeyringManager()
	if !km.IsAvailable() {
		t.Skip("no keychain backend available on this host")
	}
	return km
}

func TestKeyringSaveGetDeleteRoundTrip(t *testing.T) {
	km := keyringOrSkip(t)
	defer km.DeleteAPIKey()

	const key = "sk-test-roundtrip-1234"
	if err := km.SaveAPIKey(key); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := km.GetAPIKey()
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != key {
		t.Fatalf("expected %q back, got %q", key, got)
	}

	if err := km.DeleteAPIKey(); err != nil {
		t.Fatalf("delete: %v", err)
	}
	got, err = km.GetAPIKey()
	if err != nil || got != "" {
		t.Fatalf("expected empty key after delete, got %q err=%v", got, err)
	}
}

func TestKeyringDeleteAbsentKeyIsNotAnError(t *testing.T) {
	km := keyringOrSkip(t)
	km.DeleteAPIKey()
	if err := km.DeleteAPIKey(); err != nil {
		t.Fatalf("deleting an absent key should be a no-op, got %v", err)
	}
}

func TestKeyringRejectsEmptyKey(t *testing.T) {
	km := keyringOrSkip(t)
	if err := km.SaveAPIKey(""); err == nil {
		t.Fatal("expected error for empty api key")
	}
}

func TestMaskAPIKey(t *testing.T) {
	cases := map[string]string{
		"":                          "(not set)",
		"sk-test":                   "***",
		"sk-test12345":              "sk-test...2345",
		"sk-proj-1234567890abcdefg": "sk-proj...defg",
	}
	for in, want := range cases {
		if got := MaskAPIKey(in); got != want {
			t.Errorf("MaskAPIKey(%q) = %q, want %q", in, got, want)
		}
	}
}
