package main

import "testing"

func TestGEIRoundTrip(t *testing.T) {
	ini := "; a comment\n[HEAD]\nNAME = \"Example\" // trailing comment\nCG_ON = 1\n"

	cfg := NewConfig()
	dat, _, err := GEIWrite(ini, cfg, lzssDefaultLevel)
	if err != nil {
		t.Fatalf("GEIWrite failed: %v", err)
	}
	got, err := GEIRead(dat, cfg)
	if err != nil {
		t.Fatalf("GEIRead failed: %v", err)
	}
	want, err := SanitizeIni(ini)
	if err != nil {
		t.Fatalf("SanitizeIni failed: %v", err)
	}
	if got != want {
		t.Errorf("GEIRead(GEIWrite(ini)) = %q, want sanitized %q", got, want)
	}
}

func TestGEIRoundTripWithAngouSecret(t *testing.T) {
	ini := "[HEAD]\nNAME = \"Example\"\n"
	cfg := NewConfig()
	cfg.AngouSecret = []byte("password")

	dat, _, err := GEIWrite(ini, cfg, lzssDefaultLevel)
	if err != nil {
		t.Fatalf("GEIWrite failed: %v", err)
	}
	got, err := GEIRead(dat, cfg)
	if err != nil {
		t.Fatalf("GEIRead failed: %v", err)
	}
	want, _ := SanitizeIni(ini)
	if got != want {
		t.Errorf("angou round-trip mismatch: got %q, want %q", got, want)
	}

	// Missing key must be rejected.
	cfgNoKey := NewConfig()
	if _, err := GEIRead(dat, cfgNoKey); err == nil {
		t.Fatal("expected GEIRead to fail without the angou secret")
	}
}
