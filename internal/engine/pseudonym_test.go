package engine

import "testing"

func TestTokenDeterministic(t *testing.T) {
	p := NewPseudonymizer("")
	got := p.Token("AA:BB:CC:DD:EE:FF")
	// Known digest; must not change across runs or releases.
	if got != "261900fb1113aa4d" {
		t.Fatalf("unexpected token %q", got)
	}
	if got != p.Token("AA:BB:CC:DD:EE:FF") {
		t.Fatalf("token not stable across calls")
	}
}

func TestTokenLength(t *testing.T) {
	p := NewPseudonymizer("")
	if got := p.Token("11:22:33:44:55:66"); len(got) != tokenLength {
		t.Fatalf("expected %d chars, got %d", tokenLength, len(got))
	}
}

func TestTokenDistinctAddresses(t *testing.T) {
	p := NewPseudonymizer("")
	if p.Token("AA:BB:CC:DD:EE:FF") == p.Token("AA:BB:CC:DD:EE:FE") {
		t.Fatalf("distinct addresses produced identical tokens")
	}
}

func TestSaltChangesToken(t *testing.T) {
	plain := NewPseudonymizer("").Token("AA:BB:CC:DD:EE:FF")
	salted := NewPseudonymizer("salt").Token("AA:BB:CC:DD:EE:FF")
	if salted != "ea970ba83fbcc918" {
		t.Fatalf("unexpected salted token %q", salted)
	}
	if plain == salted {
		t.Fatalf("salt had no effect")
	}
}
