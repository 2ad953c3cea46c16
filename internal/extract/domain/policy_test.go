package domain

import (
	"reflect"
	"testing"
)

func TestMatchMode_String(t *testing.T) {
	tests := []struct {
		mode MatchMode
		want string
	}{
		{MatchLiteral, "literal"},
		{MatchPattern, "pattern"},
		{MatchMode(9), "MatchMode(9)"},
	}
	for _, tt := range tests {
		if got := tt.mode.String(); got != tt.want {
			t.Errorf("MatchMode(%d).String() = %q, want %q", tt.mode, got, tt.want)
		}
	}
}

func TestParseMatchMode(t *testing.T) {
	tests := []struct {
		input   string
		want    MatchMode
		wantErr bool
	}{
		{"literal", MatchLiteral, false},
		{" LITERAL ", MatchLiteral, false},
		{"pattern", MatchPattern, false},
		{"Regex", MatchPattern, false},
		{"glob", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseMatchMode(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseMatchMode(%q) err = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseMatchMode(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestMatchModeFromRegex(t *testing.T) {
	if MatchModeFromRegex(true) != MatchPattern {
		t.Error("expected pattern mode for use_regex=true")
	}
	if MatchModeFromRegex(false) != MatchLiteral {
		t.Error("expected literal mode for use_regex=false")
	}
}

func TestNewScopePolicy_DedupAndCopy(t *testing.T) {
	in := []string{"example.com", "example.com", "Example.com"}
	out := []string{"ads.example.com"}
	exts := []string{".png", ".png", ".css"}

	p := NewScopePolicy(in, out, exts, MatchLiteral)

	if want := []string{"example.com", "Example.com"}; !reflect.DeepEqual(p.InScopeDomains, want) {
		t.Errorf("InScopeDomains = %v, want %v", p.InScopeDomains, want)
	}
	if want := []string{".png", ".css"}; !reflect.DeepEqual(p.UnwantedExtensions, want) {
		t.Errorf("UnwantedExtensions = %v, want %v", p.UnwantedExtensions, want)
	}

	// mutating the caller's slice must not affect the policy
	out[0] = "changed"
	if p.OutScopeDomains[0] != "ads.example.com" {
		t.Errorf("policy shares backing array with caller: %v", p.OutScopeDomains)
	}
	if !p.HasInclusions() {
		t.Error("expected HasInclusions to be true")
	}
}

func TestNewScopePolicy_Empty(t *testing.T) {
	p := NewScopePolicy(nil, []string{}, nil, MatchPattern)
	if p.HasInclusions() {
		t.Error("expected no inclusions")
	}
	if p.OutScopeDomains != nil || p.UnwantedExtensions != nil {
		t.Errorf("expected nil lists, got %v %v", p.OutScopeDomains, p.UnwantedExtensions)
	}
	if p.Mode != MatchPattern {
		t.Errorf("Mode = %v, want pattern", p.Mode)
	}
}
