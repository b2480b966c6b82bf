package token

import "testing"

func TestLookupReclassification(t *testing.T) {
	cases := map[string]Kind{
		"if":      KEYWORD,
		"class":   KEYWORD,
		"int":     TYPE_SPECIFIER,
		"void":    TYPE_SPECIFIER,
		"public":  ACCESS_SPECIFIER,
		"static":  STORAGE_QUALIFIER,
		"const":   STORAGE_QUALIFIER,
		"myVar":   IDENTIFIER,
		"foo_bar": IDENTIFIER,
	}
	for ident, want := range cases {
		if got := Lookup(ident); got != want {
			t.Errorf("Lookup(%q) = %s, want %s", ident, got, want)
		}
	}
}

func TestKindStringKnownAndUnknown(t *testing.T) {
	if KEYWORD.String() != "KEYWORD" {
		t.Errorf("KEYWORD.String() = %q, want KEYWORD", KEYWORD.String())
	}
	unknown := Kind(999)
	if unknown.String() != "Kind(999)" {
		t.Errorf("Kind(999).String() = %q, want Kind(999)", unknown.String())
	}
}
