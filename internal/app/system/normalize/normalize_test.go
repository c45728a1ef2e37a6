// internal/app/system/normalize/normalize_test.go
package normalize

import "testing"

func TestEmail(t *testing.T) {
	cases := map[string]string{
		"  Ana.Perez@USERENA.CL ": "ana.perez@userena.cl",
		"jdoe@alumnouls.cl":       "jdoe@alumnouls.cl",
		"":                        "",
	}
	for in, want := range cases {
		if got := Email(in); got != want {
			t.Errorf("Email(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestName(t *testing.T) {
	if got := Name("  Ana   María  Pérez "); got != "Ana María Pérez" {
		t.Errorf("Name collapsed to %q", got)
	}
	if got := Name(""); got != "" {
		t.Errorf("Name(\"\") = %q", got)
	}
}

func TestRegexQuote(t *testing.T) {
	cases := map[string]string{
		"limpieza de playa": "limpieza de playa",
		"c++ (taller)":      `c\+\+ \(taller\)`,
		`a.b|c$`:            `a\.b\|c\$`,
		"":                  "",
	}
	for in, want := range cases {
		if got := RegexQuote(in); got != want {
			t.Errorf("RegexQuote(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestRole(t *testing.T) {
	cases := map[string]string{
		"estudiante":  "estudiante",
		"Student":     "estudiante",
		"staff":       "staff",
		"coordinator": "staff",
		"ADMIN":       "admin",
		"superuser":   "",
		"":            "",
	}
	for in, want := range cases {
		if got := Role(in); got != want {
			t.Errorf("Role(%q) = %q, want %q", in, got, want)
		}
	}
}
