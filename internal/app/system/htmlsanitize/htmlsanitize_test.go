// internal/app/system/htmlsanitize/htmlsanitize_test.go
package htmlsanitize

import "testing"

func TestClean(t *testing.T) {
	cases := map[string]string{
		"<script>alert(1)</script>Apoyo escolar": "Apoyo escolar",
		"<b>Reforestación</b> en la quebrada":    "Reforestación en la quebrada",
		"  texto plano  ":                        "texto plano",
		"":                                       "",
	}
	for in, want := range cases {
		if got := Clean(in); got != want {
			t.Errorf("Clean(%q) = %q, want %q", in, got, want)
		}
	}
}
