package funnel

import "testing"

func TestPostprocess(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain text unchanged", "The Premium package is $289.", "The Premium package is $289."},
		{"line breaks collapse", "First line.\nSecond line.", "First line. Second line."},
		{"crlf runs collapse", "One.\r\n\r\nTwo.", "One. Two."},
		{"spurious capital dropped", "Sure B let's continue", "Sure let's continue"},
		{"A and I kept", "I think A plan helps", "I think A plan helps"},
		{"space runs collapse", "too   many    spaces", "too many spaces"},
		{"leading and trailing trimmed", "  padded reply  ", "padded reply"},
		{"empty input", "", ""},
		{"only a spurious capital", "Q", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Postprocess(tt.in)
			if got != tt.want {
				t.Errorf("Postprocess(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestPostprocessIdempotent(t *testing.T) {
	inputs := []string{
		"The Premium package is $289.",
		"First.\nSecond B third.",
		"  spaced   out\r\n\r\nreply X ",
		"",
	}

	for _, in := range inputs {
		once := Postprocess(in)
		twice := Postprocess(once)
		if once != twice {
			t.Errorf("Postprocess not idempotent for %q: first %q, second %q", in, once, twice)
		}
	}
}
