package gazette

import "testing"

func TestNormalizeSwissDate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "full date", in: "29.08.2025", want: "2025-08-29"},
		{name: "single digits padded", in: "1.2.2024", want: "2024-02-01"},
		{name: "embedded in text", in: "Publiziert am 03.11.2025 im Amtsblatt", want: "2025-11-03"},
		{name: "non matching passes through", in: "laufend", want: "laufend"},
		{name: "whitespace normalized", in: "  noch   offen ", want: "noch offen"},
		{name: "empty", in: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := NormalizeSwissDate(tt.in); got != tt.want {
				t.Fatalf("NormalizeSwissDate(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalizeSpace(t *testing.T) {
	t.Parallel()

	if got := NormalizeSpace("\n  Neubau \t Mehrfamilienhaus\n"); got != "Neubau Mehrfamilienhaus" {
		t.Fatalf("unexpected normalization: %q", got)
	}
}
