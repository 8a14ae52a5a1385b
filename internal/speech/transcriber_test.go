package speech

import "testing"

func TestCleanTranscription(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "open chrome", "open chrome"},
		{"newlines collapsed", "open\nchrome\r\n", "open chrome"},
		{"blank audio marker", "[BLANK_AUDIO]", ""},
		{"annotation stripped", "(keyboard clicking) open chrome", "open chrome"},
		{"bracketed annotation", "[laughter] hello", "hello"},
		{"annotation only", "(dog barking)", ""},
		{"hallucinated thanks", "Thank you.", ""},
		{"hallucinated you", "you", ""},
		{"timestamp prefix", "[00:00:00.000 --> 00:00:05.000] open chrome", "open chrome"},
		{"real thanks kept", "thank you sami that's all", "thank you sami that's all"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cleanTranscription(tt.in); got != tt.want {
				t.Errorf("cleanTranscription(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	if got := normalize("  Open Chrome  "); got != "open chrome" {
		t.Errorf("normalize = %q", got)
	}
}
