package security

import (
	"strings"
	"testing"
)

func TestSanitizeTitle_StripsAllTags(t *testing.T) {
	s := NewListingSanitizer()

	got := s.SanitizeTitle(`<b>限定</b>スニーカー<script>alert(1)</script>`)
	if got != "限定スニーカー" {
		t.Errorf("SanitizeTitle = %q, want %q", got, "限定スニーカー")
	}
}

func TestSanitizeTitle_TrimsWhitespace(t *testing.T) {
	s := NewListingSanitizer()

	got := s.SanitizeTitle("  スニーカー  ")
	if got != "スニーカー" {
		t.Errorf("SanitizeTitle = %q, want %q", got, "スニーカー")
	}
}

func TestSanitizeDescription_AllowsFormattingTags(t *testing.T) {
	s := NewListingSanitizer()

	in := `<p>新品・未使用。<strong>即日発送</strong></p><ul><li>サイズ: 27cm</li></ul>`
	got := s.SanitizeDescription(in)
	if got != in {
		t.Errorf("SanitizeDescription = %q, want unchanged %q", got, in)
	}
}

func TestSanitizeDescription_RemovesScriptAndEventHandlers(t *testing.T) {
	s := NewListingSanitizer()

	tests := []struct {
		name string
		in   string
		deny []string
	}{
		{"script tag", `<p>説明</p><script>alert(1)</script>`, []string{"<script", "alert(1)"}},
		{"iframe tag", `<iframe src="https://evil.example"></iframe><p>説明</p>`, []string{"<iframe"}},
		{"event handler", `<p onclick="alert(1)">説明</p>`, []string{"onclick"}},
		{"link", `<a href="https://evil.example">ここ</a>`, []string{"<a", "href"}},
		{"image", `<img src="https://example.com/x.png">`, []string{"<img"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.SanitizeDescription(tt.in)
			for _, deny := range tt.deny {
				if strings.Contains(got, deny) {
					t.Errorf("SanitizeDescription(%q) = %q, should not contain %q", tt.in, got, deny)
				}
			}
		})
	}
}

func TestSanitizeDescription_EmptyInput(t *testing.T) {
	s := NewListingSanitizer()

	if got := s.SanitizeDescription(""); got != "" {
		t.Errorf("SanitizeDescription(\"\") = %q, want empty", got)
	}
}

func TestSanitizeDescription_Idempotent(t *testing.T) {
	s := NewListingSanitizer()

	in := `<p>説明<script>x</script></p>`
	once := s.SanitizeDescription(in)
	twice := s.SanitizeDescription(once)
	if once != twice {
		t.Errorf("sanitization not idempotent: %q != %q", once, twice)
	}
}
