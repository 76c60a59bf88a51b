package applicant

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

const cvText = "\n  \nJane Doe\nSoftware Engineering Student\njane.doe@mail.com | +216 22 333 444\n"

type stubExtractor struct {
	text string
	err  error
}

func (s stubExtractor) Extract(string) (string, error) { return s.text, s.err }

func writeCV(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cv.pdf")
	if err := os.WriteFile(path, []byte("%PDF"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}

func TestParse(t *testing.T) {
	t.Parallel()

	got := Parse(cvText)
	want := Contact{Name: "Jane Doe", Email: "jane.doe@mail.com", Phone: "+216 22 333 444"}
	if got != want {
		t.Fatalf("expected %+v, got %+v", want, got)
	}
}

func TestParseNameHeuristic(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		text string
		want string
	}{
		{name: "single words are skipped", text: "CV\nResume\nAmine Ben Salah\n", want: "Amine Ben Salah"},
		{name: "digits only line is skipped", text: "2025 2026\nSara K\n", want: "Sara K"},
		{name: "only leading lines are scanned", text: "a\nb\nc\nd\ne\nf\ng\nh\ni\nj\nLate Name\n", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := Parse(tt.text).Name; got != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestResolvePrefersConfig(t *testing.T) {
	t.Parallel()

	got := Resolve(
		Contact{Name: " Configured Name ", Email: "me@config.tn"},
		writeCV(t),
		stubExtractor{text: cvText},
		zap.NewNop(),
	)

	want := Contact{Name: "Configured Name", Email: "me@config.tn", Phone: "+216 22 333 444"}
	if got != want {
		t.Fatalf("expected %+v, got %+v", want, got)
	}
}

func TestResolveFallsBackToPlaceholders(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.WarnLevel)
	got := Resolve(Contact{}, writeCV(t), stubExtractor{err: errors.New("encrypted")}, zap.New(core))

	want := Contact{Name: PlaceholderName, Email: PlaceholderEmail, Phone: PlaceholderPhone}
	if got != want {
		t.Fatalf("expected placeholders, got %+v", got)
	}
	if logs.FilterMessage("cannot read contact info from cv; drafts may use placeholders").Len() != 1 {
		t.Fatalf("expected cv warning")
	}
}

func TestResolveWithoutCV(t *testing.T) {
	t.Parallel()

	got := Resolve(Contact{Phone: "123"}, "", nil, nil)
	if got.Phone != "123" || got.Name != PlaceholderName || got.Email != PlaceholderEmail {
		t.Fatalf("unexpected contact: %+v", got)
	}
}

func TestFromCVMissingFile(t *testing.T) {
	t.Parallel()

	if _, err := FromCV(filepath.Join(t.TempDir(), "nope.pdf"), stubExtractor{text: cvText}); err == nil {
		t.Fatalf("expected error for missing file")
	}
	if _, err := FromCV(writeCV(t), stubExtractor{text: "Curriculum"}); err == nil {
		t.Fatalf("expected error when no details are found")
	}
}
