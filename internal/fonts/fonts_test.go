package fonts

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func touchFonts(t *testing.T, names ...string) string {
	t.Helper()
	dir := t.TempDir()
	for _, name := range names {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("font"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func TestDetect(t *testing.T) {
	tests := []struct {
		name         string
		files        []string
		language     string
		wantEnhanced bool
		wantFile     string
		wantLanguage string
		wantFound    int
	}{
		{"none", nil, "default", false, "", "zh-cn", 0},
		{"default prefers zh-cn", []string{"zh-cn.ttf", "ja-jp.ttf"}, "default", true, "zh-cn.ttf", "zh-cn", 2},
		{"default single other font", []string{"ja-jp.ttf"}, "default", true, "ja-jp.ttf", "ja-jp", 1},
		{"default several other fonts", []string{"zh-tw.ttf", "ja-jp.ttf"}, "", false, "", "zh-cn", 2},
		{"explicit match", []string{"zh-tw.ttf", "ja-jp.ttf"}, "ja-jp", true, "ja-jp.ttf", "ja-jp", 2},
		{"explicit without font", []string{"zh-cn.ttf"}, "ja-jp", false, "", "ja-jp", 1},
		{"english has no font", []string{"zh-cn.ttf"}, "en", false, "", "en", 1},
		{"unrelated files", []string{"arial.ttf", "readme.txt"}, "default", false, "", "zh-cn", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := touchFonts(t, tt.files...)
			det, err := Detect(dir, tt.language)
			if err != nil {
				t.Fatalf("Detect() error = %v", err)
			}
			if det.Enhanced != tt.wantEnhanced {
				t.Errorf("Enhanced = %v, want %v", det.Enhanced, tt.wantEnhanced)
			}
			if tt.wantEnhanced && det.Selected.File != tt.wantFile {
				t.Errorf("Selected = %q, want %q", det.Selected.File, tt.wantFile)
			}
			if tt.wantEnhanced && det.Selected.Path != filepath.Join(dir, tt.wantFile) {
				t.Errorf("Selected.Path = %q", det.Selected.Path)
			}
			if det.Language != tt.wantLanguage {
				t.Errorf("Language = %q, want %q", det.Language, tt.wantLanguage)
			}
			if len(det.Found) != tt.wantFound {
				t.Errorf("Found %d fonts, want %d", len(det.Found), tt.wantFound)
			}
		})
	}
}

func TestDetect_MissingDir(t *testing.T) {
	det, err := Detect(filepath.Join(t.TempDir(), "missing"), "default")
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}
	if det.Enhanced {
		t.Error("missing directory must not enable enhancement")
	}
}

func TestDetection_Hint(t *testing.T) {
	enhanced, _ := Detect(touchFonts(t, "zh-tw.ttf"), "default")
	if h := enhanced.Hint(); !strings.Contains(h, "zh-tw.ttf") || !strings.Contains(h, "enabled") {
		t.Errorf("enhanced hint = %q", h)
	}

	several, _ := Detect(touchFonts(t, "zh-tw.ttf", "ja-jp.ttf"), "default")
	if h := several.Hint(); !strings.Contains(h, "several") || !strings.Contains(h, "zh-tw.ttf, ja-jp.ttf") {
		t.Errorf("several hint = %q", h)
	}

	none, _ := Detect(t.TempDir(), "default")
	if h := none.Hint(); !strings.Contains(h, "no font file found") {
		t.Errorf("none hint = %q", h)
	}
}
