package pipeline

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ironsheep/story-ocr/internal/fonts"
	"github.com/ironsheep/story-ocr/internal/imaging"
	"github.com/ironsheep/story-ocr/internal/ocr"
	"github.com/ironsheep/story-ocr/internal/segment"
)

func sampleReport() *Report {
	conf := 0.93
	r := &Report{
		RunID:      "run-1",
		Started:    time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		InputDir:   "/shots/chapter1",
		ImageCount: 3,
		Backend:    ocr.StubName,
		Options:    ocr.DefaultOptions(ocr.LangChineseEnglish, false),
	}
	r.Add(BatchResult{
		ID:    "stitched_1.png_2.png",
		Files: []string{"1.png", "2.png"},
		Text:  "他说一一我会回来。",
		Recognition: &ocr.Recognition{
			Lines: []ocr.Line{{Text: "剧情梗概"}, {Text: "他说一一我会回来。", Confidence: &conf}, {Text: "取消"}},
			Trace: ocr.Trace{Backend: ocr.StubName, Options: map[string]string{"language_type": "CHN_ENG"}, Success: true, Raw: "{}"},
		},
		Lines: []segment.LineDecision{
			{Text: "剧情梗概", Annotation: segment.AnnotateStart},
			{Text: "他说一一我会回来。", Annotation: segment.AnnotateKeep},
			{Text: "取消", Annotation: segment.AnnotateStop},
		},
		Flagged: true,
	})
	tooLarge := &imaging.ImageTooLargeError{Width: 40, Height: 9000, MaxWidth: 8192, MaxHeight: 8192}
	r.Add(BatchResult{ID: "3.png", Files: []string{"3.png"}, Err: tooLarge, Kind: Classify(tooLarge)})
	return r
}

func TestReport_RenderResult(t *testing.T) {
	out := string(sampleReport().RenderResult())

	want := []string{
		"他说一一我会回来。\n",
		"[ImageTooLargeError] 3.png: image size 40x9000 exceeds backend limit 8192x8192\n",
		"\nProcessed: 1 succeeded, 1 failed\n",
		"      - stitched_1.png_2.png\n",
		"no font file found",
	}
	for _, w := range want {
		if !strings.Contains(out, w) {
			t.Errorf("result missing %q:\n%s", w, out)
		}
	}

	if strings.Index(out, "他说") > strings.Index(out, "[ImageTooLargeError]") {
		t.Error("batch blocks are out of order")
	}
}

func TestReport_RenderResult_NoFlagged(t *testing.T) {
	r := &Report{}
	r.Add(BatchResult{ID: "1.png", Text: "正文"})

	out := string(r.RenderResult())
	if strings.Contains(out, "suspected dash") {
		t.Errorf("unexpected review note:\n%s", out)
	}
	if !strings.HasPrefix(out, "正文\n\nProcessed: 1 succeeded, 0 failed\n") {
		t.Errorf("unexpected result:\n%s", out)
	}
}

func TestReport_RenderResult_Warning(t *testing.T) {
	r := &Report{}
	r.Warn("[NoImagesFoundWarning] no images found in /tmp/x")

	out := string(r.RenderResult())
	if !strings.HasPrefix(out, "[NoImagesFoundWarning]") {
		t.Errorf("warning should lead the result file:\n%s", out)
	}
	if !strings.Contains(out, "Processed: 0 succeeded, 0 failed") {
		t.Errorf("missing statistics:\n%s", out)
	}
}

func TestReport_RenderDebug(t *testing.T) {
	r := sampleReport()
	r.Fonts = fonts.Detection{
		Enhanced: true,
		Selected: fonts.Found{Font: fonts.Supported[0], Path: "/shots/zh-cn.ttf"},
	}

	out := string(r.RenderDebug())
	want := []string{
		"Run ID: run-1",
		"Time: 2024-05-01 12:00:00",
		"Images: 3",
		"Succeeded: 1",
		"Failed: 1",
		"Enhanced font: yes",
		"Font path: /shots/zh-cn.ttf",
		"=== Batch stitched_1.png_2.png ===",
		"Files: 1.png, 2.png",
		"Recognition mode: General",
		`Options: {"language_type":"CHN_ENG"}`,
		"API status: success",
		`Line 1: content="剧情梗概" -> start`,
		`Line 2: content="他说一一我会回来。" confidence=0.93 -> keep`,
		`Line 3: content="取消" -> stop`,
		"=== Batch 3.png ===",
		"Status: not sent to OCR",
	}
	for _, w := range want {
		if !strings.Contains(out, w) {
			t.Errorf("debug trace missing %q:\n%s", w, out)
		}
	}
}

func TestReport_Save(t *testing.T) {
	dir := t.TempDir()
	result := filepath.Join(dir, "out.txt")
	debug := filepath.Join(dir, "out_ocr_debug.txt")

	r := sampleReport()
	if err := r.Save(result, debug); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if _, err := os.Stat(result); err != nil {
		t.Errorf("result file missing: %v", err)
	}
	if _, err := os.Stat(debug); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("debug file written while disabled: %v", err)
	}

	r.Debug = true
	if err := r.Save(result, debug); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	data, err := os.ReadFile(debug)
	if err != nil {
		t.Fatalf("debug file missing: %v", err)
	}
	if !strings.Contains(string(data), "Run ID: run-1") {
		t.Errorf("unexpected debug content:\n%s", data)
	}
}

func TestOutputPaths(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "chapter1")

	result, debug, err := OutputPaths(dir)
	if err != nil {
		t.Fatalf("OutputPaths() error = %v", err)
	}
	parent := filepath.Dir(dir)
	if result != filepath.Join(parent, "chapter1.txt") {
		t.Errorf("result = %q", result)
	}
	if debug != filepath.Join(parent, "chapter1_ocr_debug.txt") {
		t.Errorf("debug = %q", debug)
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{"open", &imaging.ImageOpenError{Path: "a.png", Err: errors.New("bad")}, KindImageOpen},
		{"too large", &imaging.ImageTooLargeError{}, KindImageTooLarge},
		{"backend", &ocr.BackendError{Backend: "stub", Err: ocr.ErrEmptyResult}, KindOCRBackend},
		{"wrapped backend", fmt.Errorf("batch 1: %w", &ocr.BackendError{Backend: "stub"}), KindOCRBackend},
		{"no images", imaging.ErrNoImagesFound, KindNoImages},
		{"other", errors.New("disk full"), KindProcessing},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.err); got != tt.want {
				t.Errorf("Classify() = %q, want %q", got, tt.want)
			}
		})
	}
}
