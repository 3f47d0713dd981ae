package form

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spigell/resume-matcher/internal/analyzer"
)

type stubAnalyzer struct {
	result *analyzer.Result
	err    error

	calls int
	last  analyzer.AnalyzeRequest
	body  string
	// seen records the form state observed while the request was in flight.
	seenButton  string
	seenEnabled bool
	seenLoading bool
	form        *Form
}

func (s *stubAnalyzer) Analyze(_ context.Context, req analyzer.AnalyzeRequest) (*analyzer.Result, error) {
	s.calls++
	s.last = req
	data, _ := io.ReadAll(req.File)
	s.body = string(data)
	if s.form != nil {
		s.seenButton, s.seenEnabled = s.form.Button()
		s.seenLoading = s.form.Loading()
	}
	return s.result, s.err
}

func newTestForm(opts ...Option) (*Form, *fakeScheduler) {
	n, sched := newTestNotice()
	return New(append([]Option{WithNotice(n)}, opts...)...), sched
}

func noticeMessage(f *Form) string {
	msg, _ := f.Notice().Current()
	return msg
}

func TestNewFormInitialState(t *testing.T) {
	f, _ := newTestForm()

	if f.Label() != DefaultLabel {
		t.Fatalf("unexpected label %q", f.Label())
	}

	c := f.Counters()
	if c.CharLabel != "0/5000" || c.WordLabel != "0 words" {
		t.Fatalf("unexpected counters %+v", c)
	}

	text, enabled := f.Button()
	if text != ButtonAnalyze || !enabled {
		t.Fatalf("unexpected button %q enabled=%v", text, enabled)
	}

	if _, ok := f.File(); ok {
		t.Fatal("expected no file selected")
	}
}

func TestSelectFile(t *testing.T) {
	f, _ := newTestForm()

	if err := f.SelectFile(FileFromBytes("cv.pdf", []byte("%PDF-1.4"))); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if f.Label() != "cv.pdf" {
		t.Fatalf("unexpected label %q", f.Label())
	}

	long := "senior-backend-engineer-resume-2024-final-v3.pdf"
	if err := f.SelectFile(FileFromBytes(long, []byte("x"))); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := "..." + long[len(long)-30:]; f.Label() != want {
		t.Fatalf("expected %q, got %q", want, f.Label())
	}
}

func TestSelectFileTooLarge(t *testing.T) {
	f, _ := newTestForm()

	_ = f.SelectFile(FileFromBytes("cv.txt", []byte("ok")))

	err := f.SelectFile(File{Name: "huge.pdf", Size: MaxFileSize + 1})
	if !errors.Is(err, ErrFileTooLarge) {
		t.Fatalf("expected ErrFileTooLarge, got %v", err)
	}

	if _, ok := f.File(); ok {
		t.Fatal("expected selection to be cleared")
	}
	if f.Label() != DefaultLabel {
		t.Fatalf("expected default label, got %q", f.Label())
	}
	if got := noticeMessage(f); got != "File size exceeds 5MB limit. Please choose a smaller file." {
		t.Fatalf("unexpected notice %q", got)
	}

	if err := f.SelectFile(File{Name: "edge.pdf", Size: MaxFileSize}); err != nil {
		t.Fatalf("file exactly at the limit must be accepted: %v", err)
	}
	if _, state := f.Notice().Current(); state == NoticeShown {
		t.Fatal("expected notice to be dismissed after a valid selection")
	}
}

func TestDrop(t *testing.T) {
	f, _ := newTestForm()

	if err := f.Drop(nil); err != nil {
		t.Fatalf("empty drop must be a no-op: %v", err)
	}
	if _, ok := f.File(); ok {
		t.Fatal("expected no file after empty drop")
	}

	err := f.Drop([]File{
		FileFromBytes("first.txt", []byte("a")),
		FileFromBytes("second.txt", []byte("b")),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	file, ok := f.File()
	if !ok || file.Name != "first.txt" {
		t.Fatalf("expected first dropped file, got %+v", file)
	}

	if err := f.Drop([]File{{Name: "big.pdf", Size: MaxFileSize * 2}}); !errors.Is(err, ErrFileTooLarge) {
		t.Fatalf("expected ErrFileTooLarge, got %v", err)
	}
	if _, ok := f.File(); ok {
		t.Fatal("oversized drop must not stay selected")
	}
}

func TestSetJobDescriptionCounters(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		text      string
		chars     int
		words     string
		nearLimit bool
	}{
		{name: "empty", text: "", chars: 0, words: "0 words"},
		{name: "whitespace only", text: "   \n\t", chars: 5, words: "0 words"},
		{name: "single word", text: "  golang ", chars: 9, words: "1 word"},
		{name: "several words", text: "Build  distributed\nsystems in Go", chars: 32, words: "5 words"},
		{name: "runes not bytes", text: "разработчик Go", chars: 14, words: "2 words"},
		{name: "near limit", text: strings.Repeat("a", 4501), chars: 4501, words: "1 word", nearLimit: true},
		{name: "at warning threshold", text: strings.Repeat("a", 4500), chars: 4500, words: "1 word"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f := New()
			c := f.SetJobDescription(tt.text)
			if c.Chars != tt.chars {
				t.Fatalf("expected %d chars, got %d", tt.chars, c.Chars)
			}
			if c.WordLabel != tt.words {
				t.Fatalf("expected %q, got %q", tt.words, c.WordLabel)
			}
			if c.NearLimit != tt.nearLimit {
				t.Fatalf("expected near limit %v, got %v", tt.nearLimit, c.NearLimit)
			}
			if c.CharLabel != fmt.Sprintf("%d/5000", tt.chars) {
				t.Fatalf("unexpected char label %q", c.CharLabel)
			}
		})
	}
}

func TestValidateOrder(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		file    *File
		text    string
		err     error
		field   string
		message string
	}{
		{
			name:    "missing file reported first",
			text:    "",
			err:     ErrNoFile,
			field:   FieldResume,
			message: "Please upload a resume file",
		},
		{
			name:    "blank description",
			file:    &File{Name: "cv.pdf", Size: 10},
			text:    "  \n ",
			err:     ErrNoDescription,
			field:   FieldJobDescription,
			message: "Please enter a job description",
		},
		{
			name:    "description too long",
			file:    &File{Name: "cv.pdf", Size: 10},
			text:    strings.Repeat("x", 5001),
			err:     ErrDescriptionTooLong,
			field:   FieldJobDescription,
			message: "Job description is too long. Maximum 5000 characters allowed.",
		},
		{
			name:    "unsupported type",
			file:    &File{Name: "cv.docx", Size: 10},
			text:    "Go developer",
			err:     ErrUnsupportedType,
			field:   FieldResume,
			message: "Invalid file type for resume. Allowed types are PDF and TXT",
		},
		{
			name: "surrounding whitespace does not count",
			file: &File{Name: "CV.PDF", Size: 10},
			text: "  " + strings.Repeat("x", 5000) + "  \n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f, _ := newTestForm()
			if tt.file != nil {
				if err := f.SelectFile(*tt.file); err != nil {
					t.Fatalf("select file: %v", err)
				}
			}
			f.SetJobDescription(tt.text)

			err := f.Validate()
			if tt.err == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}

			if !errors.Is(err, tt.err) {
				t.Fatalf("expected %v, got %v", tt.err, err)
			}

			var verr *ValidationError
			if !errors.As(err, &verr) || verr.Field != tt.field {
				t.Fatalf("expected validation error on %s, got %v", tt.field, err)
			}
			if err.Error() != tt.message || noticeMessage(f) != tt.message {
				t.Fatalf("expected message %q, got %q / notice %q", tt.message, err.Error(), noticeMessage(f))
			}
		})
	}
}

func TestValidateLogsSteps(t *testing.T) {
	core, observed := observer.New(zapcore.DebugLevel)
	f, _ := newTestForm(WithLogger(zap.New(core)))

	_ = f.Validate()

	entries := observed.FilterMessage("validation failed").All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 failure entry, got %d", len(entries))
	}
	if entries[0].ContextMap()["check"] != "resume_present" {
		t.Fatalf("unexpected failing check %v", entries[0].ContextMap()["check"])
	}
}

func TestSubmitSuccess(t *testing.T) {
	f, _ := newTestForm()
	stub := &stubAnalyzer{result: &analyzer.Result{Analysis: analyzer.Analysis{OverallScore: 81}}, form: f}

	_ = f.SelectFile(FileFromBytes("cv.txt", []byte("resume text")))
	f.SetJobDescription("  Go developer with Kubernetes  \n")

	result, err := f.Submit(context.Background(), stub)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Analysis.OverallScore != 81 {
		t.Fatalf("unexpected result %+v", result)
	}

	if stub.last.JobDescription != "Go developer with Kubernetes" {
		t.Fatalf("expected trimmed description, got %q", stub.last.JobDescription)
	}
	if stub.last.FileName != "cv.txt" || stub.body != "resume text" {
		t.Fatalf("unexpected file %q: %q", stub.last.FileName, stub.body)
	}

	if stub.seenButton != ButtonAnalyzing || stub.seenEnabled || !stub.seenLoading {
		t.Fatalf("unexpected in-flight state: button %q enabled=%v loading=%v", stub.seenButton, stub.seenEnabled, stub.seenLoading)
	}

	text, enabled := f.Button()
	if text != ButtonAnalyzeAgain || !enabled || f.Loading() {
		t.Fatalf("unexpected final state: button %q enabled=%v loading=%v", text, enabled, f.Loading())
	}

	if _, visible := f.Result(); !visible {
		t.Fatal("expected results to be visible")
	}
}

func TestSubmitValidationFailureSkipsAnalyzer(t *testing.T) {
	f, _ := newTestForm()
	stub := &stubAnalyzer{}

	f.SetJobDescription("Go developer")

	if _, err := f.Submit(context.Background(), stub); !errors.Is(err, ErrNoFile) {
		t.Fatalf("expected ErrNoFile, got %v", err)
	}
	if stub.calls != 0 {
		t.Fatalf("analyzer must not be called, got %d calls", stub.calls)
	}

	text, _ := f.Button()
	if text != ButtonAnalyze {
		t.Fatalf("button must keep its initial text, got %q", text)
	}
}

func TestSubmitServerError(t *testing.T) {
	f, _ := newTestForm()
	stub := &stubAnalyzer{err: &analyzer.ServerError{StatusCode: 400, Message: "Resume file is required"}}

	_ = f.SelectFile(FileFromBytes("cv.txt", []byte("x")))
	f.SetJobDescription("Go developer")

	_, err := f.Submit(context.Background(), stub)
	var serverErr *analyzer.ServerError
	if !errors.As(err, &serverErr) {
		t.Fatalf("expected ServerError, got %v", err)
	}

	if got := noticeMessage(f); got != "Resume file is required" {
		t.Fatalf("unexpected notice %q", got)
	}

	text, enabled := f.Button()
	if text != ButtonAnalyzeAgain || !enabled {
		t.Fatalf("button must be restored after failure, got %q enabled=%v", text, enabled)
	}
	if _, visible := f.Result(); visible {
		t.Fatal("results must stay hidden after failure")
	}
}

func TestSubmitReadsFileFromDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "resume.txt")
	if err := os.WriteFile(path, []byte("from disk"), 0o600); err != nil {
		t.Fatalf("write resume: %v", err)
	}

	file, err := FileFromPath(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if file.Name != "resume.txt" || file.Size != int64(len("from disk")) {
		t.Fatalf("unexpected file %+v", file)
	}

	f, _ := newTestForm()
	stub := &stubAnalyzer{result: &analyzer.Result{}}
	_ = f.SelectFile(file)
	f.SetJobDescription("jd")

	if _, err := f.Submit(context.Background(), stub); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stub.body != "from disk" {
		t.Fatalf("unexpected body %q", stub.body)
	}
}

func TestFileFromPathErrors(t *testing.T) {
	if _, err := FileFromPath(filepath.Join(t.TempDir(), "missing.pdf")); err == nil {
		t.Fatal("expected error for missing file")
	}
	if _, err := FileFromPath(t.TempDir()); err == nil {
		t.Fatal("expected error for directory")
	}
}

func TestReset(t *testing.T) {
	f, _ := newTestForm()
	stub := &stubAnalyzer{result: &analyzer.Result{}}

	_ = f.SelectFile(FileFromBytes("cv.txt", []byte("x")))
	f.SetJobDescription("Go developer")
	_, _ = f.Submit(context.Background(), stub)
	f.Notice().Show("stale error")

	f.Reset()

	if _, ok := f.File(); ok {
		t.Fatal("expected no file after reset")
	}
	if f.Label() != DefaultLabel || f.JobDescription() != "" {
		t.Fatalf("unexpected state after reset: %q %q", f.Label(), f.JobDescription())
	}
	if c := f.Counters(); c.CharLabel != "0/5000" || c.WordLabel != "0 words" {
		t.Fatalf("unexpected counters after reset %+v", c)
	}
	if text, enabled := f.Button(); text != ButtonAnalyze || !enabled {
		t.Fatalf("unexpected button after reset %q enabled=%v", text, enabled)
	}
	if _, visible := f.Result(); visible {
		t.Fatal("results must be hidden after reset")
	}
	if _, state := f.Notice().Current(); state != NoticeHidden {
		t.Fatalf("expected hidden notice, got %s", state)
	}
}

func TestCustomConfig(t *testing.T) {
	f, _ := newTestForm(WithConfig(Config{
		MaxFileSize:          1 << 20,
		MaxDescriptionLength: 100,
		AllowedExtensions:    []string{".pdf", "docx", "txt"},
	}))

	if err := f.SelectFile(File{Name: "cv.docx", Size: 2 << 20}); err == nil ||
		err.Error() != "File size exceeds 1MB limit. Please choose a smaller file." {
		t.Fatalf("unexpected error %v", err)
	}

	_ = f.SelectFile(File{Name: "cv.odt", Size: 10})
	c := f.SetJobDescription(strings.Repeat("a", 91))
	if c.CharLabel != "91/100" || !c.NearLimit {
		t.Fatalf("unexpected counters %+v", c)
	}

	err := f.Validate()
	if err == nil || err.Error() != "Invalid file type for resume. Allowed types are PDF, DOCX and TXT" {
		t.Fatalf("unexpected error %v", err)
	}
}
