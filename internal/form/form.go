// Package form implements the resume submission form: file selection,
// job description counters, validation, submission state and the inline
// error notice.
package form

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/resume-matcher/internal/analyzer"
	"github.com/spigell/resume-matcher/internal/utils"
)

const (
	MaxFileSize                 = 5 * 1024 * 1024
	MaxDescriptionLength        = 5000
	DescriptionWarningThreshold = 4500
	maxLabelLength              = 30
	DefaultLabel                = "Drag & drop your resume here or click to browse"
	EmptyLabel                  = "Choose a file or drag it here"
	ButtonAnalyze               = "Analyze My Resume"
	ButtonAnalyzing             = "Analyzing..."
	ButtonAnalyzeAgain          = "Analyze Again"
)

// Analyzer submits a form to the analysis server.
type Analyzer interface {
	Analyze(ctx context.Context, req analyzer.AnalyzeRequest) (*analyzer.Result, error)
}

// Config holds the limits enforced by the form.
type Config struct {
	MaxFileSize          int64
	MaxDescriptionLength int
	WarnDescriptionAt    int
	// AllowedExtensions lists accepted resume extensions without dots.
	// Empty means any type is accepted.
	AllowedExtensions []string
}

// DefaultConfig returns the stock limits.
func DefaultConfig() Config {
	return Config{
		MaxFileSize:          MaxFileSize,
		MaxDescriptionLength: MaxDescriptionLength,
		WarnDescriptionAt:    DescriptionWarningThreshold,
		AllowedExtensions:    []string{"pdf", "txt"},
	}
}

type Option func(*Form)

func WithConfig(cfg Config) Option {
	return func(f *Form) {
		defaults := DefaultConfig()
		if cfg.MaxFileSize <= 0 {
			cfg.MaxFileSize = defaults.MaxFileSize
		}
		if cfg.MaxDescriptionLength <= 0 {
			cfg.MaxDescriptionLength = defaults.MaxDescriptionLength
		}
		if cfg.WarnDescriptionAt <= 0 || cfg.WarnDescriptionAt > cfg.MaxDescriptionLength {
			cfg.WarnDescriptionAt = cfg.MaxDescriptionLength * 9 / 10
		}
		f.cfg = cfg
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(f *Form) {
		if logger != nil {
			f.logger = logger
		}
	}
}

func WithNotice(n *Notice) Option {
	return func(f *Form) {
		if n != nil {
			f.notice = n
		}
	}
}

func WithChecks(checks ...Check) Option {
	return func(f *Form) {
		f.checks = checks
	}
}

// Form is the state behind the resume submission page.
type Form struct {
	cfg    Config
	logger *zap.Logger
	notice *Notice
	checks []Check

	file        *File
	label       string
	description string
	counters    Counters

	loading        bool
	buttonText     string
	buttonDisabled bool
	resultsVisible bool
	result         *analyzer.Result
}

func New(opts ...Option) *Form {
	f := &Form{
		cfg:    DefaultConfig(),
		logger: zap.NewNop(),
		checks: DefaultChecks(),
	}

	for _, opt := range opts {
		opt(f)
	}

	if f.notice == nil {
		f.notice = NewNotice(DefaultNoticeDelay, DefaultNoticeFade)
	}

	f.init()

	return f
}

func (f *Form) init() {
	f.file = nil
	f.label = DefaultLabel
	f.description = ""
	f.counters = newCounters("", f.cfg.MaxDescriptionLength, f.cfg.WarnDescriptionAt)
	f.loading = false
	f.buttonText = ButtonAnalyze
	f.buttonDisabled = false
	f.resultsVisible = false
	f.result = nil
}

// SelectFile makes file the resume to submit. Files over the size limit are
// rejected and clear the current selection.
func (f *Form) SelectFile(file File) error {
	if file.Size > f.cfg.MaxFileSize {
		f.file = nil
		f.label = DefaultLabel
		return f.reject(&ValidationError{
			Field:   FieldResume,
			Message: fmt.Sprintf(msgFileTooLarge, sizeLabel(f.cfg.MaxFileSize)),
			Err:     ErrFileTooLarge,
		})
	}

	f.file = &file
	f.setLabel(file.Name)
	f.notice.Hide()

	f.logger.Debug("resume selected", zap.String("name", file.Name), zap.Int64("size", file.Size))

	return nil
}

// Drop handles files dropped onto the form. Only the first file is used.
func (f *Form) Drop(files []File) error {
	if len(files) == 0 {
		return nil
	}

	if len(files) > 1 {
		f.logger.Debug("ignoring extra dropped files", zap.Int("dropped", len(files)))
	}

	return f.SelectFile(files[0])
}

// File returns the selected resume, if any.
func (f *Form) File() (File, bool) {
	if f.file == nil {
		return File{}, false
	}
	return *f.file, true
}

// Label is the text shown in the upload area.
func (f *Form) Label() string {
	return f.label
}

func (f *Form) setLabel(text string) {
	if strings.TrimSpace(text) == "" {
		f.label = EmptyLabel
		return
	}
	f.label = utils.KeepTail(text, maxLabelLength)
}

// SetJobDescription stores text and returns the refreshed counters.
func (f *Form) SetJobDescription(text string) Counters {
	f.description = text
	f.counters = newCounters(text, f.cfg.MaxDescriptionLength, f.cfg.WarnDescriptionAt)
	return f.counters
}

func (f *Form) JobDescription() string {
	return f.description
}

func (f *Form) Counters() Counters {
	return f.counters
}

// Validate runs the checks in order and reports the first failure through
// the notice.
func (f *Form) Validate() error {
	for _, check := range f.checks {
		if err := check.Apply(f); err != nil {
			f.logger.Debug("validation failed", zap.String("check", check.Name()), zap.Error(err))
			return f.reject(err)
		}
		f.logger.Debug("validation passed", zap.String("check", check.Name()))
	}
	return nil
}

// Submit validates the form and sends it to a. The button is re-enabled
// and relabelled on every exit path.
func (f *Form) Submit(ctx context.Context, a Analyzer) (*analyzer.Result, error) {
	f.notice.Hide()

	if err := f.Validate(); err != nil {
		return nil, err
	}

	f.loading = true
	f.resultsVisible = false
	f.buttonDisabled = true
	f.buttonText = ButtonAnalyzing

	defer func() {
		f.loading = false
		f.buttonDisabled = false
		f.buttonText = ButtonAnalyzeAgain
	}()

	body, err := f.file.Open()
	if err != nil {
		return nil, f.reject(err)
	}
	defer body.Close()

	result, err := a.Analyze(ctx, analyzer.AnalyzeRequest{
		FileName:       f.file.Name,
		File:           body,
		JobDescription: strings.TrimSpace(f.description),
	})
	if err != nil {
		f.logger.Error("analysis failed", zap.String("resume", f.file.Name), zap.Error(err))
		return nil, f.reject(err)
	}

	f.result = result
	f.resultsVisible = true

	return result, nil
}

// Reset returns the form to its initial state.
func (f *Form) Reset() {
	f.init()
	f.notice.Reset()
}

func (f *Form) reject(err error) error {
	f.notice.Show(err.Error())
	return err
}

// Config returns the limits the form enforces.
func (f *Form) Config() Config {
	return f.cfg
}

func (f *Form) Notice() *Notice {
	return f.notice
}

func (f *Form) Loading() bool {
	return f.loading
}

// Button returns the submit button text and whether it is enabled.
func (f *Form) Button() (string, bool) {
	return f.buttonText, !f.buttonDisabled
}

// Result returns the last successful analysis while results are visible.
func (f *Form) Result() (*analyzer.Result, bool) {
	return f.result, f.resultsVisible
}
