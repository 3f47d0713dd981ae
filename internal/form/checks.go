package form

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	msgNoFile          = "Please upload a resume file"
	msgNoDescription   = "Please enter a job description"
	msgFileTooLarge    = "File size exceeds %s limit. Please choose a smaller file."
	msgDescriptionLong = "Job description is too long. Maximum %d characters allowed."
)

// Check is a single validation step run before submission.
type Check interface {
	Name() string
	Apply(f *Form) error
}

// DefaultChecks returns the validation steps in the order they are reported.
func DefaultChecks() []Check {
	return []Check{
		resumePresentCheck{},
		descriptionPresentCheck{},
		descriptionLengthCheck{},
		resumeTypeCheck{},
	}
}

type resumePresentCheck struct{}

func (resumePresentCheck) Name() string { return "resume_present" }

func (resumePresentCheck) Apply(f *Form) error {
	if f.file == nil {
		return &ValidationError{Field: FieldResume, Message: msgNoFile, Err: ErrNoFile}
	}
	return nil
}

type descriptionPresentCheck struct{}

func (descriptionPresentCheck) Name() string { return "description_present" }

func (descriptionPresentCheck) Apply(f *Form) error {
	if strings.TrimSpace(f.description) == "" {
		return &ValidationError{Field: FieldJobDescription, Message: msgNoDescription, Err: ErrNoDescription}
	}
	return nil
}

type descriptionLengthCheck struct{}

func (descriptionLengthCheck) Name() string { return "description_length" }

func (descriptionLengthCheck) Apply(f *Form) error {
	if utf8.RuneCountInString(strings.TrimSpace(f.description)) > f.cfg.MaxDescriptionLength {
		return &ValidationError{
			Field:   FieldJobDescription,
			Message: fmt.Sprintf(msgDescriptionLong, f.cfg.MaxDescriptionLength),
			Err:     ErrDescriptionTooLong,
		}
	}
	return nil
}

type resumeTypeCheck struct{}

func (resumeTypeCheck) Name() string { return "resume_type" }

func (resumeTypeCheck) Apply(f *Form) error {
	if f.file == nil || len(f.cfg.AllowedExtensions) == 0 {
		return nil
	}

	ext := f.file.Ext()
	for _, allowed := range f.cfg.AllowedExtensions {
		if strings.EqualFold(strings.TrimPrefix(strings.TrimSpace(allowed), "."), ext) {
			return nil
		}
	}

	return &ValidationError{
		Field:   FieldResume,
		Message: fmt.Sprintf("Invalid file type for resume. Allowed types are %s", allowedList(f.cfg.AllowedExtensions)),
		Err:     ErrUnsupportedType,
	}
}

// sizeLabel renders a byte limit the way it is shown to users, e.g. "5MB".
func sizeLabel(bytes int64) string {
	const (
		kib = 1 << 10
		mib = 1 << 20
	)

	switch {
	case bytes >= mib && bytes%mib == 0:
		return fmt.Sprintf("%dMB", bytes/mib)
	case bytes >= mib:
		return fmt.Sprintf("%.1fMB", float64(bytes)/mib)
	case bytes >= kib:
		return fmt.Sprintf("%dKB", bytes/kib)
	default:
		return fmt.Sprintf("%dB", bytes)
	}
}

// allowedList renders extensions as "PDF and TXT" or "PDF, DOCX and TXT".
func allowedList(exts []string) string {
	names := make([]string, 0, len(exts))
	for _, ext := range exts {
		ext = strings.ToUpper(strings.TrimPrefix(strings.TrimSpace(ext), "."))
		if ext != "" {
			names = append(names, ext)
		}
	}

	switch len(names) {
	case 0:
		return ""
	case 1:
		return names[0]
	default:
		return strings.Join(names[:len(names)-1], ", ") + " and " + names[len(names)-1]
	}
}
