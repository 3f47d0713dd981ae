package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/manifoldco/promptui"
	"go.uber.org/zap"

	"github.com/spigell/resume-matcher/internal/report"
)

const (
	PromptAnalyzeAgain = "Analyze again"
	PromptShowPreviews = "Show previews"
	PromptGetAdvice    = "Get advice"
	PromptReset        = "Reset"
	PromptExit         = "Exit"
)

var errExit = errors.New("exit requested")

var menu = promptui.Select{
	Label: "What next?",
	Items: []string{PromptAnalyzeAgain, PromptShowPreviews, PromptGetAdvice, PromptReset, PromptExit},
}

// loop offers follow-up actions until the user exits.
func (s *session) loop(ctx context.Context) error {
	for {
		_, action, err := menu.Run()
		if err != nil {
			if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
				return errExit
			}
			return err
		}

		if err := s.handleAction(ctx, action); err != nil {
			if errors.Is(err, errExit) {
				return err
			}
			// Validation and server failures are already shown by the notice.
			s.logger.Warn(strings.ToLower(action)+" failed", zap.Error(err))
		}
	}
}

func (s *session) handleAction(ctx context.Context, action string) error {
	switch action {
	case PromptAnalyzeAgain:
		description, err := promptDescription(s.form.Config().MaxDescriptionLength, s.form.JobDescription())
		if err != nil {
			return err
		}
		s.fill(s.resumeAt, description)
		return s.submit(ctx)
	case PromptShowPreviews:
		return s.present(ctx, report.Options{ShowPreviews: true})
	case PromptGetAdvice:
		return s.getAdvice(ctx, os.Stdout)
	case PromptReset:
		s.form.Reset()
		s.view = nil
		s.advice = nil

		resume, err := promptResume()
		if err != nil {
			return err
		}
		description, err := promptDescription(s.form.Config().MaxDescriptionLength, "")
		if err != nil {
			return err
		}
		s.fill(resume, description)
		return s.submit(ctx)
	case PromptExit:
		s.logger.Info("exiting", zap.String("reason", "got exit from prompt"))
		return errExit
	default:
		return fmt.Errorf("invalid action: %s", action)
	}
}

func promptResume() (string, error) {
	p := promptui.Prompt{
		Label: "Resume file",
		Validate: func(input string) error {
			if strings.TrimSpace(input) == "" {
				return errors.New("please select a resume file")
			}
			return nil
		},
	}

	path, err := p.Run()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(path), nil
}

// promptDescription asks for the job description. Input starting with "@"
// names a file to read it from.
func promptDescription(limit int, current string) (string, error) {
	p := promptui.Prompt{
		Label:   fmt.Sprintf("Job description (text or @file, max %d characters)", limit),
		Default: current,
		Validate: func(input string) error {
			_, err := resolveDescription(input, limit)
			return err
		},
	}

	input, err := p.Run()
	if err != nil {
		return "", err
	}
	return resolveDescription(input, limit)
}

func resolveDescription(input string, limit int) (string, error) {
	text := input
	if path, ok := strings.CutPrefix(strings.TrimSpace(input), "@"); ok {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("reading %q: %w", path, err)
		}
		text = string(data)
	}

	if strings.TrimSpace(text) == "" {
		return "", errors.New("please enter a job description")
	}
	if chars := utf8.RuneCountInString(strings.TrimSpace(text)); limit > 0 && chars > limit {
		return "", fmt.Errorf("%d/%d characters", chars, limit)
	}
	return text, nil
}
