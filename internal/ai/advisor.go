package ai

import (
	"context"

	"github.com/spigell/resume-matcher/internal/report"
)

// Advice is a short list of concrete resume improvements.
type Advice struct {
	Summary     string
	Suggestions []string
	Raw         string
}

// AdviceRequest carries what the advisor knows about a finished analysis.
type AdviceRequest struct {
	View           *report.View
	JobDescription string
	Resume         string
}

type Advisor interface {
	Advise(ctx context.Context, req AdviceRequest) (*Advice, error)
}
