package analyzer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spigell/resume-matcher/internal/logger"
)

const (
	DefaultURL     = "http://127.0.0.1:5000"
	DefaultTimeout = 30 * time.Second

	// FieldResume and FieldJobDescription are the multipart field names the
	// analysis server reads.
	FieldResume         = "resume"
	FieldJobDescription = "job_description_text"

	// DefaultErrorMessage is reported when the server fails without saying why.
	DefaultErrorMessage = "An error occurred while analyzing your resume"

	analyzePath = "/analyze"
	userAgent   = "resume-matcher-cli/1.0"
)

// ServerError is returned when the analysis server rejects a submission.
// Message is suitable for showing to the user as is.
type ServerError struct {
	StatusCode int
	Message    string
}

func (e *ServerError) Error() string {
	return e.Message
}

type Client struct {
	logger     *zap.Logger
	HTTPClient *http.Client
	UserAgent  string
	BaseURL    string
	// Token is sent as a bearer token when set.
	Token string
}

// AnalyzeRequest carries one form submission.
type AnalyzeRequest struct {
	FileName       string
	File           io.Reader
	JobDescription string
}

func New(logger *zap.Logger, baseURL string) *Client {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = DefaultURL
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		BaseURL: baseURL,
		HTTPClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		logger:    logger,
		UserAgent: userAgent,
	}
}

// Endpoint returns the full URL submissions are posted to.
func (c *Client) Endpoint() string {
	return c.BaseURL + analyzePath
}

// Analyze posts the resume and the job description to the analysis server
// and decodes its response.
func (c *Client) Analyze(ctx context.Context, req AnalyzeRequest) (*Result, error) {
	if req.File == nil {
		return nil, errors.New("resume file is required")
	}
	if strings.TrimSpace(req.FileName) == "" {
		return nil, errors.New("resume file name is required")
	}

	requestID := uuid.NewString()
	log := logger.WithRequestFields(c.logger, c.Endpoint(), requestID, req.FileName)

	log.Debug("submitting analysis", zap.Int("job_description_length", len([]rune(req.JobDescription))))

	resp, err := c.postMultipart(ctx, c.Endpoint(), requestID, multipartFile{
		field: FieldResume,
		name:  req.FileName,
		body:  req.File,
	}, map[string]string{
		FieldJobDescription: req.JobDescription,
	})
	if err != nil {
		return nil, fmt.Errorf("posting to %s: %w", c.Endpoint(), err)
	}
	defer resp.Body.Close()

	data, err := readBody(resp)
	if err != nil {
		return nil, fmt.Errorf("reading analysis response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		serverErr := &ServerError{StatusCode: resp.StatusCode, Message: errorMessage(data)}
		log.Warn("analysis rejected", zap.Int("status", resp.StatusCode), zap.String("error", serverErr.Message))
		return nil, serverErr
	}

	result, err := DecodeResult(data)
	if err != nil {
		var serverErr *ServerError
		if errors.As(err, &serverErr) {
			serverErr.StatusCode = resp.StatusCode
			log.Warn("analysis failed", zap.String("error", serverErr.Message))
		}
		return nil, err
	}

	result.RequestID = requestID

	log.Debug("analysis received",
		zap.Float64("overall_score", result.Analysis.OverallScore),
		zap.Bool("legacy", result.Legacy),
	)

	return result, nil
}
