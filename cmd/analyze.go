package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/resume-matcher/internal/ai"
	"github.com/spigell/resume-matcher/internal/ai/gemini"
	"github.com/spigell/resume-matcher/internal/analyzer"
	"github.com/spigell/resume-matcher/internal/extract"
	"github.com/spigell/resume-matcher/internal/form"
	"github.com/spigell/resume-matcher/internal/logger"
	"github.com/spigell/resume-matcher/internal/report"
	"github.com/spigell/resume-matcher/internal/secrets"
)

const (
	tokenEnv  = envPrefix + "_TOKEN"
	geminiEnv = "GEMINI_API_KEY"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Send a resume and a job description to the analysis server",
	Run: func(cmd *cobra.Command, _ []string) {
		analyze(cmd)
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().StringP("resume", "r", "", "resume file to analyze (pdf or txt)")
	analyzeCmd.Flags().String("jd", "", "job description text")
	analyzeCmd.Flags().String("jd-file", "", "file with the job description")
	analyzeCmd.Flags().StringP("format", "f", "", "report format: text, markdown, html or json")
	analyzeCmd.Flags().StringP("output", "o", "", "write the report to a file instead of stdout")
	analyzeCmd.Flags().BoolP("interactive", "i", false, "prompt for missing input and offer follow-up actions (advice is offered from the menu instead of printed)")
	analyzeCmd.Flags().Bool("show-local", false, "print the locally extracted resume preview before uploading")
	analyzeCmd.Flags().Bool("no-animate", false, "do not animate the score")

	viper.BindPFlag("output.format", analyzeCmd.Flags().Lookup("format"))
}

// session ties one form to the services it talks to for the lifetime of the command.
type session struct {
	config   *Config
	logger   *zap.Logger
	form     *form.Form
	client   *analyzer.Client
	advisor  ai.Advisor
	format   report.Format
	output   string
	animate  bool
	view     *report.View
	advice   *ai.Advice
	resumeAt string
}

func analyze(cmd *cobra.Command) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}
	defer logger.Sync()

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Info("starting the resume-matcher", zap.String("version", version))

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(config, "", "  ")
	logger.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	s, err := newSession(ctx, cmd, config, logger)
	if err != nil {
		logger.Fatal("preparing the analysis", zap.Error(err))
	}

	interactive, _ := cmd.Flags().GetBool("interactive")

	resume, _ := cmd.Flags().GetString("resume")
	if resume == "" && interactive {
		if resume, err = promptResume(); err != nil {
			logger.Fatal("exiting", zap.Error(err))
		}
	}

	description, err := jobDescription(cmd)
	if err != nil {
		logger.Fatal("reading the job description", zap.Error(err))
	}
	if description == "" && interactive {
		if description, err = promptDescription(s.form.Config().MaxDescriptionLength, ""); err != nil {
			logger.Fatal("exiting", zap.Error(err))
		}
	}

	s.fill(resume, description)

	if showLocal, _ := cmd.Flags().GetBool("show-local"); showLocal {
		if err := s.printLocalPreview(os.Stdout); err != nil {
			logger.Warn("skipping local preview", zap.Error(err))
		}
	}

	if err := s.submit(ctx); err != nil && !interactive {
		logger.Fatal("analysis failed", zap.Error(err))
	}

	if !interactive {
		s.printAdvice(ctx, os.Stdout)
		return
	}

	if err := s.loop(ctx); err != nil && !errors.Is(err, errExit) {
		logger.Fatal("exiting", zap.Error(err))
	}
}

func newSession(ctx context.Context, cmd *cobra.Command, config *Config, log *zap.Logger) (*session, error) {
	format, err := report.ParseFormat(config.Output.Format)
	if err != nil {
		return nil, err
	}

	output, _ := cmd.Flags().GetString("output")
	noAnimate, _ := cmd.Flags().GetBool("no-animate")

	notice := form.NewNotice(config.NoticeDelay, form.DefaultNoticeFade)
	notice.Subscribe(printNotice)

	f := form.New(
		form.WithConfig(config.formConfig()),
		form.WithLogger(log.Named("form")),
		form.WithNotice(notice),
	)

	client, err := newClient(config, log)
	if err != nil {
		return nil, err
	}

	s := &session{
		config:  config,
		logger:  log,
		form:    f,
		client:  client,
		format:  format,
		output:  output,
		animate: config.Output.Animate && !noAnimate && output == "" && format == report.FormatText,
	}

	if config.AI.Enabled {
		advisor, err := newAdvisor(ctx, config.AI, log)
		if err != nil {
			log.Warn("skipping advice", zap.Error(err))
		} else {
			s.advisor = advisor
		}
	}

	return s, nil
}

func newClient(config *Config, log *zap.Logger) (*analyzer.Client, error) {
	token, err := secrets.LoadOptional(secrets.Source{
		Name: "analysis server token",
		File: config.TokenFile,
		Env:  tokenEnv,
	})
	if err != nil {
		return nil, fmt.Errorf("%w (set token-file or %s)", err, tokenEnv)
	}

	client := analyzer.New(logger.WithFields(log.Named("analyzer"), zap.String("server", config.Server)), config.Server)
	client.Token = token

	if config.UserAgent != "" {
		client.UserAgent = config.UserAgent
	}
	if config.Timeout > 0 {
		client.HTTPClient.Timeout = config.Timeout
	}

	return client, nil
}

func newAdvisor(ctx context.Context, cfg *AIConfig, log *zap.Logger) (ai.Advisor, error) {
	apiKey, err := secrets.Load(secrets.Source{
		Name: "gemini api key",
		File: cfg.Gemini.APIKeyFile,
		Env:  geminiEnv,
	})
	if err != nil {
		return nil, fmt.Errorf("%w (set ai.gemini.api-key-file or %s)", err, geminiEnv)
	}

	genLogger := log.With(
		zap.String("provider", "gemini"),
		zap.Int("ai_retry_attempts", cfg.Gemini.MaxRetries),
	)

	generator, err := gemini.NewGenerator(ctx, apiKey, cfg.Gemini.Model, cfg.Gemini.MaxRetries, genLogger)
	if err != nil {
		return nil, err
	}

	return gemini.NewAdvisor(generator, cfg.Gemini.MaxSuggestions, cfg.Gemini.MaxLogLength, genLogger), nil
}

// jobDescription returns the --jd text or the content of --jd-file.
func jobDescription(cmd *cobra.Command) (string, error) {
	text, _ := cmd.Flags().GetString("jd")
	path, _ := cmd.Flags().GetString("jd-file")

	if text != "" && path != "" {
		return "", errors.New("--jd and --jd-file are mutually exclusive")
	}
	if path == "" {
		return text, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading %q: %w", path, err)
	}
	return string(data), nil
}

// fill selects the resume and types the description into the form.
// Rejections are reported by the notice and surface again on submit.
func (s *session) fill(resume, description string) {
	s.resumeAt = ""
	if resume != "" {
		file, err := form.FileFromPath(resume)
		if err != nil {
			s.logger.Warn("selecting resume", zap.Error(err))
		} else if err := s.form.SelectFile(file); err == nil {
			s.resumeAt = resume
		}
	}

	counters := s.form.SetJobDescription(description)
	s.logger.Debug("job description updated",
		zap.String("chars", counters.CharLabel),
		zap.String("words", counters.WordLabel),
		zap.Bool("near_limit", counters.NearLimit),
	)
	if counters.NearLimit {
		s.logger.Warn("job description is close to the limit", zap.String("chars", counters.CharLabel))
	}
}

func (s *session) submit(ctx context.Context) error {
	s.logger.Info("analyzing resume",
		zap.String("label", s.form.Label()),
		zap.String("endpoint", s.client.Endpoint()),
	)

	result, err := s.form.Submit(ctx, s.client)
	if err != nil {
		return err
	}

	s.view = report.Build(result)
	s.advice = nil

	s.logger.Info("analysis finished",
		zap.String("request_id", result.RequestID),
		zap.Int("score", s.view.Score),
		zap.String("status", s.view.Status),
		zap.Int("missing_skills", len(s.view.MissingSkills)),
	)

	return s.present(ctx, report.Options{})
}

// present writes the current view to the configured destination.
func (s *session) present(ctx context.Context, opts report.Options) error {
	if s.view == nil {
		return errors.New("there is no analysis to show yet")
	}

	if s.animate {
		if err := report.Animate(ctx, os.Stdout, s.view.Score, report.DefaultStep); err != nil {
			return err
		}
	}

	if s.output == "" {
		return report.Render(os.Stdout, s.view, s.format, opts)
	}

	file, err := os.Create(s.output)
	if err != nil {
		return fmt.Errorf("creating report file: %w", err)
	}
	defer file.Close()

	noColor := color.NoColor
	color.NoColor = true
	defer func() { color.NoColor = noColor }()

	if err := report.Render(file, s.view, s.format, opts); err != nil {
		return err
	}

	s.logger.Info("report written", zap.String("filename", s.output), zap.String("format", string(s.format)))
	return nil
}

func (s *session) printLocalPreview(w io.Writer) error {
	if s.resumeAt == "" {
		return errors.New("no resume selected")
	}

	text, err := extract.Text(s.resumeAt)
	if err != nil {
		return err
	}

	return writePreview(w, s.form.Label(), text)
}

func (s *session) getAdvice(ctx context.Context, w io.Writer) error {
	if s.advisor == nil {
		return errors.New("advice is disabled (set ai.enabled and a gemini api key)")
	}
	if s.view == nil {
		return errors.New("there is no analysis to advise on yet")
	}

	if s.advice == nil {
		resume := ""
		if s.resumeAt != "" {
			text, err := extract.Text(s.resumeAt)
			if err != nil {
				s.logger.Debug("advising without resume text", zap.Error(err))
			}
			resume = text
		}

		advice, err := s.advisor.Advise(ctx, ai.AdviceRequest{
			View:           s.view,
			JobDescription: s.form.JobDescription(),
			Resume:         resume,
		})
		if err != nil {
			return fmt.Errorf("getting advice: %w", err)
		}
		s.advice = advice
	}

	return writeAdvice(w, s.advice)
}

// printAdvice follows a one-shot analysis with advice when an advisor is
// configured. Failures are only logged.
func (s *session) printAdvice(ctx context.Context, w io.Writer) {
	if s.advisor == nil || s.view == nil {
		return
	}
	if err := s.getAdvice(ctx, w); err != nil {
		s.logger.Warn("skipping advice", zap.Error(err))
	}
}

func writeAdvice(w io.Writer, advice *ai.Advice) error {
	var b strings.Builder

	fmt.Fprintf(&b, "\n%s\n", color.New(color.Bold, color.Underline).Sprint("Advice"))
	if advice.Summary != "" {
		fmt.Fprintf(&b, "%s\n", advice.Summary)
	}
	for i, suggestion := range advice.Suggestions {
		fmt.Fprintf(&b, "  %d. %s\n", i+1, suggestion)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// printNotice mirrors the inline error banner on stderr.
func printNotice(event form.NoticeEvent) {
	if event.State != form.NoticeShown {
		return
	}
	fmt.Fprintln(os.Stderr, color.RedString("✖ %s", event.Message))
}
