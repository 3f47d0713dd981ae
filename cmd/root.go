package cmd

import (
	"errors"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/spigell/resume-matcher/internal/analyzer"
	"github.com/spigell/resume-matcher/internal/form"
	"github.com/spigell/resume-matcher/internal/report"
)

const (
	app       = "resume-matcher"
	envPrefix = "RESUME_MATCHER"
)

type Config struct {
	Server               string        `mapstructure:"server"`
	UserAgent            string        `mapstructure:"user-agent"`
	TokenFile            string        `mapstructure:"token-file"`
	Timeout              time.Duration `mapstructure:"timeout"`
	MaxFileSize          int64         `mapstructure:"max-file-size"`
	MaxDescriptionLength int           `mapstructure:"max-description-length"`
	AllowedExtensions    []string      `mapstructure:"allowed-extensions"`
	NoticeDelay          time.Duration `mapstructure:"notice-delay"`
	Output               *OutputConfig `mapstructure:"output"`
	AI                   *AIConfig     `mapstructure:"ai"`
}

type OutputConfig struct {
	Format  string `mapstructure:"format"`
	Animate bool   `mapstructure:"animate"`
}

type AIConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	Gemini  *GeminiConfig `mapstructure:"gemini"`
}

type GeminiConfig struct {
	APIKeyFile     string `mapstructure:"api-key-file"`
	Model          string `mapstructure:"model"`
	MaxRetries     int    `mapstructure:"max-retries"`
	MaxLogLength   int    `mapstructure:"max-log-length"`
	MaxSuggestions int    `mapstructure:"max-suggestions"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "resume-matcher checks how well a resume matches a job description",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is resume-matcher.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")
	rootCmd.PersistentFlags().StringP("server", "s", analyzer.DefaultURL, "analysis server address")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	viper.BindPFlag("server", rootCmd.PersistentFlags().Lookup("server"))

	setDefaults(viper.GetViper())
}

func setDefaults(v *viper.Viper) {
	defaults := form.DefaultConfig()

	v.SetDefault("server", analyzer.DefaultURL)
	v.SetDefault("timeout", analyzer.DefaultTimeout)
	v.SetDefault("max-file-size", defaults.MaxFileSize)
	v.SetDefault("max-description-length", defaults.MaxDescriptionLength)
	v.SetDefault("allowed-extensions", defaults.AllowedExtensions)
	v.SetDefault("notice-delay", form.DefaultNoticeDelay)
	v.SetDefault("output.format", string(report.FormatText))
	v.SetDefault("output.animate", true)
	v.SetDefault("ai.enabled", false)
	v.SetDefault("ai.gemini.max-retries", 3)
}

func initConfig() {
	// A missing .env is the common case.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("loading .env: %v", err)
	}

	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	viper.AutomaticEnv()

	if err := viper.BindEnv("ai.gemini.api-key-file", "GEMINI_API_KEY_FILE", envPrefix+"_AI_GEMINI_API_KEY_FILE"); err != nil {
		log.Fatalf("binding GEMINI_API_KEY_FILE environment variable: %v", err)
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	if err := viper.ReadInConfig(); err != nil {
		// The config file is optional unless it was asked for explicitly.
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			log.Fatal(err)
		}
	}
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}

	if config.Output == nil {
		config.Output = &OutputConfig{Format: string(report.FormatText)}
	}
	if config.AI == nil {
		config.AI = &AIConfig{}
	}
	if config.AI.Gemini == nil {
		config.AI.Gemini = &GeminiConfig{}
	}

	return config, nil
}

// formConfig maps the file and description limits onto the form.
func (c *Config) formConfig() form.Config {
	exts := make([]string, 0, len(c.AllowedExtensions))
	for _, ext := range c.AllowedExtensions {
		if ext = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(ext)), "."); ext != "" {
			exts = append(exts, ext)
		}
	}

	return form.Config{
		MaxFileSize:          c.MaxFileSize,
		MaxDescriptionLength: c.MaxDescriptionLength,
		AllowedExtensions:    exts,
	}
}
