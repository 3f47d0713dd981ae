package cmd

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/resume-matcher/internal/extract"
	"github.com/spigell/resume-matcher/internal/form"
	"github.com/spigell/resume-matcher/internal/logger"
	"github.com/spigell/resume-matcher/internal/report"
)

var previewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Show the text that will be extracted from a resume",
	Run: func(cmd *cobra.Command, _ []string) {
		preview(cmd)
	},
}

func init() {
	rootCmd.AddCommand(previewCmd)

	previewCmd.Flags().StringP("resume", "r", "", "resume file (pdf, txt or docx)")
	previewCmd.MarkFlagRequired("resume")
}

func preview(cmd *cobra.Command) {
	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}
	defer logger.Sync()

	path, _ := cmd.Flags().GetString("resume")

	file, err := form.FileFromPath(path)
	if err != nil {
		logger.Fatal("reading resume", zap.Error(err))
	}

	text, err := extract.Text(path)
	if err != nil {
		logger.Fatal("extracting resume text", zap.Error(err), zap.String("resume", path))
	}

	logger.Debug("resume extracted", zap.String("resume", path), zap.Int64("size", file.Size))

	if err := writePreview(os.Stdout, file.Name, text); err != nil {
		logger.Fatal("writing preview", zap.Error(err))
	}
}

func writePreview(w io.Writer, name, text string) error {
	var b strings.Builder

	heading := color.New(color.Bold, color.Underline)
	fmt.Fprintf(&b, "%s\n", heading.Sprintf("%s (%s)", name, form.WordLabel(form.CountWords(text))))
	for _, line := range strings.Split(report.Preview(text), "\n") {
		fmt.Fprintf(&b, "  %s\n", line)
	}

	_, err := io.WriteString(w, b.String())
	return err
}
