package cli

import (
	"context"
	"fmt"

	"talentlens/internal/ai"
	"talentlens/internal/common"
	"talentlens/internal/extract"
	"talentlens/internal/types"

	"github.com/spf13/cobra"
)

var atsCmd = &cobra.Command{
	Use:   "ats [resume-file]",
	Short: "Run an ATS compatibility scan on a resume",
	Long: `Scan a resume for Applicant Tracking System (ATS) compatibility and
score it from 0 to 100.

The scan weighs:
- Keyword relevance and impact (40%)
- Formatting and parseability (30%)
- Quantifiable achievements (30%)

Scoring is strictly calibrated: a typical resume lands between 40 and 70,
and only exceptional resumes score above 80. The result includes actionable
feedback and up to three missing keywords.`,
	Args: cobra.ExactArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := getConfigFromContext(cmd.Context())
		if err != nil {
			return err
		}
		if atsConfig.OutputFormat == "" {
			atsConfig.OutputFormat = cfg.App.DefaultFormat
		}
		return common.ValidateOutputFormat(atsConfig.OutputFormat, cfg.App.SupportedFormats)
	},
	RunE: runATS,
}

var atsConfig common.CommandConfig

func init() {
	atsCmd.Flags().StringVarP(&atsConfig.OutputFile, "output", "o", "", "Output file path (default: stdout)")
	atsCmd.Flags().StringVar(&atsConfig.OutputFormat, "format", "", "Output format: json, text, or markdown")

	_ = atsCmd.RegisterFlagCompletionFunc("format", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		cfg, err := getConfigFromContext(cmd.Context())
		if err != nil {
			return []string{}, cobra.ShellCompDirectiveError
		}
		return common.GetSupportedFormats(cfg.App.SupportedFormats), cobra.ShellCompDirectiveNoFileComp
	})
}

func runATS(cmd *cobra.Command, args []string) error {
	cfg, err := getConfigFromContext(cmd.Context())
	if err != nil {
		return err
	}
	logger, err := getLoggerFromContext(cmd.Context())
	if err != nil {
		return err
	}

	provider, err := ai.NewGeminiProvider(cmd.Context(), cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to create AI provider: %w", err)
	}
	defer func() { _ = provider.Close() }()

	extractor := extract.New(cfg.App.MaxFileSize, logger)

	logDetails := func(fileName string) {
		logger.Info("Starting ATS scan",
			"file", fileName,
			"output_format", atsConfig.OutputFormat)
	}

	operation := func(ctx context.Context, resumeText string) (types.ATSResult, *ai.TokenUsage, error) {
		return provider.ScanATS(ctx, resumeText)
	}

	err = common.RunResumeCommand(
		cmd.Context(),
		logger,
		extractor,
		atsConfig,
		args[0],
		operation,
		logDetails,
	)

	if err != nil {
		return fmt.Errorf("failed to run ATS scan: %w", err)
	}
	logger.Info("ATS scan completed successfully")
	return nil
}
