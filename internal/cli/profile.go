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

var profileCmd = &cobra.Command{
	Use:   "profile [resume-file]",
	Short: "Extract a structured candidate profile from a resume",
	Long: `Extract a structured candidate profile from a resume file (PDF or text).

The profile includes:
- Candidate name
- Executive summary
- Top skills (up to 5)
- Suggested interview questions`,
	Args: cobra.ExactArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := getConfigFromContext(cmd.Context())
		if err != nil {
			return err
		}
		// Apply default format if not specified
		if profileConfig.OutputFormat == "" {
			profileConfig.OutputFormat = cfg.App.DefaultFormat
		}
		// Validate format against supported formats
		return common.ValidateOutputFormat(profileConfig.OutputFormat, cfg.App.SupportedFormats)
	},
	RunE: runProfile,
}

var profileConfig common.CommandConfig

func init() {
	profileCmd.Flags().StringVarP(&profileConfig.OutputFile, "output", "o", "", "Output file path (default: stdout)")
	profileCmd.Flags().StringVar(&profileConfig.OutputFormat, "format", "", "Output format: json, text, or markdown")

	// Add completion for format flag
	_ = profileCmd.RegisterFlagCompletionFunc("format", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		cfg, err := getConfigFromContext(cmd.Context())
		if err != nil {
			return []string{}, cobra.ShellCompDirectiveError
		}
		return common.GetSupportedFormats(cfg.App.SupportedFormats), cobra.ShellCompDirectiveNoFileComp
	})
}

func runProfile(cmd *cobra.Command, args []string) error {
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
		logger.Info("Starting profile extraction",
			"file", fileName,
			"output_format", profileConfig.OutputFormat)
	}

	operation := func(ctx context.Context, resumeText string) (types.ProfileAnalysis, *ai.TokenUsage, error) {
		return provider.ExtractProfile(ctx, resumeText)
	}

	err = common.RunResumeCommand(
		cmd.Context(),
		logger,
		extractor,
		profileConfig,
		args[0],
		operation,
		logDetails,
	)

	if err != nil {
		return fmt.Errorf("failed to extract profile: %w", err)
	}
	logger.Info("Profile extraction completed successfully")
	return nil
}
