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

var critiqueCmd = &cobra.Command{
	Use:   "critique [resume-file]",
	Short: "Run a deep critique of a resume",
	Long: `Run a deep, free-form critique of a resume using an extended reasoning
budget. The critique covers strengths, weaknesses, red flags and concrete
suggestions for improvement, written from the perspective of an expert
talent analyst.`,
	Args: cobra.ExactArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := getConfigFromContext(cmd.Context())
		if err != nil {
			return err
		}
		if critiqueConfig.OutputFormat == "" {
			critiqueConfig.OutputFormat = cfg.App.DefaultFormat
		}
		return common.ValidateOutputFormat(critiqueConfig.OutputFormat, cfg.App.SupportedFormats)
	},
	RunE: runCritique,
}

var critiqueConfig common.CommandConfig

func init() {
	critiqueCmd.Flags().StringVarP(&critiqueConfig.OutputFile, "output", "o", "", "Output file path (default: stdout)")
	critiqueCmd.Flags().StringVar(&critiqueConfig.OutputFormat, "format", "", "Output format: json, text, or markdown")

	_ = critiqueCmd.RegisterFlagCompletionFunc("format", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		cfg, err := getConfigFromContext(cmd.Context())
		if err != nil {
			return []string{}, cobra.ShellCompDirectiveError
		}
		return common.GetSupportedFormats(cfg.App.SupportedFormats), cobra.ShellCompDirectiveNoFileComp
	})
}

func runCritique(cmd *cobra.Command, args []string) error {
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
		logger.Info("Starting deep critique",
			"file", fileName,
			"output_format", critiqueConfig.OutputFormat)
	}

	operation := func(ctx context.Context, resumeText string) (types.CritiqueOutput, *ai.TokenUsage, error) {
		critique, usage, err := provider.Critique(ctx, resumeText)
		if err != nil {
			return types.CritiqueOutput{}, usage, err
		}
		return types.CritiqueOutput{Critique: critique}, usage, nil
	}

	err = common.RunResumeCommand(
		cmd.Context(),
		logger,
		extractor,
		critiqueConfig,
		args[0],
		operation,
		logDetails,
	)

	if err != nil {
		return fmt.Errorf("failed to run critique: %w", err)
	}
	logger.Info("Deep critique completed successfully")
	return nil
}
