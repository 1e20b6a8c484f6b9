package common

import (
	"context"
	"fmt"
	"os"

	"talentlens/internal/ai"
	"talentlens/internal/errors"
	"talentlens/internal/extract"
)

// ResumeOperationFunc is a generic signature for a one-shot AI
// operation over extracted resume text.
type ResumeOperationFunc[Output any] func(ctx context.Context, resumeText string) (Output, *ai.TokenUsage, error)

// RunResumeCommand encapsulates the common flow of file-based CLI
// commands: validate and read the resume, extract its text, run the
// AI operation, report token usage and write the formatted result.
func RunResumeCommand[Output any](
	ctx context.Context,
	logger *errors.Logger,
	extractor *extract.Extractor,
	cmdConfig CommandConfig,
	resumeFile string,
	operation ResumeOperationFunc[Output],
	logDetails func(fileName string),
) error {
	fileProcessor := NewFileProcessor(logger)
	outputHandler := NewOutputHandler(logger)

	fileName, text, err := fileProcessor.LoadResume(extractor, resumeFile)
	if err != nil {
		return err
	}

	if logDetails != nil {
		logDetails(fileName)
	}

	result, tokenUsage, err := operation(ctx, text)
	if err != nil {
		return err
	}

	if tokenUsage != nil {
		if logger != nil {
			logger.Info("AI token usage", "input_tokens", tokenUsage.InputTokens, "output_tokens", tokenUsage.OutputTokens, "total_tokens", tokenUsage.TotalTokens)
		} else {
			fmt.Fprintf(os.Stderr, "AI token usage: input=%d, output=%d, total=%d\n", tokenUsage.InputTokens, tokenUsage.OutputTokens, tokenUsage.TotalTokens)
		}
	}

	return outputHandler.HandleOutput(result, cmdConfig)
}
