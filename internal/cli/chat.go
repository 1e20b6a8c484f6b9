package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"talentlens/internal/ai"
	"talentlens/internal/common"
	"talentlens/internal/extract"
	"talentlens/internal/formatters"
	"talentlens/internal/session"
	"talentlens/internal/types"

	"github.com/spf13/cobra"
)

var chatCmd = &cobra.Command{
	Use:   "chat [resume-file]",
	Short: "Start an interactive review session for a resume",
	Long: `Start an interactive chat session with an expert talent analyst about
a resume. The analyst answers only based on the resume content.

Commands available inside the session:
  /profile   Extract a structured candidate profile
  /ats       Run an ATS compatibility scan
  /critique  Run a deep critique of the resume
  /reset     Discard the conversation and start over
  /retry     Retry chat initialization after a failure
  /help      Show available commands
  /quit      Exit the session`,
	Args: cobra.ExactArgs(1),
	RunE: runChat,
}

func runChat(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg, err := getConfigFromContext(ctx)
	if err != nil {
		return err
	}
	logger, err := getLoggerFromContext(ctx)
	if err != nil {
		return err
	}

	provider, err := ai.NewGeminiProvider(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to create AI provider: %w", err)
	}
	defer func() { _ = provider.Close() }()

	extractor := extract.New(cfg.App.MaxFileSize, logger)
	fileProcessor := common.NewFileProcessor(logger)

	fileName, text, err := fileProcessor.LoadResume(extractor, args[0])
	if err != nil {
		return err
	}

	manager := session.NewManager(provider, logger)
	if err := manager.Start(ctx, fileName, text); err != nil {
		fmt.Printf("Chat initialization failed: %v\n", err)
		fmt.Println("Analysis commands still work; use /retry to bring chat up.")
	} else {
		printLatestReply(manager)
	}

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for {
		fmt.Print("you> ")
		if !scanner.Scan() {
			fmt.Println()
			return scanner.Err()
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "/") {
			done, err := runChatCommand(cmd, manager, fileName, text, line)
			if err != nil {
				fmt.Printf("Error: %v\n", err)
			}
			if done {
				return nil
			}
			continue
		}

		reply, err := manager.SendMessage(ctx, line)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			continue
		}
		fmt.Printf("\nanalyst> %s\n\n", reply.Text)
	}
}

// runChatCommand dispatches a slash command. It returns true when the
// session should end.
func runChatCommand(cmd *cobra.Command, manager *session.Manager, fileName, text, line string) (bool, error) {
	ctx := cmd.Context()

	switch strings.ToLower(line) {
	case "/quit", "/exit":
		fmt.Println("Goodbye.")
		return true, nil

	case "/help":
		fmt.Println("Commands: /profile /ats /critique /reset /retry /quit")
		return false, nil

	case "/profile":
		fmt.Println("Extracting candidate profile...")
		profile, err := manager.ExtractProfile(ctx)
		if err != nil {
			return false, err
		}
		return false, printFormatted(profile)

	case "/ats":
		fmt.Println("Running ATS scan...")
		result, err := manager.RunATSScan(ctx)
		if err != nil {
			return false, err
		}
		return false, printFormatted(result)

	case "/critique":
		fmt.Println("Running deep critique, this can take a while...")
		reply, err := manager.DeepCritique(ctx)
		if err != nil {
			return false, err
		}
		fmt.Printf("\nanalyst> %s\n\n", reply.Text)
		return false, nil

	case "/reset":
		manager.Reset()
		fmt.Println("Session reset. Starting over with the same resume.")
		if err := manager.Start(ctx, fileName, text); err != nil {
			return false, err
		}
		printLatestReply(manager)
		return false, nil

	case "/retry":
		if err := manager.RetryChat(ctx); err != nil {
			return false, err
		}
		printLatestReply(manager)
		return false, nil

	default:
		fmt.Printf("Unknown command %q. Type /help for the list.\n", line)
		return false, nil
	}
}

// printLatestReply prints the newest model message in the transcript
func printLatestReply(manager *session.Manager) {
	snapshot := manager.Snapshot()
	for i := len(snapshot.Transcript) - 1; i >= 0; i-- {
		msg := snapshot.Transcript[i]
		if msg.Role == types.RoleModel && !msg.Failed {
			fmt.Printf("\nanalyst> %s\n\n", msg.Text)
			return
		}
	}
}

func printFormatted(data any) error {
	output, err := formatters.GlobalRegistry.Format(data, "text")
	if err != nil {
		return err
	}
	fmt.Println()
	fmt.Println(output)
	return nil
}
