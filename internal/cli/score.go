package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"atscore/internal/ai"
	"atscore/internal/ats"
	"atscore/internal/common"
	"atscore/internal/types"

	"github.com/spf13/cobra"
)

var scoreCmd = &cobra.Command{
	Use:   "score [resume-file] [job-description-file]",
	Short: "Score a resume against a job description",
	Long: `Score a resume the way an applicant tracking system would.

The resume file is a JSON document. The job description is taken from the
resume's jobDescription field, or from the optional second argument, which
overrides it. Saved HTML job postings are supported; markup is stripped
before analysis.

The result includes:
- An overall 0-100 compatibility score
- A job-specific score when keywords could be extracted
- Per-category feedback with priorities
- Found and missing keywords
- Concrete improvement suggestions`,
	Args: cobra.RangeArgs(1, 2),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := getConfigFromContext(cmd.Context())
		if err != nil {
			return err
		}
		// Apply default format if not specified
		if scoreConfig.OutputFormat == "" {
			scoreConfig.OutputFormat = cfg.App.DefaultFormat
		}
		return common.ValidateOutputFormat(scoreConfig.OutputFormat, cfg.App.SupportedFormats)
	},
	RunE: runScore,
}

var scoreConfig common.CommandConfig
var scoreTargetTitle string

func init() {
	scoreCmd.Flags().StringVarP(&scoreConfig.OutputFile, "output", "o", "", "Output file path (default: stdout)")
	scoreCmd.Flags().StringVar(&scoreConfig.OutputFormat, "format", "", "Output format: json, text, or markdown")
	scoreCmd.Flags().StringVar(&scoreTargetTitle, "title", "", "Target job title (overrides the resume's targetTitle field)")

	// Add completion for format flag
	_ = scoreCmd.RegisterFlagCompletionFunc("format", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		cfg, err := getConfigFromContext(cmd.Context())
		if err != nil {
			return []string{}, cobra.ShellCompDirectiveError
		}
		return common.GetSupportedFormats(cfg.App.SupportedFormats), cobra.ShellCompDirectiveNoFileComp
	})
}

func runScore(cmd *cobra.Command, args []string) error {
	cfg, err := getConfigFromContext(cmd.Context())
	if err != nil {
		return err
	}
	logger, err := getLoggerFromContext(cmd.Context())
	if err != nil {
		return err
	}

	// The remote extractor is optional; without it the engine uses the
	// local pattern-based extractor.
	var remote ats.RemoteExtractor
	if cfg.Engine.RemoteExtraction {
		service, err := ai.NewService(&cfg.AI, logger)
		if err != nil {
			return fmt.Errorf("failed to create extraction service: %w", err)
		}
		defer func() {
			if err := service.Close(); err != nil {
				logger.Warn("Failed to close extraction service", "error", err)
			}
		}()
		remote = service
	}

	extractor := ats.NewExtractor(remote, nil, logger)
	extractor.WithTimeout(cfg.AI.Timeout)
	engine := ats.NewEngine(extractor, logger)

	createInput := func(contents []string) (*types.ResumeDocument, error) {
		var resume types.ResumeDocument
		if err := json.Unmarshal([]byte(contents[0]), &resume); err != nil {
			return nil, fmt.Errorf("resume file is not valid JSON: %w", err)
		}
		if len(contents) == 2 {
			resume.JobDescription = contents[1]
		}
		if scoreTargetTitle != "" {
			resume.TargetTitle = scoreTargetTitle
		}
		return &resume, nil
	}

	logDetails := func(input *types.ResumeDocument, cfg common.CommandConfig) {
		logger.Info("Starting resume scoring",
			"target_title", input.TargetTitle,
			"job_chars", len(input.JobDescription),
			"experience_entries", len(input.Experience),
			"output_format", cfg.OutputFormat)
	}

	scoreOperation := func(ctx context.Context, input *types.ResumeDocument) (types.ATSScoreResult, error) {
		return engine.Score(ctx, input), nil
	}

	err = common.RunCommand(
		cmd.Context(),
		logger,
		scoreConfig,
		args,
		createInput,
		scoreOperation,
		logDetails,
	)

	if err != nil {
		return fmt.Errorf("failed to score resume: %w", err)
	}
	logger.Info("Resume scoring completed successfully")
	return nil
}
