package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Rishi-choudhary/PARA-AI/core/classify"
	"github.com/Rishi-choudhary/PARA-AI/core/domain"
)

var (
	classifyBreakdown bool
	classifyTask      bool
)

var classifyCmd = &cobra.Command{
	Use:   "classify <text>",
	Short: "Classify text without writing to Notion",
	Long: `Run the classifier on text and print the result as JSON.

Examples:
  para classify "Plan the team offsite in March"
  para classify --breakdown "Launch the new pricing page"
  para classify --task "Call the dentist next Tuesday"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runClassify,
}

func init() {
	rootCmd.AddCommand(classifyCmd)

	classifyCmd.Flags().BoolVarP(&classifyBreakdown, "breakdown", "b", false, "Judge complexity and break projects into tasks")
	classifyCmd.Flags().BoolVarP(&classifyTask, "task", "t", false, "Extract a task name and due date instead")
}

func runClassify(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := newLogger(cmd.ErrOrStderr(), cfg.Log)
	if err != nil {
		return err
	}

	provider, err := newProvider(cmd.Context(), cfg.LLM)
	if err != nil {
		return fmt.Errorf("llm provider: %w", err)
	}
	defer provider.Close()

	loc, err := cfg.Digest.Location()
	if err != nil {
		return err
	}

	client := newClassifier(provider, cfg.LLM, logger)
	return classifyText(cmd.Context(), cmd.OutOrStdout(), client, strings.Join(args, " "), classifyOptions{
		breakdown: classifyBreakdown,
		task:      classifyTask,
		now:       time.Now().In(loc),
	})
}

type classifyOptions struct {
	breakdown bool
	task      bool
	now       time.Time
}

type classifyOutput struct {
	Classification *domain.Classification `json:"classification,omitempty"`
	Complexity     string                 `json:"complexity,omitempty"`
	Tasks          []string               `json:"tasks,omitempty"`
	Task           *domain.TaskExtraction `json:"task,omitempty"`
}

func classifyText(ctx context.Context, w io.Writer, client classify.Client, text string, opts classifyOptions) error {
	var out classifyOutput

	if opts.task {
		task, err := client.ExtractTask(ctx, text, opts.now)
		if err != nil {
			return fmt.Errorf("extract task: %w", err)
		}
		out.Task = &task
		return writeJSON(w, out)
	}

	c, err := client.Classify(ctx, text)
	if err != nil {
		return fmt.Errorf("classify: %w", err)
	}
	out.Classification = &c

	if opts.breakdown && c.Category == domain.BucketProjects {
		complexity, err := client.JudgeComplexity(ctx, c.Title)
		if err != nil {
			return fmt.Errorf("judge complexity: %w", err)
		}
		out.Complexity = complexity.String()
		if complexity == domain.ComplexityComplex {
			if out.Tasks, err = client.Breakdown(ctx, c.Title); err != nil {
				return fmt.Errorf("breakdown: %w", err)
			}
		}
	}
	return writeJSON(w, out)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
