package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fontanka/edc-check/internal/cli"
)

func classifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "classify <term>...",
		Short: "Test how free-text terms are classified",
		Long: `Run each argument through the term classifier with the current tuning and
print the verdict. Useful before adding a custom include or exclude keyword.

Example:
  hfh classify "acute decompensated heart failure" "renal colic"`,
		Args: cobra.MinimumNArgs(1),
		RunE: runClassify,
	}
}

func runClassify(cmd *cobra.Command, args []string) error {
	tuning, err := openTuning()
	if err != nil {
		return err
	}
	classifier, err := buildClassifier(tuning)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, term := range args {
		term = strings.TrimSpace(term)
		if term == "" {
			continue
		}
		_, _ = fmt.Fprintln(out, cli.RenderClassification(term, classifier.Classify(term)))
	}
	return nil
}
