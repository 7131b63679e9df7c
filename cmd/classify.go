package cmd

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/teemow/inboxalert/internal/classifier"
	"github.com/teemow/inboxalert/internal/config"
)

func newClassifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "classify [subject...]",
		Short: "Print the category the rules assign to email subjects",
		Long: `Print the category for each subject given as an argument, or for each
line read from standard input when no arguments are given. Useful to try
a rules file before deploying it:

  inboxalert classify --rules ./rules.yaml "Your invoice for March"
  cat subjects.txt | inboxalert classify`,
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := loadViper(cmd)
			if err != nil {
				return err
			}

			c, err := newClassifier(v.GetString(config.KeyRules), false)
			if err != nil {
				return err
			}
			return classifySubjects(cmd, c, args)
		},
	}

	cmd.Flags().String(config.KeyRules, classifier.RuleSetDefault, "Rule set: default, legacy or a path to a YAML rules file")
	return cmd
}

func classifySubjects(cmd *cobra.Command, c *classifier.Classifier, subjects []string) error {
	out := cmd.OutOrStdout()

	if len(subjects) > 0 {
		for _, subject := range subjects {
			fmt.Fprintln(out, c.Classify(subject))
		}
		return nil
	}

	scanner := bufio.NewScanner(cmd.InOrStdin())
	for scanner.Scan() {
		subject := strings.TrimSpace(scanner.Text())
		if subject == "" {
			continue
		}
		fmt.Fprintln(out, c.Classify(subject))
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read subjects: %w", err)
	}
	return nil
}
