package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gustalya/gustalya/internal/domain"
)

func newDurationCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "duration <text>",
		Short:       "Show how a step duration is understood",
		Example:     "  gustalya duration \"1 h 30\"",
		Args:        cobra.MinimumNArgs(1),
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			input := strings.Join(args, " ")
			seconds, ok := domain.ParseDuration(input)
			if !ok {
				return fmt.Errorf("%q has no usable duration; the step would have no timer", input)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s = %d s (%s)\n", input, seconds, domain.FormatDuration(seconds))
			return nil
		},
	}
}
