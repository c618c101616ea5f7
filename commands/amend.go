package commands

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/maastricht-university/pasat-pipeline/orchestrator"
)

func (a *app) amendCommand() *cobra.Command {
	var remove []int
	cmd := &cobra.Command{
		Use:   "amend <trial> --remove-clips 10,12",
		Short: "Re-match the stimuli paired with noise clips",
		Long: `Re-match the stimuli whose response clip is listed in --remove-clips.

Listen to the clips in <trial>_response_chunks/ and pass the ones holding
noise instead of an answer. Each affected stimulus is matched again against
the clips between its neighbours; all other rows are kept.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(remove) == 0 {
				return errors.New("--remove-clips is required")
			}
			c, log, err := a.load()
			if err != nil {
				return err
			}
			eng, err := orchestrator.OpenEngines(cmd.Context(), c, log)
			if err != nil {
				return err
			}
			defer eng.Close()

			rep, err := orchestrator.NewPipeline(c, eng.Chain, log).Amend(cmd.Context(), args[0], remove)
			if err != nil {
				return err
			}
			printReport(cmd.OutOrStdout(), rep)
			return nil
		},
	}
	cmd.Flags().IntSliceVar(&remove, "remove-clips", nil, "clip indexes to discard, comma separated")
	return cmd
}
