package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/maastricht-university/pasat-pipeline/orchestrator"
)

func (a *app) scoreCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "score <trial>...",
		Short: "Detect, transcribe and score recorded trials",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, log, err := a.load()
			if err != nil {
				return err
			}
			eng, err := orchestrator.OpenEngines(cmd.Context(), c, log)
			if err != nil {
				return err
			}
			defer eng.Close()

			p := orchestrator.NewPipeline(c, eng.Chain, log)
			for _, trial := range args {
				rep, err := p.Run(cmd.Context(), trial)
				if err != nil {
					return err
				}
				printReport(cmd.OutOrStdout(), rep)
			}
			return nil
		},
	}
}

func printReport(w io.Writer, rep *orchestrator.Report) {
	fmt.Fprintf(w, "%s: %d/%d correct (%.1f%%), results in %s\n",
		rep.Paths.Trial, rep.Result.NumCorrect, len(rep.Result.Rows), rep.Percent(), rep.Paths.Results)
}
