package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	voteWorkID string
	stakerID   string
	voteStatus string
)

var voteCmd = &cobra.Command{
	Use:   "vote",
	Short: "Cast a validation vote on a submitted work item.",
	RunE:  voteRun,
}

func init() {
	rootCmd.AddCommand(voteCmd)
	voteCmd.Flags().StringVarP(&voteWorkID, "work", "w", "", "Id of the work item to vote on.")
	voteCmd.Flags().StringVarP(&stakerID, "staker", "s", "", "Id of the staker casting the vote.")
	voteCmd.Flags().StringVar(&voteStatus, "status", "approved", "Vote status: approved or rejected.")
	voteCmd.MarkFlagRequired("work")
	voteCmd.MarkFlagRequired("staker")
}

func voteRun(cmd *cobra.Command, args []string) error {
	req := struct {
		WorkID   string `json:"work_id"`
		StakerID string `json:"staker_id"`
		Status   string `json:"status"`
	}{
		WorkID:   voteWorkID,
		StakerID: stakerID,
		Status:   voteStatus,
	}

	return postJSON(fmt.Sprintf("%s/v1/vote/submit", nodeURL), req)
}
