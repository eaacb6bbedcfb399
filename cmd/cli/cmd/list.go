package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all repair jobs",
	Long:  `List every repair job known to the controller, newest first.`,
	Run: func(cmd *cobra.Command, args []string) {
		client := NewRepairClient(viper.GetString("url"))

		result, err := client.ListRepairs()
		if err != nil {
			if apiErr, ok := err.(*APIError); ok {
				cmd.Printf("Request failed (%d): %s\n", apiErr.StatusCode, apiErr.Message)
			} else {
				cmd.Printf("Request failed: %v\n", err)
			}
			return
		}

		if result.Total == 0 {
			cmd.Println("No repair jobs found")
			return
		}

		cmd.Printf("%-38s %-12s %-9s %-6s %s\n", "JOB ID", "STATUS", "PROGRESS", "SCORE", "REPOSITORY")
		for _, job := range result.Jobs {
			cmd.Printf("%-38s %-12s %8d%% %6d %s\n", job.JobID, job.Status, job.Progress, job.FinalScore, job.Repository)
		}
		cmd.Printf("\nTotal: %d\n", result.Total)
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
}
