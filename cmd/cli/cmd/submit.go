package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"fixplane/pkg/api"
)

var submitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Submit a repository for automated repair",
	Long: `Submit a repository with failing tests for automated repair.

The service clones the repository, creates a fix branch, runs the test suite
and iteratively applies and verifies fixes. The returned job ID can be used
with 'fixctl status' to follow progress.

Example:
  fixctl submit --repo "https://github.com/team/broken.git" --team "team rocket" --leader "jessie"
  fixctl submit --repo "https://github.com/team/broken.git" --team alpha --leader bob --retries 3`,
	Run: func(cmd *cobra.Command, args []string) {
		flags := cmd.Flags()
		repo, _ := flags.GetString("repo")
		team, _ := flags.GetString("team")
		leader, _ := flags.GetString("leader")
		retries, _ := flags.GetInt("retries")

		url := viper.GetString("url")
		token := viper.GetString("token")

		if repo == "" {
			cmd.Println("Error: --repo is required")
			return
		}
		if team == "" {
			cmd.Println("Error: --team is required")
			return
		}
		if leader == "" {
			cmd.Println("Error: --leader is required")
			return
		}

		client := NewRepairClient(url)

		result, err := client.CreateRepair(api.CreateRepairRequest{
			RepoURL:     repo,
			TeamName:    team,
			TeamLeader:  leader,
			GithubToken: token,
			RetryLimit:  retries,
		})
		if err != nil {
			if apiErr, ok := err.(*APIError); ok {
				cmd.Printf("Submit failed (%d): %s\n", apiErr.StatusCode, apiErr.Message)
			} else {
				cmd.Printf("Submit failed: %v\n", err)
			}
			return
		}

		cmd.Printf("✓ Repair job submitted!\nJob ID: %s\nStatus: %s\n", result.JobID, result.Status)
		if token == "" {
			cmd.Println("Note: no token set, the fix branch will not be pushed")
		}
	},
}

func init() {
	flags := submitCmd.Flags()
	flags.StringP("repo", "r", "", "Repository URL to repair (required)")
	flags.String("team", "", "Team name used for branch naming (required)")
	flags.String("leader", "", "Team leader name used for branch naming (required)")
	flags.Int("retries", 0, "Fix iteration budget, 1-10 (default: server setting)")

	rootCmd.AddCommand(submitCmd)
}
