package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"fixplane/pkg/api"
)

var statusCmd = &cobra.Command{
	Use:   "status [job_id]",
	Short: "Get status of a repair job",
	Long: `Retrieve detailed status information for a repair job, including its
progress, current step, applied fixes, CI timeline and final score.

With --watch the command polls the API until the job reaches a terminal
state (COMPLETED or FAILED).`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		jobID := args[0]
		watch, _ := cmd.Flags().GetBool("watch")

		client := NewRepairClient(viper.GetString("url"))

		for {
			job, err := client.GetRepair(jobID)
			if err != nil {
				if apiErr, ok := err.(*APIError); ok {
					cmd.Printf("Request failed (%d): %s\n", apiErr.StatusCode, apiErr.Message)
				} else {
					cmd.Printf("Request failed: %v\n", err)
				}
				return
			}

			printStatus(cmd, job)

			if !watch || job.Status == "COMPLETED" || job.Status == "FAILED" {
				return
			}
			time.Sleep(2 * time.Second)
			cmd.Println()
		}
	},
}

func printStatus(cmd *cobra.Command, job *api.JobStatusResponse) {
	icon := statusIcon(job.Status)
	cmd.Printf("%s %sRepair Job%s\n", icon, colorBold, colorReset)
	cmd.Println("──────────────────────────────")

	cmd.Printf("%sID:%s          %s\n", colorDim, colorReset, job.JobID)
	cmd.Printf("%sRepository:%s  %s\n", colorDim, colorReset, job.Repository)
	cmd.Printf("%sBranch:%s      %s\n", colorDim, colorReset, job.BranchCreated)
	cmd.Printf("%sStatus:%s      %s\n", colorDim, colorReset, colorizeStatus(job.Status))
	cmd.Printf("%sProgress:%s    %s %d%%\n", colorDim, colorReset, progressBar(job.Progress), job.Progress)
	cmd.Printf("%sStep:%s        %s\n", colorDim, colorReset, job.CurrentStep)

	if job.Error != "" {
		cmd.Printf("%sError:%s       %s%s%s\n", colorDim, colorReset, colorRed, job.Error, colorReset)
	}

	if job.Status == "COMPLETED" {
		cmd.Println()
		cmd.Printf("%sFailures:%s    %d found, %d fixed\n", colorDim, colorReset, job.Summary.TotalFailures, job.Summary.TotalFixes)
		cmd.Printf("%sCI:%s          %s\n", colorDim, colorReset, colorizeStatus(string(job.Summary.CIStatus)))
		cmd.Printf("%sIterations:%s  %d\n", colorDim, colorReset, job.Summary.IterationsUsed)
		cmd.Printf("%sDuration:%s    %ds\n", colorDim, colorReset, job.Summary.TimeTakenSeconds)
		cmd.Printf("%sScore:%s       %s%d%s (base %d, speed +%d, efficiency -%d, ci -%d)\n",
			colorDim, colorReset, colorBold, job.Score.FinalScore, colorReset,
			job.Score.BaseScore, job.Score.SpeedBonus, job.Score.EfficiencyPenalty, job.Score.CIPenalty)
	}

	if len(job.CITimeline) > 0 {
		cmd.Println()
		cmd.Printf("%sCI Timeline:%s\n", colorDim, colorReset)
		for _, tp := range job.CITimeline {
			line := fmt.Sprintf("  #%d %s", tp.Iteration, colorizeStatus(string(tp.Status)))
			if tp.PostStatus != nil {
				line += fmt.Sprintf(" → %s after fixes", colorizeStatus(string(*tp.PostStatus)))
			}
			cmd.Println(line)
		}
	}
}

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorBold   = "\033[1m"
	colorDim    = "\033[2m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
)

func statusIcon(status string) string {
	switch status {
	case "COMPLETED", "PASSED":
		return colorGreen + "✓" + colorReset
	case "FAILED":
		return colorRed + "✗" + colorReset
	case "RUNNING":
		return colorYellow + "⏳" + colorReset
	default:
		return "•"
	}
}

func colorizeStatus(status string) string {
	icon := statusIcon(status)
	switch status {
	case "COMPLETED", "PASSED":
		return icon + " " + colorGreen + status + colorReset
	case "FAILED":
		return icon + " " + colorRed + status + colorReset
	case "RUNNING":
		return icon + " " + colorYellow + status + colorReset
	default:
		return status
	}
}

func progressBar(pct int) string {
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	filled := pct / 5
	return colorCyan + "[" + strings.Repeat("█", filled) + strings.Repeat("░", 20-filled) + "]" + colorReset
}

func init() {
	statusCmd.Flags().BoolP("watch", "w", false, "Poll until the job finishes")
	rootCmd.AddCommand(statusCmd)
}
