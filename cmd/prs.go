package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/CosmoTheDev/prreview-agent/internal/tui"
)

var (
	prsAll  bool
	prsPick bool
)

var prsCmd = &cobra.Command{
	Use:   "prs",
	Short: "List pull requests waiting for your review",
	Long: `Lists active pull requests that need your attention: those where you
are a reviewer without a vote, plus those with no reviewers at all.

Use --all to list every active PR instead, or --pick to choose one
interactively and print its id (handy for piping into 'prreview review').`,
	RunE: runPRs,
}

func init() {
	prsCmd.Flags().BoolVar(&prsAll, "all", false,
		"list all active pull requests, not just those needing review")
	prsCmd.Flags().BoolVar(&prsPick, "pick", false,
		"choose a pull request interactively")
}

func runPRs(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	rt, err := buildRuntime(ctx)
	if err != nil {
		return err
	}
	defer rt.Close()
	repo := rt.repo()

	prs, err := rt.provider.PullRequestsNeedingReview(ctx, repo)
	if prsAll {
		prs, err = rt.provider.ListPullRequests(ctx, repo, "active")
	}
	if err != nil {
		return err
	}

	if prsPick {
		choice, err := tui.NewPicker(prs).Run()
		if err != nil {
			return err
		}
		if choice == nil {
			return nil
		}
		fmt.Println(choice.ID)
		return nil
	}

	if len(prs) == 0 {
		fmt.Println(dimStyle.Render("Nothing needs your review."))
		return nil
	}
	fmt.Println(headerStyle.Render(fmt.Sprintf("%d pull request(s)", len(prs))))
	for _, pr := range prs {
		fmt.Printf("  #%-5d %s  %s\n", pr.ID, pr.Title, dimStyle.Render(pr.Author))
		if pr.Reason != "" {
			fmt.Printf("         %s\n", dimStyle.Render(pr.Reason))
		}
	}
	return nil
}
