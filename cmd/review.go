package cmd

import (
	"context"
	"fmt"
	"strconv"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
)

var (
	reviewDryRun  bool
	reviewConfirm bool

	approveComment string

	rejectReason         string
	rejectRequireChanges bool
)

var reviewCmd = &cobra.Command{
	Use:   "review <pr-id>",
	Short: "Run the full review pipeline against one pull request",
	Long: `Fetches the pull request and its change set, scans for security issues
and vulnerable dependencies, asks the AI reviewing agent for a verdict,
and publishes inline comments, a summary, and a vote.

Use --dry-run to print the would-be review without posting anything, or
--confirm to inspect it and decide interactively.`,
	Args: cobra.ExactArgs(1),
	RunE: runReview,
}

var approveCmd = &cobra.Command{
	Use:   "approve <pr-id>",
	Short: "Approve a pull request (vote 10) without running the pipeline",
	Args:  cobra.ExactArgs(1),
	RunE:  runApprove,
}

var rejectCmd = &cobra.Command{
	Use:   "reject <pr-id>",
	Short: "Reject a pull request with a mandatory reason",
	Args:  cobra.ExactArgs(1),
	RunE:  runReject,
}

func init() {
	reviewCmd.Flags().BoolVar(&reviewDryRun, "dry-run", false,
		"print the review without posting comments or voting")
	reviewCmd.Flags().BoolVar(&reviewConfirm, "confirm", false,
		"show the review and ask before posting")

	approveCmd.Flags().StringVar(&approveComment, "comment", "",
		"optional approval comment")

	rejectCmd.Flags().StringVar(&rejectReason, "reason", "",
		"reason for rejection (required, at least 10 characters)")
	rejectCmd.Flags().BoolVar(&rejectRequireChanges, "require-changes", false,
		"vote -10 (rejected) instead of -5 (waiting for author)")
}

func parsePRID(arg string) (int, error) {
	id, err := strconv.Atoi(arg)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid pull request id %q", arg)
	}
	return id, nil
}

func runReview(cmd *cobra.Command, args []string) error {
	prID, err := parsePRID(args[0])
	if err != nil {
		return err
	}

	ctx := context.Background()
	rt, err := buildRuntime(ctx)
	if err != nil {
		return err
	}
	defer rt.Close()
	repo := rt.repo()

	if reviewDryRun || reviewConfirm {
		res, err := rt.engine.Preview(ctx, repo, prID)
		if err != nil {
			return err
		}
		printPreview(res)
		if reviewDryRun {
			return nil
		}

		var post bool
		form := huh.NewForm(
			huh.NewGroup(
				huh.NewConfirm().
					Title(fmt.Sprintf("Post this review to PR #%d (vote %d)?", prID, res.Vote)).
					Value(&post),
			),
		)
		if err := form.Run(); err != nil {
			return fmt.Errorf("cancelled: %w", err)
		}
		if !post {
			fmt.Println("Review discarded.")
			return nil
		}
	}

	res, err := rt.engine.ReviewPR(ctx, repo, prID)
	if err != nil {
		return err
	}
	printOutcome(res)
	return nil
}

func runApprove(cmd *cobra.Command, args []string) error {
	prID, err := parsePRID(args[0])
	if err != nil {
		return err
	}

	ctx := context.Background()
	rt, err := buildRuntime(ctx)
	if err != nil {
		return err
	}
	defer rt.Close()

	pr, err := rt.engine.Approve(ctx, rt.repo(), prID, approveComment)
	if err != nil {
		return err
	}
	fmt.Printf("Approved PR #%d: %s\n", pr.ID, pr.Title)
	return nil
}

func runReject(cmd *cobra.Command, args []string) error {
	prID, err := parsePRID(args[0])
	if err != nil {
		return err
	}

	ctx := context.Background()
	rt, err := buildRuntime(ctx)
	if err != nil {
		return err
	}
	defer rt.Close()

	pr, err := rt.engine.Reject(ctx, rt.repo(), prID, rejectReason, rejectRequireChanges)
	if err != nil {
		return err
	}
	vote := -5
	if rejectRequireChanges {
		vote = -10
	}
	fmt.Printf("Rejected PR #%d (vote %d): %s\n", pr.ID, vote, pr.Title)
	return nil
}
