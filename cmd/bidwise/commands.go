package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bidwise/bidwise/internal/config"
	"github.com/bidwise/bidwise/internal/models"
	"github.com/bidwise/bidwise/internal/score"
	"github.com/bidwise/bidwise/internal/store"
	"github.com/bidwise/bidwise/internal/view"
)

// userError returns the message the store recorded for a failed operation,
// so the CLI prints the same text the dashboard shows.
func userError(st *store.Store, err error) error {
	if err == nil {
		return nil
	}
	if msg := st.Snapshot().Error; msg != "" {
		return errors.New(msg)
	}
	return err
}

// --- projects ---

var projectsCmd = &cobra.Command{
	Use:   "projects",
	Short: "List and manage procurement projects",
	RunE:  runProjectsList,
}

var projectsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all projects",
	RunE:  runProjectsList,
}

func runProjectsList(cmd *cobra.Command, args []string) error {
	st, cfg, err := openStore()
	if err != nil {
		return err
	}
	ctx, cancel := commandContext(cfg)
	defer cancel()

	if err := st.RefreshProjects(ctx); err != nil {
		return userError(st, err)
	}
	return printProjects(st.Snapshot())
}

func printProjects(snap store.Snapshot) error {
	if jsonOutput {
		return printJSON(snap.Projects)
	}
	printBlock(view.ProjectList(snap.Projects, view.ProjectIndex(snap.Projects, snap.Selected), outputWidth))
	return nil
}

var projectsCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a project",
	Long: `Create a procurement project, then print the refreshed project list.

Examples:
  bidwise projects create "Island Schools" --schools 4
  bidwise projects create "Coastal Region D" --status "Under Review" --schools 12`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		status, _ := cmd.Flags().GetString("status")
		schools, _ := cmd.Flags().GetInt("schools")

		st, cfg, err := openStore()
		if err != nil {
			return err
		}
		ctx, cancel := commandContext(cfg)
		defer cancel()

		p := models.NewProject{Name: args[0], Status: status, Schools: schools}
		if err := st.CreateProject(ctx, p); err != nil {
			return userError(st, err)
		}
		printSuccess("Created project %s", strings.TrimSpace(args[0]))
		return printProjects(st.Snapshot())
	},
}

var projectsStatusCmd = &cobra.Command{
	Use:   "status <name> <new-status>",
	Short: "Change the status of a project",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, cfg, err := openStore()
		if err != nil {
			return err
		}
		ctx, cancel := commandContext(cfg)
		defer cancel()

		if err := st.ChangeProjectStatus(ctx, args[0], args[1]); err != nil {
			return userError(st, err)
		}
		printSuccess("%s is now %s", args[0], args[1])
		return printProjects(st.Snapshot())
	},
}

func init() {
	projectsCreateCmd.Flags().String("status", string(models.ProjectOpenForBids), "initial project status")
	projectsCreateCmd.Flags().Int("schools", 0, "number of schools covered")

	projectsCmd.AddCommand(projectsListCmd)
	projectsCmd.AddCommand(projectsCreateCmd)
	projectsCmd.AddCommand(projectsStatusCmd)
}

// --- bids ---

var bidsCmd = &cobra.Command{
	Use:   "bids <project>",
	Short: "List the bids submitted for a project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ranked, _ := cmd.Flags().GetBool("ranked")

		st, cfg, err := openStore()
		if err != nil {
			return err
		}
		ctx, cancel := commandContext(cfg)
		defer cancel()

		if err := st.SelectProject(ctx, args[0]); err != nil {
			return userError(st, err)
		}
		bids := st.Snapshot().Bids
		if ranked {
			bids = score.RankBids(bids)
		}
		if jsonOutput {
			return printJSON(bids)
		}
		printBlock(view.BidList(bids, args[0], outputWidth))
		return nil
	},
}

func init() {
	bidsCmd.Flags().Bool("ranked", false, "order bids by AI score, best first")
}

// --- progress ---

var progressCmd = &cobra.Command{
	Use:   "progress <project>",
	Short: "Show implementation progress and milestones for a project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, cfg, err := openStore()
		if err != nil {
			return err
		}
		ctx, cancel := commandContext(cfg)
		defer cancel()

		if err := st.SelectProject(ctx, args[0]); err != nil {
			return userError(st, err)
		}
		if err := st.RefreshProgress(ctx); err != nil {
			return userError(st, err)
		}
		p := st.Snapshot().Progress
		if jsonOutput {
			return printJSON(p)
		}
		printBlock(view.ProgressPanel(p, outputWidth, nil))
		return nil
	},
}

// --- traffic ---

var trafficCmd = &cobra.Command{
	Use:   "traffic",
	Short: "Show the network bandwidth series",
	RunE: func(cmd *cobra.Command, args []string) error {
		height, _ := cmd.Flags().GetInt("height")

		st, cfg, err := openStore()
		if err != nil {
			return err
		}
		ctx, cancel := commandContext(cfg)
		defer cancel()

		if err := st.RefreshTraffic(ctx); err != nil {
			return userError(st, err)
		}
		series := st.Snapshot().Traffic
		if jsonOutput {
			return printJSON(series)
		}
		printBlock(view.TrafficChart(series, outputWidth, height))
		return nil
	},
}

func init() {
	trafficCmd.Flags().Int("height", 8, "chart height in rows")
}

// --- score ---

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Show the AI proposal evaluation",
	Long: `Show the AI proposal evaluation: criteria scores, strengths, risks and
recommendations. With --project the bids of that project are ranked below
the report.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		project, _ := cmd.Flags().GetString("project")
		summary := score.Default()

		if project == "" {
			if jsonOutput {
				return printJSON(summary)
			}
			printBlock(view.ScorePanel(summary, outputWidth))
			return nil
		}

		st, cfg, err := openStore()
		if err != nil {
			return err
		}
		ctx, cancel := commandContext(cfg)
		defer cancel()

		if err := st.SelectProject(ctx, project); err != nil {
			return userError(st, err)
		}
		bids := st.Snapshot().Bids
		if jsonOutput {
			return printJSON(map[string]any{
				"summary": summary,
				"ranked":  score.RankBids(bids),
			})
		}
		printBlock(score.Report(summary, bids))
		return nil
	},
}

func init() {
	scoreCmd.Flags().String("project", "", "rank the bids of this project")
}

// --- overview ---

var overviewCmd = &cobra.Command{
	Use:   "overview",
	Short: "Load the dashboard once and print every panel",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, cfg, err := openStore()
		if err != nil {
			return err
		}
		ctx, cancel := commandContext(cfg)
		defer cancel()

		loadErr := st.LoadInitial(ctx)
		snap := st.Snapshot()
		if jsonOutput {
			if err := printJSON(snap); err != nil {
				return err
			}
			return userError(st, loadErr)
		}
		if loadErr != nil && len(snap.Projects) == 0 {
			return userError(st, loadErr)
		}

		printBlock(view.Title.Render("Projects"))
		printBlock(view.ProjectList(snap.Projects, view.ProjectIndex(snap.Projects, snap.Selected), outputWidth))
		printBlock(view.Title.Render("Bids"))
		printBlock(view.BidList(snap.Bids, snap.Selected, outputWidth))
		printBlock(view.Title.Render("Network Traffic"))
		printBlock(view.TrafficChart(snap.Traffic, outputWidth, 6))
		printBlock(view.Title.Render("Progress"))
		printBlock(view.ProgressPanel(snap.Progress, outputWidth, nil))

		if snap.Error != "" {
			printWarning("%s", snap.Error)
		}
		return userError(st, loadErr)
	},
}

// --- config ---

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or update configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		for _, k := range config.ShowAll(cfg) {
			fmt.Fprintf(stdout, "  %s = %s\n", colorize(colorBold, k.Key), k.Value)
		}
		token := "not set"
		if cfg.API.Token != "" {
			token = "set"
		}
		fmt.Fprintf(stdout, "  %s = %s\n", colorize(colorBold, "api.token"), token)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]

		if err := config.SetKey(key, value); err != nil {
			return err
		}

		printSuccess("Set %s = %s", key, value)
		return nil
	},
}

var configKeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List configuration keys and their environment variables",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		for _, k := range config.ShowAll(cfg) {
			fmt.Fprintf(stdout, "  %-18s %s\n", k.Key, colorize(colorCyan, k.EnvVar))
		}
		return nil
	},
}

var configSetTokenCmd = &cobra.Command{
	Use:   "set-token <token>",
	Short: "Store the API bearer token in the platform secret store",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.SetToken(args[0]); err != nil {
			return err
		}
		printSuccess("API token stored")
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configKeysCmd)
	configCmd.AddCommand(configSetTokenCmd)
}
