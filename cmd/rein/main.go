package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	cl "reinnin/internal/cli"
	"reinnin/internal/config"

	"github.com/spf13/cobra"
)

func main() {
	cfg := config.LoadCLIFromEnv()
	apiBase := cfg.APIBaseURL

	root := &cobra.Command{
		Use:          "rein",
		Short:        "Madrid real-estate portfolio game client",
		SilenceUsage: true,
	}

	root.AddCommand(
		newTeamCmd(&apiBase),
		newLogoutCmd(),
		newWeekCmd(&apiBase),
		newMarketCmd(&apiBase),
		newBookCmd(&apiBase),
		newPortfolioCmd(&apiBase),
		newBuyCmd(&apiBase),
		newSellCmd(&apiBase),
		newLeaderboardCmd(&apiBase),
		newAskCmd(&apiBase),
		newAdminCmd(&apiBase),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newClient(apiBase *string) *cl.Client {
	return cl.NewClient(strings.TrimRight(strings.TrimSpace(*apiBase), "/"))
}

func opContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), 30*time.Second)
}

func newTeamCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "team <name>",
		Short: "Join (or rejoin) the game as a team",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := strings.TrimSpace(args[0])
			ctx, cancel := opContext(cmd)
			defer cancel()
			team, err := newClient(apiBase).Team(ctx, name)
			if err != nil {
				return err
			}
			sess, _ := cl.LoadSession()
			sess.Team = team.Name
			if err := cl.SaveSession(sess); err != nil {
				return err
			}
			printSuccess(fmt.Sprintf("Playing as %s with €%s in cash.", team.Name, formatEUR(team.CashEUR)))
			return nil
		},
	}
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Clear the local session",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cl.ClearSession(); err != nil {
				return err
			}
			printSuccess("Session cleared.")
			return nil
		},
	}
}

func newWeekCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "week",
		Short: "Show the current week and its curveball",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := opContext(cmd)
			defer cancel()
			out, err := newClient(apiBase).Week(ctx)
			if err != nil {
				return err
			}
			renderWeek(out)
			return nil
		},
	}
}

func newMarketCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "market",
		Short: "List the Madrid catalog with asks and availability",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := opContext(cmd)
			defer cancel()
			out, err := newClient(apiBase).Market(ctx)
			if err != nil {
				return err
			}
			renderMarket(out)
			return nil
		},
	}
}

func newBookCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "book",
		Short: "Show the property book (ROI inputs)",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := opContext(cmd)
			defer cancel()
			out, err := newClient(apiBase).Book(ctx)
			if err != nil {
				return err
			}
			renderBook(out)
			return nil
		},
	}
}

func newPortfolioCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:     "portfolio",
		Short:   "Show your open positions",
		Aliases: []string{"pf"},
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := cl.LoadSession()
			if err != nil {
				return fmt.Errorf("join first: %w", err)
			}
			ctx, cancel := opContext(cmd)
			defer cancel()
			client := newClient(apiBase)
			holdings, err := client.Portfolio(ctx, sess.Team)
			if err != nil {
				return err
			}
			team, err := client.Team(ctx, sess.Team)
			if err != nil {
				return err
			}
			renderPortfolio(team, holdings)
			return nil
		},
	}
}

func newBuyCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "buy <asset-id>",
		Short: "Buy a whole asset at the current ask",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := cl.LoadSession()
			if err != nil {
				return fmt.Errorf("join first: %w", err)
			}
			ctx, cancel := opContext(cmd)
			defer cancel()
			out, err := newClient(apiBase).Buy(ctx, sess.Team, args[0])
			if err != nil {
				return err
			}
			printSuccess(fmt.Sprintf("Bought %s (%s) for €%s. Cash left: €%s.",
				out.AssetID, out.Name, formatEUR(out.TicketEUR), formatEUR(out.CashEUR)))
			return nil
		},
	}
}

func newSellCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "sell <asset-id> [exit-psm]",
		Short: "Sell a holding at a proposed €/sqm exit price",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := cl.LoadSession()
			if err != nil {
				return fmt.Errorf("join first: %w", err)
			}
			var exit float64
			if len(args) == 2 {
				exit, err = strconv.ParseFloat(args[1], 64)
				if err != nil {
					return fmt.Errorf("exit price must be a number: %w", err)
				}
			} else {
				exit, err = promptFloat("Exit price (€/sqm)", 0)
				if err != nil {
					return err
				}
			}
			ctx, cancel := opContext(cmd)
			defer cancel()
			out, err := newClient(apiBase).Sell(ctx, sess.Team, args[0], exit)
			if err != nil {
				return err
			}
			printSuccess(fmt.Sprintf("Sold %s (%s) at €%s/sqm for €%s. Cash: €%s.",
				out.AssetID, out.Name, formatEUR(out.ExitPSM), formatEUR(out.ProceedsEUR), formatEUR(out.CashEUR)))
			return nil
		},
	}
}

func newLeaderboardCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:     "leaderboard",
		Short:   "Show the team leaderboard",
		Aliases: []string{"lb"},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := opContext(cmd)
			defer cancel()
			out, err := newClient(apiBase).Leaderboard(ctx)
			if err != nil {
				return err
			}
			renderLeaderboard(out)
			return nil
		},
	}
}

func newAskCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "ask <query...>",
		Short: "Search the catalog by id, name, sector or location",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := opContext(cmd)
			defer cancel()
			out, err := newClient(apiBase).SearchAssets(ctx, strings.Join(args, " "))
			if err != nil {
				return err
			}
			if len(out) == 0 {
				printInfo("No assets match.")
				return nil
			}
			renderBook(out)
			return nil
		},
	}
}

func newAdminCmd(apiBase *string) *cobra.Command {
	admin := &cobra.Command{
		Use:   "admin",
		Short: "Instructor tools",
	}
	admin.AddCommand(
		newAdminLoginCmd(apiBase),
		newAdminAdvanceCmd(apiBase),
		newAdminResetCmd(apiBase),
		newAdminTeamsCmd(apiBase),
		newAdminExportCmd(apiBase),
	)
	return admin
}

func newAdminLoginCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Open an instructor session",
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := promptRequired("Admin password")
			if err != nil {
				return err
			}
			ctx, cancel := opContext(cmd)
			defer cancel()
			token, err := newClient(apiBase).AdminLogin(ctx, password)
			if err != nil {
				return err
			}
			sess, _ := cl.LoadSession()
			sess.AdminToken = token
			if err := cl.SaveSession(sess); err != nil {
				return err
			}
			printSuccess("Instructor session opened.")
			return nil
		},
	}
}

func adminSession() (cl.Session, error) {
	sess, err := cl.LoadSession()
	if err != nil {
		return cl.Session{}, fmt.Errorf("instructor login required: %w", err)
	}
	if strings.TrimSpace(sess.AdminToken) == "" {
		return cl.Session{}, fmt.Errorf("instructor login required: run 'rein admin login'")
	}
	return sess, nil
}

func newAdminAdvanceCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "advance",
		Short: "End the week and apply the next curveball",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := adminSession()
			if err != nil {
				return err
			}
			ctx, cancel := opContext(cmd)
			defer cancel()
			out, err := newClient(apiBase).AdvanceWeek(ctx, sess.AdminToken)
			if err != nil {
				return err
			}
			printSuccess(fmt.Sprintf("Advanced to week %d.", out.Week))
			if out.Announcement != "" {
				printInfo("Curveball: " + out.Announcement)
			}
			for _, inc := range out.Income {
				printInfo(fmt.Sprintf("Income credited to %s: €%s", inc.Team, formatEUR(inc.AmountEUR)))
			}
			return nil
		},
	}
}

func newAdminResetCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Wipe teams and holdings and restart from week 1",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := adminSession()
			if err != nil {
				return err
			}
			ok, err := promptConfirm("This wipes every team, holding and shock. Continue?")
			if err != nil {
				return err
			}
			if !ok {
				printInfo("Aborted.")
				return nil
			}
			ctx, cancel := opContext(cmd)
			defer cancel()
			if err := newClient(apiBase).ResetGame(ctx, sess.AdminToken); err != nil {
				return err
			}
			printSuccess("Game reset.")
			return nil
		},
	}
}

func newAdminTeamsCmd(apiBase *string) *cobra.Command {
	return &cobra.Command{
		Use:   "teams",
		Short: "Show every team with its positions",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := adminSession()
			if err != nil {
				return err
			}
			ctx, cancel := opContext(cmd)
			defer cancel()
			out, err := newClient(apiBase).AdminTeams(ctx, sess.AdminToken)
			if err != nil {
				return err
			}
			renderTeamsOverview(out)
			return nil
		},
	}
}

func newAdminExportCmd(apiBase *string) *cobra.Command {
	var outFile string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Download the leaderboard as CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := adminSession()
			if err != nil {
				return err
			}
			ctx, cancel := opContext(cmd)
			defer cancel()
			raw, err := newClient(apiBase).LeaderboardCSV(ctx, sess.AdminToken)
			if err != nil {
				return err
			}
			if outFile == "" {
				fmt.Print(string(raw))
				return nil
			}
			if err := os.WriteFile(outFile, raw, 0o644); err != nil {
				return err
			}
			printSuccess("Wrote " + outFile)
			return nil
		},
	}
	cmd.Flags().StringVarP(&outFile, "out", "o", "", "write CSV to a file instead of stdout")
	return cmd
}
