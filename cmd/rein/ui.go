package main

import (
	"bufio"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"reinnin/internal/game"

	"github.com/fatih/color"
)

var (
	stdinReader = bufio.NewReader(os.Stdin)
	accent      = color.New(color.FgCyan, color.Bold)
	success     = color.New(color.FgGreen, color.Bold)
	warn        = color.New(color.FgYellow, color.Bold)
	danger      = color.New(color.FgRed, color.Bold)
	neutral     = color.New(color.FgHiWhite)
)

func printSuccess(msg string) {
	success.Println(msg)
}

func printWarn(msg string) {
	warn.Println(msg)
}

func printInfo(msg string) {
	neutral.Println(msg)
}

func promptRequired(label string) (string, error) {
	for {
		fmt.Printf("%s: ", label)
		text, err := stdinReader.ReadString('\n')
		if err != nil {
			return "", err
		}
		text = strings.TrimSpace(text)
		if text != "" {
			return text, nil
		}
		printWarn(label + " is required.")
	}
}

func promptFloat(label string, min float64) (float64, error) {
	for {
		text, err := promptRequired(label)
		if err != nil {
			return 0, err
		}
		v, err := strconv.ParseFloat(text, 64)
		if err != nil {
			printWarn("Enter a valid number.")
			continue
		}
		if v <= min {
			printWarn(fmt.Sprintf("Value must be > %.2f", min))
			continue
		}
		return v, nil
	}
}

func promptConfirm(label string) (bool, error) {
	fmt.Printf("%s (y/N): ", label)
	text, err := stdinReader.ReadString('\n')
	if err != nil {
		return false, err
	}
	text = strings.ToLower(strings.TrimSpace(text))
	return text == "y" || text == "yes", nil
}

func renderWeek(w game.WeekView) {
	accent.Printf("\n== WEEK %d ==\n", w.Week)
	if w.Announcement != "" {
		printInfo("Curveball: " + w.Announcement)
	}
	if w.FinalWeek {
		printWarn("Final week: freeze & score.")
	}
	fmt.Println()
}

func renderMarket(rows []game.MarketRow) {
	accent.Println("\n== MARKET — MADRID ==")
	if len(rows) == 0 {
		printInfo("No assets in the catalog.")
		return
	}
	fmt.Printf("%-6s %-22s %-12s %-14s %8s %12s %16s %-6s\n",
		"ID", "NAME", "SECTOR", "LOCATION", "SQM", "ASK €/SQM", "TICKET €", "AVAIL")
	for _, r := range rows {
		avail := success.Sprint("yes")
		if !r.Available {
			avail = danger.Sprint("held")
		}
		fmt.Printf("%-6s %-22s %-12s %-14s %8d %12s %16s %-6s\n",
			r.AssetID,
			truncate(r.Name, 22),
			truncate(r.Sector, 12),
			truncate(r.Location, 14),
			r.Sqm,
			formatEUR(r.AskPSM),
			formatEUR(r.TicketEUR),
			avail,
		)
	}
	fmt.Println()
}

func renderBook(rows []game.BookRow) {
	accent.Println("\n== PROPERTY BOOK — ROI INPUTS ==")
	if len(rows) == 0 {
		printInfo("No assets.")
		return
	}
	fmt.Printf("%-6s %-22s %-12s %-10s %8s %10s %9s %9s %6s %8s %8s %14s\n",
		"ID", "NAME", "SECTOR", "PROFILE", "SQM", "ASK", "ERV", "PASSING", "VAC%", "OPEX", "TAX", "NOI €")
	for _, r := range rows {
		fmt.Printf("%-6s %-22s %-12s %-10s %8d %10.2f %9.2f %9.2f %5.0f%% %8.2f %8.2f %14s\n",
			r.AssetID,
			truncate(r.Name, 22),
			truncate(r.Sector, 12),
			string(r.Profile),
			r.Sqm,
			r.AskPSM,
			r.ERVPSM,
			r.PassingPSM,
			r.VacancyPct*100,
			r.OpexPSM,
			r.TaxPSM,
			colorizeEUR(r.AnnualNOI),
		)
	}
	fmt.Println()
}

func renderPortfolio(team game.TeamView, holdings []game.HoldingView) {
	accent.Printf("\n== %s — PORTFOLIO ==\n", strings.ToUpper(team.Name))
	fmt.Printf("Cash: €%s\n", formatEUR(team.CashEUR))
	if len(holdings) == 0 {
		printInfo("No holdings yet.")
		fmt.Println()
		return
	}
	fmt.Printf("\n%-6s %-22s %-12s %8s %12s %6s %12s %14s %-10s\n",
		"ID", "NAME", "SECTOR", "SQM", "ENTRY €/SQM", "WEEK", "CAP €/SQM", "NOI €", "BLOCKED")
	for _, h := range holdings {
		blocked := ""
		if h.BlockedUntilWeek > 0 {
			blocked = warn.Sprintf("until w%d", h.BlockedUntilWeek)
		}
		fmt.Printf("%-6s %-22s %-12s %8d %12s %6d %12s %14s %-10s\n",
			h.AssetID,
			truncate(h.Name, 22),
			truncate(h.Sector, 12),
			h.Sqm,
			formatEUR(h.EntryPSM),
			h.BuyWeek,
			formatEUR(h.CapPSM),
			colorizeEUR(h.AnnualNOI),
			blocked,
		)
	}
	fmt.Println()
}

func renderLeaderboard(rows []game.LeaderboardRow) {
	accent.Println("\n== LEADERBOARD (BY CASH) ==")
	if len(rows) == 0 {
		printInfo("No teams yet.")
		return
	}
	fmt.Printf("%-6s %-20s %18s %18s %16s %9s\n", "RANK", "TEAM", "CASH €", "PORTFOLIO €", "NOI €", "HOLDINGS")
	for _, r := range rows {
		fmt.Printf("%-6d %-20s %18s %18s %16s %9d\n",
			r.Rank,
			truncate(r.Team, 20),
			formatEUR(r.CashEUR),
			formatEUR(r.PortfolioEUR),
			colorizeEUR(r.AnnualNOI),
			r.Holdings,
		)
	}
	fmt.Println()
}

func renderTeamsOverview(teams []game.TeamOverview) {
	accent.Println("\n== TEAMS ==")
	if len(teams) == 0 {
		printInfo("No teams yet.")
		return
	}
	for _, t := range teams {
		fmt.Printf("\n%s — cash €%s, %d holding(s)\n", t.Team, formatEUR(t.CashEUR), len(t.Holdings))
		for _, h := range t.Holdings {
			fmt.Printf("  %-6s %-22s entry €%s/sqm (week %d)\n",
				h.AssetID, truncate(h.Name, 22), formatEUR(h.EntryPSM), h.BuyWeek)
		}
	}
	fmt.Println()
}

func colorizeEUR(v float64) string {
	text := formatEUR(v)
	switch {
	case v > 0:
		return success.Sprint(text)
	case v < 0:
		return danger.Sprint(text)
	default:
		return neutral.Sprint(text)
	}
}

func formatEUR(v float64) string {
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	cents := int64(math.Round(v * 100))
	return fmt.Sprintf("%s%s.%02d", sign, comma(cents/100), cents%100)
}

func comma(v int64) string {
	s := strconv.FormatInt(v, 10)
	if len(s) <= 3 {
		return s
	}
	var b strings.Builder
	pre := len(s) % 3
	if pre > 0 {
		b.WriteString(s[:pre])
		if len(s) > pre {
			b.WriteByte(',')
		}
	}
	for i := pre; i < len(s); i += 3 {
		b.WriteString(s[i : i+3])
		if i+3 < len(s) {
			b.WriteByte(',')
		}
	}
	return b.String()
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if n <= 0 || len(s) <= n {
		return s
	}
	if n <= 3 {
		return s[:n]
	}
	return s[:n-3] + "..."
}
