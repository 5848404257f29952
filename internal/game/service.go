package game

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"reinnin/internal/db"
)

// querier is satisfied by both *sql.DB and *sql.Tx so read helpers can run
// inside or outside a transaction.
type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type Service struct {
	store *db.Store
	log   *slog.Logger
	rules Rules
}

func NewService(store *db.Store, logger *slog.Logger, rules Rules) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, log: logger, rules: rules}
}

func (s *Service) Rules() Rules {
	return s.rules
}

// q rebinds ? placeholders for the active dialect.
func (s *Service) q(query string) string {
	return s.store.Rebind(query)
}

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS assets (
		asset_id TEXT PRIMARY KEY,
		property_name TEXT NOT NULL,
		sector TEXT NOT NULL,
		location TEXT NOT NULL,
		sqm INTEGER NOT NULL,
		ask_psm DOUBLE PRECISION NOT NULL,
		erv_psm DOUBLE PRECISION NOT NULL,
		opex_psm DOUBLE PRECISION NOT NULL,
		tax_psm DOUBLE PRECISION NOT NULL,
		passing_psm DOUBLE PRECISION,
		vacancy_pct DOUBLE PRECISION
	)`,
	`CREATE TABLE IF NOT EXISTS teams (
		name TEXT PRIMARY KEY,
		cash DOUBLE PRECISION NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS holdings (
		name TEXT NOT NULL,
		asset_id TEXT NOT NULL REFERENCES assets (asset_id),
		entry_psm DOUBLE PRECISION NOT NULL,
		buy_week INTEGER NOT NULL,
		PRIMARY KEY (name, asset_id)
	)`,
	// One holder per asset, enforced at the storage layer as well.
	`CREATE UNIQUE INDEX IF NOT EXISTS holdings_asset_uniq ON holdings (asset_id)`,
	`CREATE TABLE IF NOT EXISTS sale_blocks (
		name TEXT NOT NULL,
		asset_id TEXT NOT NULL,
		blocked_until_week INTEGER NOT NULL,
		PRIMARY KEY (name, asset_id)
	)`,
	`CREATE TABLE IF NOT EXISTS game_state (
		id INTEGER PRIMARY KEY,
		current_week INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS applied_curveballs (
		week INTEGER PRIMARY KEY
	)`,
}

// Init creates the schema, sets the opening week and seeds the catalog on
// first run. Safe to call on every startup.
func (s *Service) Init(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := s.store.DB.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	_, err := s.store.DB.ExecContext(ctx, s.q(`
		INSERT INTO game_state (id, current_week) VALUES (1, ?)
		ON CONFLICT (id) DO NOTHING
	`), s.rules.StartWeek)
	if err != nil {
		return fmt.Errorf("init game state: %w", err)
	}
	if err := s.seedAssetsOnce(ctx); err != nil {
		return err
	}
	return s.patchIncomeAssumptions(ctx)
}

func (s *Service) seedAssetsOnce(ctx context.Context) error {
	var count int
	if err := s.store.DB.QueryRowContext(ctx, `SELECT COUNT(1) FROM assets`).Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	tx, err := s.store.BeginWrite(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if err := insertSeedsTx(ctx, tx, s); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	s.log.Info("catalog seeded", "assets", len(assetSeeds))
	return nil
}

func insertSeedsTx(ctx context.Context, tx *sql.Tx, s *Service) error {
	stmt := s.q(`
		INSERT INTO assets (asset_id, property_name, sector, location, sqm,
			ask_psm, erv_psm, opex_psm, tax_psm, passing_psm, vacancy_pct)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	for _, a := range assetSeeds {
		prof := ClassifyProfile(a.Location, a.Sector)
		pf, vac := prof.Factors()
		passing := Round2(a.ERVPSM * pf)
		_, err := tx.ExecContext(ctx, stmt,
			a.ID, a.Name, a.Sector, a.Location, a.Sqm,
			a.AskPSM, a.ERVPSM, a.OpexPSM, a.TaxPSM, passing, vac)
		if err != nil {
			return fmt.Errorf("seed asset %s: %w", a.ID, err)
		}
	}
	return nil
}

// patchIncomeAssumptions fills passing rent and vacancy on rows created
// before those columns existed.
func (s *Service) patchIncomeAssumptions(ctx context.Context) error {
	rows, err := s.store.DB.QueryContext(ctx, `
		SELECT asset_id, sector, location, erv_psm
		FROM assets
		WHERE passing_psm IS NULL OR vacancy_pct IS NULL
	`)
	if err != nil {
		return err
	}
	type pending struct {
		id               string
		sector, location string
		erv              float64
	}
	var todo []pending
	for rows.Next() {
		var p pending
		if err := rows.Scan(&p.id, &p.sector, &p.location, &p.erv); err != nil {
			rows.Close()
			return err
		}
		todo = append(todo, p)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return err
	}
	rows.Close()

	for _, p := range todo {
		prof := ClassifyProfile(p.location, p.sector)
		pf, vac := prof.Factors()
		_, err := s.store.DB.ExecContext(ctx,
			s.q(`UPDATE assets SET passing_psm = ?, vacancy_pct = ? WHERE asset_id = ?`),
			Round2(p.erv*pf), vac, p.id)
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) currentWeek(ctx context.Context, q querier) (int, error) {
	var week int
	if err := q.QueryRowContext(ctx, `SELECT current_week FROM game_state WHERE id = 1`).Scan(&week); err != nil {
		return 0, err
	}
	return week, nil
}

func (s *Service) CurrentWeek(ctx context.Context) (int, error) {
	return s.currentWeek(ctx, s.store.DB)
}

func (s *Service) WeekInfo(ctx context.Context) (WeekView, error) {
	week, err := s.CurrentWeek(ctx)
	if err != nil {
		return WeekView{}, err
	}
	return WeekView{
		Week:         week,
		Announcement: Announcement(week),
		FinalWeek:    week >= s.rules.EndWeek,
	}, nil
}

// EnsureTeam creates the team with the starting budget if it does not exist
// and returns its current state.
func (s *Service) EnsureTeam(ctx context.Context, name string) (TeamView, error) {
	name = strings.TrimSpace(name)
	if err := ValidateTeamName(name); err != nil {
		return TeamView{}, err
	}
	_, err := s.store.DB.ExecContext(ctx, s.q(`
		INSERT INTO teams (name, cash) VALUES (?, ?)
		ON CONFLICT (name) DO NOTHING
	`), name, s.rules.StartingCash)
	if err != nil {
		return TeamView{}, err
	}
	var out TeamView
	out.Name = name
	if err := s.store.DB.QueryRowContext(ctx, s.q(`SELECT cash FROM teams WHERE name = ?`), name).Scan(&out.CashEUR); err != nil {
		return TeamView{}, err
	}
	return out, nil
}

// Market lists the catalog with current ask prices and availability.
func (s *Service) Market(ctx context.Context) ([]MarketRow, error) {
	rows, err := s.store.DB.QueryContext(ctx, `
		SELECT a.asset_id, a.property_name, a.sector, a.location, a.sqm, a.ask_psm,
			EXISTS (SELECT 1 FROM holdings h WHERE h.asset_id = a.asset_id)
		FROM assets a
		ORDER BY a.asset_id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []MarketRow
	for rows.Next() {
		var r MarketRow
		var held bool
		if err := rows.Scan(&r.AssetID, &r.Name, &r.Sector, &r.Location, &r.Sqm, &r.AskPSM, &held); err != nil {
			return nil, err
		}
		r.Available = !held
		r.TicketEUR = Round2(float64(r.Sqm) * r.AskPSM)
		out = append(out, r)
	}
	return out, rows.Err()
}

// Book returns the full ROI input table, one row per asset.
func (s *Service) Book(ctx context.Context) ([]BookRow, error) {
	rows, err := s.store.DB.QueryContext(ctx, `
		SELECT asset_id, property_name, sector, location, sqm,
			ask_psm, erv_psm, passing_psm, vacancy_pct, opex_psm, tax_psm
		FROM assets
		ORDER BY asset_id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []BookRow
	for rows.Next() {
		var r BookRow
		if err := rows.Scan(&r.AssetID, &r.Name, &r.Sector, &r.Location, &r.Sqm,
			&r.AskPSM, &r.ERVPSM, &r.PassingPSM, &r.VacancyPct, &r.OpexPSM, &r.TaxPSM); err != nil {
			return nil, err
		}
		r.Profile = ClassifyProfile(r.Location, r.Sector)
		r.AnnualNOI = AnnualNOI(IncomeInputs{
			Sqm:        r.Sqm,
			PassingPSM: r.PassingPSM,
			VacancyPct: r.VacancyPct,
			OpexPSM:    r.OpexPSM,
			TaxPSM:     r.TaxPSM,
		})
		out = append(out, r)
	}
	return out, rows.Err()
}

// SearchAssets filters the book by whitespace-separated tokens matched
// case-insensitively against id, name, sector and location. All tokens must
// match.
func (s *Service) SearchAssets(ctx context.Context, query string) ([]BookRow, error) {
	book, err := s.Book(ctx)
	if err != nil {
		return nil, err
	}
	tokens := strings.Fields(strings.ToLower(query))
	if len(tokens) == 0 {
		return book, nil
	}
	var out []BookRow
	for _, r := range book {
		haystack := strings.ToLower(r.AssetID + " " + r.Name + " " + r.Sector + " " + r.Location)
		ok := true
		for _, t := range tokens {
			if !strings.Contains(haystack, t) {
				ok = false
				break
			}
		}
		if ok {
			out = append(out, r)
		}
	}
	return out, nil
}

// Portfolio returns the team's open positions with this week's sale cap and
// any active sale block.
func (s *Service) Portfolio(ctx context.Context, team string) ([]HoldingView, error) {
	team = strings.TrimSpace(team)
	week, err := s.CurrentWeek(ctx)
	if err != nil {
		return nil, err
	}
	return s.holdingsFor(ctx, s.store.DB, team, week)
}

func (s *Service) holdingsFor(ctx context.Context, q querier, team string, week int) ([]HoldingView, error) {
	rows, err := q.QueryContext(ctx, s.q(`
		SELECT h.asset_id, a.property_name, a.sector, a.location, a.sqm,
			h.entry_psm, h.buy_week,
			a.passing_psm, a.vacancy_pct, a.opex_psm, a.tax_psm,
			b.blocked_until_week
		FROM holdings h
		JOIN assets a ON a.asset_id = h.asset_id
		LEFT JOIN sale_blocks b ON b.name = h.name AND b.asset_id = h.asset_id
		WHERE h.name = ?
		ORDER BY h.asset_id
	`), team)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []HoldingView
	for rows.Next() {
		var h HoldingView
		var passing, vacancy, opex, tax float64
		var until sql.NullInt64
		if err := rows.Scan(&h.AssetID, &h.Name, &h.Sector, &h.Location, &h.Sqm,
			&h.EntryPSM, &h.BuyWeek, &passing, &vacancy, &opex, &tax, &until); err != nil {
			return nil, err
		}
		h.CapPSM = s.rules.CapPrice(h.EntryPSM)
		h.AnnualNOI = AnnualNOI(IncomeInputs{Sqm: h.Sqm, PassingPSM: passing, VacancyPct: vacancy, OpexPSM: opex, TaxPSM: tax})
		if until.Valid && week < int(until.Int64) {
			h.BlockedUntilWeek = int(until.Int64)
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

// Leaderboard ranks teams by cash on hand; portfolio value (at current ask)
// and aggregate NOI are shown alongside but do not affect the ranking.
func (s *Service) Leaderboard(ctx context.Context) ([]LeaderboardRow, error) {
	rows, err := s.store.DB.QueryContext(ctx, `SELECT name, cash FROM teams ORDER BY cash DESC, name ASC`)
	if err != nil {
		return nil, err
	}
	var out []LeaderboardRow
	for rows.Next() {
		var r LeaderboardRow
		if err := rows.Scan(&r.Team, &r.CashEUR); err != nil {
			rows.Close()
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	agg, err := s.portfolioAggregates(ctx)
	if err != nil {
		return nil, err
	}
	for i := range out {
		if a, ok := agg[out[i].Team]; ok {
			out[i].PortfolioEUR = a.value
			out[i].AnnualNOI = a.noi
			out[i].Holdings = a.count
		}
		out[i].Rank = i + 1
	}
	return out, nil
}

type teamAggregate struct {
	value float64
	noi   float64
	count int
}

func (s *Service) portfolioAggregates(ctx context.Context) (map[string]teamAggregate, error) {
	rows, err := s.store.DB.QueryContext(ctx, `
		SELECT h.name, a.sqm, a.ask_psm, a.passing_psm, a.vacancy_pct, a.opex_psm, a.tax_psm
		FROM holdings h
		JOIN assets a ON a.asset_id = h.asset_id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	agg := make(map[string]teamAggregate)
	for rows.Next() {
		var team string
		var sqm int
		var ask, passing, vacancy, opex, tax float64
		if err := rows.Scan(&team, &sqm, &ask, &passing, &vacancy, &opex, &tax); err != nil {
			return nil, err
		}
		a := agg[team]
		a.value = Round2(a.value + float64(sqm)*ask)
		a.noi = Round2(a.noi + AnnualNOI(IncomeInputs{Sqm: sqm, PassingPSM: passing, VacancyPct: vacancy, OpexPSM: opex, TaxPSM: tax}))
		a.count++
		agg[team] = a
	}
	return agg, rows.Err()
}

// TeamsOverview is the instructor view: every team with its full position
// list.
func (s *Service) TeamsOverview(ctx context.Context) ([]TeamOverview, error) {
	week, err := s.CurrentWeek(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := s.store.DB.QueryContext(ctx, `SELECT name, cash FROM teams ORDER BY cash DESC, name ASC`)
	if err != nil {
		return nil, err
	}
	var out []TeamOverview
	for rows.Next() {
		var t TeamOverview
		if err := rows.Scan(&t.Team, &t.CashEUR); err != nil {
			rows.Close()
			return nil, err
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	for i := range out {
		holdings, err := s.holdingsFor(ctx, s.store.DB, out[i].Team, week)
		if err != nil {
			return nil, err
		}
		out[i].Holdings = holdings
	}
	return out, nil
}
