package game

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"reinnin/internal/db"
)

// rejection marks an expected domain refusal whose side effects must still
// be committed (a cap violation records a sale block before failing).
type rejection struct{ err error }

func (r rejection) Error() string { return r.err.Error() }
func (r rejection) Unwrap() error { return r.err }

// withWriteTx runs fn inside an exclusive transaction, retrying on
// serialization conflicts with exponential backoff. A rejection returned by
// fn commits the transaction and surfaces the wrapped error.
func (s *Service) withWriteTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	const maxAttempts = 8
	retryDelay := 75 * time.Millisecond
	for attempt := 0; attempt < maxAttempts; attempt++ {
		tx, err := s.store.BeginWrite(ctx)
		if err != nil {
			return err
		}
		err = func() error {
			defer func() { _ = tx.Rollback() }()
			if err := fn(tx); err != nil {
				var rej rejection
				if errors.As(err, &rej) {
					if cerr := tx.Commit(); cerr != nil {
						return cerr
					}
					return rej.err
				}
				return err
			}
			return tx.Commit()
		}()
		if err == nil {
			return nil
		}
		if !db.IsRetryable(err) {
			return err
		}
		if attempt == maxAttempts-1 {
			return ErrTxConflict
		}
		if err := sleepWithContext(ctx, retryDelay); err != nil {
			return err
		}
		if retryDelay < 1200*time.Millisecond {
			retryDelay *= 2
		}
	}
	return ErrTxConflict
}

// Buy purchases a whole asset at the current ask. The team is created with
// the starting budget on first contact.
func (s *Service) Buy(ctx context.Context, in BuyInput) (BuyResult, error) {
	var out BuyResult
	team := strings.TrimSpace(in.Team)
	if err := ValidateTeamName(team); err != nil {
		return out, err
	}
	assetID := strings.ToUpper(strings.TrimSpace(in.AssetID))

	err := s.withWriteTx(ctx, func(tx *sql.Tx) error {
		week, err := s.currentWeek(ctx, tx)
		if err != nil {
			return err
		}

		var name string
		var sqm int
		var ask float64
		err = tx.QueryRowContext(ctx,
			s.q(`SELECT property_name, sqm, ask_psm FROM assets WHERE asset_id = ?`),
			assetID).Scan(&name, &sqm, &ask)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: %s", ErrUnknownAsset, assetID)
		}
		if err != nil {
			return err
		}

		var holders int
		if err := tx.QueryRowContext(ctx,
			s.q(`SELECT COUNT(1) FROM holdings WHERE asset_id = ?`), assetID).Scan(&holders); err != nil {
			return err
		}
		if holders > 0 {
			return fmt.Errorf("%w: %s", ErrAssetUnavailable, assetID)
		}

		if _, err := tx.ExecContext(ctx, s.q(`
			INSERT INTO teams (name, cash) VALUES (?, ?)
			ON CONFLICT (name) DO NOTHING
		`), team, s.rules.StartingCash); err != nil {
			return err
		}
		var cash float64
		if err := tx.QueryRowContext(ctx, s.q(`SELECT cash FROM teams WHERE name = ?`), team).Scan(&cash); err != nil {
			return err
		}

		ticket := Round2(float64(sqm) * ask)
		if ticket > cash {
			return fmt.Errorf("%w: ticket %.2f exceeds cash %.2f", ErrInsufficientFunds, ticket, cash)
		}
		cash = Round2(cash - ticket)

		if _, err := tx.ExecContext(ctx,
			s.q(`UPDATE teams SET cash = ? WHERE name = ?`), cash, team); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, s.q(`
			INSERT INTO holdings (name, asset_id, entry_psm, buy_week)
			VALUES (?, ?, ?, ?)
		`), team, assetID, ask, week); err != nil {
			return err
		}

		out = BuyResult{
			AssetID:   assetID,
			Name:      name,
			Sqm:       sqm,
			EntryPSM:  ask,
			TicketEUR: ticket,
			CashEUR:   cash,
			Week:      week,
		}
		return nil
	})
	if err != nil {
		return BuyResult{}, err
	}
	s.log.Info("asset bought", "team", team, "asset", assetID, "ticket", out.TicketEUR, "week", out.Week)
	return out, nil
}

// Sell disposes a holding at the proposed exit price. An exit above this
// week's cap is rejected and blocks the holding until next week; the block
// is committed even though the sale fails.
func (s *Service) Sell(ctx context.Context, in SellInput) (SellResult, error) {
	var out SellResult
	team := strings.TrimSpace(in.Team)
	if err := ValidateTeamName(team); err != nil {
		return out, err
	}
	assetID := strings.ToUpper(strings.TrimSpace(in.AssetID))
	if in.ExitPSM <= 0 {
		return out, fmt.Errorf("exit price must be > 0")
	}
	exit := Round2(in.ExitPSM)

	err := s.withWriteTx(ctx, func(tx *sql.Tx) error {
		week, err := s.currentWeek(ctx, tx)
		if err != nil {
			return err
		}

		var name string
		var sqm int
		var entry float64
		err = tx.QueryRowContext(ctx, s.q(`
			SELECT a.property_name, a.sqm, h.entry_psm
			FROM holdings h
			JOIN assets a ON a.asset_id = h.asset_id
			WHERE h.name = ? AND h.asset_id = ?
		`), team, assetID).Scan(&name, &sqm, &entry)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: %s", ErrNoSuchHolding, assetID)
		}
		if err != nil {
			return err
		}

		var until int
		err = tx.QueryRowContext(ctx,
			s.q(`SELECT blocked_until_week FROM sale_blocks WHERE name = ? AND asset_id = ?`),
			team, assetID).Scan(&until)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return err
		}
		if err == nil && week < until {
			return fmt.Errorf("%w: %s until week %d", ErrSaleBlocked, assetID, until)
		}

		capPSM := s.rules.CapPrice(entry)
		if exit > capPSM {
			if _, err := tx.ExecContext(ctx, s.q(`
				INSERT INTO sale_blocks (name, asset_id, blocked_until_week)
				VALUES (?, ?, ?)
				ON CONFLICT (name, asset_id) DO UPDATE SET blocked_until_week = excluded.blocked_until_week
			`), team, assetID, week+1); err != nil {
				return err
			}
			return rejection{fmt.Errorf("%w: %.2f/sqm over cap %.2f/sqm, blocked until week %d",
				ErrSaleCapExceeded, exit, capPSM, week+1)}
		}

		proceeds := Round2(float64(sqm) * exit)
		var cash float64
		if err := tx.QueryRowContext(ctx, s.q(`SELECT cash FROM teams WHERE name = ?`), team).Scan(&cash); err != nil {
			return err
		}
		cash = Round2(cash + proceeds)

		if _, err := tx.ExecContext(ctx,
			s.q(`UPDATE teams SET cash = ? WHERE name = ?`), cash, team); err != nil {
			return err
		}
		// The asset returns to the market re-priced at the exit.
		if _, err := tx.ExecContext(ctx,
			s.q(`UPDATE assets SET ask_psm = ? WHERE asset_id = ?`), exit, assetID); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			s.q(`DELETE FROM holdings WHERE name = ? AND asset_id = ?`), team, assetID); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			s.q(`DELETE FROM sale_blocks WHERE name = ? AND asset_id = ?`), team, assetID); err != nil {
			return err
		}

		out = SellResult{
			AssetID:     assetID,
			Name:        name,
			Sqm:         sqm,
			ExitPSM:     exit,
			CapPSM:      capPSM,
			ProceedsEUR: proceeds,
			CashEUR:     cash,
			Week:        week,
		}
		return nil
	})
	if err != nil {
		return SellResult{}, err
	}
	s.log.Info("asset sold", "team", team, "asset", assetID, "exit_psm", out.ExitPSM, "proceeds", out.ProceedsEUR)
	return out, nil
}

// AdvanceWeek moves the game forward one week: income accrues first (when
// enabled) against pre-shock fundamentals, then the week increments, then
// the incoming week's curveball applies exactly once.
func (s *Service) AdvanceWeek(ctx context.Context) (AdvanceResult, error) {
	var out AdvanceResult
	err := s.withWriteTx(ctx, func(tx *sql.Tx) error {
		week, err := s.currentWeek(ctx, tx)
		if err != nil {
			return err
		}
		if week >= s.rules.EndWeek {
			return ErrFinalWeek
		}

		var income []TeamIncome
		if s.rules.AccrueWeeklyIncome {
			income, err = s.accrueIncomeTx(ctx, tx)
			if err != nil {
				return err
			}
		}

		next := week + 1
		if _, err := tx.ExecContext(ctx,
			s.q(`UPDATE game_state SET current_week = ? WHERE id = 1`), next); err != nil {
			return err
		}
		applied, err := s.applyCurveballTx(ctx, tx, next)
		if err != nil {
			return err
		}

		out = AdvanceResult{
			Week:         next,
			Announcement: Announcement(next),
			ShockApplied: applied,
			Income:       income,
		}
		return nil
	})
	if err != nil {
		return AdvanceResult{}, err
	}
	s.log.Info("week advanced", "week", out.Week, "shock_applied", out.ShockApplied)
	return out, nil
}

// accrueIncomeTx credits each team one accrual period of its aggregate NOI.
func (s *Service) accrueIncomeTx(ctx context.Context, tx *sql.Tx) ([]TeamIncome, error) {
	rows, err := tx.QueryContext(ctx, `
		SELECT h.name, a.sqm, a.passing_psm, a.vacancy_pct, a.opex_psm, a.tax_psm
		FROM holdings h
		JOIN assets a ON a.asset_id = h.asset_id
	`)
	if err != nil {
		return nil, err
	}
	totals := make(map[string]float64)
	for rows.Next() {
		var team string
		var sqm int
		var passing, vacancy, opex, tax float64
		if err := rows.Scan(&team, &sqm, &passing, &vacancy, &opex, &tax); err != nil {
			rows.Close()
			return nil, err
		}
		totals[team] += AnnualNOI(IncomeInputs{Sqm: sqm, PassingPSM: passing, VacancyPct: vacancy, OpexPSM: opex, TaxPSM: tax})
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	teams := make([]string, 0, len(totals))
	for team := range totals {
		teams = append(teams, team)
	}
	sort.Strings(teams)

	var out []TeamIncome
	for _, team := range teams {
		weekly := Round2(totals[team] / s.rules.AccrualDivisor)
		var cash float64
		if err := tx.QueryRowContext(ctx, s.q(`SELECT cash FROM teams WHERE name = ?`), team).Scan(&cash); err != nil {
			return nil, err
		}
		if _, err := tx.ExecContext(ctx,
			s.q(`UPDATE teams SET cash = ? WHERE name = ?`), Round2(cash+weekly), team); err != nil {
			return nil, err
		}
		out = append(out, TeamIncome{Team: team, AmountEUR: weekly})
	}
	return out, nil
}

// ApplyShock applies the numeric curveball for a week, once. Re-applying an
// already applied week is a no-op.
func (s *Service) ApplyShock(ctx context.Context, week int) (bool, error) {
	var applied bool
	err := s.withWriteTx(ctx, func(tx *sql.Tx) error {
		var err error
		applied, err = s.applyCurveballTx(ctx, tx, week)
		return err
	})
	return applied, err
}

// ResetGame wipes teams, holdings, blocks and the shock log, restores the
// seed catalog and returns to the opening week, all in one transaction.
func (s *Service) ResetGame(ctx context.Context) error {
	err := s.withWriteTx(ctx, func(tx *sql.Tx) error {
		for _, stmt := range []string{
			`DELETE FROM sale_blocks`,
			`DELETE FROM holdings`,
			`DELETE FROM teams`,
			`DELETE FROM applied_curveballs`,
			`DELETE FROM assets`,
		} {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return err
			}
		}
		if err := insertSeedsTx(ctx, tx, s); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx,
			s.q(`UPDATE game_state SET current_week = ? WHERE id = 1`), s.rules.StartWeek)
		return err
	})
	if err != nil {
		return err
	}
	s.log.Info("game reset", "week", s.rules.StartWeek)
	return nil
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
