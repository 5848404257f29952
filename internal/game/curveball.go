package game

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// applyCurveballTx applies a week's numeric effects inside tx and logs the
// week as applied. Returns false when the week was already applied or
// carries no numeric effect. Rounding happens in Go so both dialects agree
// to the cent.
func (s *Service) applyCurveballTx(ctx context.Context, tx *sql.Tx, week int) (bool, error) {
	var one int
	err := tx.QueryRowContext(ctx,
		s.q(`SELECT 1 FROM applied_curveballs WHERE week = ?`), week).Scan(&one)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return false, err
	}

	numeric := true
	switch week {
	case 2:
		// Retail softness: ERV -5% for Retail.
		err = s.scaleAssetColumnTx(ctx, tx, "erv_psm", 0.95, `WHERE sector = ?`, "Retail")
	case 4:
		// Bidding war: ask +7% for assets still on the market.
		err = s.scaleAssetColumnTx(ctx, tx, "ask_psm", 1.07,
			`WHERE asset_id NOT IN (SELECT asset_id FROM holdings)`)
	case 6:
		// IBI re-rate: taxes +3% across the board.
		err = s.scaleAssetColumnTx(ctx, tx, "tax_psm", 1.03, ``)
	case 7:
		// Tenant bankruptcy proxy: ERV -20% for Office and Retail.
		err = s.scaleAssetColumnTx(ctx, tx, "erv_psm", 0.80, `WHERE sector IN (?, ?)`, "Office", "Retail")
	case 9:
		// Energy spike: opex +12% across the board.
		err = s.scaleAssetColumnTx(ctx, tx, "opex_psm", 1.12, ``)
	case 12:
		// Residential demand: ERV +2%.
		err = s.scaleAssetColumnTx(ctx, tx, "erv_psm", 1.02, `WHERE sector = ?`, "Residential")
	default:
		numeric = false
	}
	if err != nil {
		return false, err
	}

	// ERV moves pull passing rent along; vacancy assumptions stay fixed.
	if week == 2 || week == 7 || week == 12 {
		if err := s.recomputePassingTx(ctx, tx); err != nil {
			return false, err
		}
	}

	if _, err := tx.ExecContext(ctx, s.q(`
		INSERT INTO applied_curveballs (week) VALUES (?)
		ON CONFLICT (week) DO NOTHING
	`), week); err != nil {
		return false, err
	}
	if numeric {
		s.log.Info("curveball applied", "week", week)
	}
	return numeric, nil
}

// scaleAssetColumnTx multiplies one monetary column by factor for the rows
// the where clause selects, rounding each result to cents. The column name
// comes from a fixed internal set, never from input.
func (s *Service) scaleAssetColumnTx(ctx context.Context, tx *sql.Tx, column string, factor float64, where string, args ...any) error {
	query := fmt.Sprintf(`SELECT asset_id, %s FROM assets %s`, column, where)
	rows, err := tx.QueryContext(ctx, s.q(query), args...)
	if err != nil {
		return err
	}
	type rowVal struct {
		id string
		v  float64
	}
	var vals []rowVal
	for rows.Next() {
		var rv rowVal
		if err := rows.Scan(&rv.id, &rv.v); err != nil {
			rows.Close()
			return err
		}
		vals = append(vals, rv)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return err
	}
	rows.Close()

	update := s.q(fmt.Sprintf(`UPDATE assets SET %s = ? WHERE asset_id = ?`, column))
	for _, rv := range vals {
		if _, err := tx.ExecContext(ctx, update, Round2(rv.v*factor), rv.id); err != nil {
			return err
		}
	}
	return nil
}

// recomputePassingTx re-derives passing rent from the (possibly shocked)
// ERV for every asset.
func (s *Service) recomputePassingTx(ctx context.Context, tx *sql.Tx) error {
	rows, err := tx.QueryContext(ctx, `SELECT asset_id, sector, location, erv_psm FROM assets`)
	if err != nil {
		return err
	}
	type rowVal struct {
		id, sector, location string
		erv                  float64
	}
	var vals []rowVal
	for rows.Next() {
		var rv rowVal
		if err := rows.Scan(&rv.id, &rv.sector, &rv.location, &rv.erv); err != nil {
			rows.Close()
			return err
		}
		vals = append(vals, rv)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return err
	}
	rows.Close()

	update := s.q(`UPDATE assets SET passing_psm = ? WHERE asset_id = ?`)
	for _, rv := range vals {
		if _, err := tx.ExecContext(ctx, update, PassingRent(rv.location, rv.sector, rv.erv), rv.id); err != nil {
			return err
		}
	}
	return nil
}
