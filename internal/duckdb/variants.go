package duckdb

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	goduckdb "github.com/marcboeker/go-duckdb"

	"github.com/inodb/vibe-triage/internal/triage"
)

// WriteVariants replaces the triaged_variants table with variants using
// the Appender API, and records the export in triage_runs. The replacement
// runs in one transaction: on failure the previous export is kept. It
// returns the generated run ID.
func (s *Store) WriteVariants(variants []*triage.Variant, source FileFingerprint) (string, error) {
	ctx := context.Background()
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return "", fmt.Errorf("get connection: %w", err)
	}
	defer conn.Close()

	if _, err := conn.ExecContext(ctx, `BEGIN TRANSACTION`); err != nil {
		return "", fmt.Errorf("begin export: %w", err)
	}

	runID, err := writeExport(ctx, conn, variants, source)
	if err != nil {
		if _, rerr := conn.ExecContext(ctx, `ROLLBACK`); rerr != nil {
			err = errors.Join(err, fmt.Errorf("rollback export: %w", rerr))
		}
		return "", err
	}

	if _, err := conn.ExecContext(ctx, `COMMIT`); err != nil {
		return "", fmt.Errorf("commit export: %w", err)
	}
	return runID, nil
}

func writeExport(ctx context.Context, conn *sql.Conn, variants []*triage.Variant, source FileFingerprint) (string, error) {
	if _, err := conn.ExecContext(ctx, `DELETE FROM triaged_variants`); err != nil {
		return "", fmt.Errorf("clear triaged variants: %w", err)
	}

	if len(variants) > 0 {
		if err := appendVariants(conn, variants); err != nil {
			return "", err
		}
	}

	runID := uuid.NewString()
	if _, err := conn.ExecContext(ctx, `INSERT INTO triage_runs VALUES (?, ?, ?, ?, ?, ?)`,
		runID, source.Path, source.Size, source.ModTime, int64(len(variants)), time.Now(),
	); err != nil {
		return "", fmt.Errorf("record triage run: %w", err)
	}
	return runID, nil
}

func appendVariants(conn *sql.Conn, variants []*triage.Variant) error {
	var appender *goduckdb.Appender
	if err := conn.Raw(func(driverConn any) error {
		var err error
		appender, err = goduckdb.NewAppenderFromConn(driverConn.(driver.Conn), "", "triaged_variants")
		return err
	}); err != nil {
		return fmt.Errorf("create appender: %w", err)
	}

	for _, v := range variants {
		if err := appender.AppendRow(
			v.Chrom, v.Pos, v.Ref, v.Alt, v.AF, int64(v.DP), v.Qual, v.ClinicalSignificance,
		); err != nil {
			appender.Close()
			return fmt.Errorf("append variant %s:%d: %w", v.Chrom, v.Pos, err)
		}
	}

	// Close flushes the remaining rows.
	if err := appender.Close(); err != nil {
		return fmt.Errorf("flush appender: %w", err)
	}
	return nil
}

// VariantCount returns the number of exported variants.
func (s *Store) VariantCount() (int64, error) {
	var n int64
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM triaged_variants`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count triaged variants: %w", err)
	}
	return n, nil
}

// CountBySignificance returns exported variant counts per label.
func (s *Store) CountBySignificance() (map[string]int64, error) {
	rows, err := s.db.Query(`SELECT clinical_significance, COUNT(*)
		FROM triaged_variants GROUP BY clinical_significance`)
	if err != nil {
		return nil, fmt.Errorf("query significance counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var label string
		var n int64
		if err := rows.Scan(&label, &n); err != nil {
			return nil, fmt.Errorf("scan significance count: %w", err)
		}
		counts[label] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate significance counts: %w", err)
	}
	return counts, nil
}

// LookupVariant returns exported variants at a position.
func (s *Store) LookupVariant(chrom string, pos int64) ([]*triage.Variant, error) {
	rows, err := s.db.Query(`SELECT chrom, pos, ref, alt, af, dp, qual, clinical_significance
		FROM triaged_variants WHERE chrom=? AND pos=?`, chrom, pos)
	if err != nil {
		return nil, fmt.Errorf("query variant: %w", err)
	}
	defer rows.Close()

	var out []*triage.Variant
	for rows.Next() {
		var v triage.Variant
		var dp int64
		if err := rows.Scan(&v.Chrom, &v.Pos, &v.Ref, &v.Alt, &v.AF, &dp, &v.Qual, &v.ClinicalSignificance); err != nil {
			return nil, fmt.Errorf("scan variant: %w", err)
		}
		v.DP = int(dp)
		out = append(out, &v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate variants: %w", err)
	}
	return out, nil
}
