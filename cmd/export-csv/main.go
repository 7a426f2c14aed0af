package main

import (
	"context"
	"database/sql"
	"encoding/csv"
	"flag"
	"log"
	"os"
	"path/filepath"
	"time"

	"trailmark/pkg/database"
)

func main() {
	var (
		countriesOut = flag.String("countries", "data/visited_countries.csv", "output CSV path for visited countries")
		parksOut     = flag.String("parks", "data/visited_parks.csv", "output CSV path for visited parks")
		stadiumsOut  = flag.String("stadiums", "data/visited_stadiums.csv", "output CSV path for visited stadiums")
	)
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db := database.MustOpen(database.DefaultConfig())
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("db migrate failed: %v", err)
	}

	if err := exportVisitedCountries(ctx, db, *countriesOut); err != nil {
		log.Fatalf("export visited countries failed: %v", err)
	}
	if err := exportVisitedParks(ctx, db, *parksOut); err != nil {
		log.Fatalf("export visited parks failed: %v", err)
	}
	if err := exportVisitedStadiums(ctx, db, *stadiumsOut); err != nil {
		log.Fatalf("export visited stadiums failed: %v", err)
	}

	log.Printf("✅ exported visits to %s, %s and %s", *countriesOut, *parksOut, *stadiumsOut)
}

func exportVisitedCountries(ctx context.Context, db *sql.DB, outPath string) error {
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return err
	}

	f, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"user_id", "code", "country", "visit_date", "notes", "updated_at"}); err != nil {
		return err
	}

	rows, err := db.QueryContext(ctx, `
        SELECT vc.user_id, vc.code, COALESCE(co.name, ''), vc.visit_date, vc.notes, vc.updated_at
        FROM visited_countries vc
        LEFT JOIN countries co ON co.code = vc.code
        ORDER BY vc.user_id, vc.code
    `)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			userID    string
			code      string
			country   string
			visitDate sql.NullString
			notes     sql.NullString
			updatedAt sql.NullTime
		)

		if err := rows.Scan(&userID, &code, &country, &visitDate, &notes, &updatedAt); err != nil {
			return err
		}

		updated := ""
		if updatedAt.Valid {
			updated = updatedAt.Time.Format(time.RFC3339)
		}

		if err := w.Write([]string{
			userID,
			code,
			country,
			visitDate.String,
			notes.String,
			updated,
		}); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}

	w.Flush()
	return w.Error()
}

func exportVisitedParks(ctx context.Context, db *sql.DB, outPath string) error {
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return err
	}

	f, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"user_id", "code", "park", "state", "updated_at"}); err != nil {
		return err
	}

	rows, err := db.QueryContext(ctx, `
        SELECT vp.user_id, vp.code, COALESCE(p.name, ''), COALESCE(p.state, ''), vp.updated_at
        FROM visited_parks vp
        LEFT JOIN parks p ON p.code = vp.code
        ORDER BY vp.user_id, vp.code
    `)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			userID    string
			code      string
			park      string
			state     string
			updatedAt sql.NullTime
		)

		if err := rows.Scan(&userID, &code, &park, &state, &updatedAt); err != nil {
			return err
		}

		updated := ""
		if updatedAt.Valid {
			updated = updatedAt.Time.Format(time.RFC3339)
		}

		if err := w.Write([]string{userID, code, park, state, updated}); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}

	w.Flush()
	return w.Error()
}

func exportVisitedStadiums(ctx context.Context, db *sql.DB, outPath string) error {
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return err
	}

	f, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"user_id", "stadium_id", "league", "stadium", "team", "updated_at"}); err != nil {
		return err
	}

	rows, err := db.QueryContext(ctx, `
        SELECT vs.user_id, vs.stadium_id, COALESCE(s.league, ''), COALESCE(s.name, ''), COALESCE(s.team, ''), vs.updated_at
        FROM visited_stadiums vs
        LEFT JOIN stadiums s ON CAST(s.id AS TEXT) = vs.stadium_id
        ORDER BY vs.user_id, vs.stadium_id
    `)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			userID    string
			stadiumID string
			league    string
			stadium   string
			team      string
			updatedAt sql.NullTime
		)

		if err := rows.Scan(&userID, &stadiumID, &league, &stadium, &team, &updatedAt); err != nil {
			return err
		}

		updated := ""
		if updatedAt.Valid {
			updated = updatedAt.Time.Format(time.RFC3339)
		}

		if err := w.Write([]string{userID, stadiumID, league, stadium, team, updated}); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}

	w.Flush()
	return w.Error()
}
