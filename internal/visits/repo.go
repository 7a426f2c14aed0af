package visits

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"trailmark/pkg/models"
)

type Repo struct {
	DB *sql.DB
}

func NewRepo(db *sql.DB) *Repo {
	return &Repo{DB: db}
}

func (r *Repo) ListCountryVisits(ctx context.Context, userID string) ([]models.CountryVisit, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT code, visit_date, notes, updated_at
		FROM visited_countries
		WHERE user_id = ?
		ORDER BY code
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list country visits: %w", err)
	}
	defer rows.Close()

	out := make([]models.CountryVisit, 0, 32)
	for rows.Next() {
		var v models.CountryVisit
		var date, notes sql.NullString
		var updated time.Time
		if err := rows.Scan(&v.Code, &date, &notes, &updated); err != nil {
			return nil, fmt.Errorf("scan country visit: %w", err)
		}
		v.VisitDate = date.String
		v.Notes = notes.String
		v.UpdatedAt = updated
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows err: %w", err)
	}
	return out, nil
}

func (r *Repo) GetCountryVisit(ctx context.Context, userID, code string) (*models.CountryVisit, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT code, visit_date, notes, updated_at
		FROM visited_countries
		WHERE user_id = ? AND code = ?
	`, userID, code)

	var v models.CountryVisit
	var date, notes sql.NullString
	var updated time.Time
	if err := row.Scan(&v.Code, &date, &notes, &updated); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get country visit: %w", err)
	}
	v.VisitDate = date.String
	v.Notes = notes.String
	v.UpdatedAt = updated
	return &v, nil
}

// UpsertCountryVisit creates the relation if absent and applies a partial
// patch to it otherwise. A nil meta field leaves the stored value alone; a
// pointer to "" clears it.
func (r *Repo) UpsertCountryVisit(ctx context.Context, userID, code string, meta models.VisitMeta) (err error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin upsert visit: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var date, notes sql.NullString
	row := tx.QueryRowContext(ctx, `
		SELECT visit_date, notes
		FROM visited_countries
		WHERE user_id = ? AND code = ?
	`, userID, code)
	scanErr := row.Scan(&date, &notes)
	if scanErr != nil && scanErr != sql.ErrNoRows {
		err = fmt.Errorf("read visit: %w", scanErr)
		return err
	}

	if meta.VisitDate != nil {
		date = sql.NullString{String: *meta.VisitDate, Valid: *meta.VisitDate != ""}
	}
	if meta.Notes != nil {
		notes = sql.NullString{String: *meta.Notes, Valid: *meta.Notes != ""}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO visited_countries (user_id, code, visit_date, notes, updated_at)
		VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(user_id, code) DO UPDATE SET
			visit_date = excluded.visit_date,
			notes = excluded.notes,
			updated_at = CURRENT_TIMESTAMP
	`, userID, code, date, notes)
	if err != nil {
		return fmt.Errorf("upsert country visit: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit upsert visit: %w", err)
	}
	return nil
}

func (r *Repo) DeleteCountryVisit(ctx context.Context, userID, code string) (bool, error) {
	res, err := r.DB.ExecContext(ctx, `
		DELETE FROM visited_countries
		WHERE user_id = ? AND code = ?
	`, userID, code)
	if err != nil {
		return false, fmt.Errorf("delete country visit: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (r *Repo) ClearCountryVisits(ctx context.Context, userID string) error {
	_, err := r.DB.ExecContext(ctx, `
		DELETE FROM visited_countries WHERE user_id = ?
	`, userID)
	if err != nil {
		return fmt.Errorf("clear country visits: %w", err)
	}
	return nil
}

func (r *Repo) ListParkVisits(ctx context.Context, userID string) ([]models.ParkVisit, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT code, updated_at
		FROM visited_parks
		WHERE user_id = ?
		ORDER BY code
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list park visits: %w", err)
	}
	defer rows.Close()

	out := make([]models.ParkVisit, 0, 16)
	for rows.Next() {
		var v models.ParkVisit
		if err := rows.Scan(&v.Code, &v.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan park visit: %w", err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows err: %w", err)
	}
	return out, nil
}

func (r *Repo) AddParkVisit(ctx context.Context, userID, code string) error {
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO visited_parks (user_id, code, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(user_id, code) DO UPDATE SET updated_at = CURRENT_TIMESTAMP
	`, userID, code)
	if err != nil {
		return fmt.Errorf("add park visit: %w", err)
	}
	return nil
}

func (r *Repo) DeleteParkVisit(ctx context.Context, userID, code string) (bool, error) {
	res, err := r.DB.ExecContext(ctx, `
		DELETE FROM visited_parks
		WHERE user_id = ? AND code = ?
	`, userID, code)
	if err != nil {
		return false, fmt.Errorf("delete park visit: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (r *Repo) ClearParkVisits(ctx context.Context, userID string) error {
	_, err := r.DB.ExecContext(ctx, `
		DELETE FROM visited_parks WHERE user_id = ?
	`, userID)
	if err != nil {
		return fmt.Errorf("clear park visits: %w", err)
	}
	return nil
}

func (r *Repo) AddStadiumVisit(ctx context.Context, userID, stadiumID string) error {
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO visited_stadiums (user_id, stadium_id, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(user_id, stadium_id) DO UPDATE SET updated_at = CURRENT_TIMESTAMP
	`, userID, stadiumID)
	if err != nil {
		return fmt.Errorf("add stadium visit: %w", err)
	}
	return nil
}

func (r *Repo) DeleteStadiumVisit(ctx context.Context, userID, stadiumID string) (bool, error) {
	res, err := r.DB.ExecContext(ctx, `
		DELETE FROM visited_stadiums
		WHERE user_id = ? AND stadium_id = ?
	`, userID, stadiumID)
	if err != nil {
		return false, fmt.Errorf("delete stadium visit: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (r *Repo) AddStateVisit(ctx context.Context, userID, stateCode string) error {
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO visited_states (user_id, state_code, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(user_id, state_code) DO UPDATE SET updated_at = CURRENT_TIMESTAMP
	`, userID, stateCode)
	if err != nil {
		return fmt.Errorf("add state visit: %w", err)
	}
	return nil
}

func (r *Repo) DeleteStateVisit(ctx context.Context, userID, stateCode string) (bool, error) {
	res, err := r.DB.ExecContext(ctx, `
		DELETE FROM visited_states
		WHERE user_id = ? AND state_code = ?
	`, userID, stateCode)
	if err != nil {
		return false, fmt.Errorf("delete state visit: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}
