package visits

import (
	"context"
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trailmark/pkg/models"
)

const testSchema = `
CREATE TABLE visited_countries (
    user_id    TEXT NOT NULL,
    code       TEXT NOT NULL,
    visit_date TEXT,
    notes      TEXT,
    updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    PRIMARY KEY (user_id, code)
);
CREATE TABLE visited_parks (
    user_id    TEXT NOT NULL,
    code       TEXT NOT NULL,
    updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    PRIMARY KEY (user_id, code)
);
CREATE TABLE visited_stadiums (
    user_id    TEXT NOT NULL,
    stadium_id TEXT NOT NULL,
    updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    PRIMARY KEY (user_id, stadium_id)
);
CREATE TABLE visited_states (
    user_id    TEXT NOT NULL,
    state_code TEXT NOT NULL,
    updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    PRIMARY KEY (user_id, state_code)
);
`

func newTestRepo(t *testing.T) *Repo {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	// Every pooled connection gets its own :memory: database.
	db.SetMaxOpenConns(1)

	_, err = db.Exec(testSchema)
	require.NoError(t, err)
	return NewRepo(db)
}

func strPtr(s string) *string { return &s }

func TestUpsertCountryVisitPatchSemantics(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	// Create with date and notes.
	require.NoError(t, repo.UpsertCountryVisit(ctx, "u1", "FR", models.VisitMeta{
		VisitDate: strPtr("2026-08-01"),
		Notes:     strPtr("summer trip"),
	}))

	v, err := repo.GetCountryVisit(ctx, "u1", "FR")
	require.NoError(t, err)
	require.NotNil(t, v)
	assert.Equal(t, "2026-08-01", v.VisitDate)
	assert.Equal(t, "summer trip", v.Notes)

	// Nil field leaves the stored value alone.
	require.NoError(t, repo.UpsertCountryVisit(ctx, "u1", "FR", models.VisitMeta{
		Notes: strPtr("revised"),
	}))
	v, err = repo.GetCountryVisit(ctx, "u1", "FR")
	require.NoError(t, err)
	assert.Equal(t, "2026-08-01", v.VisitDate)
	assert.Equal(t, "revised", v.Notes)

	// Pointer to empty string clears.
	require.NoError(t, repo.UpsertCountryVisit(ctx, "u1", "FR", models.VisitMeta{
		VisitDate: strPtr(""),
	}))
	v, err = repo.GetCountryVisit(ctx, "u1", "FR")
	require.NoError(t, err)
	assert.Empty(t, v.VisitDate)
	assert.Equal(t, "revised", v.Notes)
}

func TestUpsertCreatesMissingRelation(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	// Patching a country that was never added still creates the row.
	require.NoError(t, repo.UpsertCountryVisit(ctx, "u1", "JP", models.VisitMeta{
		VisitDate: strPtr("2025-12-24"),
	}))

	visits, err := repo.ListCountryVisits(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, visits, 1)
	assert.Equal(t, "JP", visits[0].Code)
	assert.Equal(t, "2025-12-24", visits[0].VisitDate)
}

func TestCountryVisitsAreScopedByUser(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	require.NoError(t, repo.UpsertCountryVisit(ctx, "u1", "FR", models.VisitMeta{}))
	require.NoError(t, repo.UpsertCountryVisit(ctx, "u2", "FR", models.VisitMeta{}))
	require.NoError(t, repo.UpsertCountryVisit(ctx, "u2", "JP", models.VisitMeta{}))

	visits, err := repo.ListCountryVisits(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, visits, 1)

	require.NoError(t, repo.ClearCountryVisits(ctx, "u2"))

	visits, err = repo.ListCountryVisits(ctx, "u2")
	require.NoError(t, err)
	assert.Empty(t, visits)

	// u1 is untouched by u2's clear.
	visits, err = repo.ListCountryVisits(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, visits, 1)
}

func TestDeleteCountryVisitReportsExistence(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	require.NoError(t, repo.UpsertCountryVisit(ctx, "u1", "FR", models.VisitMeta{}))

	removed, err := repo.DeleteCountryVisit(ctx, "u1", "FR")
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = repo.DeleteCountryVisit(ctx, "u1", "FR")
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestParkVisitsLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	require.NoError(t, repo.AddParkVisit(ctx, "u1", "yose"))
	require.NoError(t, repo.AddParkVisit(ctx, "u1", "grca"))
	// Re-adding is idempotent.
	require.NoError(t, repo.AddParkVisit(ctx, "u1", "yose"))

	visits, err := repo.ListParkVisits(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, visits, 2)
	assert.Equal(t, "grca", visits[0].Code)
	assert.Equal(t, "yose", visits[1].Code)

	removed, err := repo.DeleteParkVisit(ctx, "u1", "grca")
	require.NoError(t, err)
	assert.True(t, removed)

	require.NoError(t, repo.ClearParkVisits(ctx, "u1"))
	visits, err = repo.ListParkVisits(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, visits)
}

func TestStadiumAndStateVisits(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	require.NoError(t, repo.AddStadiumVisit(ctx, "u1", "101"))
	removed, err := repo.DeleteStadiumVisit(ctx, "u1", "101")
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = repo.DeleteStadiumVisit(ctx, "u1", "101")
	require.NoError(t, err)
	assert.False(t, removed)

	require.NoError(t, repo.AddStateVisit(ctx, "u1", "WY"))
	removed, err = repo.DeleteStateVisit(ctx, "u1", "WY")
	require.NoError(t, err)
	assert.True(t, removed)
}
