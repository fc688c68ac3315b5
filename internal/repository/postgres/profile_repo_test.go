package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/require"

	"github.com/darshan87986/your-account-space/internal/errs"
	"github.com/darshan87986/your-account-space/internal/model"
)

func newDB(t *testing.T) (*DB, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	return &DB{Pool: mock}, mock
}

func TestProfileRepo_Create_OK_and_UniqueViolation(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewProfileRepo(db)
	ctx := context.Background()
	p := &model.Profile{
		ID:    uuid.Must(uuid.NewV4()),
		Name:  "Ada",
		Email: "a@b.com",
	}

	// OK
	mock.ExpectExec(`INSERT INTO profiles \(id, name, email\) VALUES \(\$1, \$2, \$3\)`).
		WithArgs(p.ID, p.Name, p.Email).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	require.NoError(t, r.Create(ctx, p))

	// Unique violation
	mock.ExpectExec(`INSERT INTO profiles \(id, name, email\) VALUES \(\$1, \$2, \$3\)`).
		WithArgs(p.ID, p.Name, p.Email).
		WillReturnError(&pgconn.PgError{Code: "23505"})
	err := r.Create(ctx, p)
	require.ErrorIs(t, err, errs.ErrAlreadyExists)
}

func TestProfileRepo_GetByID(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewProfileRepo(db)
	ctx := context.Background()
	id := uuid.Must(uuid.NewV4())

	mock.ExpectQuery(`SELECT id, name, email, created_at FROM profiles WHERE id=\$1`).
		WithArgs(id).
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "email", "created_at"}).
			AddRow(id, "Ada", "a@b.com", time.Now()))
	p, err := r.GetByID(ctx, id)
	require.NoError(t, err)
	require.Equal(t, id, p.ID)
	require.Equal(t, "Ada", p.Name)

	mock.ExpectQuery(`SELECT id, name, email, created_at FROM profiles WHERE id=\$1`).
		WithArgs(id).
		WillReturnError(pgx.ErrNoRows)
	_, err = r.GetByID(ctx, id)
	require.ErrorIs(t, err, errs.ErrNotFound)
}
