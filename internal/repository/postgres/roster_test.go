package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dtroode/podkeeper/internal/model"
)

const owner = "https://worker.opencommons.net/profile/card#me"

var bob = model.UserIdentity{
	Identifier: "https://bob.opencommons.net/profile/card#me",
	RootURL:    "https://bob.opencommons.net/",
}

func newConnection(t *testing.T) (*Connection, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	return &Connection{Pool: mock}, mock
}

func TestRosterRepository_Add(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		db, mock := newConnection(t)
		defer mock.Close()

		mock.ExpectExec(`INSERT INTO roster_members \(owner_id, identifier, root_url\)`).
			WithArgs(owner, bob.Identifier, bob.RootURL).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		require.NoError(t, NewRosterRepository(db).Add(ctx, owner, bob))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("error", func(t *testing.T) {
		db, mock := newConnection(t)
		defer mock.Close()

		mock.ExpectExec(`INSERT INTO roster_members`).
			WithArgs(owner, bob.Identifier, bob.RootURL).
			WillReturnError(errors.New("connection refused"))

		err := NewRosterRepository(db).Add(ctx, owner, bob)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to add roster member")
	})
}

func TestRosterRepository_Remove(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		rows    int64
		execErr error
		wantErr error
	}{
		{name: "removed", rows: 1},
		{name: "not a member", rows: 0, wantErr: model.ErrNotFound},
		{name: "exec fails", execErr: errors.New("boom")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := newConnection(t)
			defer mock.Close()

			exp := mock.ExpectExec(`DELETE FROM roster_members WHERE owner_id = \$1 AND identifier = \$2`).
				WithArgs(owner, bob.Identifier)
			if tt.execErr != nil {
				exp.WillReturnError(tt.execErr)
			} else {
				exp.WillReturnResult(pgxmock.NewResult("DELETE", tt.rows))
			}

			err := NewRosterRepository(db).Remove(ctx, owner, bob.Identifier)
			switch {
			case tt.execErr != nil:
				assert.ErrorIs(t, err, tt.execErr)
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			default:
				assert.NoError(t, err)
			}
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestRosterRepository_List(t *testing.T) {
	ctx := context.Background()
	added := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	carol := model.UserIdentity{Identifier: "https://carol.opencommons.net/profile/card#me", RootURL: "https://carol.opencommons.net/"}

	t.Run("members in order", func(t *testing.T) {
		db, mock := newConnection(t)
		defer mock.Close()

		mock.ExpectQuery(`SELECT identifier, root_url, added_at\s+FROM roster_members WHERE owner_id = \$1`).
			WithArgs(owner).
			WillReturnRows(pgxmock.NewRows([]string{"identifier", "root_url", "added_at"}).
				AddRow(bob.Identifier, bob.RootURL, added).
				AddRow(carol.Identifier, carol.RootURL, added.Add(time.Hour)))

		members, err := NewRosterRepository(db).List(ctx, owner)
		require.NoError(t, err)
		assert.Equal(t, []model.RosterMember{
			{UserIdentity: bob, AddedAt: added},
			{UserIdentity: carol, AddedAt: added.Add(time.Hour)},
		}, members)
	})

	t.Run("empty roster", func(t *testing.T) {
		db, mock := newConnection(t)
		defer mock.Close()

		mock.ExpectQuery(`SELECT identifier, root_url, added_at`).
			WithArgs(owner).
			WillReturnRows(pgxmock.NewRows([]string{"identifier", "root_url", "added_at"}))

		members, err := NewRosterRepository(db).List(ctx, owner)
		require.NoError(t, err)
		assert.NotNil(t, members)
		assert.Empty(t, members)
	})

	t.Run("query fails", func(t *testing.T) {
		db, mock := newConnection(t)
		defer mock.Close()

		mock.ExpectQuery(`SELECT identifier, root_url, added_at`).
			WithArgs(owner).
			WillReturnError(errors.New("boom"))

		_, err := NewRosterRepository(db).List(ctx, owner)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to list roster")
	})

	t.Run("row error", func(t *testing.T) {
		db, mock := newConnection(t)
		defer mock.Close()

		mock.ExpectQuery(`SELECT identifier, root_url, added_at`).
			WithArgs(owner).
			WillReturnRows(pgxmock.NewRows([]string{"identifier", "root_url", "added_at"}).
				AddRow(bob.Identifier, bob.RootURL, added).
				RowError(0, errors.New("broken row")))

		_, err := NewRosterRepository(db).List(ctx, owner)
		require.Error(t, err)
	})
}

func TestConnection(t *testing.T) {
	db, mock := newConnection(t)
	mock.ExpectPing()
	require.NoError(t, db.Ping(context.Background()))

	mock.ExpectClose()
	require.NoError(t, db.Close())
	require.NoError(t, mock.ExpectationsWereMet())

	empty := &Connection{}
	assert.Error(t, empty.Ping(context.Background()))
	assert.NoError(t, empty.Close())
}
