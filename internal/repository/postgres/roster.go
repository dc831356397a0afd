package postgres

import (
	"context"
	"fmt"

	"github.com/dtroode/podkeeper/internal/model"
)

var _ model.RosterStore = (*RosterRepository)(nil)

type RosterRepository struct {
	db *Connection
}

func NewRosterRepository(db *Connection) *RosterRepository {
	return &RosterRepository{
		db: db,
	}
}

// Add stores member in owner's roster. Adding a member twice refreshes its root URL.
func (r *RosterRepository) Add(ctx context.Context, ownerID string, member model.UserIdentity) error {
	query := `INSERT INTO roster_members (owner_id, identifier, root_url)
			  VALUES ($1, $2, $3)
			  ON CONFLICT (owner_id, identifier) DO UPDATE SET root_url = EXCLUDED.root_url`

	_, err := r.db.Pool.Exec(ctx, query, ownerID, member.Identifier, member.RootURL)
	if err != nil {
		return fmt.Errorf("failed to add roster member: %w", err)
	}

	return nil
}

func (r *RosterRepository) Remove(ctx context.Context, ownerID string, memberID string) error {
	query := `DELETE FROM roster_members WHERE owner_id = $1 AND identifier = $2`

	tag, err := r.db.Pool.Exec(ctx, query, ownerID, memberID)
	if err != nil {
		return fmt.Errorf("failed to remove roster member: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}

	return nil
}

// List returns owner's roster in the order members were added.
func (r *RosterRepository) List(ctx context.Context, ownerID string) ([]model.RosterMember, error) {
	query := `SELECT identifier, root_url, added_at
			  FROM roster_members WHERE owner_id = $1
			  ORDER BY added_at, identifier`

	rows, err := r.db.Pool.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list roster: %w", err)
	}
	defer rows.Close()

	members := []model.RosterMember{}
	for rows.Next() {
		var m model.RosterMember
		if err := rows.Scan(&m.Identifier, &m.RootURL, &m.AddedAt); err != nil {
			return nil, fmt.Errorf("failed to scan roster member: %w", err)
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate roster: %w", err)
	}

	return members, nil
}
