package repo

import (
	"context"
	"database/sql"
	"fmt"

	"eventsales/internal/model"
)

func (r *repository) GetMemberByEmail(ctx context.Context, email string) (*model.Member, error) {
	query := `
		SELECT id, name, email, password_hash, role, COALESCE(phone, ''), created_at
		FROM members
		WHERE LOWER(email) = LOWER($1)
	`
	row := r.db.QueryRowContext(ctx, query, email)

	var m model.Member
	if err := row.Scan(&m.ID, &m.Name, &m.Email, &m.PasswordHash, &m.Role, &m.Phone, &m.CreatedAt); err != nil {
		return nil, classify(err)
	}
	return &m, nil
}

func (r *repository) GetMemberByID(ctx context.Context, id string) (*model.Member, error) {
	query := `
		SELECT id, name, email, password_hash, role, COALESCE(phone, ''), created_at
		FROM members
		WHERE id = $1
	`
	row := r.db.QueryRowContext(ctx, query, id)

	var m model.Member
	if err := row.Scan(&m.ID, &m.Name, &m.Email, &m.PasswordHash, &m.Role, &m.Phone, &m.CreatedAt); err != nil {
		return nil, classify(err)
	}
	return &m, nil
}

func (r *repository) ListMembers(ctx context.Context) ([]model.Member, error) {
	query := `
		SELECT id, name, email, password_hash, role, COALESCE(phone, ''), created_at
		FROM members
		ORDER BY created_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	defer rows.Close()

	var members []model.Member
	for rows.Next() {
		var m model.Member
		if err := rows.Scan(&m.ID, &m.Name, &m.Email, &m.PasswordHash, &m.Role, &m.Phone, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

func (r *repository) CreateMember(ctx context.Context, m *model.Member) error {
	query := `
		INSERT INTO members (id, name, email, password_hash, role, phone, created_at)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), NOW())
		RETURNING created_at
	`
	err := r.db.QueryRowContext(ctx, query,
		m.ID, m.Name, m.Email, m.PasswordHash, m.Role, m.Phone,
	).Scan(&m.CreatedAt)
	return classify(err)
}

func (r *repository) UpdateMember(ctx context.Context, m *model.Member) error {
	query := `
		UPDATE members
		SET name = $1, email = $2, password_hash = $3, role = $4, phone = NULLIF($5, '')
		WHERE id = $6
		RETURNING id
	`
	var id string
	err := r.db.QueryRowContext(ctx, query,
		m.Name, m.Email, m.PasswordHash, m.Role, m.Phone, m.ID,
	).Scan(&id)
	return classify(err)
}

func (r *repository) DeleteMember(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM members WHERE id = $1`, id)
	if err != nil {
		return classify(err)
	}
	return noneAffected(res)
}

func noneAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
