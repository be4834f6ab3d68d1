package repo

import (
	"context"
	"fmt"

	"github.com/lib/pq"

	"eventsales/internal/model"
)

// RegisteredEventIDs returns the subset of eventIDs the student already
// holds a registration for.
func (r *repository) RegisteredEventIDs(ctx context.Context, studentID string, eventIDs []string) ([]string, error) {
	query := `
		SELECT event_id
		FROM registrations
		WHERE student_id = $1 AND event_id = ANY($2)
	`
	rows, err := r.db.QueryContext(ctx, query, studentID, pq.Array(eventIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to query existing registrations: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan event id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// InsertRegistrationsTx writes the whole batch inside one transaction.
// A unique violation on any row aborts the batch and surfaces as
// ErrUniqueViolation; nothing is partially committed.
func (r *repository) InsertRegistrationsTx(ctx context.Context, regs []model.Registration) error {
	tx, err := r.db.Master.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	query := `
		INSERT INTO registrations
			(id, student_id, event_id, member_id, payment_method, transaction_id, amount_paid, registered_at)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7, NOW())
	`
	for i := range regs {
		reg := &regs[i]
		if _, err := tx.ExecContext(ctx, query,
			reg.ID, reg.StudentID, reg.EventID, reg.MemberID,
			reg.PaymentMethod, reg.TransactionID, reg.AmountPaid,
		); err != nil {
			_ = tx.Rollback()
			return classify(err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit registration batch: %w", err)
	}
	return nil
}

const saleColumns = `
	r.id, r.student_id, r.event_id, r.member_id,
	r.payment_method, COALESCE(r.transaction_id, ''), r.amount_paid, r.registered_at,
	s.name, s.phone, e.title, m.name
`

const saleJoins = `
	FROM registrations r
	JOIN students s ON s.id = r.student_id
	JOIN events e ON e.id = r.event_id
	JOIN members m ON m.id = r.member_id
`

func (r *repository) GetSaleByID(ctx context.Context, id string) (*model.Sale, error) {
	query := `SELECT ` + saleColumns + saleJoins + ` WHERE r.id = $1`
	row := r.db.QueryRowContext(ctx, query, id)

	var sale model.Sale
	if err := row.Scan(
		&sale.ID, &sale.StudentID, &sale.EventID, &sale.MemberID,
		&sale.PaymentMethod, &sale.TransactionID, &sale.AmountPaid, &sale.RegisteredAt,
		&sale.StudentName, &sale.StudentPhone, &sale.EventTitle, &sale.MemberName,
	); err != nil {
		return nil, classify(err)
	}
	return &sale, nil
}

// listSalesQuery branches on the filter instead of folding both cases
// into one statement. member_id is a uuid column; a combined form that
// first compares $1 against an empty string pins $1 to text, and the
// statement then fails to prepare (no uuid = text operator). Compared
// against the column alone, $1 is inferred as uuid.
func listSalesQuery(memberID string) (string, []any) {
	query := `SELECT ` + saleColumns + saleJoins
	var args []any
	if memberID != "" {
		query += ` WHERE r.member_id = $1`
		args = append(args, memberID)
	}
	query += ` ORDER BY r.registered_at DESC`
	return query, args
}

// ListSales returns all sales when memberID is empty, otherwise only the
// member's own.
func (r *repository) ListSales(ctx context.Context, memberID string) ([]model.Sale, error) {
	query, args := listSalesQuery(memberID)
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list sales: %w", err)
	}
	defer rows.Close()

	var sales []model.Sale
	for rows.Next() {
		var sale model.Sale
		if err := rows.Scan(
			&sale.ID, &sale.StudentID, &sale.EventID, &sale.MemberID,
			&sale.PaymentMethod, &sale.TransactionID, &sale.AmountPaid, &sale.RegisteredAt,
			&sale.StudentName, &sale.StudentPhone, &sale.EventTitle, &sale.MemberName,
		); err != nil {
			return nil, fmt.Errorf("failed to scan sale: %w", err)
		}
		sales = append(sales, sale)
	}
	return sales, rows.Err()
}

// UpdateRegistrationTx rewrites a registration's mutable fields and the
// associated student's contact fields as one transaction.
func (r *repository) UpdateRegistrationTx(ctx context.Context, reg *model.Registration, student *model.Student) error {
	tx, err := r.db.Master.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	regQuery := `
		UPDATE registrations
		SET event_id = $1, payment_method = $2, transaction_id = NULLIF($3, ''), amount_paid = $4
		WHERE id = $5
		RETURNING id
	`
	var id string
	if err := tx.QueryRowContext(ctx, regQuery,
		reg.EventID, reg.PaymentMethod, reg.TransactionID, reg.AmountPaid, reg.ID,
	).Scan(&id); err != nil {
		_ = tx.Rollback()
		return classify(err)
	}

	studentQuery := `
		UPDATE students
		SET name = $1, phone = $2, email = $3, updated_at = NOW()
		WHERE id = $4
	`
	if _, err := tx.ExecContext(ctx, studentQuery,
		student.Name, student.Phone, student.Email, student.ID,
	); err != nil {
		_ = tx.Rollback()
		return classify(err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit registration update: %w", err)
	}
	return nil
}

func (r *repository) DeleteRegistration(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM registrations WHERE id = $1`, id)
	if err != nil {
		return classify(err)
	}
	return noneAffected(res)
}
