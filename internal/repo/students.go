package repo

import (
	"context"
	"fmt"

	"eventsales/internal/model"
)

const studentColumns = `id, COALESCE(student_code, ''), name, phone, email, created_at, updated_at`

func (r *repository) GetStudentByID(ctx context.Context, id string) (*model.Student, error) {
	query := `SELECT ` + studentColumns + ` FROM students WHERE id = $1`
	return r.scanStudent(r.db.QueryRowContext(ctx, query, id))
}

func (r *repository) FindStudentByPhone(ctx context.Context, phone string) (*model.Student, error) {
	query := `SELECT ` + studentColumns + ` FROM students WHERE phone = $1`
	return r.scanStudent(r.db.QueryRowContext(ctx, query, phone))
}

func (r *repository) FindStudentByCode(ctx context.Context, code string) (*model.Student, error) {
	query := `SELECT ` + studentColumns + ` FROM students WHERE student_code = $1`
	return r.scanStudent(r.db.QueryRowContext(ctx, query, code))
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *repository) scanStudent(row rowScanner) (*model.Student, error) {
	var s model.Student
	if err := row.Scan(&s.ID, &s.StudentCode, &s.Name, &s.Phone, &s.Email, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, classify(err)
	}
	return &s, nil
}

func (r *repository) ListStudents(ctx context.Context) ([]model.Student, error) {
	query := `SELECT ` + studentColumns + ` FROM students ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list students: %w", err)
	}
	defer rows.Close()

	var students []model.Student
	for rows.Next() {
		var s model.Student
		if err := rows.Scan(&s.ID, &s.StudentCode, &s.Name, &s.Phone, &s.Email, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan student: %w", err)
		}
		students = append(students, s)
	}
	return students, rows.Err()
}

func (r *repository) CreateStudent(ctx context.Context, s *model.Student) error {
	query := `
		INSERT INTO students (id, student_code, name, phone, email, created_at, updated_at)
		VALUES ($1, NULLIF($2, ''), $3, $4, $5, NOW(), NOW())
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, query,
		s.ID, s.StudentCode, s.Name, s.Phone, s.Email,
	).Scan(&s.CreatedAt, &s.UpdatedAt)
	return classify(err)
}

func (r *repository) UpdateStudent(ctx context.Context, s *model.Student) error {
	query := `
		UPDATE students
		SET student_code = NULLIF($1, ''), name = $2, phone = $3, email = $4, updated_at = NOW()
		WHERE id = $5
		RETURNING updated_at
	`
	err := r.db.QueryRowContext(ctx, query,
		s.StudentCode, s.Name, s.Phone, s.Email, s.ID,
	).Scan(&s.UpdatedAt)
	return classify(err)
}
