package model

import "time"

const (
	RoleAdmin  = "admin"
	RoleMember = "member"

	PaymentCash = "cash"
	PaymentUPI  = "upi"
)

type Member struct {
	ID           string    `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Role         string    `db:"role" json:"role"`
	Phone        string    `db:"phone,omitempty" json:"phone,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

type Student struct {
	ID          string    `db:"id" json:"id"`
	StudentCode string    `db:"student_code,omitempty" json:"student_code,omitempty"`
	Name        string    `db:"name" json:"name"`
	Phone       string    `db:"phone" json:"phone"`
	Email       string    `db:"email" json:"email"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

type Event struct {
	ID        string    `db:"id" json:"id"`
	Title     string    `db:"title" json:"title"`
	Cost      float64   `db:"cost" json:"cost"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

type Registration struct {
	ID            string    `db:"id" json:"id"`
	StudentID     string    `db:"student_id" json:"student_id"`
	EventID       string    `db:"event_id" json:"event_id"`
	MemberID      string    `db:"member_id" json:"member_id"`
	PaymentMethod string    `db:"payment_method" json:"payment_method"`
	TransactionID string    `db:"transaction_id,omitempty" json:"transaction_id,omitempty"`
	AmountPaid    float64   `db:"amount_paid" json:"amount_paid"`
	RegisteredAt  time.Time `db:"registered_at" json:"registered_at"`
}

// Identity is the session-bound snapshot of the acting member.
type Identity struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}

// Sale is a registration joined with the summaries the sales list shows.
type Sale struct {
	Registration
	StudentName  string `db:"student_name" json:"student_name"`
	StudentPhone string `db:"student_phone" json:"student_phone"`
	EventTitle   string `db:"event_title" json:"event_title"`
	MemberName   string `db:"member_name" json:"member_name"`
}
