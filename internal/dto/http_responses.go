package dto

import (
	"time"

	"github.com/wb-go/wbf/ginext"
)

const (
	FieldBadFormat     = "FIELD_BADFORMAT"
	FieldIncorrect     = "FIELD_INCORRECT"
	ServiceUnavailable = "SERVICE_UNAVAILABLE"
	InternalError      = "Service is currently unavailable. Please try again later."

	Unauthorized          = "UNAUTHORIZED"
	Forbidden             = "FORBIDDEN"
	EventNotFound         = "EVENT_NOT_FOUND"
	MemberNotFound        = "MEMBER_NOT_FOUND"
	StudentNotFound       = "STUDENT_NOT_FOUND"
	RegistrationNotFound  = "REGISTRATION_NOT_FOUND"
	RegistrationDuplicate = "REGISTRATION_DUPLICATE"
	ConflictCode          = "CONFLICT"
)

type LoginRequest struct {
	Email    string `json:"email" validate:"required,contact_email"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	Token string `json:"token"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

type RegisterRequest struct {
	Name          string   `json:"name" validate:"required,max=255"`
	Phone         string   `json:"phone" validate:"required,phone10"`
	Email         string   `json:"email" validate:"required,contact_email"`
	StudentCode   string   `json:"student_code,omitempty"`
	EventIDs      []string `json:"event_ids" validate:"required,min=1"`
	PaymentMethod string   `json:"payment_method" validate:"required,payment"`
	TransactionID string   `json:"transaction_id,omitempty"`
}

type RegisterResponse struct {
	OK      bool `json:"ok"`
	Count   int  `json:"count"`
	Skipped int  `json:"skipped"`
}

type UpdateSaleRequest struct {
	Name          string `json:"name" validate:"required,max=255"`
	Phone         string `json:"phone" validate:"required,phone10"`
	Email         string `json:"email" validate:"required,contact_email"`
	EventID       string `json:"event_id" validate:"required,identifier"`
	PaymentMethod string `json:"payment_method" validate:"required,payment"`
	TransactionID string `json:"transaction_id,omitempty"`
}

type SaleResponse struct {
	ID            string    `json:"id"`
	Student       Summary   `json:"student"`
	Event         Summary   `json:"event"`
	Member        Summary   `json:"member"`
	PaymentMethod string    `json:"payment_method"`
	TransactionID string    `json:"transaction_id,omitempty"`
	AmountPaid    float64   `json:"amount_paid"`
	RegisteredAt  time.Time `json:"registered_at"`
}

type Summary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Extra string `json:"extra,omitempty"`
}

type EventRequest struct {
	Title string  `json:"title" validate:"required,max=255"`
	Cost  float64 `json:"cost" validate:"gte=0"`
}

type EventResponse struct {
	ID    string  `json:"id"`
	Title string  `json:"title"`
	Cost  float64 `json:"cost"`
}

type MemberRequest struct {
	Name     string `json:"name" validate:"required,max=255"`
	Email    string `json:"email" validate:"required,contact_email"`
	Password string `json:"password,omitempty"`
	Role     string `json:"role" validate:"required,oneof=admin member"`
	Phone    string `json:"phone,omitempty"`
}

type UpdateStudentRequest struct {
	Name        string `json:"name" validate:"required,max=255"`
	Phone       string `json:"phone" validate:"required,phone10"`
	Email       string `json:"email" validate:"required,contact_email"`
	StudentCode string `json:"student_code,omitempty"`
}

// ReceiptMessage is what the register path publishes for the mail worker.
type ReceiptMessage struct {
	StudentName  string    `json:"student_name"`
	StudentEmail string    `json:"student_email"`
	EventTitles  []string  `json:"event_titles"`
	Total        float64   `json:"total"`
	Payment      string    `json:"payment"`
	RegisteredAt time.Time `json:"registered_at"`
}

type Response struct {
	Status string `json:"status"`
	Error  *Error `json:"error,omitempty"`
	Data   any    `json:"data,omitempty"`
}

type Error struct {
	Code string `json:"code"`
	Desc string `json:"desc"`
}

func BadResponseError(c *ginext.Context, code, desc string) {
	c.JSON(400, Response{
		Status: "error",
		Error:  &Error{Code: code, Desc: desc},
	})
}

func UnauthorizedError(c *ginext.Context) {
	c.JSON(401, Response{
		Status: "error",
		Error:  &Error{Code: Unauthorized, Desc: "Authentication required"},
	})
}

func ForbiddenError(c *ginext.Context) {
	c.JSON(403, Response{
		Status: "error",
		Error:  &Error{Code: Forbidden, Desc: "You cannot modify this record"},
	})
}

func NotFoundError(c *ginext.Context, code, desc string) {
	c.JSON(404, Response{
		Status: "error",
		Error:  &Error{Code: code, Desc: desc},
	})
}

// Conflicts ride the 400 envelope: callers treat them like validation
// failures and resubmit with corrected input.
func ConflictError(c *ginext.Context, code, desc string) {
	BadResponseError(c, code, desc)
}

func InternalServerError(c *ginext.Context) {
	c.JSON(500, Response{
		Status: "error",
		Error:  &Error{Code: ServiceUnavailable, Desc: InternalError},
	})
}

func EventNotFoundError(c *ginext.Context) {
	NotFoundError(c, EventNotFound, "Event not found")
}

func RegistrationNotFoundError(c *ginext.Context) {
	NotFoundError(c, RegistrationNotFound, "Registration not found")
}

func RegistrationDuplicateError(c *ginext.Context) {
	ConflictError(c, RegistrationDuplicate, "Student is already registered for every requested event")
}

func SuccessResponse(c *ginext.Context, data any) {
	c.JSON(200, Response{
		Status: "ok",
		Data:   data,
	})
}

func SuccessCreatedResponse(c *ginext.Context, data any) {
	c.JSON(201, Response{
		Status: "ok",
		Data:   data,
	})
}
