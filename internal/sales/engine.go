package sales

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"eventsales/internal/model"
	"eventsales/internal/repo"
	"eventsales/pkg/validator"
)

// Student lookup profiles. Which one is active is a deployment choice
// (config portal.student_key); the two are never mixed in one install.
const (
	KeyPhone       = "phone"
	KeyStudentCode = "student_code"
)

// RegisterInput is one student plus a batch of event selections.
type RegisterInput struct {
	Name          string
	Phone         string
	Email         string
	StudentCode   string
	EventIDs      []string
	PaymentMethod string
	TransactionID string
}

// UpdateInput rewrites one registration and the student's contacts.
type UpdateInput struct {
	Name          string
	Phone         string
	Email         string
	EventID       string
	PaymentMethod string
	TransactionID string
}

// Result reports batch-level partial success and carries what the
// receipt pipeline needs.
type Result struct {
	Created     int
	Skipped     int
	Student     model.Student
	EventTitles []string
	Total       float64
	Payment     string
}

// Engine owns the registration write path: student upsert, authoritative
// pricing, duplicate suppression, batch insert. It reads events/students/
// members and writes students and registrations only.
type Engine struct {
	repo       repo.Repository
	log        *zerolog.Logger
	studentKey string
}

func NewEngine(r repo.Repository, log *zerolog.Logger, studentKey string) *Engine {
	if studentKey != KeyStudentCode {
		studentKey = KeyPhone
	}
	return &Engine{repo: r, log: log, studentKey: studentKey}
}

// RegisterBatch registers one student for a set of events. Costs come
// from the stored events, never from the caller. Events the student
// already holds are skipped; a batch of nothing but duplicates fails
// with ErrAllRegistered. A uniqueness race during the insert fails the
// whole batch with ErrConflict and commits nothing.
func (e *Engine) RegisterBatch(ctx context.Context, actor model.Identity, in RegisterInput) (Result, error) {
	if err := e.checkRegisterInput(&in); err != nil {
		return Result{}, err
	}

	eventIDs := normalizeIDs(in.EventIDs)

	events, err := e.repo.GetEventsByIDs(ctx, eventIDs)
	if err != nil {
		return Result{}, err
	}
	for _, id := range eventIDs {
		if _, ok := events[id]; !ok {
			return Result{}, ErrEventNotFound
		}
	}

	student, err := e.upsertStudent(ctx, in)
	if err != nil {
		return Result{}, err
	}

	existing, err := e.repo.RegisteredEventIDs(ctx, student.ID, eventIDs)
	if err != nil {
		return Result{}, err
	}
	registered := make(map[string]bool, len(existing))
	for _, id := range existing {
		registered[id] = true
	}

	var toCreate []string
	for _, id := range eventIDs {
		if !registered[id] {
			toCreate = append(toCreate, id)
		}
	}
	if len(toCreate) == 0 {
		return Result{}, ErrAllRegistered
	}

	regs := make([]model.Registration, 0, len(toCreate))
	titles := make([]string, 0, len(toCreate))
	var total float64
	for _, id := range toCreate {
		ev := events[id]
		regs = append(regs, model.Registration{
			ID:            uuid.NewString(),
			StudentID:     student.ID,
			EventID:       ev.ID,
			MemberID:      actor.ID,
			PaymentMethod: in.PaymentMethod,
			TransactionID: in.TransactionID,
			AmountPaid:    ev.Cost,
		})
		titles = append(titles, ev.Title)
		total += ev.Cost
	}

	if err := e.repo.InsertRegistrationsTx(ctx, regs); err != nil {
		if errors.Is(err, repo.ErrUniqueViolation) {
			// Lost the check-then-act race against a concurrent request.
			// The unique constraint is the final arbiter; report the
			// whole batch as conflicted.
			return Result{}, ErrConflict
		}
		return Result{}, err
	}

	e.log.Info().
		Str("student_id", student.ID).
		Str("member_id", actor.ID).
		Int("created", len(toCreate)).
		Int("skipped", len(existing)).
		Msg("registration batch written")

	return Result{
		Created:     len(toCreate),
		Skipped:     len(existing),
		Student:     *student,
		EventTitles: titles,
		Total:       total,
		Payment:     in.PaymentMethod,
	}, nil
}

// Update rewrites a registration. The event cost is re-read from the
// events table; a client-supplied amount is never trusted on edit
// either. Requires ownership or admin.
func (e *Engine) Update(ctx context.Context, actor model.Identity, saleID string, in UpdateInput) error {
	if !validator.IsIdentifier(saleID) {
		return validationErr("sale id is not a valid identifier")
	}
	if err := e.checkContactFields(in.Name, in.Phone, in.Email); err != nil {
		return err
	}
	if !validator.IsIdentifier(in.EventID) {
		return validationErr("event id is not a valid identifier")
	}
	if err := checkPayment(in.PaymentMethod, in.TransactionID); err != nil {
		return err
	}
	if in.PaymentMethod == model.PaymentCash {
		in.TransactionID = ""
	}

	sale, err := e.repo.GetSaleByID(ctx, saleID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	if !CanMutate(actor, sale.MemberID) {
		return ErrForbidden
	}

	eventID := strings.ToLower(in.EventID)
	events, err := e.repo.GetEventsByIDs(ctx, []string{eventID})
	if err != nil {
		return err
	}
	ev, ok := events[eventID]
	if !ok {
		return ErrEventNotFound
	}

	if eventID != sale.EventID {
		existing, err := e.repo.RegisteredEventIDs(ctx, sale.StudentID, []string{eventID})
		if err != nil {
			return err
		}
		if len(existing) > 0 {
			return ErrConflict
		}
	}

	reg := model.Registration{
		ID:            sale.ID,
		EventID:       ev.ID,
		PaymentMethod: in.PaymentMethod,
		TransactionID: in.TransactionID,
		AmountPaid:    ev.Cost,
	}
	student := model.Student{
		ID:    sale.StudentID,
		Name:  validator.Sanitize(in.Name),
		Phone: in.Phone,
		Email: in.Email,
	}
	if err := e.repo.UpdateRegistrationTx(ctx, &reg, &student); err != nil {
		if errors.Is(err, repo.ErrUniqueViolation) {
			return ErrConflict
		}
		if errors.Is(err, repo.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

// Delete removes a registration. Requires ownership or admin.
func (e *Engine) Delete(ctx context.Context, actor model.Identity, saleID string) error {
	if !validator.IsIdentifier(saleID) {
		return validationErr("sale id is not a valid identifier")
	}
	sale, err := e.repo.GetSaleByID(ctx, saleID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	if !CanMutate(actor, sale.MemberID) {
		return ErrForbidden
	}
	err = e.repo.DeleteRegistration(ctx, saleID)
	if errors.Is(err, repo.ErrNotFound) {
		return ErrNotFound
	}
	return err
}

func (e *Engine) checkRegisterInput(in *RegisterInput) error {
	if err := e.checkContactFields(in.Name, in.Phone, in.Email); err != nil {
		return err
	}
	if e.studentKey == KeyStudentCode && strings.TrimSpace(in.StudentCode) == "" {
		return validationErr("student_code is required")
	}
	if len(in.EventIDs) == 0 {
		return validationErr("event_ids must not be empty")
	}
	for _, id := range in.EventIDs {
		if !validator.IsIdentifier(id) {
			return validationErr("event id %q is not a valid identifier", id)
		}
	}
	if err := checkPayment(in.PaymentMethod, in.TransactionID); err != nil {
		return err
	}
	if in.PaymentMethod == model.PaymentCash {
		in.TransactionID = ""
	}
	in.Name = validator.Sanitize(in.Name)
	in.StudentCode = validator.Sanitize(in.StudentCode)
	return nil
}

func (e *Engine) checkContactFields(name, phone, email string) error {
	if strings.TrimSpace(name) == "" {
		return validationErr("name is required")
	}
	if !validator.IsPhone(phone) {
		return validationErr("phone must be exactly 10 digits")
	}
	if !validator.IsEmail(email) {
		return validationErr("email is not valid")
	}
	return nil
}

func checkPayment(method, transactionID string) error {
	switch method {
	case model.PaymentCash:
		return nil
	case model.PaymentUPI:
		if strings.TrimSpace(transactionID) == "" {
			return validationErr("transaction_id is required for upi payments")
		}
		return nil
	default:
		return validationErr("payment_method must be cash or upi")
	}
}

// upsertStudent resolves the student by the configured natural key.
// Found: last-write-wins on the contact fields. Absent: create. The
// find-or-create pair is not atomic; a collision in the window surfaces
// as ErrConflict for the caller to resubmit.
func (e *Engine) upsertStudent(ctx context.Context, in RegisterInput) (*model.Student, error) {
	var (
		student *model.Student
		err     error
	)
	if e.studentKey == KeyStudentCode {
		student, err = e.repo.FindStudentByCode(ctx, in.StudentCode)
	} else {
		student, err = e.repo.FindStudentByPhone(ctx, in.Phone)
	}

	switch {
	case err == nil:
		student.Name = in.Name
		student.Phone = in.Phone
		student.Email = in.Email
		if in.StudentCode != "" {
			student.StudentCode = in.StudentCode
		}
		if err := e.repo.UpdateStudent(ctx, student); err != nil {
			if errors.Is(err, repo.ErrUniqueViolation) {
				return nil, ErrConflict
			}
			return nil, err
		}
		return student, nil

	case errors.Is(err, repo.ErrNotFound):
		student = &model.Student{
			ID:          uuid.NewString(),
			StudentCode: in.StudentCode,
			Name:        in.Name,
			Phone:       in.Phone,
			Email:       in.Email,
		}
		if err := e.repo.CreateStudent(ctx, student); err != nil {
			if errors.Is(err, repo.ErrUniqueViolation) {
				return nil, ErrConflict
			}
			return nil, err
		}
		return student, nil

	default:
		return nil, err
	}
}

// normalizeIDs lowercases and deduplicates while keeping request order.
func normalizeIDs(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.ToLower(id)
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
