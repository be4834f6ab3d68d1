package sales

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventsales/internal/model"
	"eventsales/internal/repo"
)

const (
	evConcertID  = "11111111-1111-1111-1111-111111111111"
	evWorkshopID = "22222222-2222-2222-2222-222222222222"
	evMissingID  = "33333333-3333-3333-3333-333333333333"
)

// fakeRepo satisfies repo.Repository for the methods the engine touches;
// anything else panics via the embedded nil interface.
type fakeRepo struct {
	repo.Repository

	events     map[string]model.Event
	students   []*model.Student
	registered map[string][]string // studentID -> eventIDs
	sales      map[string]*model.Sale

	inserted    []model.Registration
	updatedRegs []model.Registration
	updatedStu  []model.Student
	deleted     []string

	createStudentErr error
	updateStudentErr error
	insertErr        error
	updateRegErr     error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		events: map[string]model.Event{
			evConcertID:  {ID: evConcertID, Title: "Annual Concert", Cost: 250},
			evWorkshopID: {ID: evWorkshopID, Title: "Robotics Workshop", Cost: 400},
		},
		registered: map[string][]string{},
		sales:      map[string]*model.Sale{},
	}
}

func (f *fakeRepo) GetEventsByIDs(_ context.Context, ids []string) (map[string]model.Event, error) {
	out := make(map[string]model.Event)
	for _, id := range ids {
		if ev, ok := f.events[id]; ok {
			out[id] = ev
		}
	}
	return out, nil
}

func (f *fakeRepo) FindStudentByPhone(_ context.Context, phone string) (*model.Student, error) {
	for _, s := range f.students {
		if s.Phone == phone {
			cp := *s
			return &cp, nil
		}
	}
	return nil, repo.ErrNotFound
}

func (f *fakeRepo) FindStudentByCode(_ context.Context, code string) (*model.Student, error) {
	for _, s := range f.students {
		if s.StudentCode == code {
			cp := *s
			return &cp, nil
		}
	}
	return nil, repo.ErrNotFound
}

func (f *fakeRepo) CreateStudent(_ context.Context, s *model.Student) error {
	if f.createStudentErr != nil {
		return f.createStudentErr
	}
	cp := *s
	f.students = append(f.students, &cp)
	return nil
}

func (f *fakeRepo) UpdateStudent(_ context.Context, s *model.Student) error {
	if f.updateStudentErr != nil {
		return f.updateStudentErr
	}
	f.updatedStu = append(f.updatedStu, *s)
	for i, existing := range f.students {
		if existing.ID == s.ID {
			cp := *s
			f.students[i] = &cp
		}
	}
	return nil
}

func (f *fakeRepo) RegisteredEventIDs(_ context.Context, studentID string, eventIDs []string) ([]string, error) {
	var out []string
	for _, have := range f.registered[studentID] {
		for _, want := range eventIDs {
			if have == want {
				out = append(out, have)
			}
		}
	}
	return out, nil
}

func (f *fakeRepo) InsertRegistrationsTx(_ context.Context, regs []model.Registration) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.inserted = append(f.inserted, regs...)
	for _, r := range regs {
		f.registered[r.StudentID] = append(f.registered[r.StudentID], r.EventID)
	}
	return nil
}

func (f *fakeRepo) GetSaleByID(_ context.Context, id string) (*model.Sale, error) {
	sale, ok := f.sales[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	cp := *sale
	return &cp, nil
}

func (f *fakeRepo) UpdateRegistrationTx(_ context.Context, reg *model.Registration, student *model.Student) error {
	if f.updateRegErr != nil {
		return f.updateRegErr
	}
	f.updatedRegs = append(f.updatedRegs, *reg)
	f.updatedStu = append(f.updatedStu, *student)
	return nil
}

func (f *fakeRepo) DeleteRegistration(_ context.Context, id string) error {
	if _, ok := f.sales[id]; !ok {
		return repo.ErrNotFound
	}
	delete(f.sales, id)
	f.deleted = append(f.deleted, id)
	return nil
}

func newTestEngine(f *fakeRepo, key string) *Engine {
	log := zerolog.Nop()
	return NewEngine(f, &log, key)
}

func member() model.Identity {
	return model.Identity{ID: "aaaaaaaa-0000-0000-0000-000000000001", Name: "Priya", Role: model.RoleMember}
}

func validInput() RegisterInput {
	return RegisterInput{
		Name:          "Rahul Kumar",
		Phone:         "9876543210",
		Email:         "rahul@example.com",
		EventIDs:      []string{evConcertID, evWorkshopID},
		PaymentMethod: model.PaymentCash,
	}
}

func TestRegisterBatchValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*RegisterInput)
	}{
		{"missing name", func(in *RegisterInput) { in.Name = "  " }},
		{"short phone", func(in *RegisterInput) { in.Phone = "12345" }},
		{"bad email", func(in *RegisterInput) { in.Email = "not-an-email" }},
		{"no events", func(in *RegisterInput) { in.EventIDs = nil }},
		{"malformed event id", func(in *RegisterInput) { in.EventIDs = []string{"not-a-uuid"} }},
		{"bad payment method", func(in *RegisterInput) { in.PaymentMethod = "card" }},
		{"upi without transaction id", func(in *RegisterInput) {
			in.PaymentMethod = model.PaymentUPI
			in.TransactionID = ""
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFakeRepo()
			e := newTestEngine(f, KeyPhone)

			in := validInput()
			tt.mutate(&in)

			_, err := e.RegisterBatch(t.Context(), member(), in)
			require.ErrorIs(t, err, ErrValidation)
			assert.Empty(t, f.inserted, "validation failures must not reach persistence")
			assert.Empty(t, f.students)
		})
	}
}

func TestRegisterBatchMissingEventFailsWhole(t *testing.T) {
	f := newFakeRepo()
	e := newTestEngine(f, KeyPhone)

	in := validInput()
	in.EventIDs = []string{evConcertID, evMissingID}

	_, err := e.RegisterBatch(t.Context(), member(), in)
	require.ErrorIs(t, err, ErrEventNotFound)
	assert.Empty(t, f.inserted)
	assert.Empty(t, f.students, "student must not be upserted when an event is missing")
}

func TestRegisterBatchCreatesStudentAndPricesFromEvents(t *testing.T) {
	f := newFakeRepo()
	e := newTestEngine(f, KeyPhone)

	res, err := e.RegisterBatch(t.Context(), member(), validInput())
	require.NoError(t, err)

	assert.Equal(t, 2, res.Created)
	assert.Equal(t, 0, res.Skipped)
	assert.InDelta(t, 650, res.Total, 0.001)
	assert.ElementsMatch(t, []string{"Annual Concert", "Robotics Workshop"}, res.EventTitles)

	require.Len(t, f.students, 1)
	assert.Equal(t, "Rahul Kumar", f.students[0].Name)

	require.Len(t, f.inserted, 2)
	for _, reg := range f.inserted {
		assert.Equal(t, member().ID, reg.MemberID)
		assert.Equal(t, f.events[reg.EventID].Cost, reg.AmountPaid,
			"amount_paid must come from the stored event cost")
		assert.NotEmpty(t, reg.ID)
	}
}

func TestRegisterBatchUpdatesExistingStudent(t *testing.T) {
	f := newFakeRepo()
	f.students = append(f.students, &model.Student{
		ID: "bbbbbbbb-0000-0000-0000-000000000001", Name: "Old Name",
		Phone: "9876543210", Email: "old@example.com",
	})
	e := newTestEngine(f, KeyPhone)

	_, err := e.RegisterBatch(t.Context(), member(), validInput())
	require.NoError(t, err)

	require.Len(t, f.updatedStu, 1)
	assert.Equal(t, "Rahul Kumar", f.updatedStu[0].Name, "last write wins on contact fields")
	assert.Equal(t, "rahul@example.com", f.updatedStu[0].Email)
	require.Len(t, f.inserted, 2)
	assert.Equal(t, "bbbbbbbb-0000-0000-0000-000000000001", f.inserted[0].StudentID)
}

func TestRegisterBatchSkipsAlreadyRegistered(t *testing.T) {
	f := newFakeRepo()
	studentID := "bbbbbbbb-0000-0000-0000-000000000001"
	f.students = append(f.students, &model.Student{ID: studentID, Name: "R", Phone: "9876543210", Email: "r@x.com"})
	f.registered[studentID] = []string{evConcertID}
	e := newTestEngine(f, KeyPhone)

	res, err := e.RegisterBatch(t.Context(), member(), validInput())
	require.NoError(t, err)

	assert.Equal(t, 1, res.Created)
	assert.Equal(t, 1, res.Skipped)
	require.Len(t, f.inserted, 1)
	assert.Equal(t, evWorkshopID, f.inserted[0].EventID)
	assert.InDelta(t, 400, res.Total, 0.001, "total covers only the newly created rows")
}

func TestRegisterBatchAllDuplicatesRejected(t *testing.T) {
	f := newFakeRepo()
	studentID := "bbbbbbbb-0000-0000-0000-000000000001"
	f.students = append(f.students, &model.Student{ID: studentID, Name: "R", Phone: "9876543210", Email: "r@x.com"})
	f.registered[studentID] = []string{evConcertID, evWorkshopID}
	e := newTestEngine(f, KeyPhone)

	_, err := e.RegisterBatch(t.Context(), member(), validInput())
	require.ErrorIs(t, err, ErrAllRegistered)
	assert.Empty(t, f.inserted, "no rows may be written for an all-duplicate batch")
}

func TestRegisterBatchDeduplicatesRequestIDs(t *testing.T) {
	f := newFakeRepo()
	e := newTestEngine(f, KeyPhone)

	in := validInput()
	in.EventIDs = []string{evConcertID, strings.ToUpper(evConcertID)}

	res, err := e.RegisterBatch(t.Context(), member(), in)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Created)
	require.Len(t, f.inserted, 1)
}

func TestRegisterBatchInsertRaceIsConflict(t *testing.T) {
	f := newFakeRepo()
	f.insertErr = fmt.Errorf("%w: registrations_student_event_key", repo.ErrUniqueViolation)
	e := newTestEngine(f, KeyPhone)

	_, err := e.RegisterBatch(t.Context(), member(), validInput())
	require.ErrorIs(t, err, ErrConflict)
}

func TestRegisterBatchStudentCollisionIsConflict(t *testing.T) {
	f := newFakeRepo()
	f.createStudentErr = fmt.Errorf("%w: students_email_key", repo.ErrUniqueViolation)
	e := newTestEngine(f, KeyPhone)

	_, err := e.RegisterBatch(t.Context(), member(), validInput())
	require.ErrorIs(t, err, ErrConflict)
	assert.Empty(t, f.inserted)
}

func TestRegisterBatchStudentCodeProfile(t *testing.T) {
	f := newFakeRepo()
	e := newTestEngine(f, KeyStudentCode)

	in := validInput()
	_, err := e.RegisterBatch(t.Context(), member(), in)
	require.ErrorIs(t, err, ErrValidation, "student_code profile requires the code")

	in.StudentCode = "STU-042"
	res, err := e.RegisterBatch(t.Context(), member(), in)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Created)
	require.Len(t, f.students, 1)
	assert.Equal(t, "STU-042", f.students[0].StudentCode)

	// Same code, new phone: resolved by code, contacts rewritten.
	in.Phone = "9000000000"
	in.EventIDs = []string{evConcertID}
	_, err = e.RegisterBatch(t.Context(), member(), in)
	require.ErrorIs(t, err, ErrAllRegistered)
}

func saleFixture(owner string) *model.Sale {
	return &model.Sale{
		Registration: model.Registration{
			ID:            "cccccccc-0000-0000-0000-000000000001",
			StudentID:     "bbbbbbbb-0000-0000-0000-000000000001",
			EventID:       evConcertID,
			MemberID:      owner,
			PaymentMethod: model.PaymentCash,
			AmountPaid:    250,
		},
		StudentName: "Rahul Kumar",
		EventTitle:  "Annual Concert",
	}
}

func validUpdate() UpdateInput {
	return UpdateInput{
		Name:          "Rahul Kumar",
		Phone:         "9876543210",
		Email:         "rahul@example.com",
		EventID:       evWorkshopID,
		PaymentMethod: model.PaymentUPI,
		TransactionID: "TXN-9000",
	}
}

func TestUpdateForbiddenForNonOwner(t *testing.T) {
	f := newFakeRepo()
	sale := saleFixture("aaaaaaaa-0000-0000-0000-000000000099")
	f.sales[sale.ID] = sale
	e := newTestEngine(f, KeyPhone)

	err := e.Update(t.Context(), member(), sale.ID, validUpdate())
	require.ErrorIs(t, err, ErrForbidden)
	assert.Empty(t, f.updatedRegs, "record must be unchanged")
}

func TestUpdateRepricesFromEvent(t *testing.T) {
	f := newFakeRepo()
	sale := saleFixture(member().ID)
	f.sales[sale.ID] = sale
	e := newTestEngine(f, KeyPhone)

	err := e.Update(t.Context(), member(), sale.ID, validUpdate())
	require.NoError(t, err)

	require.Len(t, f.updatedRegs, 1)
	assert.Equal(t, evWorkshopID, f.updatedRegs[0].EventID)
	assert.InDelta(t, 400, f.updatedRegs[0].AmountPaid, 0.001,
		"edit must re-resolve cost from the event, never trust the client")
	require.Len(t, f.updatedStu, 1)
	assert.Equal(t, sale.StudentID, f.updatedStu[0].ID)
}

func TestUpdateAdminMayEditAnySale(t *testing.T) {
	f := newFakeRepo()
	sale := saleFixture("aaaaaaaa-0000-0000-0000-000000000099")
	f.sales[sale.ID] = sale
	e := newTestEngine(f, KeyPhone)

	admin := model.Identity{ID: "aaaaaaaa-0000-0000-0000-000000000002", Role: model.RoleAdmin}
	err := e.Update(t.Context(), admin, sale.ID, validUpdate())
	require.NoError(t, err)
}

func TestUpdateToAlreadyRegisteredEventIsConflict(t *testing.T) {
	f := newFakeRepo()
	sale := saleFixture(member().ID)
	f.sales[sale.ID] = sale
	f.registered[sale.StudentID] = []string{evConcertID, evWorkshopID}
	e := newTestEngine(f, KeyPhone)

	err := e.Update(t.Context(), member(), sale.ID, validUpdate())
	require.ErrorIs(t, err, ErrConflict)
	assert.Empty(t, f.updatedRegs)
}

func TestUpdateMissingSale(t *testing.T) {
	f := newFakeRepo()
	e := newTestEngine(f, KeyPhone)

	err := e.Update(t.Context(), member(), "cccccccc-0000-0000-0000-00000000dead", validUpdate())
	require.ErrorIs(t, err, ErrNotFound)
}

func TestDelete(t *testing.T) {
	f := newFakeRepo()
	sale := saleFixture(member().ID)
	f.sales[sale.ID] = sale
	e := newTestEngine(f, KeyPhone)

	t.Run("forbidden for non-owner", func(t *testing.T) {
		other := model.Identity{ID: "aaaaaaaa-0000-0000-0000-000000000077", Role: model.RoleMember}
		err := e.Delete(t.Context(), other, sale.ID)
		require.ErrorIs(t, err, ErrForbidden)
		assert.Empty(t, f.deleted)
	})

	t.Run("owner deletes", func(t *testing.T) {
		err := e.Delete(t.Context(), member(), sale.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{sale.ID}, f.deleted)
	})

	t.Run("gone afterwards", func(t *testing.T) {
		err := e.Delete(t.Context(), member(), sale.ID)
		require.ErrorIs(t, err, ErrNotFound)
	})
}
