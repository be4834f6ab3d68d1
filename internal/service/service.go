package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/wb-go/wbf/ginext"

	"eventsales/internal/auth"
	"eventsales/internal/dto"
	"eventsales/internal/metrics"
	"eventsales/internal/model"
	"eventsales/internal/rabbit"
	"eventsales/internal/repo"
	"eventsales/internal/sales"
	"eventsales/internal/session"
	"eventsales/pkg/validator"
)

type Service interface {
	Login(ctx *ginext.Context)
	Logout(ctx *ginext.Context)
	GetEvents(ctx *ginext.Context)
	Register(ctx *ginext.Context)
	GetSales(ctx *ginext.Context)
	UpdateSale(ctx *ginext.Context)
	DeleteSale(ctx *ginext.Context)

	CreateEvent(ctx *ginext.Context)
	UpdateEvent(ctx *ginext.Context)
	DeleteEvent(ctx *ginext.Context)
	ListMembers(ctx *ginext.Context)
	CreateMember(ctx *ginext.Context)
	UpdateMember(ctx *ginext.Context)
	DeleteMember(ctx *ginext.Context)
	ListStudents(ctx *ginext.Context)
	UpdateStudent(ctx *ginext.Context)
}

type service struct {
	repo     repo.Repository
	engine   *sales.Engine
	sessions *session.Store
	metrics  *metrics.Metrics
	log      *zerolog.Logger
	rbt      *rabbit.Client
}

func NewService(r repo.Repository, engine *sales.Engine, sessions *session.Store, m *metrics.Metrics, logger *zerolog.Logger, rbt *rabbit.Client) Service {
	return &service{
		repo:     r,
		engine:   engine,
		sessions: sessions,
		metrics:  m,
		log:      logger,
		rbt:      rbt,
	}
}

func (s *service) Login(ctx *ginext.Context) {
	var req dto.LoginRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, "Invalid JSON format")
		return
	}
	if verr := validator.Validate(ctx, req); verr != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, fmt.Sprintf("%v", verr))
		return
	}

	member, err := s.repo.GetMemberByEmail(ctx.Request.Context(), req.Email)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			dto.UnauthorizedError(ctx)
			return
		}
		s.log.Error().Err(err).Msg("failed to look up member for login")
		dto.InternalServerError(ctx)
		return
	}
	if !auth.CheckPassword(member.PasswordHash, req.Password) {
		dto.UnauthorizedError(ctx)
		return
	}

	token := s.sessions.Create(model.Identity{
		ID:    member.ID,
		Name:  member.Name,
		Email: member.Email,
		Role:  member.Role,
	})
	s.metrics.Logins.Inc()
	s.log.Info().Str("member_id", member.ID).Msg("member logged in")

	dto.SuccessResponse(ctx, dto.LoginResponse{
		Token: token,
		Name:  member.Name,
		Role:  member.Role,
	})
}

func (s *service) Logout(ctx *ginext.Context) {
	if token := ctx.GetHeader(session.HeaderName); token != "" {
		s.sessions.Revoke(token)
	}
	dto.SuccessResponse(ctx, map[string]bool{"ok": true})
}

func (s *service) GetEvents(ctx *ginext.Context) {
	events, err := s.repo.ListEvents(ctx.Request.Context())
	if err != nil {
		s.log.Error().Err(err).Msg("failed to list events")
		dto.InternalServerError(ctx)
		return
	}

	resp := make([]dto.EventResponse, 0, len(events))
	for _, e := range events {
		resp = append(resp, dto.EventResponse{ID: e.ID, Title: e.Title, Cost: e.Cost})
	}
	dto.SuccessResponse(ctx, resp)
}

func (s *service) Register(ctx *ginext.Context) {
	identity, ok := session.FromContext(ctx)
	if !ok {
		dto.UnauthorizedError(ctx)
		return
	}

	var req dto.RegisterRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, "Invalid JSON format")
		return
	}
	if verr := validator.Validate(ctx, req); verr != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, fmt.Sprintf("%v", verr))
		return
	}

	result, err := s.engine.RegisterBatch(ctx.Request.Context(), identity, sales.RegisterInput{
		Name:          req.Name,
		Phone:         req.Phone,
		Email:         req.Email,
		StudentCode:   req.StudentCode,
		EventIDs:      req.EventIDs,
		PaymentMethod: req.PaymentMethod,
		TransactionID: req.TransactionID,
	})
	if err != nil {
		s.respondEngineError(ctx, err)
		return
	}

	s.metrics.RegistrationsCreated.Add(float64(result.Created))
	s.metrics.RegistrationsSkipped.Add(float64(result.Skipped))
	s.publishReceipt(result)

	dto.SuccessCreatedResponse(ctx, dto.RegisterResponse{
		OK:      true,
		Count:   result.Created,
		Skipped: result.Skipped,
	})
}

func (s *service) GetSales(ctx *ginext.Context) {
	identity, ok := session.FromContext(ctx)
	if !ok {
		dto.UnauthorizedError(ctx)
		return
	}

	memberFilter := identity.ID
	if identity.IsAdmin() {
		memberFilter = ""
	}

	salesList, err := s.repo.ListSales(ctx.Request.Context(), memberFilter)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to list sales")
		dto.InternalServerError(ctx)
		return
	}

	resp := make([]dto.SaleResponse, 0, len(salesList))
	for _, sale := range salesList {
		resp = append(resp, saleToResponse(sale))
	}
	dto.SuccessResponse(ctx, resp)
}

func (s *service) UpdateSale(ctx *ginext.Context) {
	identity, ok := session.FromContext(ctx)
	if !ok {
		dto.UnauthorizedError(ctx)
		return
	}

	var req dto.UpdateSaleRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, "Invalid JSON format")
		return
	}
	if verr := validator.Validate(ctx, req); verr != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, fmt.Sprintf("%v", verr))
		return
	}

	err := s.engine.Update(ctx.Request.Context(), identity, ctx.Param("id"), sales.UpdateInput{
		Name:          req.Name,
		Phone:         req.Phone,
		Email:         req.Email,
		EventID:       req.EventID,
		PaymentMethod: req.PaymentMethod,
		TransactionID: req.TransactionID,
	})
	if err != nil {
		s.respondEngineError(ctx, err)
		return
	}
	dto.SuccessResponse(ctx, map[string]bool{"ok": true})
}

func (s *service) DeleteSale(ctx *ginext.Context) {
	identity, ok := session.FromContext(ctx)
	if !ok {
		dto.UnauthorizedError(ctx)
		return
	}

	if err := s.engine.Delete(ctx.Request.Context(), identity, ctx.Param("id")); err != nil {
		s.respondEngineError(ctx, err)
		return
	}
	dto.SuccessResponse(ctx, map[string]bool{"ok": true})
}

func (s *service) respondEngineError(ctx *ginext.Context, err error) {
	switch {
	case errors.Is(err, sales.ErrValidation):
		dto.BadResponseError(ctx, dto.FieldIncorrect, err.Error())
	case errors.Is(err, sales.ErrEventNotFound):
		dto.EventNotFoundError(ctx)
	case errors.Is(err, sales.ErrNotFound):
		dto.RegistrationNotFoundError(ctx)
	case errors.Is(err, sales.ErrAllRegistered):
		dto.RegistrationDuplicateError(ctx)
	case errors.Is(err, sales.ErrConflict):
		dto.ConflictError(ctx, dto.ConflictCode, "A conflicting record already exists; please reload and retry")
	case errors.Is(err, sales.ErrForbidden):
		dto.ForbiddenError(ctx)
	default:
		s.log.Error().Err(err).Msg("registration engine failure")
		dto.InternalServerError(ctx)
	}
}

// publishReceipt hands the receipt to the mail worker. Failures are
// logged only; the registration is already committed and the HTTP
// response must not depend on the broker.
func (s *service) publishReceipt(result sales.Result) {
	if s.rbt == nil {
		return
	}
	msg := dto.ReceiptMessage{
		StudentName:  result.Student.Name,
		StudentEmail: result.Student.Email,
		EventTitles:  result.EventTitles,
		Total:        result.Total,
		Payment:      result.Payment,
		RegisteredAt: time.Now(),
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to marshal receipt message")
		return
	}
	if err := s.rbt.Publish(payload); err != nil {
		s.log.Error().Err(err).Msg("failed to publish receipt message")
	}
}

func saleToResponse(sale model.Sale) dto.SaleResponse {
	return dto.SaleResponse{
		ID: sale.ID,
		Student: dto.Summary{
			ID:    sale.StudentID,
			Name:  sale.StudentName,
			Extra: sale.StudentPhone,
		},
		Event: dto.Summary{
			ID:   sale.EventID,
			Name: sale.EventTitle,
		},
		Member: dto.Summary{
			ID:   sale.MemberID,
			Name: sale.MemberName,
		},
		PaymentMethod: sale.PaymentMethod,
		TransactionID: sale.TransactionID,
		AmountPaid:    sale.AmountPaid,
		RegisteredAt:  sale.RegisteredAt,
	}
}
