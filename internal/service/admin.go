package service

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/wb-go/wbf/ginext"

	"eventsales/internal/auth"
	"eventsales/internal/dto"
	"eventsales/internal/model"
	"eventsales/internal/repo"
	"eventsales/internal/session"
	"eventsales/pkg/validator"
)

// Admin-only handlers. The router already gates these behind
// session.RequireAdmin; the handlers assume an admin identity.

func (s *service) CreateEvent(ctx *ginext.Context) {
	var req dto.EventRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, "Invalid JSON format")
		return
	}
	if verr := validator.Validate(ctx, req); verr != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, fmt.Sprintf("%v", verr))
		return
	}

	event := &model.Event{
		ID:    uuid.NewString(),
		Title: validator.Sanitize(req.Title),
		Cost:  req.Cost,
	}
	if err := s.repo.CreateEvent(ctx.Request.Context(), event); err != nil {
		s.log.Error().Err(err).Msg("failed to create event")
		dto.InternalServerError(ctx)
		return
	}

	s.log.Info().Str("event_id", event.ID).Msg("event created")
	dto.SuccessCreatedResponse(ctx, dto.EventResponse{ID: event.ID, Title: event.Title, Cost: event.Cost})
}

func (s *service) UpdateEvent(ctx *ginext.Context) {
	id := ctx.Param("id")
	if !validator.IsIdentifier(id) {
		dto.BadResponseError(ctx, dto.FieldBadFormat, "Invalid event ID")
		return
	}

	var req dto.EventRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, "Invalid JSON format")
		return
	}
	if verr := validator.Validate(ctx, req); verr != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, fmt.Sprintf("%v", verr))
		return
	}

	event := &model.Event{ID: id, Title: validator.Sanitize(req.Title), Cost: req.Cost}
	if err := s.repo.UpdateEvent(ctx.Request.Context(), event); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			dto.EventNotFoundError(ctx)
			return
		}
		s.log.Error().Err(err).Msg("failed to update event")
		dto.InternalServerError(ctx)
		return
	}
	dto.SuccessResponse(ctx, dto.EventResponse{ID: event.ID, Title: event.Title, Cost: event.Cost})
}

func (s *service) DeleteEvent(ctx *ginext.Context) {
	id := ctx.Param("id")
	if !validator.IsIdentifier(id) {
		dto.BadResponseError(ctx, dto.FieldBadFormat, "Invalid event ID")
		return
	}
	if err := s.repo.DeleteEvent(ctx.Request.Context(), id); err != nil {
		switch {
		case errors.Is(err, repo.ErrNotFound):
			dto.EventNotFoundError(ctx)
		case errors.Is(err, repo.ErrForeignKeyViolation):
			dto.ConflictError(ctx, dto.ConflictCode, "Event still has registrations; delete them first")
		default:
			s.log.Error().Err(err).Msg("failed to delete event")
			dto.InternalServerError(ctx)
		}
		return
	}
	dto.SuccessResponse(ctx, map[string]bool{"ok": true})
}

func (s *service) ListMembers(ctx *ginext.Context) {
	members, err := s.repo.ListMembers(ctx.Request.Context())
	if err != nil {
		s.log.Error().Err(err).Msg("failed to list members")
		dto.InternalServerError(ctx)
		return
	}
	dto.SuccessResponse(ctx, members)
}

func (s *service) CreateMember(ctx *ginext.Context) {
	var req dto.MemberRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, "Invalid JSON format")
		return
	}
	if verr := validator.Validate(ctx, req); verr != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, fmt.Sprintf("%v", verr))
		return
	}
	if req.Password == "" {
		dto.BadResponseError(ctx, dto.FieldIncorrect, "Password is required")
		return
	}
	if req.Phone != "" && !validator.IsPhone(req.Phone) {
		dto.BadResponseError(ctx, dto.FieldBadFormat, "Phone must be exactly 10 digits")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to hash password")
		dto.InternalServerError(ctx)
		return
	}

	member := &model.Member{
		ID:           uuid.NewString(),
		Name:         validator.Sanitize(req.Name),
		Email:        req.Email,
		PasswordHash: hash,
		Role:         req.Role,
		Phone:        req.Phone,
	}
	if err := s.repo.CreateMember(ctx.Request.Context(), member); err != nil {
		if errors.Is(err, repo.ErrUniqueViolation) {
			dto.ConflictError(ctx, dto.ConflictCode, "A member with this email or phone already exists")
			return
		}
		s.log.Error().Err(err).Msg("failed to create member")
		dto.InternalServerError(ctx)
		return
	}

	s.log.Info().Str("member_id", member.ID).Str("role", member.Role).Msg("member created")
	dto.SuccessCreatedResponse(ctx, member)
}

func (s *service) UpdateMember(ctx *ginext.Context) {
	id := ctx.Param("id")
	if !validator.IsIdentifier(id) {
		dto.BadResponseError(ctx, dto.FieldBadFormat, "Invalid member ID")
		return
	}

	var req dto.MemberRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, "Invalid JSON format")
		return
	}
	if verr := validator.Validate(ctx, req); verr != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, fmt.Sprintf("%v", verr))
		return
	}
	if req.Phone != "" && !validator.IsPhone(req.Phone) {
		dto.BadResponseError(ctx, dto.FieldBadFormat, "Phone must be exactly 10 digits")
		return
	}

	member, err := s.repo.GetMemberByID(ctx.Request.Context(), id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			dto.NotFoundError(ctx, dto.MemberNotFound, "Member not found")
			return
		}
		s.log.Error().Err(err).Msg("failed to load member")
		dto.InternalServerError(ctx)
		return
	}

	member.Name = validator.Sanitize(req.Name)
	member.Email = req.Email
	member.Role = req.Role
	member.Phone = req.Phone
	if req.Password != "" {
		hash, err := auth.HashPassword(req.Password)
		if err != nil {
			s.log.Error().Err(err).Msg("failed to hash password")
			dto.InternalServerError(ctx)
			return
		}
		member.PasswordHash = hash
	}

	if err := s.repo.UpdateMember(ctx.Request.Context(), member); err != nil {
		if errors.Is(err, repo.ErrUniqueViolation) {
			dto.ConflictError(ctx, dto.ConflictCode, "A member with this email or phone already exists")
			return
		}
		s.log.Error().Err(err).Msg("failed to update member")
		dto.InternalServerError(ctx)
		return
	}
	dto.SuccessResponse(ctx, member)
}

func (s *service) DeleteMember(ctx *ginext.Context) {
	id := ctx.Param("id")
	if !validator.IsIdentifier(id) {
		dto.BadResponseError(ctx, dto.FieldBadFormat, "Invalid member ID")
		return
	}

	// A member never deletes itself, admin or not.
	if identity, ok := session.FromContext(ctx); ok && identity.ID == id {
		dto.ForbiddenError(ctx)
		return
	}

	if err := s.repo.DeleteMember(ctx.Request.Context(), id); err != nil {
		switch {
		case errors.Is(err, repo.ErrNotFound):
			dto.NotFoundError(ctx, dto.MemberNotFound, "Member not found")
		case errors.Is(err, repo.ErrForeignKeyViolation):
			dto.ConflictError(ctx, dto.ConflictCode, "Member still owns registrations; reassign or delete them first")
		default:
			s.log.Error().Err(err).Msg("failed to delete member")
			dto.InternalServerError(ctx)
		}
		return
	}
	dto.SuccessResponse(ctx, map[string]bool{"ok": true})
}

func (s *service) ListStudents(ctx *ginext.Context) {
	students, err := s.repo.ListStudents(ctx.Request.Context())
	if err != nil {
		s.log.Error().Err(err).Msg("failed to list students")
		dto.InternalServerError(ctx)
		return
	}
	dto.SuccessResponse(ctx, students)
}

func (s *service) UpdateStudent(ctx *ginext.Context) {
	id := ctx.Param("id")
	if !validator.IsIdentifier(id) {
		dto.BadResponseError(ctx, dto.FieldBadFormat, "Invalid student ID")
		return
	}

	var req dto.UpdateStudentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, "Invalid JSON format")
		return
	}
	if verr := validator.Validate(ctx, req); verr != nil {
		dto.BadResponseError(ctx, dto.FieldIncorrect, fmt.Sprintf("%v", verr))
		return
	}

	student, err := s.repo.GetStudentByID(ctx.Request.Context(), id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			dto.NotFoundError(ctx, dto.StudentNotFound, "Student not found")
			return
		}
		s.log.Error().Err(err).Msg("failed to load student")
		dto.InternalServerError(ctx)
		return
	}

	student.Name = validator.Sanitize(req.Name)
	student.Phone = req.Phone
	student.Email = req.Email
	// An omitted code keeps the stored one; students in the student_code
	// profile must not lose their natural key to a partial edit.
	if req.StudentCode != "" {
		student.StudentCode = validator.Sanitize(req.StudentCode)
	}

	if err := s.repo.UpdateStudent(ctx.Request.Context(), student); err != nil {
		switch {
		case errors.Is(err, repo.ErrNotFound):
			dto.NotFoundError(ctx, dto.StudentNotFound, "Student not found")
		case errors.Is(err, repo.ErrUniqueViolation):
			dto.ConflictError(ctx, dto.ConflictCode, "Another student already uses this phone, email or code")
		default:
			s.log.Error().Err(err).Msg("failed to update student")
			dto.InternalServerError(ctx)
		}
		return
	}
	dto.SuccessResponse(ctx, student)
}
