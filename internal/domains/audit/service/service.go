package service

import (
	"campusbook/infras/kafka"
	"campusbook/infras/otel"
	"campusbook/internal/domains/audit/model"
	"campusbook/internal/domains/audit/model/dto"
	"campusbook/internal/domains/audit/repository"
	bookingModel "campusbook/internal/domains/booking/model"
	"campusbook/internal/domains/policy"
	"campusbook/shared"
	"campusbook/shared/constant"
	gDto "campusbook/shared/dto"
	"campusbook/shared/failure"
	"campusbook/shared/session"
	"campusbook/shared/timezone"
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	kafkaGo "github.com/segmentio/kafka-go"
)

type AuditLog interface {
	Record(ctx context.Context, event bookingModel.Event) error
	Handle(ctx context.Context, message kafkaGo.Message) error
	GetAll(ctx context.Context, actor session.Actor, req gDto.QueryParams, filter gDto.FilterGroup) (dto.GetAuditLogsResponse, error)
}

type serviceImpl struct {
	repo   repository.AuditLog
	policy policy.Policy
	otel   otel.Otel
}

func New(repo repository.AuditLog, policy policy.Policy, otel otel.Otel) AuditLog {
	return &serviceImpl{
		repo:   repo,
		policy: policy,
		otel:   otel,
	}
}

// Record stores event once. The event id doubles as the row id so a redelivered
// message is a no-op.
func (s *serviceImpl) Record(ctx context.Context, event bookingModel.Event) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".audit.Record")
	defer scope.End()
	defer scope.TraceIfError(err)

	if event.ID == constant.Empty || event.BookingID == constant.Empty {
		return failure.BadRequestFromString("audit event is missing its identifiers") // nolint:wrapcheck
	}

	exist, err := s.repo.Exist(ctx, shared.FilterByID(event.ID, model.FieldID, model.TableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to check if audit log exists")

		return fmt.Errorf("failed to check if audit log exists: %w", err)
	}

	if exist {
		log.Info().Str("event", event.ID).Msg("audit event already recorded")

		return nil
	}

	if err = s.repo.Insert(ctx, model.FromEvent(event, timezone.Now())); err != nil {
		log.Error().Err(err).Msg("failed to record audit log")

		return fmt.Errorf("failed to record audit log: %w", err)
	}

	return nil
}

// Handle decodes a booking event from the message and records it. Malformed
// payloads are dropped so they do not block the partition.
func (s *serviceImpl) Handle(ctx context.Context, message kafkaGo.Message) error {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelEventScopeName, constant.OtelEventScopeName+".audit.Handle")
	defer scope.End()

	event, err := kafka.Decode[bookingModel.Event](message)
	if err != nil {
		scope.TraceError(err)

		return nil
	}

	err = s.Record(ctx, event)
	if failure.Is(err, failure.KindValidation) {
		log.Warn().Err(err).Str("key", string(message.Key)).Msg("dropping invalid audit event")

		return nil
	}

	return err
}

func (s *serviceImpl) GetAll(ctx context.Context, actor session.Actor, req gDto.QueryParams, filter gDto.FilterGroup) (res dto.GetAuditLogsResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".audit.GetAll")
	defer scope.End()
	defer scope.TraceIfError(err)

	if !s.policy.Resolve(actor).Has(policy.ViewAuditLog) {
		return res, failure.Forbidden("you are not allowed to read the audit log") // nolint:wrapcheck
	}

	total, err := s.repo.Count(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to count audit logs")

		return res, fmt.Errorf("failed to count audit logs: %w", err)
	}

	models, err := s.repo.GetAll(ctx, req, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to get audit logs")

		return res, fmt.Errorf("failed to get audit logs: %w", err)
	}

	res.FromModels(models, total, req.Limit)

	return res, nil
}
