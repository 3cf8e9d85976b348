package repository

//go:generate go run go.uber.org/mock/mockgen -source=./repository.go -destination=../mocks/repository_mock.go -package=mocks

import (
	"campusbook/infras/otel"
	"campusbook/infras/postgres"
	"campusbook/internal/domains/audit/model"
	gDto "campusbook/shared/dto"
	gRepo "campusbook/shared/repository"
	"context"
)

type AuditLog interface {
	Insert(ctx context.Context, model model.AuditLog) error
	Get(ctx context.Context, filter gDto.FilterGroup, columns ...string) (model.AuditLog, error)
	GetAll(ctx context.Context, params gDto.QueryParams, filter gDto.FilterGroup, columns ...string) ([]model.AuditLog, error)
	Exist(ctx context.Context, filter gDto.FilterGroup) (bool, error)
	Count(ctx context.Context, filter gDto.FilterGroup) (int, error)
	Update(ctx context.Context, req map[string]any, filter gDto.FilterGroup) error
	Delete(ctx context.Context, filter gDto.FilterGroup) error
}

type repositoryImpl struct {
	gRepo.Repository[model.AuditLog]
}

func New(db *postgres.Connection, otel otel.Otel) AuditLog {
	return &repositoryImpl{
		Repository: gRepo.NewRepository[model.AuditLog](model.EntityName, model.TableName, model.FieldID, db, otel),
	}
}
