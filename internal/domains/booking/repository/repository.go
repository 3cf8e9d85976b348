package repository

//go:generate go run go.uber.org/mock/mockgen -source=./repository.go -destination=../mocks/repository_mock.go -package=mocks

import (
	"campusbook/infras/otel"
	"campusbook/infras/postgres"
	"campusbook/internal/domains/booking/model"
	"campusbook/shared/constant"
	gDto "campusbook/shared/dto"
	"campusbook/shared/logger"
	gRepo "campusbook/shared/repository"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

type Booking interface {
	Insert(ctx context.Context, model model.Booking) error
	Get(ctx context.Context, filter gDto.FilterGroup, columns ...string) (model.Booking, error)
	GetAll(ctx context.Context, params gDto.QueryParams, filter gDto.FilterGroup, columns ...string) ([]model.Booking, error)
	Exist(ctx context.Context, filter gDto.FilterGroup) (bool, error)
	Count(ctx context.Context, filter gDto.FilterGroup) (int, error)
	Update(ctx context.Context, req map[string]any, filter gDto.FilterGroup) error
	Delete(ctx context.Context, filter gDto.FilterGroup) error
	UpdateAffected(ctx context.Context, req map[string]any, filter gDto.FilterGroup) (int64, error)
	GetReserved(ctx context.Context, resourceID string, date time.Time, excludeID string) ([]model.Booking, error)
	CountByStatus(ctx context.Context) ([]model.StatusCount, error)
	MostUsedResource(ctx context.Context) (model.ResourceUsage, error)
}

type repositoryImpl struct {
	gRepo.Repository[model.Booking]
	db   *postgres.Connection
	otel otel.Otel
}

func New(db *postgres.Connection, otel otel.Otel) Booking {
	return &repositoryImpl{
		Repository: gRepo.NewRepository[model.Booking](model.EntityName, model.TableName, model.FieldID, db, otel),
		db:         db,
		otel:       otel,
	}
}

// GetReserved returns the pending and approved bookings holding resourceID on date.
func (r *repositoryImpl) GetReserved(ctx context.Context, resourceID string, date time.Time, excludeID string) ([]model.Booking, error) {
	ctx, scope := r.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+".booking.GetReserved")
	defer scope.End()

	filter := gDto.FilterGroup{
		Operator: gDto.FilterGroupOperatorAnd,
		Filters: []any{
			gDto.Filter{Field: model.FieldResourceID, Value: resourceID, Operator: gDto.FilterOperatorEq, Table: model.TableName},
			gDto.Filter{Field: model.FieldBookingDate, Value: date.Format(constant.DayFormat), Operator: gDto.FilterOperatorEq, Table: model.TableName},
			gDto.Filter{Field: model.FieldStatus, Value: model.ReservingStatuses, Operator: gDto.FilterOperatorIn, Table: model.TableName},
		},
	}

	if excludeID != constant.Empty {
		filter.Filters = append(filter.Filters, gDto.Filter{
			ArgName:  "exclude_id",
			Field:    model.FieldID,
			Value:    excludeID,
			Operator: gDto.FilterOperatorNotEq,
			Table:    model.TableName,
		})
	}

	params := gDto.QueryParams{SortBy: model.TableName + "." + model.FieldStartTime, SortDir: "ASC"}

	return r.GetAll(ctx, params, filter) //nolint:wrapcheck
}

func (r *repositoryImpl) CountByStatus(ctx context.Context) ([]model.StatusCount, error) {
	ctx, scope := r.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+".booking.CountByStatus")
	defer scope.End()

	query := fmt.Sprintf("SELECT status, COUNT(id) AS total FROM %s GROUP BY status", model.TableName)
	scope.SetAttribute(constant.OtelQueryAttributeKey, query)

	var counts []model.StatusCount

	if err := r.db.Read.SelectContext(ctx, &counts, query); err != nil {
		logger.ErrorWithStack(err)
		scope.TraceError(err)

		return nil, fmt.Errorf("failed to count bookings by status: %w", err)
	}

	return counts, nil
}

// MostUsedResource ranks resources by reserving bookings; ties go to the lower name.
// A zero value is returned when nothing has been booked yet.
func (r *repositoryImpl) MostUsedResource(ctx context.Context) (model.ResourceUsage, error) {
	ctx, scope := r.otel.NewScope(ctx, constant.OtelRepositoryScopeName, constant.OtelRepositoryScopeName+".booking.MostUsedResource")
	defer scope.End()

	query := `SELECT resources.id AS resource_id, resources.name, COUNT(bookings.id) AS total
		FROM bookings JOIN resources ON resources.id = bookings.resource_id
		WHERE bookings.status IN ('pending', 'approved')
		GROUP BY resources.id, resources.name
		ORDER BY total DESC, resources.name ASC
		LIMIT 1`
	scope.SetAttribute(constant.OtelQueryAttributeKey, query)

	var usage model.ResourceUsage

	err := r.db.Read.GetContext(ctx, &usage, query)
	if errors.Is(err, sql.ErrNoRows) {
		return usage, nil
	}

	if err != nil {
		logger.ErrorWithStack(err)
		scope.TraceError(err)

		return usage, fmt.Errorf("failed to get most used resource: %w", err)
	}

	return usage, nil
}
