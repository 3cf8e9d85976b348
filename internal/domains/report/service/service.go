package service

import (
	"bytes"
	"campusbook/config"
	"campusbook/infras/otel"
	"campusbook/infras/s3"
	bookingModel "campusbook/internal/domains/booking/model"
	bookingRepo "campusbook/internal/domains/booking/repository"
	"campusbook/internal/domains/policy"
	"campusbook/internal/domains/report/model/dto"
	"campusbook/shared/cache"
	"campusbook/shared/constant"
	gDto "campusbook/shared/dto"
	"campusbook/shared/failure"
	"campusbook/shared/session"
	"campusbook/shared/timezone"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	cacheStats = constant.CachePrefixBooking + "stats"

	exportLinkExpiry = 15 * time.Minute
	exportMaxRows    = 10000
)

var exportHeader = []string{
	"id", "resource", "owner", "owner_email", "date", "start_time", "end_time",
	"attendees", "reason", "status", "remarks", "created_at",
}

type Report interface {
	Stats(ctx context.Context, actor session.Actor) (dto.StatsResponse, error)
	Export(ctx context.Context, actor session.Actor, req dto.ExportRequest) (dto.ExportResponse, error)
}

type serviceImpl struct {
	bookings bookingRepo.Booking
	storage  s3.S3
	policy   policy.Policy
	cfg      *config.Config
	cache    cache.RedisCache
	otel     otel.Otel
}

func New(bookings bookingRepo.Booking, storage s3.S3, policy policy.Policy, cfg *config.Config, cache cache.RedisCache, otel otel.Otel) Report {
	return &serviceImpl{
		bookings: bookings,
		storage:  storage,
		policy:   policy,
		cfg:      cfg,
		cache:    cache,
		otel:     otel,
	}
}

// Stats summarises bookings per status and names the busiest resource.
func (s *serviceImpl) Stats(ctx context.Context, actor session.Actor) (res dto.StatsResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".report.Stats")
	defer scope.End()
	defer scope.TraceIfError(err)

	if !s.policy.Resolve(actor).Has(policy.ViewReports) {
		return res, failure.Forbidden("you are not allowed to view reports") // nolint:wrapcheck
	}

	err = s.cache.Get(ctx, cacheStats, &res)
	if err == nil {
		log.Info().Str("cacheKey", cacheStats).Msg("cache hit for booking stats")

		return res, nil
	}

	counts, err := s.bookings.CountByStatus(ctx)
	if err != nil {
		log.Error().Err(err).Msg("failed to count bookings by status")

		return res, fmt.Errorf("failed to count bookings by status: %w", err)
	}

	usage, err := s.bookings.MostUsedResource(ctx)
	if err != nil {
		log.Error().Err(err).Msg("failed to get most used resource")

		return res, fmt.Errorf("failed to get most used resource: %w", err)
	}

	res.FromModels(counts, usage)

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheStats, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save booking stats to cache")
		}
	}()

	return res, nil
}

// Export writes the matching bookings as CSV to object storage and returns a
// short-lived download link.
func (s *serviceImpl) Export(ctx context.Context, actor session.Actor, req dto.ExportRequest) (res dto.ExportResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".report.Export")
	defer scope.End()
	defer scope.TraceIfError(err)

	if !s.policy.Resolve(actor).Has(policy.ViewReports) {
		return res, failure.Forbidden("you are not allowed to export reports") // nolint:wrapcheck
	}

	params := gDto.QueryParams{
		Page:    1,
		Limit:   exportMaxRows,
		SortBy:  bookingModel.TableName + "." + bookingModel.FieldBookingDate,
		SortDir: "ASC",
	}

	bookings, err := s.bookings.GetAll(ctx, params, exportFilter(req))
	if err != nil {
		log.Error().Err(err).Msg("failed to get bookings for export")

		return res, fmt.Errorf("failed to get bookings for export: %w", err)
	}

	data, err := encodeCSV(bookings)
	if err != nil {
		log.Error().Err(err).Msg("failed to encode bookings export")

		return res, fmt.Errorf("failed to encode bookings export: %w", err)
	}

	now := timezone.Now()
	name := fmt.Sprintf("bookings-%s-%s.csv", now.Format(constant.DateTimeStamp), actor.UserID)
	bucket := s.cfg.External.S3.BucketName
	directory := s.cfg.Booking.ExportDirectory

	if _, err = s.storage.UploadFileBytes(ctx, bucket, directory, name, constant.ContentTypeCSV, data); err != nil {
		log.Error().Err(err).Msg("failed to upload bookings export")

		return res, fmt.Errorf("failed to upload bookings export: %w", err)
	}

	url, err := s.storage.PresignGetURL(ctx, bucket, directory, name, exportLinkExpiry)
	if err != nil {
		log.Error().Err(err).Msg("failed to presign bookings export")

		return res, fmt.Errorf("failed to presign bookings export: %w", err)
	}

	return dto.ExportResponse{
		URL:       url,
		Key:       directory + "/" + name,
		Rows:      len(bookings),
		ExpiresAt: timezone.Format(now.Add(exportLinkExpiry), constant.DateFormat),
	}, nil
}

func exportFilter(req dto.ExportRequest) gDto.FilterGroup {
	filter := gDto.FilterGroup{Operator: gDto.FilterGroupOperatorAnd}

	if req.From != constant.Empty {
		filter.Filters = append(filter.Filters, gDto.Filter{
			ArgName:  "date_from",
			Field:    bookingModel.FieldBookingDate,
			Value:    req.From,
			Operator: gDto.FilterOperatorGreaterEq,
			Table:    bookingModel.TableName,
		})
	}

	if req.To != constant.Empty {
		filter.Filters = append(filter.Filters, gDto.Filter{
			ArgName:  "date_to",
			Field:    bookingModel.FieldBookingDate,
			Value:    req.To,
			Operator: gDto.FilterOperatorLessEq,
			Table:    bookingModel.TableName,
		})
	}

	if req.Status != constant.Empty {
		filter.Filters = append(filter.Filters, gDto.Filter{
			Field:    bookingModel.FieldStatus,
			Value:    req.Status,
			Operator: gDto.FilterOperatorEq,
			Table:    bookingModel.TableName,
		})
	}

	return filter
}

func encodeCSV(bookings []bookingModel.Booking) ([]byte, error) {
	var buf bytes.Buffer

	writer := csv.NewWriter(&buf)

	if err := writer.Write(exportHeader); err != nil {
		return nil, fmt.Errorf("failed to write csv header: %w", err)
	}

	for _, b := range bookings {
		row := []string{
			b.ID,
			b.ResourceName,
			b.UserName,
			b.UserEmail,
			b.BookingDate.Format(constant.DayFormat),
			b.StartTime.String(),
			b.EndTime.String(),
			strconv.Itoa(b.AttendeeCount),
			b.Reason,
			b.Status.String(),
			b.Remarks,
			timezone.Format(b.CreatedAt, constant.DateFormat),
		}

		if err := writer.Write(row); err != nil {
			return nil, fmt.Errorf("failed to write csv row: %w", err)
		}
	}

	writer.Flush()

	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush csv: %w", err)
	}

	return buf.Bytes(), nil
}
