package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"apartment-booking/internal/data/entity"
	"apartment-booking/pkg/database"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

const (
	pgUniqueViolationCode      = "23505"
	pgExclusionViolationCode   = "23P01"
	constraintPaymentReference = "reservations_payment_reference_key"
	constraintBookingReference = "reservations_booking_reference_key"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

var reservationColumns = []string{
	"id", "booking_reference", "payment_reference", "user_id",
	"guest_name", "guest_email", "guest_phone",
	"property_id", "property_name", "unit_id", "unit_label",
	"check_in", "check_out", "guests", "special_requests",
	"nights", "nightly_rate", "base_price", "discount_percent", "tax_amount",
	"service_fee_amount", "gateway_fee_amount", "subtotal", "total_amount", "currency",
	"payment_status", "status", "created_at", "updated_at",
}

// ReservationFilter narrows a listing. Zero fields match everything.
type ReservationFilter struct {
	UserID *uuid.UUID
	Status entity.ReservationStatus
}

type ReservationRepository interface {
	// Create inserts a reservation unless its nights overlap a blocking
	// reservation on the same unit (ErrDateConflict) or one of its
	// references is taken.
	Create(ctx context.Context, reservation *entity.Reservation) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Reservation, error)
	FindByPaymentReference(ctx context.Context, reference string) (*entity.Reservation, error)
	FindByBookingReference(ctx context.Context, reference string) (*entity.Reservation, error)
	ExistsByBookingReference(ctx context.Context, reference string) (bool, error)
	// FindBlocking returns the blocking reservations of a unit that share a
	// night with window.
	FindBlocking(ctx context.Context, propertyID, unitID string, window entity.DateRange) ([]*entity.Reservation, error)
	List(ctx context.Context, filter ReservationFilter, limit, offset int) ([]*entity.Reservation, error)
	Count(ctx context.Context, filter ReservationFilter) (int64, error)
	// UpdateStatus moves a reservation from one status to another. It fails
	// with ErrStatusChanged when the stored status is no longer from.
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to entity.ReservationStatus, updatedAt time.Time) error
}

type reservationRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewReservationRepository(db database.PgxIface, log *zap.Logger) ReservationRepository {
	return &reservationRepository{
		db:  db,
		log: log.With(zap.String("repository", "reservation")),
	}
}

func BlockingStatusValues() []string {
	values := make([]string, len(entity.BlockingStatuses))
	for i, s := range entity.BlockingStatuses {
		values[i] = string(s)
	}
	return values
}

func overlapPredicate(propertyID, unitID string, window entity.DateRange) sq.And {
	return sq.And{
		sq.Eq{"property_id": propertyID, "unit_id": unitID, "status": BlockingStatusValues()},
		sq.Lt{"check_in": window.CheckOut},
		sq.Gt{"check_out": window.CheckIn},
	}
}

func filterPredicate(filter ReservationFilter) sq.Eq {
	where := sq.Eq{}
	if filter.UserID != nil {
		where["user_id"] = *filter.UserID
	}
	if filter.Status != "" {
		where["status"] = filter.Status
	}
	return where
}

func (r *reservationRepository) Create(ctx context.Context, res *entity.Reservation) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		r.log.Error("Failed to begin reservation transaction", zap.Error(err))
		return fmt.Errorf("begin create reservation: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	// Serialise writers of the same unit so the overlap check below sees
	// every committed reservation.
	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, res.PropertyID+"/"+res.UnitID); err != nil {
		r.log.Error("Failed to lock unit", zap.Error(err), zap.String("unit_id", res.UnitID))
		return fmt.Errorf("lock unit %s: %w", res.UnitID, err)
	}

	query, args, err := psql.Select("COUNT(*)").
		From("reservations").
		Where(overlapPredicate(res.PropertyID, res.UnitID, res.Stay)).
		ToSql()
	if err != nil {
		return fmt.Errorf("build overlap query: %w", err)
	}

	var overlapping int64
	if err := tx.QueryRow(ctx, query, args...).Scan(&overlapping); err != nil {
		r.log.Error("Failed to check overlapping reservations", zap.Error(err), zap.String("unit_id", res.UnitID))
		return fmt.Errorf("check overlap for %s: %w", res.UnitID, err)
	}
	if overlapping > 0 {
		return fmt.Errorf("%w: %s %s", ErrDateConflict, res.UnitID, res.Stay)
	}

	query, args, err = psql.Insert("reservations").
		Columns(reservationColumns...).
		Values(reservationValues(res)...).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert reservation: %w", err)
	}

	if _, err := tx.Exec(ctx, query, args...); err != nil {
		if mapped := mapWriteError(err); mapped != nil {
			return fmt.Errorf("create reservation %s: %w", res.PaymentReference, mapped)
		}
		r.log.Error("Failed to create reservation",
			zap.Error(err),
			zap.String("payment_reference", res.PaymentReference),
			zap.String("unit_id", res.UnitID),
		)
		return fmt.Errorf("create reservation %s: %w", res.PaymentReference, err)
	}

	if err := tx.Commit(ctx); err != nil {
		if mapped := mapWriteError(err); mapped != nil {
			return fmt.Errorf("commit reservation %s: %w", res.PaymentReference, mapped)
		}
		r.log.Error("Failed to commit reservation", zap.Error(err), zap.String("payment_reference", res.PaymentReference))
		return fmt.Errorf("commit reservation %s: %w", res.PaymentReference, err)
	}

	return nil
}

func (r *reservationRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Reservation, error) {
	return r.findOne(ctx, sq.Eq{"id": id}, "id", id.String())
}

func (r *reservationRepository) FindByPaymentReference(ctx context.Context, reference string) (*entity.Reservation, error) {
	return r.findOne(ctx, sq.Eq{"payment_reference": reference}, "payment_reference", reference)
}

func (r *reservationRepository) FindByBookingReference(ctx context.Context, reference string) (*entity.Reservation, error) {
	return r.findOne(ctx, sq.Eq{"booking_reference": reference}, "booking_reference", reference)
}

func (r *reservationRepository) findOne(ctx context.Context, where sq.Eq, field, value string) (*entity.Reservation, error) {
	query, args, err := psql.Select(reservationColumns...).From("reservations").Where(where).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build find reservation query: %w", err)
	}

	res, err := scanReservation(r.db.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find reservation", zap.Error(err), zap.String(field, value))
		return nil, fmt.Errorf("find reservation by %s %s: %w", field, value, err)
	}

	return res, nil
}

func (r *reservationRepository) ExistsByBookingReference(ctx context.Context, reference string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM reservations WHERE booking_reference = $1)`, reference,
	).Scan(&exists)
	if err != nil {
		r.log.Error("Failed to check booking reference", zap.Error(err), zap.String("booking_reference", reference))
		return false, fmt.Errorf("check booking reference %s: %w", reference, err)
	}
	return exists, nil
}

func (r *reservationRepository) FindBlocking(ctx context.Context, propertyID, unitID string, window entity.DateRange) ([]*entity.Reservation, error) {
	query, args, err := psql.Select(reservationColumns...).
		From("reservations").
		Where(overlapPredicate(propertyID, unitID, window)).
		OrderBy("check_in").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build blocking query: %w", err)
	}

	reservations, err := r.query(ctx, query, args...)
	if err != nil {
		r.log.Error("Failed to find blocking reservations",
			zap.Error(err),
			zap.String("property_id", propertyID),
			zap.String("unit_id", unitID),
		)
		return nil, fmt.Errorf("find blocking reservations for %s/%s: %w", propertyID, unitID, err)
	}
	return reservations, nil
}

func (r *reservationRepository) List(ctx context.Context, filter ReservationFilter, limit, offset int) ([]*entity.Reservation, error) {
	query, args, err := psql.Select(reservationColumns...).
		From("reservations").
		Where(filterPredicate(filter)).
		OrderBy("created_at DESC").
		Limit(uint64(limit)).
		Offset(uint64(offset)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list query: %w", err)
	}

	reservations, err := r.query(ctx, query, args...)
	if err != nil {
		r.log.Error("Failed to list reservations", zap.Error(err), zap.Int("limit", limit), zap.Int("offset", offset))
		return nil, fmt.Errorf("list reservations: %w", err)
	}
	return reservations, nil
}

func (r *reservationRepository) Count(ctx context.Context, filter ReservationFilter) (int64, error) {
	query, args, err := psql.Select("COUNT(*)").From("reservations").Where(filterPredicate(filter)).ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count query: %w", err)
	}

	var count int64
	if err := r.db.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		r.log.Error("Failed to count reservations", zap.Error(err))
		return 0, fmt.Errorf("count reservations: %w", err)
	}
	return count, nil
}

func (r *reservationRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to entity.ReservationStatus, updatedAt time.Time) error {
	query, args, err := psql.Update("reservations").
		Set("status", to).
		Set("updated_at", updatedAt).
		Where(sq.Eq{"id": id, "status": from}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update status: %w", err)
	}

	result, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		r.log.Error("Failed to update reservation status",
			zap.Error(err),
			zap.String("reservation_id", id.String()),
			zap.String("to", string(to)),
		)
		return fmt.Errorf("update reservation %s status: %w", id, err)
	}

	if result.RowsAffected() == 0 {
		existing, err := r.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if existing == nil {
			return fmt.Errorf("%w: %s", ErrReservationNotFound, id)
		}
		return fmt.Errorf("%w: %s is %s", ErrStatusChanged, id, existing.Status)
	}

	return nil
}

func (r *reservationRepository) query(ctx context.Context, query string, args ...any) ([]*entity.Reservation, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reservations []*entity.Reservation
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan reservation row: %w", err)
		}
		reservations = append(reservations, res)
	}
	return reservations, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReservation(row rowScanner) (*entity.Reservation, error) {
	var res entity.Reservation
	err := row.Scan(
		&res.ID,
		&res.BookingReference,
		&res.PaymentReference,
		&res.UserID,
		&res.GuestName,
		&res.GuestEmail,
		&res.GuestPhone,
		&res.PropertyID,
		&res.PropertyName,
		&res.UnitID,
		&res.UnitLabel,
		&res.Stay.CheckIn,
		&res.Stay.CheckOut,
		&res.Guests,
		&res.SpecialRequests,
		&res.Quote.Nights,
		&res.Quote.NightlyRate,
		&res.Quote.BasePrice,
		&res.Quote.DiscountPercent,
		&res.Quote.TaxAmount,
		&res.Quote.ServiceFeeAmount,
		&res.Quote.GatewayFeeAmount,
		&res.Quote.Subtotal,
		&res.Quote.TotalAmount,
		&res.Quote.Currency,
		&res.PaymentStatus,
		&res.Status,
		&res.CreatedAt,
		&res.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func reservationValues(res *entity.Reservation) []any {
	return []any{
		res.ID,
		res.BookingReference,
		res.PaymentReference,
		res.UserID,
		res.GuestName,
		res.GuestEmail,
		res.GuestPhone,
		res.PropertyID,
		res.PropertyName,
		res.UnitID,
		res.UnitLabel,
		res.Stay.CheckIn,
		res.Stay.CheckOut,
		res.Guests,
		res.SpecialRequests,
		res.Quote.Nights,
		res.Quote.NightlyRate,
		res.Quote.BasePrice,
		res.Quote.DiscountPercent,
		res.Quote.TaxAmount,
		res.Quote.ServiceFeeAmount,
		res.Quote.GatewayFeeAmount,
		res.Quote.Subtotal,
		res.Quote.TotalAmount,
		res.Quote.Currency,
		res.PaymentStatus,
		res.Status,
		res.CreatedAt,
		res.UpdatedAt,
	}
}

// mapWriteError translates constraint violations into repository errors. It
// returns nil for anything else.
func mapWriteError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return nil
	}
	switch {
	case pgErr.Code == pgExclusionViolationCode:
		return ErrDateConflict
	case pgErr.Code == pgUniqueViolationCode && pgErr.ConstraintName == constraintPaymentReference:
		return ErrDuplicatePaymentReference
	case pgErr.Code == pgUniqueViolationCode && pgErr.ConstraintName == constraintBookingReference:
		return ErrDuplicateBookingReference
	}
	return nil
}
