package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/bethesda-mission/shelterline/pkg/models"
	"github.com/bethesda-mission/shelterline/pkg/store"
)

// pgTx applies store.Tx operations inside one *sql.Tx.
type pgTx struct {
	tx *sql.Tx
}

func (t *pgTx) InitBeds(ctx context.Context, total int) error {
	_, err := t.tx.ExecContext(ctx,
		`INSERT INTO beds (bed_id, status)
		 SELECT n, 'available' FROM generate_series(1, $1) AS n
		 ON CONFLICT (bed_id) DO NOTHING`, total)
	if err != nil {
		return fmt.Errorf("failed to seed beds: %w", err)
	}

	var count int
	if err := t.tx.QueryRowContext(ctx, `SELECT count(*) FROM beds`).Scan(&count); err != nil {
		return fmt.Errorf("failed to count beds: %w", err)
	}
	if count != total {
		return fmt.Errorf("bed table holds %d rows, want %d", count, total)
	}
	return nil
}

func (t *pgTx) SnapshotBeds(ctx context.Context) ([]models.Bed, error) {
	rows, err := t.tx.QueryContext(ctx,
		`SELECT bed_id, status, updated_at FROM beds ORDER BY bed_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list beds: %w", err)
	}
	defer rows.Close()

	var beds []models.Bed
	for rows.Next() {
		var b models.Bed
		if err := rows.Scan(&b.ID, &b.Status, &b.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan bed: %w", err)
		}
		beds = append(beds, b)
	}
	return beds, rows.Err()
}

func (t *pgTx) BedStatus(ctx context.Context, bedID int) (models.BedStatus, error) {
	var status models.BedStatus
	err := t.tx.QueryRowContext(ctx,
		`SELECT status FROM beds WHERE bed_id = $1`, bedID).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return "", store.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to read bed %d: %w", bedID, err)
	}
	return status, nil
}

func (t *pgTx) FirstAvailableBed(ctx context.Context) (int, bool, error) {
	var bedID int
	err := t.tx.QueryRowContext(ctx,
		`SELECT bed_id FROM beds WHERE status = 'available'
		 ORDER BY bed_id LIMIT 1 FOR UPDATE`).Scan(&bedID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to find available bed: %w", err)
	}
	return bedID, true, nil
}

func (t *pgTx) TransitionBed(ctx context.Context, bedID int, from, to models.BedStatus) error {
	res, err := t.tx.ExecContext(ctx,
		`UPDATE beds SET status = $3, updated_at = now()
		 WHERE bed_id = $1 AND status = $2`, bedID, from, to)
	if err != nil {
		return fmt.Errorf("failed to transition bed %d: %w", bedID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 1 {
		return nil
	}

	// Distinguish a lost compare-and-set from a missing bed.
	current, err := t.BedStatus(ctx, bedID)
	if err != nil {
		return err
	}
	return fmt.Errorf("bed %d is %s, not %s: %w", bedID, current, from, store.ErrConflict)
}

func (t *pgTx) CountBeds(ctx context.Context) (models.BedSummary, error) {
	var sum models.BedSummary
	err := t.tx.QueryRowContext(ctx,
		`SELECT
		   count(*) FILTER (WHERE status = 'available'),
		   count(*) FILTER (WHERE status = 'held'),
		   count(*) FILTER (WHERE status = 'occupied'),
		   count(*)
		 FROM beds`).Scan(&sum.Available, &sum.Held, &sum.Occupied, &sum.Total)
	if err != nil {
		return models.BedSummary{}, fmt.Errorf("failed to count beds: %w", err)
	}
	return sum, nil
}

func (t *pgTx) InsertReservation(ctx context.Context, r *models.Reservation) error {
	_, err := t.tx.ExecContext(ctx,
		`INSERT INTO reservations
		   (id, confirmation_code, bed_id, caller_hash, caller_name,
		    situation, needs, language, status, created_at, expires_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		r.ID, r.Code, r.BedID, r.CallerHash, r.CallerName,
		r.Situation, r.Needs, r.Language, r.Status, r.CreatedAt, r.ExpiresAt)
	if err != nil {
		return fmt.Errorf("failed to insert reservation %s: %w", r.Code, mapPgError(err))
	}
	return nil
}

const reservationColumns = `id, confirmation_code, bed_id, caller_hash, caller_name,
	situation, needs, language, guest_id, status, created_at, expires_at, resolved_at`

func scanReservation(row interface{ Scan(...any) error }) (*models.Reservation, error) {
	var r models.Reservation
	err := row.Scan(&r.ID, &r.Code, &r.BedID, &r.CallerHash, &r.CallerName,
		&r.Situation, &r.Needs, &r.Language, &r.GuestID, &r.Status,
		&r.CreatedAt, &r.ExpiresAt, &r.ResolvedAt)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (t *pgTx) queryReservation(ctx context.Context, query string, args ...any) (*models.Reservation, error) {
	r, err := scanReservation(t.tx.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read reservation: %w", err)
	}
	return r, nil
}

func (t *pgTx) ReservationByCode(ctx context.Context, code string) (*models.Reservation, error) {
	return t.queryReservation(ctx,
		`SELECT `+reservationColumns+` FROM reservations WHERE confirmation_code = $1`, code)
}

func (t *pgTx) ActiveReservationByBed(ctx context.Context, bedID int) (*models.Reservation, error) {
	return t.queryReservation(ctx,
		`SELECT `+reservationColumns+` FROM reservations
		 WHERE bed_id = $1 AND status = 'active'`, bedID)
}

func (t *pgTx) CheckedInReservationByBed(ctx context.Context, bedID int) (*models.Reservation, error) {
	return t.queryReservation(ctx,
		`SELECT `+reservationColumns+` FROM reservations
		 WHERE bed_id = $1 AND status = 'checked_in'
		 ORDER BY created_at DESC LIMIT 1`, bedID)
}

func (t *pgTx) ActiveReservationByCaller(ctx context.Context, callerHash string) (*models.Reservation, error) {
	if callerHash == "" {
		return nil, store.ErrNotFound
	}
	return t.queryReservation(ctx,
		`SELECT `+reservationColumns+` FROM reservations
		 WHERE caller_hash = $1 AND status = 'active'
		 ORDER BY created_at LIMIT 1`, callerHash)
}

func (t *pgTx) listReservations(ctx context.Context, query string, args ...any) ([]*models.Reservation, error) {
	rows, err := t.tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list reservations: %w", err)
	}
	defer rows.Close()

	var out []*models.Reservation
	for rows.Next() {
		r, err := scanReservation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan reservation: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (t *pgTx) ListActiveReservations(ctx context.Context) ([]*models.Reservation, error) {
	return t.listReservations(ctx,
		`SELECT `+reservationColumns+` FROM reservations
		 WHERE status = 'active'
		 ORDER BY created_at, confirmation_code`)
}

func (t *pgTx) ListExpiringBefore(ctx context.Context, cutoff time.Time) ([]*models.Reservation, error) {
	return t.listReservations(ctx,
		`SELECT `+reservationColumns+` FROM reservations
		 WHERE status = 'active' AND expires_at < $1
		 ORDER BY created_at, confirmation_code
		 FOR UPDATE`, cutoff)
}

func (t *pgTx) UpdateReservationStatus(ctx context.Context, code string, from, to models.ReservationStatus, resolvedAt *time.Time) error {
	res, err := t.tx.ExecContext(ctx,
		`UPDATE reservations SET status = $3, resolved_at = $4
		 WHERE confirmation_code = $1 AND status = $2`, code, from, to, resolvedAt)
	if err != nil {
		return fmt.Errorf("failed to update reservation %s: %w", code, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 1 {
		return nil
	}

	current, err := t.ReservationByCode(ctx, code)
	if err != nil {
		return err
	}
	return fmt.Errorf("reservation %s is %s, not %s: %w", code, current.Status, from, store.ErrConflict)
}

func (t *pgTx) SetReservationGuest(ctx context.Context, code string, guestID int) error {
	res, err := t.tx.ExecContext(ctx,
		`UPDATE reservations SET guest_id = $2 WHERE confirmation_code = $1`,
		code, guestID)
	if err != nil {
		return fmt.Errorf("failed to set guest on reservation %s: %w", code, err)
	}
	return requireOneRow(res, store.ErrNotFound)
}

func (t *pgTx) InsertChapelService(ctx context.Context, s *models.ChapelService) error {
	err := t.tx.QueryRowContext(ctx,
		`INSERT INTO chapel_services
		   (service_date, start_time, group_name, contact_name, contact_phone,
		    contact_email, notes, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 RETURNING id`,
		s.Date, s.Time, s.GroupName, s.ContactName, s.ContactPhone,
		s.ContactEmail, s.Notes, s.Status, s.CreatedAt, s.UpdatedAt).Scan(&s.ID)
	if err != nil {
		return fmt.Errorf("failed to insert chapel service: %w", mapPgError(err))
	}
	return nil
}

const chapelColumns = `id, service_date, start_time, group_name, contact_name,
	contact_phone, contact_email, notes, status, created_at, updated_at`

func scanChapelService(row interface{ Scan(...any) error }) (*models.ChapelService, error) {
	var s models.ChapelService
	err := row.Scan(&s.ID, &s.Date, &s.Time, &s.GroupName, &s.ContactName,
		&s.ContactPhone, &s.ContactEmail, &s.Notes, &s.Status,
		&s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (t *pgTx) ChapelServiceByID(ctx context.Context, id int) (*models.ChapelService, error) {
	s, err := scanChapelService(t.tx.QueryRowContext(ctx,
		`SELECT `+chapelColumns+` FROM chapel_services WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read chapel service %d: %w", id, err)
	}
	return s, nil
}

func (t *pgTx) ListChapelServices(ctx context.Context) ([]*models.ChapelService, error) {
	rows, err := t.tx.QueryContext(ctx,
		`SELECT `+chapelColumns+` FROM chapel_services ORDER BY service_date, start_time`)
	if err != nil {
		return nil, fmt.Errorf("failed to list chapel services: %w", err)
	}
	defer rows.Close()

	var out []*models.ChapelService
	for rows.Next() {
		s, err := scanChapelService(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan chapel service: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (t *pgTx) ChapelSlotTaken(ctx context.Context, date, startTime string) (bool, error) {
	var taken bool
	err := t.tx.QueryRowContext(ctx,
		`SELECT EXISTS (
		   SELECT 1 FROM chapel_services
		   WHERE service_date = $1 AND start_time = $2 AND status <> 'cancelled')`,
		date, startTime).Scan(&taken)
	if err != nil {
		return false, fmt.Errorf("failed to check chapel slot: %w", err)
	}
	return taken, nil
}

func (t *pgTx) UpdateChapelService(ctx context.Context, s *models.ChapelService) error {
	res, err := t.tx.ExecContext(ctx,
		`UPDATE chapel_services
		 SET service_date = $2, start_time = $3, group_name = $4, contact_name = $5,
		     contact_phone = $6, contact_email = $7, notes = $8, status = $9,
		     updated_at = $10
		 WHERE id = $1`,
		s.ID, s.Date, s.Time, s.GroupName, s.ContactName,
		s.ContactPhone, s.ContactEmail, s.Notes, s.Status, s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update chapel service %d: %w", s.ID, mapPgError(err))
	}
	return requireOneRow(res, store.ErrNotFound)
}

func (t *pgTx) InsertVolunteer(ctx context.Context, v *models.Volunteer) error {
	availability, interests, err := encodeVolunteerLists(v)
	if err != nil {
		return err
	}
	err = t.tx.QueryRowContext(ctx,
		`INSERT INTO volunteers
		   (name, phone, email, availability, interests, notes, status,
		    last_served, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 RETURNING id`,
		v.Name, v.Phone, v.Email, availability, interests, v.Notes, v.Status,
		v.LastServed, v.CreatedAt, v.UpdatedAt).Scan(&v.ID)
	if err != nil {
		return fmt.Errorf("failed to insert volunteer: %w", err)
	}
	return nil
}

func (t *pgTx) VolunteerByID(ctx context.Context, id int) (*models.Volunteer, error) {
	v, err := scanVolunteer(t.tx.QueryRowContext(ctx,
		`SELECT id, name, phone, email, availability, interests, notes, status,
		        last_served, created_at, updated_at
		 FROM volunteers WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read volunteer %d: %w", id, err)
	}
	return v, nil
}

func (t *pgTx) ListVolunteers(ctx context.Context) ([]*models.Volunteer, error) {
	rows, err := t.tx.QueryContext(ctx,
		`SELECT id, name, phone, email, availability, interests, notes, status,
		        last_served, created_at, updated_at
		 FROM volunteers ORDER BY lower(name)`)
	if err != nil {
		return nil, fmt.Errorf("failed to list volunteers: %w", err)
	}
	defer rows.Close()

	var out []*models.Volunteer
	for rows.Next() {
		v, err := scanVolunteer(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan volunteer: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (t *pgTx) UpdateVolunteer(ctx context.Context, v *models.Volunteer) error {
	availability, interests, err := encodeVolunteerLists(v)
	if err != nil {
		return err
	}
	res, err := t.tx.ExecContext(ctx,
		`UPDATE volunteers
		 SET name = $2, phone = $3, email = $4, availability = $5, interests = $6,
		     notes = $7, status = $8, last_served = $9, updated_at = $10
		 WHERE id = $1`,
		v.ID, v.Name, v.Phone, v.Email, availability, interests,
		v.Notes, v.Status, v.LastServed, v.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update volunteer %d: %w", v.ID, err)
	}
	return requireOneRow(res, store.ErrNotFound)
}

func scanVolunteer(row interface{ Scan(...any) error }) (*models.Volunteer, error) {
	var (
		v            models.Volunteer
		availability []byte
		interests    []byte
	)
	err := row.Scan(&v.ID, &v.Name, &v.Phone, &v.Email, &availability, &interests,
		&v.Notes, &v.Status, &v.LastServed, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(availability, &v.Availability); err != nil {
		return nil, fmt.Errorf("failed to decode availability: %w", err)
	}
	if err := json.Unmarshal(interests, &v.Interests); err != nil {
		return nil, fmt.Errorf("failed to decode interests: %w", err)
	}
	return &v, nil
}

func encodeVolunteerLists(v *models.Volunteer) ([]byte, []byte, error) {
	availability, err := json.Marshal(v.Availability)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to encode availability: %w", err)
	}
	interests, err := json.Marshal(v.Interests)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to encode interests: %w", err)
	}
	return availability, interests, nil
}

func requireOneRow(res sql.Result, missing error) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return missing
	}
	return nil
}
