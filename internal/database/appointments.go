package database

import (
	"database/sql"
	"fmt"
	"time"
)

// AppointmentStatus tracks an appointment through its lifecycle.
type AppointmentStatus string

const (
	AppointmentStatusScheduled  AppointmentStatus = "scheduled"
	AppointmentStatusConfirmed  AppointmentStatus = "confirmed"
	AppointmentStatusInProgress AppointmentStatus = "in_progress"
	AppointmentStatusCompleted  AppointmentStatus = "completed"
	AppointmentStatusCancelled  AppointmentStatus = "cancelled"
	AppointmentStatusNoShow     AppointmentStatus = "no_show"
)

// AppointmentType identifies the kind of visit.
type AppointmentType string

const (
	AppointmentTypeConsultation AppointmentType = "consultation"
	AppointmentTypeVaccination  AppointmentType = "vaccination"
	AppointmentTypeSurgery      AppointmentType = "surgery"
	AppointmentTypeEmergency    AppointmentType = "emergency"
	AppointmentTypeFollowUp     AppointmentType = "follow_up"
	AppointmentTypeGrooming     AppointmentType = "grooming"
)

// Appointment represents a scheduled veterinary visit for a pet.
type Appointment struct {
	ID              int64
	PetID           int64
	VeterinarianID  *int64
	AppointmentDate time.Time
	DurationMinutes int
	Type            AppointmentType
	Status          AppointmentStatus
	Reason          string
	Notes           string
	CreatedBy       *int64
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// EndTime returns when the appointment is expected to finish.
func (a *Appointment) EndTime() time.Time {
	return a.AppointmentDate.Add(time.Duration(a.DurationMinutes) * time.Minute)
}

// AppointmentFilter narrows ListAppointments results. Zero values match everything.
type AppointmentFilter struct {
	PetID  int64
	Status AppointmentStatus
	From   time.Time
	To     time.Time
}

const appointmentColumns = `id, pet_id, veterinarian_id, appointment_date, duration_minutes, appointment_type, status, reason, notes, created_by, created_at, updated_at`

func scanAppointment(row interface{ Scan(...any) error }) (*Appointment, error) {
	a := &Appointment{}
	var vetID, createdBy sql.NullInt64
	var reason, notes sql.NullString
	err := row.Scan(&a.ID, &a.PetID, &vetID, &a.AppointmentDate, &a.DurationMinutes,
		&a.Type, &a.Status, &reason, &notes, &createdBy, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	a.VeterinarianID = nullInt64ToPtr(vetID)
	a.Reason = nullStringValue(reason)
	a.Notes = nullStringValue(notes)
	a.CreatedBy = nullInt64ToPtr(createdBy)
	return a, nil
}

// CreateAppointment inserts a new appointment record and sets its ID.
func (db *DB) CreateAppointment(a *Appointment) error {
	now := time.Now()
	a.CreatedAt = now
	a.UpdatedAt = now

	result, err := db.Exec(`
		INSERT INTO appointments (pet_id, veterinarian_id, appointment_date, duration_minutes, appointment_type, status, reason, notes, created_by, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, a.PetID, ptrToNullInt64(a.VeterinarianID), a.AppointmentDate, a.DurationMinutes,
		a.Type, a.Status, emptyToNullString(a.Reason), emptyToNullString(a.Notes),
		ptrToNullInt64(a.CreatedBy), now, now)
	if err != nil {
		return fmt.Errorf("failed to create appointment: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get appointment id: %w", err)
	}
	a.ID = id
	return nil
}

// GetAppointment retrieves an appointment by ID. Returns nil when not found.
func (db *DB) GetAppointment(id int64) (*Appointment, error) {
	a, err := scanAppointment(db.QueryRow(`SELECT `+appointmentColumns+` FROM appointments WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get appointment: %w", err)
	}
	return a, nil
}

// ListAppointments retrieves appointments matching the filter, ordered by date.
func (db *DB) ListAppointments(filter AppointmentFilter) ([]*Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE 1=1`
	var args []any

	if filter.PetID != 0 {
		query += " AND pet_id = ?"
		args = append(args, filter.PetID)
	}
	if filter.Status != "" {
		query += " AND status = ?"
		args = append(args, filter.Status)
	}
	if !filter.From.IsZero() {
		query += " AND appointment_date >= ?"
		args = append(args, filter.From)
	}
	if !filter.To.IsZero() {
		query += " AND appointment_date < ?"
		args = append(args, filter.To)
	}
	query += " ORDER BY appointment_date"

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	defer rows.Close()

	var appointments []*Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan appointment: %w", err)
		}
		appointments = append(appointments, a)
	}
	return appointments, rows.Err()
}

// UpdateAppointment persists changes to an existing appointment record.
func (db *DB) UpdateAppointment(a *Appointment) error {
	a.UpdatedAt = time.Now()
	_, err := db.Exec(`
		UPDATE appointments
		SET pet_id = ?, veterinarian_id = ?, appointment_date = ?, duration_minutes = ?,
		    appointment_type = ?, status = ?, reason = ?, notes = ?, updated_at = ?
		WHERE id = ?
	`, a.PetID, ptrToNullInt64(a.VeterinarianID), a.AppointmentDate, a.DurationMinutes,
		a.Type, a.Status, emptyToNullString(a.Reason), emptyToNullString(a.Notes), a.UpdatedAt, a.ID)
	if err != nil {
		return fmt.Errorf("failed to update appointment: %w", err)
	}
	return nil
}

// DeleteAppointment removes an appointment record.
func (db *DB) DeleteAppointment(id int64) error {
	_, err := db.Exec("DELETE FROM appointments WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete appointment: %w", err)
	}
	return nil
}

// CountAppointmentsByStatus returns appointment counts grouped by status.
func (db *DB) CountAppointmentsByStatus() (map[AppointmentStatus]int, error) {
	rows, err := db.Query("SELECT status, COUNT(*) FROM appointments GROUP BY status")
	if err != nil {
		return nil, fmt.Errorf("failed to count appointments by status: %w", err)
	}
	defer rows.Close()

	counts := make(map[AppointmentStatus]int)
	for rows.Next() {
		var status AppointmentStatus
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("failed to scan appointment count: %w", err)
		}
		counts[status] = count
	}
	return counts, rows.Err()
}
