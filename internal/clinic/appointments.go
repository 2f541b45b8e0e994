package clinic

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/pawsoft/vetclinic/internal/database"
)

// DefaultDurations maps each appointment type to its default length in minutes.
var DefaultDurations = map[database.AppointmentType]int{
	database.AppointmentTypeConsultation: 30,
	database.AppointmentTypeVaccination:  15,
	database.AppointmentTypeSurgery:      120,
	database.AppointmentTypeEmergency:    60,
	database.AppointmentTypeFollowUp:     20,
	database.AppointmentTypeGrooming:     60,
}

// statusTransitions defines which lifecycle moves are allowed. An appointment
// in a status not listed here is terminal.
var statusTransitions = map[database.AppointmentStatus][]database.AppointmentStatus{
	database.AppointmentStatusScheduled: {
		database.AppointmentStatusConfirmed,
		database.AppointmentStatusCancelled,
		database.AppointmentStatusNoShow,
	},
	database.AppointmentStatusConfirmed: {
		database.AppointmentStatusInProgress,
		database.AppointmentStatusCancelled,
		database.AppointmentStatusNoShow,
	},
	database.AppointmentStatusInProgress: {
		database.AppointmentStatusCompleted,
		database.AppointmentStatusCancelled,
	},
}

// AppointmentManager owns scheduling and the appointment lifecycle. Every
// appointment references an existing, active pet; the optional veterinarian
// must be an active user holding the veterinarian role.
type AppointmentManager struct {
	db *database.DB
}

// NewAppointmentManager creates an appointment manager bound to the given database.
func NewAppointmentManager(db *database.DB) *AppointmentManager {
	return &AppointmentManager{db: db}
}

// AppointmentInput carries appointment fields for create and update operations.
// On update, nil pointers leave the stored value unchanged.
type AppointmentInput struct {
	PetID           *int64
	VeterinarianID  *int64
	AppointmentDate *time.Time
	DurationMinutes *int
	Type            *database.AppointmentType
	Reason          *string
	Notes           *string
	CreatedBy       *int64
}

// Schedule creates a new appointment in the scheduled status. When no duration
// is given, the default for the appointment type applies.
func (m *AppointmentManager) Schedule(in AppointmentInput) (*database.Appointment, error) {
	if in.PetID == nil || *in.PetID <= 0 {
		return nil, invalidf("pet_id", "pet is required")
	}
	pet, err := m.db.GetPet(*in.PetID)
	if err != nil {
		return nil, err
	}
	if pet == nil {
		return nil, fmt.Errorf("pet %d: %w", *in.PetID, ErrNotFound)
	}
	if !pet.IsActive {
		return nil, invalidf("pet_id", "cannot schedule an appointment for an inactive pet")
	}

	if in.AppointmentDate == nil {
		return nil, invalidf("appointment_date", "appointment date is required")
	}
	when := *in.AppointmentDate
	if when.Before(time.Now()) {
		return nil, invalidf("appointment_date", "appointment date cannot be in the past")
	}

	apptType := database.AppointmentTypeConsultation
	if in.Type != nil {
		apptType = *in.Type
	}
	defaultDuration, ok := DefaultDurations[apptType]
	if !ok {
		return nil, invalidf("type", "unknown appointment type: %s", apptType)
	}

	duration := defaultDuration
	if in.DurationMinutes != nil {
		duration = *in.DurationMinutes
	}
	if duration < 1 || duration > 480 {
		return nil, invalidf("duration_minutes", "duration must be between 1 and 480 minutes")
	}

	if err := m.validateVeterinarian(in.VeterinarianID); err != nil {
		return nil, err
	}

	a := &database.Appointment{
		PetID:           *in.PetID,
		VeterinarianID:  in.VeterinarianID,
		AppointmentDate: when,
		DurationMinutes: duration,
		Type:            apptType,
		Status:          database.AppointmentStatusScheduled,
		Reason:          strings.TrimSpace(deref(in.Reason)),
		Notes:           strings.TrimSpace(deref(in.Notes)),
		CreatedBy:       in.CreatedBy,
	}

	if err := m.checkOverlap(a); err != nil {
		return nil, err
	}

	if err := m.db.CreateAppointment(a); err != nil {
		return nil, err
	}

	log.Info().Int64("appointment_id", a.ID).Int64("pet_id", a.PetID).
		Time("date", a.AppointmentDate).Str("type", string(a.Type)).Msg("Appointment scheduled")
	return a, nil
}

// List returns appointments matching the filter, ordered by date.
func (m *AppointmentManager) List(filter database.AppointmentFilter) ([]*database.Appointment, error) {
	return m.db.ListAppointments(filter)
}

// ListForDay returns all appointments on the given calendar day.
func (m *AppointmentManager) ListForDay(day time.Time) ([]*database.Appointment, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	return m.db.ListAppointments(database.AppointmentFilter{
		From: start,
		To:   start.AddDate(0, 0, 1),
	})
}

// ListForPet returns the appointment history of one pet.
func (m *AppointmentManager) ListForPet(petID int64) ([]*database.Appointment, error) {
	return m.db.ListAppointments(database.AppointmentFilter{PetID: petID})
}

// Get returns one appointment or ErrNotFound.
func (m *AppointmentManager) Get(id int64) (*database.Appointment, error) {
	a, err := m.db.GetAppointment(id)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, fmt.Errorf("appointment %d: %w", id, ErrNotFound)
	}
	return a, nil
}

// Update applies a partial update to an existing appointment. Status changes
// go through the lifecycle methods, not here.
func (m *AppointmentManager) Update(id int64, in AppointmentInput) (*database.Appointment, error) {
	a, err := m.Get(id)
	if err != nil {
		return nil, err
	}

	switch a.Status {
	case database.AppointmentStatusCompleted, database.AppointmentStatusCancelled, database.AppointmentStatusNoShow:
		if in.Notes == nil || in.PetID != nil || in.AppointmentDate != nil || in.DurationMinutes != nil || in.Type != nil {
			return nil, invalidf("status", "cannot modify a %s appointment", a.Status)
		}
	}

	if in.PetID != nil && *in.PetID != a.PetID {
		pet, err := m.db.GetPet(*in.PetID)
		if err != nil {
			return nil, err
		}
		if pet == nil {
			return nil, fmt.Errorf("pet %d: %w", *in.PetID, ErrNotFound)
		}
		a.PetID = *in.PetID
	}
	if in.VeterinarianID != nil {
		if err := m.validateVeterinarian(in.VeterinarianID); err != nil {
			return nil, err
		}
		a.VeterinarianID = in.VeterinarianID
	}
	if in.AppointmentDate != nil {
		if in.AppointmentDate.Before(time.Now()) {
			return nil, invalidf("appointment_date", "appointment date cannot be in the past")
		}
		a.AppointmentDate = *in.AppointmentDate
	}
	if in.Type != nil {
		if _, ok := DefaultDurations[*in.Type]; !ok {
			return nil, invalidf("type", "unknown appointment type: %s", *in.Type)
		}
		a.Type = *in.Type
	}
	if in.DurationMinutes != nil {
		if *in.DurationMinutes < 1 || *in.DurationMinutes > 480 {
			return nil, invalidf("duration_minutes", "duration must be between 1 and 480 minutes")
		}
		a.DurationMinutes = *in.DurationMinutes
	}
	if in.Reason != nil {
		a.Reason = strings.TrimSpace(*in.Reason)
	}
	if in.Notes != nil {
		a.Notes = strings.TrimSpace(*in.Notes)
	}

	if in.AppointmentDate != nil || in.DurationMinutes != nil || in.VeterinarianID != nil {
		if err := m.checkOverlap(a); err != nil {
			return nil, err
		}
	}

	if err := m.db.UpdateAppointment(a); err != nil {
		return nil, err
	}
	return a, nil
}

// Confirm moves a scheduled appointment to confirmed.
func (m *AppointmentManager) Confirm(id int64) (*database.Appointment, error) {
	return m.transition(id, database.AppointmentStatusConfirmed)
}

// Start moves a confirmed appointment to in_progress.
func (m *AppointmentManager) Start(id int64) (*database.Appointment, error) {
	return m.transition(id, database.AppointmentStatusInProgress)
}

// Complete moves an in_progress appointment to completed, optionally recording notes.
func (m *AppointmentManager) Complete(id int64, notes string) (*database.Appointment, error) {
	a, err := m.transition(id, database.AppointmentStatusCompleted)
	if err != nil {
		return nil, err
	}
	if notes = strings.TrimSpace(notes); notes != "" {
		a.Notes = notes
		if err := m.db.UpdateAppointment(a); err != nil {
			return nil, err
		}
	}
	return a, nil
}

// Cancel cancels an appointment that has not finished yet, optionally recording why.
func (m *AppointmentManager) Cancel(id int64, reason string) (*database.Appointment, error) {
	a, err := m.transition(id, database.AppointmentStatusCancelled)
	if err != nil {
		return nil, err
	}
	if reason = strings.TrimSpace(reason); reason != "" {
		a.Notes = "Cancelled: " + reason
		if err := m.db.UpdateAppointment(a); err != nil {
			return nil, err
		}
	}
	return a, nil
}

// MarkNoShow flags a scheduled or confirmed appointment the client missed.
func (m *AppointmentManager) MarkNoShow(id int64) (*database.Appointment, error) {
	return m.transition(id, database.AppointmentStatusNoShow)
}

func (m *AppointmentManager) transition(id int64, to database.AppointmentStatus) (*database.Appointment, error) {
	a, err := m.Get(id)
	if err != nil {
		return nil, err
	}

	allowed := false
	for _, next := range statusTransitions[a.Status] {
		if next == to {
			allowed = true
			break
		}
	}
	if !allowed {
		return nil, invalidf("status", "cannot move appointment from %s to %s", a.Status, to)
	}

	a.Status = to
	if err := m.db.UpdateAppointment(a); err != nil {
		return nil, err
	}

	log.Info().Int64("appointment_id", a.ID).Str("status", string(to)).Msg("Appointment status changed")
	return a, nil
}

// Delete removes an appointment unconditionally, regardless of status.
func (m *AppointmentManager) Delete(id int64) error {
	if _, err := m.Get(id); err != nil {
		return err
	}
	if err := m.db.DeleteAppointment(id); err != nil {
		return err
	}
	log.Info().Int64("appointment_id", id).Msg("Appointment deleted")
	return nil
}

// CountByStatus returns appointment counts per status for dashboard reporting.
func (m *AppointmentManager) CountByStatus() (map[database.AppointmentStatus]int, error) {
	return m.db.CountAppointmentsByStatus()
}

func (m *AppointmentManager) validateVeterinarian(vetID *int64) error {
	if vetID == nil {
		return nil
	}
	vet, err := m.db.GetUserByID(*vetID)
	if err != nil {
		return err
	}
	if vet == nil {
		return fmt.Errorf("veterinarian %d: %w", *vetID, ErrNotFound)
	}
	if vet.Role != database.RoleVeterinarian && vet.Role != database.RoleAdmin {
		return invalidf("veterinarian_id", "user %s is not a veterinarian", vet.Username)
	}
	if !vet.IsActive {
		return invalidf("veterinarian_id", "veterinarian account is inactive")
	}
	return nil
}

// checkOverlap rejects a slot when the same veterinarian already has a live
// appointment overlapping it. Unassigned appointments never conflict.
func (m *AppointmentManager) checkOverlap(a *database.Appointment) error {
	if a.VeterinarianID == nil {
		return nil
	}

	day := a.AppointmentDate
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	others, err := m.db.ListAppointments(database.AppointmentFilter{
		From: start,
		To:   start.AddDate(0, 0, 1),
	})
	if err != nil {
		return err
	}

	for _, other := range others {
		if other.ID == a.ID || other.VeterinarianID == nil || *other.VeterinarianID != *a.VeterinarianID {
			continue
		}
		switch other.Status {
		case database.AppointmentStatusCancelled, database.AppointmentStatusNoShow:
			continue
		}
		if a.AppointmentDate.Before(other.EndTime()) && other.AppointmentDate.Before(a.EndTime()) {
			return invalidf("appointment_date", "veterinarian already has an appointment at this time")
		}
	}
	return nil
}
