package handlers

import (
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/pawsoft/vetclinic/internal/clinic"
	"github.com/pawsoft/vetclinic/internal/database"
	"github.com/pawsoft/vetclinic/internal/web/middleware"
)

// AppointmentsPage lists appointments. A ?date=yyyy-mm-dd query narrows the
// list to one day; ?status= filters by lifecycle status.
func (h *Handlers) AppointmentsPage(w http.ResponseWriter, r *http.Request) {
	var (
		appointments []*database.Appointment
		err          error
	)

	day := r.URL.Query().Get("date")
	status := r.URL.Query().Get("status")

	if day != "" {
		t, perr := time.ParseInLocation(dateLayout, day, time.Local)
		if perr != nil {
			h.flashErr(w, "Invalid date filter, showing all appointments")
			h.redirect(w, r, "/appointments")
			return
		}
		appointments, err = h.appointments.ListForDay(t)
	} else {
		appointments, err = h.appointments.List(database.AppointmentFilter{
			Status: database.AppointmentStatus(status),
		})
	}
	if err != nil {
		log.Error().Err(err).Msg("Failed to list appointments")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	h.render(w, r, "appointments.html", map[string]any{
		"Entries": h.joinSchedule(appointments),
		"Date":    day,
		"Status":  status,
	})
}

// AppointmentNew renders the empty scheduling form
func (h *Handlers) AppointmentNew(w http.ResponseWriter, r *http.Request) {
	h.renderAppointmentForm(w, r, nil)
}

func (h *Handlers) renderAppointmentForm(w http.ResponseWriter, r *http.Request, appt *database.Appointment) {
	pets, err := h.pets.ListActive()
	if err != nil {
		log.Error().Err(err).Msg("Failed to list pets")
	}
	vets, err := h.authService.ListVeterinarians()
	if err != nil {
		log.Error().Err(err).Msg("Failed to list veterinarians")
	}

	h.render(w, r, "appointment_form.html", map[string]any{
		"Appointment":   appt,
		"Pets":          pets,
		"Veterinarians": vets,
		"Durations":     clinic.DefaultDurations,
	})
}

// AppointmentCreate handles the scheduling form submission
func (h *Handlers) AppointmentCreate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.flashErr(w, "Invalid form submission")
		h.redirect(w, r, "/appointments/new")
		return
	}

	in := appointmentInput(r)
	if user := middleware.GetUser(r.Context()); user != nil {
		in.CreatedBy = &user.ID
	}

	if _, err := h.appointments.Schedule(in); err != nil {
		h.handleManagerError(w, r, err, "/appointments/new")
		return
	}

	h.flash(w, "Appointment scheduled")
	h.redirect(w, r, "/appointments")
}

// AppointmentEdit renders the scheduling form with existing values
func (h *Handlers) AppointmentEdit(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r)
	if err != nil {
		h.NotFound(w, r)
		return
	}

	appt, err := h.appointments.Get(id)
	if err != nil {
		h.handleManagerError(w, r, err, "/appointments")
		return
	}
	h.renderAppointmentForm(w, r, appt)
}

// AppointmentUpdate handles the edit form submission
func (h *Handlers) AppointmentUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r)
	if err != nil {
		h.NotFound(w, r)
		return
	}
	if err := r.ParseForm(); err != nil {
		h.flashErr(w, "Invalid form submission")
		h.redirect(w, r, "/appointments")
		return
	}

	if _, err := h.appointments.Update(id, appointmentInput(r)); err != nil {
		h.handleManagerError(w, r, err, "/appointments")
		return
	}

	h.flash(w, "Appointment updated")
	h.redirect(w, r, "/appointments")
}

// AppointmentConfirm moves an appointment to confirmed
func (h *Handlers) AppointmentConfirm(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.appointments.Confirm, "Appointment confirmed")
}

// AppointmentStart moves an appointment to in progress
func (h *Handlers) AppointmentStart(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.appointments.Start, "Appointment started")
}

// AppointmentComplete finishes an appointment, recording optional notes
func (h *Handlers) AppointmentComplete(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r)
	if err != nil {
		h.NotFound(w, r)
		return
	}

	if _, err := h.appointments.Complete(id, r.FormValue("notes")); err != nil {
		h.handleManagerError(w, r, err, "/appointments")
		return
	}

	h.flash(w, "Appointment completed")
	h.redirect(w, r, "/appointments")
}

// AppointmentCancel cancels an appointment
func (h *Handlers) AppointmentCancel(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(id int64) (*database.Appointment, error) {
		return h.appointments.Cancel(id, r.FormValue("reason"))
	}, "Appointment cancelled")
}

// AppointmentNoShow flags a missed appointment
func (h *Handlers) AppointmentNoShow(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.appointments.MarkNoShow, "Appointment marked as no-show")
}

func (h *Handlers) transition(w http.ResponseWriter, r *http.Request, fn func(int64) (*database.Appointment, error), message string) {
	id, err := urlID(r)
	if err != nil {
		h.NotFound(w, r)
		return
	}

	if _, err := fn(id); err != nil {
		h.handleManagerError(w, r, err, "/appointments")
		return
	}

	h.flash(w, message)
	h.redirect(w, r, "/appointments")
}

// AppointmentDelete removes an appointment (XHR)
func (h *Handlers) AppointmentDelete(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r)
	if err != nil {
		h.jsonError(w, "Invalid appointment id", http.StatusBadRequest)
		return
	}

	if err := h.appointments.Delete(id); err != nil {
		h.jsonManagerError(w, r, err)
		return
	}
	h.jsonSuccess(w, "Appointment deleted")
}

func appointmentInput(r *http.Request) clinic.AppointmentInput {
	in := clinic.AppointmentInput{
		PetID:           formInt64(r, "pet_id"),
		VeterinarianID:  formInt64(r, "veterinarian_id"),
		AppointmentDate: formDateTime(r, "appointment_date"),
		DurationMinutes: formInt(r, "duration_minutes"),
		Reason:          formString(r, "reason"),
		Notes:           formString(r, "notes"),
	}
	if v := r.FormValue("appointment_type"); v != "" {
		apptType := database.AppointmentType(v)
		in.Type = &apptType
	}
	return in
}
