package handlers

import (
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/pawsoft/vetclinic/internal/database"
	"github.com/pawsoft/vetclinic/internal/inventory"
)

// DashboardData aggregates the counters and lists shown on the landing page.
type DashboardData struct {
	ClientCount   int
	PetCount      int
	StatusCounts  map[database.AppointmentStatus]int
	TodaySchedule []*ScheduleEntry
	Upcoming      []*ScheduleEntry
	LowStock      []inventory.LowStockItem
	OverdueCount  int
}

// ScheduleEntry joins an appointment with its pet, owner and veterinarian.
type ScheduleEntry struct {
	Appointment  *database.Appointment
	Pet          *database.Pet
	Client       *database.Client
	Veterinarian *database.UserRecord
}

// Dashboard renders the landing page
func (h *Handlers) Dashboard(w http.ResponseWriter, r *http.Request) {
	data := DashboardData{}
	var err error

	if data.ClientCount, err = h.db.CountClients(); err != nil {
		log.Error().Err(err).Msg("Failed to count clients")
	}
	if data.PetCount, err = h.db.CountPets(); err != nil {
		log.Error().Err(err).Msg("Failed to count pets")
	}
	if data.StatusCounts, err = h.appointments.CountByStatus(); err != nil {
		log.Error().Err(err).Msg("Failed to count appointments")
	}

	today, err := h.appointments.ListForDay(time.Now())
	if err != nil {
		log.Error().Err(err).Msg("Failed to load today's schedule")
	}
	data.TodaySchedule = h.joinSchedule(today)

	tomorrow := time.Now().AddDate(0, 0, 1)
	upcoming, err := h.appointments.List(database.AppointmentFilter{
		From: time.Date(tomorrow.Year(), tomorrow.Month(), tomorrow.Day(), 0, 0, 0, 0, tomorrow.Location()),
		To:   time.Now().AddDate(0, 0, 8),
	})
	if err != nil {
		log.Error().Err(err).Msg("Failed to load upcoming appointments")
	}
	if len(upcoming) > 10 {
		upcoming = upcoming[:10]
	}
	data.Upcoming = h.joinSchedule(upcoming)

	if data.LowStock, err = h.inventory.LowStock(); err != nil {
		log.Error().Err(err).Msg("Failed to load low stock report")
	}

	overdue, err := h.billing.List(database.InvoiceFilter{Status: database.InvoiceStatusOverdue})
	if err != nil {
		log.Error().Err(err).Msg("Failed to load overdue invoices")
	}
	data.OverdueCount = len(overdue)

	h.render(w, r, "dashboard.html", data)
}

// joinSchedule resolves pet, owner and veterinarian for each appointment.
func (h *Handlers) joinSchedule(appointments []*database.Appointment) []*ScheduleEntry {
	entries := make([]*ScheduleEntry, 0, len(appointments))
	for _, a := range appointments {
		entry := &ScheduleEntry{Appointment: a}

		pet, err := h.db.GetPet(a.PetID)
		if err != nil {
			log.Error().Err(err).Int64("pet_id", a.PetID).Msg("Failed to load pet for schedule")
		}
		entry.Pet = pet

		if pet != nil {
			client, err := h.db.GetClient(pet.ClientID)
			if err != nil {
				log.Error().Err(err).Int64("client_id", pet.ClientID).Msg("Failed to load client for schedule")
			}
			entry.Client = client
		}

		if a.VeterinarianID != nil {
			vet, err := h.db.GetUserByID(*a.VeterinarianID)
			if err != nil {
				log.Error().Err(err).Int64("user_id", *a.VeterinarianID).Msg("Failed to load veterinarian for schedule")
			}
			entry.Veterinarian = vet
		}

		entries = append(entries, entry)
	}
	return entries
}
