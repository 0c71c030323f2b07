package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"chargepoint-occupancy/internal/occupancy/application"
	occupancy "chargepoint-occupancy/internal/occupancy/domain"
)

const timeLayout = time.RFC3339

type chargePointDTO struct {
	ID                string  `json:"id"`
	Longitude         float64 `json:"longitude"`
	Latitude          float64 `json:"latitude"`
	ChargePointType   string  `json:"charge_point_type"`
	Address           string  `json:"address"`
	TotalOccupied     int     `json:"total_occ"`
	TotalPartial      int     `json:"total_part"`
	TotalOutOfService int     `json:"total_oos"`
	TotalOutOfContact int     `json:"total_ooc"`
}

type dateIntervalDTO struct {
	Min string `json:"min"`
	Max string `json:"max"`
}

type windowDTO struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Days      int    `json:"days"`
}

type locationScoreDTO struct {
	Longitude       float64              `json:"longitude"`
	Latitude        float64              `json:"latitude"`
	Address         string               `json:"address"`
	ChargePointType []occupancy.Category `json:"charge_point_types"`
	Points          int                  `json:"points"`
	Score           float64              `json:"score"`
}

type scoresDTO struct {
	Window      windowDTO                `json:"window"`
	Aggregator  occupancy.AggregatorKind `json:"aggregator"`
	TicksPerDay int                      `json:"ticks_per_day"`
	Divisor     int                      `json:"divisor"`
	Records     int                      `json:"records"`
	ComputedAt  string                   `json:"computed_at"`
	Locations   []locationScoreDTO       `json:"locations"`
}

type breakdownRowDTO struct {
	ID                string  `json:"id"`
	ChargePointType   string  `json:"charge_point_type"`
	FullyOccupied     float64 `json:"fully_occupied"`
	PartiallyOccupied float64 `json:"partially_occupied"`
	OutOfService      float64 `json:"out_of_service"`
	OutOfContact      float64 `json:"out_of_contact"`
}

type breakdownDTO struct {
	Window    windowDTO         `json:"window"`
	Divisor   int               `json:"divisor"`
	Longitude float64           `json:"longitude"`
	Latitude  float64           `json:"latitude"`
	Address   string            `json:"address"`
	Rows      []breakdownRowDTO `json:"rows"`
}

func toChargePointDTOs(records []occupancy.ChargePointRecord) []chargePointDTO {
	out := make([]chargePointDTO, 0, len(records))
	for _, record := range records {
		out = append(out, chargePointDTO{
			ID:                record.ID,
			Longitude:         record.Location.Longitude,
			Latitude:          record.Location.Latitude,
			ChargePointType:   string(record.Category),
			Address:           record.Address,
			TotalOccupied:     record.Counts.FullyOccupied,
			TotalPartial:      record.Counts.PartiallyOccupied,
			TotalOutOfService: record.Counts.OutOfService,
			TotalOutOfContact: record.Counts.OutOfContact,
		})
	}
	return out
}

func toWindowDTO(window occupancy.ResolvedWindow) windowDTO {
	return windowDTO{
		StartDate: occupancy.FormatDate(window.StartDate),
		EndDate:   occupancy.FormatDate(window.EndDate),
		StartTime: window.StartTime.String(),
		EndTime:   window.EndTime.String(),
		Days:      window.DayCount(),
	}
}

func toScoresDTO(result *application.ScoringResult) scoresDTO {
	locations := make([]locationScoreDTO, 0, len(result.Locations))
	for _, loc := range result.Locations {
		locations = append(locations, locationScoreDTO{
			Longitude:       loc.Location.Longitude,
			Latitude:        loc.Location.Latitude,
			Address:         loc.Address,
			ChargePointType: loc.Categories,
			Points:          loc.Points,
			Score:           loc.Score,
		})
	}
	return scoresDTO{
		Window:      toWindowDTO(result.Window),
		Aggregator:  result.Aggregator,
		TicksPerDay: result.Divisor.TicksPerDay,
		Divisor:     result.Divisor.Value(),
		Records:     result.Records,
		ComputedAt:  result.ComputedAt.Format(timeLayout),
		Locations:   locations,
	}
}

func toBreakdownDTO(result *application.BreakdownResult) breakdownDTO {
	rows := make([]breakdownRowDTO, 0, len(result.Rows))
	for _, row := range result.Rows {
		rows = append(rows, breakdownRowDTO{
			ID:                row.RecordID,
			ChargePointType:   string(row.Category),
			FullyOccupied:     row.FullyOccupied,
			PartiallyOccupied: row.PartiallyOccupied,
			OutOfService:      row.OutOfService,
			OutOfContact:      row.OutOfContact,
		})
	}
	return breakdownDTO{
		Window:    toWindowDTO(result.Window),
		Divisor:   result.Divisor.Value(),
		Longitude: result.Location.Longitude,
		Latitude:  result.Location.Latitude,
		Address:   result.Address,
		Rows:      rows,
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, errBadRequest),
		errors.Is(err, occupancy.ErrInvalidWindow),
		errors.Is(err, occupancy.ErrInvalidTimeOfDay):
		return http.StatusBadRequest
	case errors.Is(err, occupancy.ErrNoData),
		errors.Is(err, application.ErrLocationNotFound):
		return http.StatusNotFound
	case errors.Is(err, occupancy.ErrNegativeCount):
		// corrupt source data is a server fault
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		message = "internal error"
	}
	http.Error(w, message, status)
}
