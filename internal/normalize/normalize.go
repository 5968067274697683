package normalize

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"freight-assignment-service/internal/domain"
)

// Config anchors the normalized timeline. All output times are fractional
// minutes since midnight of ReferenceDay.
type Config struct {
	ReferenceDay time.Time
	HorizonDays  int
}

const defaultHorizonDays = 2

// Inputs bundles the raw records for one planning run.
type Inputs struct {
	Consignments []domain.ConsignmentRecord
	Trucks       []domain.TruckRecord
	Facilities   []domain.FacilityRecord
	TravelLegs   []domain.TravelLeg
}

// Data is the normalized planning input: every time value is a minute offset
// on one shared axis, directly comparable across records.
type Data struct {
	Consignments []domain.Consignment
	Trucks       []domain.Truck
	Facilities   map[string]*domain.Facility
	HorizonMin   float64
}

// Normalize validates the raw records and converts their heterogeneous time
// representations onto the shared minute timeline. Shift windows that end
// before they start span midnight and get 24h added to the end. Missing
// required fields fail with a DataValidationError naming the record; no
// required field is ever defaulted.
func Normalize(in Inputs, cfg Config) (*Data, error) {
	ref := cfg.ReferenceDay
	if ref.IsZero() {
		now := time.Now().UTC()
		ref = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	}
	days := cfg.HorizonDays
	if days <= 0 {
		days = defaultHorizonDays
	}
	horizon := float64(days) * 24 * 60

	travel, err := travelIndex(in.TravelLegs)
	if err != nil {
		return nil, fmt.Errorf("normalize travel legs: %w", err)
	}

	facilities, err := normalizeFacilities(in.Facilities, horizon)
	if err != nil {
		return nil, fmt.Errorf("normalize facilities: %w", err)
	}

	trucks, err := normalizeTrucks(in.Trucks, travel)
	if err != nil {
		return nil, fmt.Errorf("normalize trucks: %w", err)
	}

	consignments, err := normalizeConsignments(in.Consignments, facilities, ref)
	if err != nil {
		return nil, fmt.Errorf("normalize consignments: %w", err)
	}

	return &Data{
		Consignments: consignments,
		Trucks:       trucks,
		Facilities:   facilities,
		HorizonMin:   horizon,
	}, nil
}

type legKey struct{ origin, destination string }

func travelIndex(legs []domain.TravelLeg) (map[legKey]domain.TravelLeg, error) {
	idx := make(map[legKey]domain.TravelLeg, len(legs))
	for _, l := range legs {
		record := fmt.Sprintf("travel leg %q -> %q", l.Origin, l.Destination)
		if strings.TrimSpace(l.Origin) == "" || strings.TrimSpace(l.Destination) == "" {
			return nil, &domain.DataValidationError{Record: record, Field: "origin/destination", Reason: "missing"}
		}
		if l.DurationSeconds < 0 || l.DistanceMeters < 0 {
			return nil, &domain.DataValidationError{Record: record, Field: "distance/duration", Reason: "negative"}
		}
		idx[legKey{l.Origin, l.Destination}] = l
	}
	return idx, nil
}

func normalizeFacilities(records []domain.FacilityRecord, horizon float64) (map[string]*domain.Facility, error) {
	out := make(map[string]*domain.Facility, len(records))
	for _, r := range records {
		record := fmt.Sprintf("facility %q", r.ID)
		if strings.TrimSpace(r.ID) == "" {
			return nil, &domain.DataValidationError{Record: "facility", Field: "id", Reason: "missing"}
		}
		if _, ok := out[r.ID]; ok {
			return nil, &domain.DataValidationError{Record: record, Field: "id", Reason: "duplicate"}
		}
		if r.SlotWidthMin <= 0 {
			return nil, &domain.DataValidationError{Record: record, Field: "slot_width_min", Reason: "must be positive"}
		}
		if r.SortingCapacityPerSlot < 0 {
			return nil, &domain.DataValidationError{Record: record, Field: "sorting_capacity_per_slot", Reason: "must be non-negative"}
		}

		out[r.ID] = &domain.Facility{
			ID:           r.ID,
			Name:         r.Name,
			Coords:       r.Coords,
			SlotCapacity: r.SortingCapacityPerSlot,
			SlotWidthMin: r.SlotWidthMin,
			// +1 keeps a slot for an arrival landing exactly on the horizon end.
			SlotCount: int(horizon/r.SlotWidthMin) + 1,
		}
	}
	return out, nil
}

func normalizeTrucks(records []domain.TruckRecord, travel map[legKey]domain.TravelLeg) ([]domain.Truck, error) {
	out := make([]domain.Truck, 0, len(records))
	seen := make(map[string]struct{}, len(records))

	for _, r := range records {
		record := fmt.Sprintf("truck %q", r.ID)
		if strings.TrimSpace(r.ID) == "" {
			return nil, &domain.DataValidationError{Record: "truck", Field: "id", Reason: "missing"}
		}
		if _, ok := seen[r.ID]; ok {
			return nil, &domain.DataValidationError{Record: record, Field: "id", Reason: "duplicate"}
		}
		seen[r.ID] = struct{}{}

		if r.Capacity <= 0 {
			return nil, &domain.DataValidationError{Record: record, Field: "capacity", Reason: "must be positive"}
		}
		if len(r.Route) < 2 {
			return nil, &domain.DataValidationError{Record: record, Field: "route", Reason: "needs at least two nodes"}
		}

		start, err := parseClock(r.ShiftStart)
		if err != nil {
			return nil, &domain.DataValidationError{Record: record, Field: "shift_start", Reason: err.Error()}
		}
		end, err := parseClock(r.ShiftEnd)
		if err != nil {
			return nil, &domain.DataValidationError{Record: record, Field: "shift_end", Reason: err.Error()}
		}
		// A shift ending before it starts spans midnight.
		if end < start {
			end += 24 * 60
		}

		cumMin := make([]float64, len(r.Route))
		cumMeters := make([]float64, len(r.Route))
		for i := 0; i+1 < len(r.Route); i++ {
			leg, ok := travel[legKey{r.Route[i], r.Route[i+1]}]
			if !ok {
				return nil, &domain.DataValidationError{
					Record: record,
					Field:  "route",
					Reason: fmt.Sprintf("no travel leg %q -> %q", r.Route[i], r.Route[i+1]),
				}
			}
			cumMin[i+1] = cumMin[i] + float64(leg.DurationSeconds)/60
			cumMeters[i+1] = cumMeters[i] + float64(leg.DistanceMeters)
		}

		out = append(out, domain.Truck{
			ID:               r.ID,
			Capacity:         r.Capacity,
			ShiftStartMin:    start,
			ShiftEndMin:      end,
			Route:            append([]string(nil), r.Route...),
			CumulativeMin:    cumMin,
			CumulativeMeters: cumMeters,
		})
	}
	return out, nil
}

func normalizeConsignments(records []domain.ConsignmentRecord, facilities map[string]*domain.Facility, ref time.Time) ([]domain.Consignment, error) {
	out := make([]domain.Consignment, 0, len(records))
	seen := make(map[string]struct{}, len(records))

	for _, r := range records {
		record := fmt.Sprintf("consignment %q", r.ID)
		if strings.TrimSpace(r.ID) == "" {
			return nil, &domain.DataValidationError{Record: "consignment", Field: "id", Reason: "missing"}
		}
		if _, ok := seen[r.ID]; ok {
			return nil, &domain.DataValidationError{Record: record, Field: "id", Reason: "duplicate"}
		}
		seen[r.ID] = struct{}{}

		if strings.TrimSpace(r.Source) == "" {
			return nil, &domain.DataValidationError{Record: record, Field: "source", Reason: "missing"}
		}
		if strings.TrimSpace(r.Destination) == "" {
			return nil, &domain.DataValidationError{Record: record, Field: "destination", Reason: "missing"}
		}
		if r.Source == r.Destination {
			return nil, &domain.DataValidationError{Record: record, Field: "destination", Reason: "equals source"}
		}
		if r.Weight <= 0 {
			return nil, &domain.DataValidationError{Record: record, Field: "weight", Reason: "must be positive"}
		}
		if _, ok := facilities[r.Destination]; !ok {
			return nil, &domain.DataValidationError{Record: record, Field: "destination", Reason: fmt.Sprintf("no facility %q", r.Destination)}
		}

		release, err := parseTimeline(r.ReleaseTime, ref)
		if err != nil {
			return nil, &domain.DataValidationError{Record: record, Field: "release_time", Reason: err.Error()}
		}
		// Releases before the reference day clamp to the horizon start.
		if release < 0 {
			release = 0
		}

		var deadline *float64
		if strings.TrimSpace(r.Deadline) != "" {
			d, err := parseTimeline(r.Deadline, ref)
			if err != nil {
				return nil, &domain.DataValidationError{Record: record, Field: "deadline", Reason: err.Error()}
			}
			if d <= release {
				return nil, &domain.DataValidationError{Record: record, Field: "deadline", Reason: "not after release_time"}
			}
			deadline = &d
		}

		out = append(out, domain.Consignment{
			ID:          r.ID,
			Source:      r.Source,
			Destination: r.Destination,
			Weight:      r.Weight,
			ReleaseMin:  release,
			DeadlineMin: deadline,
		})
	}
	return out, nil
}

// parseClock parses a wall-clock "HH:MM" into minutes since midnight.
func parseClock(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("missing")
	}

	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("want HH:MM, got %q", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("bad hour in %q", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("bad minute in %q", s)
	}
	return float64(h*60 + m), nil
}

// parseTimeline parses one of the declared release/deadline formats into
// minutes on the normalized timeline: an RFC 3339 timestamp, a wall-clock
// "HH:MM" on the reference day, or a bare decimal minute offset.
func parseTimeline(s string, ref time.Time) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("missing")
	}

	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return ts.Sub(ref).Minutes(), nil
	}
	if strings.Contains(s, ":") {
		return parseClock(s)
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return v, nil
	}
	return 0, fmt.Errorf("want RFC 3339, HH:MM or minutes, got %q", s)
}
