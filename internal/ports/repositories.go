package ports

import (
	"context"
	"errors"

	"freight-assignment-service/internal/domain"
)

// ErrPlanNotFound is returned by PlanStore.GetPlan for unknown plan ids.
var ErrPlanNotFound = errors.New("plan not found")

// Port: a boundary for retrieving consignment records from a data source.
type ConsignmentRepository interface {
	ListConsignments(ctx context.Context) ([]domain.ConsignmentRecord, error)
}

// Port: a boundary for retrieving truck records, routes included.
type TruckRepository interface {
	ListTrucks(ctx context.Context) ([]domain.TruckRecord, error)
}

// Port: a boundary for retrieving sorting facility records.
type FacilityRepository interface {
	ListFacilities(ctx context.Context) ([]domain.FacilityRecord, error)
}

// Port: a boundary for retrieving the given travel matrix.
type TravelLegRepository interface {
	ListTravelLegs(ctx context.Context) ([]domain.TravelLeg, error)
}

// Port: persistence for solved plans.
type PlanStore interface {
	SavePlan(ctx context.Context, p *domain.Plan) error
	GetPlan(ctx context.Context, id string) (*domain.Plan, error)
}
