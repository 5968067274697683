package domain

// TravelLeg is one row of the given travel matrix: distance and duration
// between a directed pair of route nodes.
type TravelLeg struct {
	Origin          string
	Destination     string
	DistanceMeters  int
	DurationSeconds int
}
