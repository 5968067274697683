package domain

// Raw consignment row as loaded from storage.
// Time fields keep their source representation until normalization.
type ConsignmentRecord struct {
	ID          string
	Source      string
	Destination string
	Weight      float64
	ReleaseTime string
	Deadline    string
}

// Consignment ready for planning.
// All times are fractional minutes on the normalized timeline.
type Consignment struct {
	ID          string
	Source      string
	Destination string
	Weight      float64
	ReleaseMin  float64
	DeadlineMin *float64
}
