package types

import "time"

// DateLayout is the calendar-day format used for every Date field.
const DateLayout = "2006-01-02"

// RawMeasurement is one diameter observation as read from a record source.
type RawMeasurement struct {
	Timestamp  time.Time `json:"timestamp"`
	EntityID   int       `json:"entity_id"`
	Diameter   float64   `json:"diameter"`   // centimetres
	Confidence float64   `json:"confidence"` // detector score in [0, 1]
}

// Measurement is a RawMeasurement that passed the confidence filter, tagged
// with the calendar day of its timestamp.
type Measurement struct {
	RawMeasurement
	Date string `json:"date"`
}

// FleetDailyPoint summarises every lemon measured on one date.
type FleetDailyPoint struct {
	Date   string  `json:"date"`
	Median float64 `json:"median"`
	Q25    float64 `json:"q25"`
	Q75    float64 `json:"q75"`
	Count  int     `json:"count"` // distinct lemons, not samples
}

// EntityDailyPoint is one lemon's median diameter on one date.
type EntityDailyPoint struct {
	EntityID int     `json:"entity_id"`
	Date     string  `json:"date"`
	Median   float64 `json:"median"`
}

// AnomalyKind classifies the direction of a day-over-day change.
type AnomalyKind string

const (
	AnomalySpike AnomalyKind = "spike"
	AnomalyDrop  AnomalyKind = "drop"
)

// AnomalyEvent is a day-over-day median change whose magnitude reached the
// detection threshold.
type AnomalyEvent struct {
	EntityID     int         `json:"entity_id"`
	Date         string      `json:"date"`
	Diameter     float64     `json:"diameter"`
	PrevDiameter float64     `json:"prev_diameter"`
	Delta        float64     `json:"delta"`
	Kind         AnomalyKind `json:"kind"`
}

// SummaryStats is the headline block of the aggregated view.
type SummaryStats struct {
	LemonsToday    int     `json:"lemons_today"`
	LemonsDelta    int     `json:"lemons_delta"`
	MedianDiameter float64 `json:"median_diameter"`
	DiameterDelta  float64 `json:"diameter_delta"`
	DaysMonitored  int     `json:"days_monitored"`
	DateRange      string  `json:"date_range"`
	AvgConfidence  float64 `json:"avg_confidence"`
	Measurements   int     `json:"measurements"`
	LatestDate     string  `json:"latest_date"`
}
