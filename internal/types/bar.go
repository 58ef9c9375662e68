package types

import "time"

// DateLayout is the calendar-date layout used for bar dates, start dates and
// the prediction date reported to agents.
const DateLayout = "2006-01-02"

// PriceBar is one trading period's open/high/low/close/volume summary.
// Bars are immutable once produced by a price bar source.
type PriceBar struct {
	Symbol string    `json:"symbol" yaml:"symbol" csv:"symbol"`
	Time   time.Time `json:"open_time" yaml:"open_time" csv:"time"`
	Open   float64   `json:"open" yaml:"open" csv:"open"`
	High   float64   `json:"high" yaml:"high" csv:"high"`
	Low    float64   `json:"low" yaml:"low" csv:"low"`
	Close  float64   `json:"close" yaml:"close" csv:"close"`
	Volume float64   `json:"volume" yaml:"volume" csv:"volume"`
}

// ObservationSize is the number of components in an Observation.
const ObservationSize = 5

// Observation is the vector handed to a decision agent: open, high, low, close
// and volume of the bar under the cursor, in that order.
type Observation [ObservationSize]float64

// NewObservation builds the observation vector for a bar.
func NewObservation(bar PriceBar) Observation {
	return Observation{bar.Open, bar.High, bar.Low, bar.Close, bar.Volume}
}

// Open returns the open price component.
func (o Observation) Open() float64 { return o[0] }

// High returns the high price component.
func (o Observation) High() float64 { return o[1] }

// Low returns the low price component.
func (o Observation) Low() float64 { return o[2] }

// Close returns the close price component.
func (o Observation) Close() float64 { return o[3] }

// Volume returns the volume component.
func (o Observation) Volume() float64 { return o[4] }

// Slice returns the observation as a freshly allocated slice.
func (o Observation) Slice() []float64 {
	out := make([]float64, ObservationSize)
	copy(out, o[:])

	return out
}
