package model

import "time"

// Fund represents an individual scheme offered by an AMC. The display
// name is not unique on its own; SchemeCode is an external, semi-stable
// identifier that is unique when present. An empty SchemeCode means the
// feed has not yet supplied one (stored as NULL).
type Fund struct {
	ID         string    `json:"id"`
	AmcID      string    `json:"amcId"`
	Name       string    `json:"name"`
	SchemeCode string    `json:"schemeCode,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}
