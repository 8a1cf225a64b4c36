package domain

import "time"

// OperatorSighting is a carrier name broadcast by a cell alongside its code.
type OperatorSighting struct {
	Code string
	Name string
}

// LearnedOperator is a code to name mapping remembered across runs.
type LearnedOperator struct {
	Code      string
	Name      string
	UpdatedAt time.Time
}
