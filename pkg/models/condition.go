package models

// Operator is a comparison applied by a Condition.
type Operator string

const (
	OperatorEquals      Operator = "equals"
	OperatorNotEquals   Operator = "not_equals"
	OperatorGreaterThan Operator = "greater_than"
	OperatorLessThan    Operator = "less_than"
	OperatorContains    Operator = "contains"
	OperatorNotContains Operator = "not_contains"
)

// Condition compares one execution context field with an expected value.
type Condition struct {
	Field    string   `json:"field"    validate:"required"`
	Operator Operator `json:"operator" validate:"required,oneof=equals not_equals greater_than less_than contains not_contains"`
	Value    any      `json:"value"`
}
