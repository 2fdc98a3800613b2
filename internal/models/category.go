package models

// Category classifies projects. The set is fixed and ships with the binary.
type Category struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}
