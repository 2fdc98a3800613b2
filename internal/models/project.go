package models

import (
	"time"

	"github.com/diewo77/freelance-pro/validation"
)

type ProjectStatus string

const (
	ProjectStatusNotStarted ProjectStatus = "not_started"
	ProjectStatusInProgress ProjectStatus = "in_progress"
	ProjectStatusCompleted  ProjectStatus = "completed"
	ProjectStatusOnHold     ProjectStatus = "on_hold"
)

var projectStatuses = []string{
	string(ProjectStatusNotStarted),
	string(ProjectStatusInProgress),
	string(ProjectStatusCompleted),
	string(ProjectStatusOnHold),
}

// Project is a piece of client work billed hourly or at a fixed price.
type Project struct {
	Meta

	ClientID    string        `json:"client_id"`
	Name        string        `json:"name"`
	Description string        `json:"description,omitempty"`
	Status      ProjectStatus `json:"status"`
	Category    string        `json:"category,omitempty"`
	HourlyRate  float64       `json:"hourly_rate,omitempty"`
	FixedPrice  float64       `json:"fixed_price,omitempty"`
	StartDate   time.Time     `json:"start_date,omitzero"`
	EndDate     time.Time     `json:"end_date,omitzero"`
}

func (p Project) Label() string { return p.Name }

func (p Project) Validate() validation.Violations {
	v := make(validation.Violations)
	validation.MinLength("name", p.Name, 2, v)
	validation.Required("client_id", p.ClientID, v)
	validation.OneOf("status", string(p.Status), projectStatuses, v)
	validation.NonNegativeFloat("hourly_rate", p.HourlyRate, v)
	validation.NonNegativeFloat("fixed_price", p.FixedPrice, v)
	validation.NotBefore("end_date", p.StartDate, p.EndDate, v)
	return v
}
