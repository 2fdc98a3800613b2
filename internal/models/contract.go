package models

import (
	"time"

	"github.com/diewo77/freelance-pro/validation"
)

type ContractStatus string

const (
	ContractStatusActive  ContractStatus = "active"
	ContractStatusExpired ContractStatus = "expired"
	ContractStatusPending ContractStatus = "pending"
	ContractStatusDraft   ContractStatus = "draft"
)

var contractStatuses = []string{
	string(ContractStatusActive),
	string(ContractStatusExpired),
	string(ContractStatusPending),
	string(ContractStatusDraft),
}

// Contract is an agreement with a client, optionally tied to a project.
type Contract struct {
	Meta

	ClientID    string         `json:"client_id"`
	ProjectID   string         `json:"project_id"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Status      ContractStatus `json:"status"`
	StartDate   time.Time      `json:"start_date,omitzero"`
	EndDate     time.Time      `json:"end_date,omitzero"`
	Value       float64        `json:"value"`
	Terms       string         `json:"terms"`
}

func (c Contract) Label() string { return c.Title }

// IsActive reports whether the contract currently counts towards committed value.
func (c Contract) IsActive() bool { return c.Status == ContractStatusActive }

func (c Contract) Validate() validation.Violations {
	v := make(validation.Violations)
	validation.Required("title", c.Title, v)
	validation.Required("client_id", c.ClientID, v)
	validation.OneOf("status", string(c.Status), contractStatuses, v)
	validation.NonNegativeFloat("value", c.Value, v)
	validation.NotBefore("end_date", c.StartDate, c.EndDate, v)
	return v
}
