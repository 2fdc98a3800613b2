package models

import "github.com/diewo77/freelance-pro/validation"

// Client is a customer of the freelancer.
type Client struct {
	Meta

	Name    string `json:"name"`
	Email   string `json:"email,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Company string `json:"company,omitempty"`
	Address string `json:"address,omitempty"`
	Notes   string `json:"notes,omitempty"`
}

func (c Client) Label() string { return c.Name }

func (c Client) Validate() validation.Violations {
	v := make(validation.Violations)
	validation.Required("name", c.Name, v)
	validation.Email("email", c.Email, v)
	return v
}
