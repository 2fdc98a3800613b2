// Package services wires the per-domain record stores together and holds
// the business calculations built on top of them.
package services

import (
	"github.com/diewo77/freelance-pro/internal/cache"
	"github.com/diewo77/freelance-pro/internal/models"
	"github.com/diewo77/freelance-pro/internal/seed"
	"github.com/diewo77/freelance-pro/internal/storage"
)

type (
	ClientStore   = cache.Store[models.Client, *models.Client]
	ContractStore = cache.Store[models.Contract, *models.Contract]
	InvoiceStore  = cache.Store[models.Invoice, *models.Invoice]
	ProjectStore  = cache.Store[models.Project, *models.Project]
)

// Stores groups one store per domain over the same storage and bus.
type Stores struct {
	Clients    *ClientStore
	Contracts  *ContractStore
	Invoices   *InvoiceStore
	Projects   *ProjectStore
	Categories *seed.Catalog[models.Category]
}

func NewStores(st storage.Storage, opts cache.Options) *Stores {
	return &Stores{
		Clients:    cache.New[models.Client](cache.ClientsDomain, seed.Clients(), st, opts),
		Contracts:  cache.New[models.Contract](cache.ContractsDomain, seed.Contracts(), st, opts),
		Invoices:   cache.New[models.Invoice](cache.InvoicesDomain, seed.Invoices(), st, opts),
		Projects:   cache.New[models.Project](cache.ProjectsDomain, seed.Projects(), st, opts),
		Categories: seed.Categories(),
	}
}
