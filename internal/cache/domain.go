package cache

// Domain names one record collection and derives its storage keys and
// change topic from those names.
type Domain struct {
	Singular string // "client"
	Plural   string // "clients"
	IDPrefix string // "client", "ct", "inv"
}

var (
	ClientsDomain   = Domain{Singular: "client", Plural: "clients", IDPrefix: "client"}
	ContractsDomain = Domain{Singular: "contract", Plural: "contracts", IDPrefix: "ct"}
	InvoicesDomain  = Domain{Singular: "invoice", Plural: "invoices", IDPrefix: "inv"}
	ProjectsDomain  = Domain{Singular: "project", Plural: "projects", IDPrefix: "project"}
)

// IndexKey holds the JSON array of member ids.
func (d Domain) IndexKey() string { return "freelance-pro-" + d.Plural }

func (d Domain) OverridePrefix() string { return d.Singular + "-override-" }

// OverrideKey holds the full JSON record for id.
func (d Domain) OverrideKey(id string) string { return d.OverridePrefix() + id }

// Topic is the change signal published after every successful mutation.
func (d Domain) Topic() string { return d.Plural + "-updated" }
