package postal

import (
	"context"
	"strings"
)

// Address is what a postal lookup yields.
type Address struct {
	PostalCode string
	Street     string
	District   string
	City       string
	StateCode  string
}

// Complete reports whether the address has the fields a form cannot do
// without: street and city.
func (a Address) Complete() bool {
	return strings.TrimSpace(a.Street) != "" && strings.TrimSpace(a.City) != ""
}

// Client looks up a CEP. Unknown codes return sentinel.ErrNotFound; any other
// error means the service could not answer.
type Client interface {
	Lookup(ctx context.Context, cep string) (Address, error)
}
