package postal

// FieldSet names the form fields a resolver drives. Empty names are skipped.
type FieldSet struct {
	PostalCode string
	Street     string
	District   string
	City       string
	State      string
	// Number receives focus once an address resolves.
	Number string
}

// DefaultFields is the patient address block.
var DefaultFields = FieldSet{
	PostalCode: "cep",
	Street:     "logradouro",
	District:   "bairro",
	City:       "cidade",
	State:      "uf",
	Number:     "numero",
}

// DestinationFields is the trip destination block, which keeps street and
// number in a single field.
var DestinationFields = FieldSet{
	PostalCode: "destino_cep",
	Street:     "destino_endereco",
	City:       "destino_cidade",
	State:      "destino_uf",
}

func (fs FieldSet) dependents() []string {
	names := make([]string, 0, 4)
	for _, name := range []string{fs.Street, fs.District, fs.City, fs.State} {
		if name != "" {
			names = append(names, name)
		}
	}
	return names
}

func (fs FieldSet) values(a Address) map[string]string {
	values := make(map[string]string, 4)
	for name, value := range map[string]string{
		fs.Street:   a.Street,
		fs.District: a.District,
		fs.City:     a.City,
		fs.State:    a.StateCode,
	} {
		if name != "" {
			values[name] = value
		}
	}
	return values
}
