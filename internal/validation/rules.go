// Package validation gives advisory, lexical feedback on free-text fields.
// It never blocks submission; it only colors the field and shows a hint.
package validation

import (
	"strings"
	"unicode"
	"unicode/utf8"

	platformstrings "agenda/pkg/platform/strings"
)

// Rule is a lexical heuristic for one kind of field. Keywords and suffixes
// are matched per word, ignoring case and accents.
type Rule struct {
	Name string
	// MinLength gates validation while the user is still typing: nothing is
	// checked until the value is longer than this. Blur checks any length.
	MinLength int
	Keywords  []string
	Suffixes  []string
	// AcceptDigits makes any digit sufficient (house numbers).
	AcceptDigits bool
	// Message is shown while the value does not match.
	Message string
}

// AddressRule accepts street-type words or any digit.
var AddressRule = Rule{
	Name:      "address",
	MinLength: 10,
	Keywords: []string{
		"rua", "r", "avenida", "av", "travessa", "tv", "alameda", "al",
		"estrada", "est", "rodovia", "rod", "praça", "pç", "largo", "viela",
		"beco", "via", "vila", "jardim", "jd", "parque", "sítio", "chácara",
		"fazenda", "bairro", "conjunto",
	},
	AcceptDigits: true,
	Message:      "Endereço parece incompleto. Informe o tipo de logradouro (Rua, Avenida...) ou o número.",
}

// SpecialtyRule accepts known specialty words and the usual endings of
// specialty names.
var SpecialtyRule = Rule{
	Name:      "specialty",
	MinLength: 3,
	Keywords: []string{
		"clínica", "clinico", "geral", "cirurgia", "consulta", "exame",
		"exames", "hemodiálise", "diálise", "retorno", "nutrição",
		"odontologia", "obstetrícia", "mastologia", "vacina", "curativo",
	},
	Suffixes: []string{"logia", "terapia", "iatria", "grafia", "scopia", "cirurgia"},
	Message:  "Especialidade não reconhecida. Confira a grafia.",
}

// Length reports the number of characters of the trimmed value.
func Length(value string) int {
	return utf8.RuneCountInString(strings.TrimSpace(value))
}

// Check reports whether value passes the rule. Length plays no part here.
func (r Rule) Check(value string) bool {
	if r.AcceptDigits && strings.IndexFunc(value, unicode.IsDigit) >= 0 {
		return true
	}

	words := strings.FieldsFunc(platformstrings.Fold(value), func(c rune) bool {
		return !unicode.IsLetter(c) && !unicode.IsDigit(c)
	})
	for _, word := range words {
		for _, kw := range r.Keywords {
			if word == platformstrings.Fold(kw) {
				return true
			}
		}
		for _, suffix := range r.Suffixes {
			if strings.HasSuffix(word, platformstrings.Fold(suffix)) {
				return true
			}
		}
	}
	return false
}
