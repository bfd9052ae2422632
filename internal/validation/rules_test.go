package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAddressRule(t *testing.T) {
	accepted := []string{
		"Rua Campos Sales",
		"AV. BRASIL, centro",
		"Praça da Matriz s/n",
		"Estrada Municipal do Pinhal",
		"Sítio Boa Esperança",
		"Campos Sales 1024",
		"Rua A, 12",
		"Av. 7",
	}
	for _, v := range accepted {
		assert.True(t, AddressRule.Check(v), v)
	}

	rejected := []string{
		"Centro",            // district name only
		"perto do mercado",  // no street word, no digit
		"casa amarela azul", // no street word, no digit
		"Ruaaaaaaaaaa",      // keyword must be a whole word
	}
	for _, v := range rejected {
		assert.False(t, AddressRule.Check(v), v)
	}
}

func TestSpecialtyRule(t *testing.T) {
	accepted := []string{"Cardiologia", "cardiologia", "FISIOTERAPIA", "Pediatria", "Clínica geral", "clinica", "Ultrassonografia", "hemodialise"}
	for _, v := range accepted {
		assert.True(t, SpecialtyRule.Check(v), v)
	}

	rejected := []string{"ab", "Dentista", "xyz123"}
	for _, v := range rejected {
		assert.False(t, SpecialtyRule.Check(v), v)
	}
}

func TestLength(t *testing.T) {
	assert.Equal(t, 0, Length("   "))
	assert.Equal(t, 6, Length(" Sumaré "))
}
