// v0
// internal/models/aliases.go
package models

import "strings"

// Canonical persona and region names as written by the behavior twin.
const (
	PersonaFreshGrad     = "Fresh_Grad"
	PersonaFintechFamily = "FinTech_Family"
	RegionTaipei         = "Taipei"
	RegionTainan         = "Tainan"
)

// Aliases accepted from API consumers. Keys are lowercased.
var personaAliases = map[string]string{
	"fresh_grad":     PersonaFreshGrad,
	"fresh grad":     PersonaFreshGrad,
	"fresh_graduate": PersonaFreshGrad,
	"fintech_family": PersonaFintechFamily,
	"fintech family": PersonaFintechFamily,
}

var regionAliases = map[string]string{
	"taipei": RegionTaipei,
	"tainan": RegionTainan,
}

// CanonicalPersona resolves persona aliases to the canonical spelling.
// Unknown values pass through unchanged so exact-match filtering still
// works for personas the alias table does not know about.
func CanonicalPersona(v string) string {
	key := strings.ToLower(strings.TrimSpace(v))
	if canonical, ok := personaAliases[key]; ok {
		return canonical
	}
	return strings.TrimSpace(v)
}

// CanonicalRegion resolves region aliases to the canonical spelling.
func CanonicalRegion(v string) string {
	key := strings.ToLower(strings.TrimSpace(v))
	if canonical, ok := regionAliases[key]; ok {
		return canonical
	}
	return strings.TrimSpace(v)
}
