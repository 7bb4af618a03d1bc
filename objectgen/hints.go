package objectgen

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed hints.yaml
var hintsYAML []byte

// hintTables maps material and lighting values to descriptive prompt phrases.
type hintTables struct {
	Materials map[string]string `yaml:"materials"`
	Lighting  map[string]string `yaml:"lighting"`
}

var hints = mustLoadHints()

func mustLoadHints() hintTables {
	var tables hintTables
	if err := yaml.Unmarshal(hintsYAML, &tables); err != nil {
		// The table is embedded at build time; a parse failure is a
		// packaging defect, not a runtime condition.
		panic(fmt.Sprintf("objectgen: invalid hints.yaml: %v", err))
	}
	return tables
}

// materialHint returns the descriptive phrase for a material value, falling
// back to the raw value when unmapped.
func materialHint(material string) string {
	if phrase, ok := hints.Materials[material]; ok {
		return phrase
	}
	return material
}

// lightingHint returns the descriptive phrase for a lighting value, falling
// back to the raw value when unmapped.
func lightingHint(lighting string) string {
	if phrase, ok := hints.Lighting[lighting]; ok {
		return phrase
	}
	return lighting
}
