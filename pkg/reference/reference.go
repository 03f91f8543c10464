package reference

import (
	_ "embed"
	"errors"
	"fmt"
	"slices"

	"gopkg.in/yaml.v3"
)

//go:embed reference.yaml
var raw []byte

type Group struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

type Data struct {
	DefaultCountryCode string            `yaml:"default_country_code"`
	Countries          map[string]string `yaml:"countries"`
	Categories         map[string]string `yaml:"categories"`
	Groups             []Group           `yaml:"groups"`
	DocumentTypes      []string          `yaml:"document_types"`
}

var ErrUnknownCategory = errors.New("unknown customer category")

// Load parses the reference data embedded into the binary.
func Load() (Data, error) {
	return Parse(raw)
}

func Parse(b []byte) (Data, error) {
	var d Data

	err := yaml.Unmarshal(b, &d)
	if err != nil {
		return Data{}, fmt.Errorf("unmarshal reference data: %w", err)
	}

	if len(d.DefaultCountryCode) != 3 {
		return Data{}, fmt.Errorf("default country code %q must have 3 letters", d.DefaultCountryCode)
	}

	for country, code := range d.Countries {
		if len(code) != 3 {
			return Data{}, fmt.Errorf("country %q: code %q must have 3 letters", country, code)
		}
	}

	for category, code := range d.Categories {
		if len(code) != 1 {
			return Data{}, fmt.Errorf("category %q: code %q must have 1 letter", category, code)
		}
	}

	return d, nil
}

func (d Data) CountryCode(country string) string {
	code, ok := d.Countries[country]
	if !ok {
		return d.DefaultCountryCode
	}

	return code
}

// CustomerPrefix is the 4 letter id prefix: country code followed by category code.
func (d Data) CustomerPrefix(country, category string) (string, error) {
	code, ok := d.Categories[category]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownCategory, category)
	}

	return d.CountryCode(country) + code, nil
}

func (d Data) IsDocumentType(t string) bool {
	return slices.Contains(d.DocumentTypes, t)
}
