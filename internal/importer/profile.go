package importer

import "strings"

type field int

const (
	fieldName field = iota
	fieldFirstName
	fieldLastName
	fieldOrganization
	fieldEmail
	fieldPhone
	fieldAddress1
	fieldAddress2
	fieldCity
	fieldState
	fieldPostalCode
	fieldCountry
	fieldTaxNumber
	fieldNotes
)

// Profile describes the header layout of a known contacts export. Header
// names are matched case-insensitively.
type Profile struct {
	Name     string
	Columns  map[field]string
	Required []field
}

func (p *Profile) requiredCols() []string {
	cols := make([]string, 0, len(p.Required))
	for _, f := range p.Required {
		cols = append(cols, p.Columns[f])
	}

	return cols
}

// profiles are tried in order against every row until one matches.
var profiles = []Profile{
	{
		Name: "invoicer",
		Columns: map[field]string{
			fieldName:       "Name",
			fieldEmail:      "Email",
			fieldPhone:      "Phone",
			fieldAddress1:   "Address Line 1",
			fieldAddress2:   "Address Line 2",
			fieldCity:       "City",
			fieldState:      "State",
			fieldPostalCode: "Postal Code",
			fieldCountry:    "Country",
			fieldTaxNumber:  "Tax Number",
			fieldNotes:      "Notes",
		},
		Required: []field{fieldName, fieldEmail},
	},
	{
		Name: "google",
		Columns: map[field]string{
			fieldFirstName:    "First Name",
			fieldLastName:     "Last Name",
			fieldOrganization: "Organization Name",
			fieldEmail:        "E-mail 1 - Value",
			fieldPhone:        "Phone 1 - Value",
			fieldAddress1:     "Address 1 - Street",
			fieldAddress2:     "Address 1 - Extended Address",
			fieldCity:         "Address 1 - City",
			fieldState:        "Address 1 - Region",
			fieldPostalCode:   "Address 1 - Postal Code",
			fieldCountry:      "Address 1 - Country",
			fieldNotes:        "Notes",
		},
		Required: []field{fieldFirstName, fieldEmail},
	},
	{
		Name: "outlook",
		Columns: map[field]string{
			fieldFirstName:    "First Name",
			fieldLastName:     "Last Name",
			fieldOrganization: "Company",
			fieldEmail:        "E-mail Address",
			fieldPhone:        "Business Phone",
			fieldAddress1:     "Business Street",
			fieldAddress2:     "Business Street 2",
			fieldCity:         "Business City",
			fieldState:        "Business State",
			fieldPostalCode:   "Business Postal Code",
			fieldCountry:      "Business Country/Region",
			fieldNotes:        "Notes",
		},
		Required: []field{fieldFirstName, fieldEmail},
	},
	{
		Name: "pt",
		Columns: map[field]string{
			fieldName:       "Nome",
			fieldEmail:      "Email",
			fieldPhone:      "Telefone",
			fieldAddress1:   "Morada",
			fieldCity:       "Localidade",
			fieldPostalCode: "Código Postal",
			fieldCountry:    "País",
			fieldTaxNumber:  "NIF",
			fieldNotes:      "Observações",
		},
		Required: []field{fieldName, fieldEmail},
	},
}

func normalizeHeader(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
