package importer_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"

	"github.com/MrJamesThe3rd/invoicer/internal/apperr"
	"github.com/MrJamesThe3rd/invoicer/internal/encoding"
	"github.com/MrJamesThe3rd/invoicer/internal/importer"
)

func TestParser_Invoicer(t *testing.T) {
	csv := `Name,Email,Phone,City,Country,Tax Number
Acme Ltd,billing@acme.test,+351 210 000 000,Lisboa,Portugal,PT500000000
"Smith, Jones & Co",accounts@sj.test,,London,UK,

Nameless,,,,,
`

	parsed, err := importer.NewParser().Parse(strings.NewReader(csv))
	require.NoError(t, err)

	assert.Equal(t, "invoicer", parsed.Profile)
	assert.Equal(t, encoding.UTF8, parsed.Charset)
	require.Len(t, parsed.Rows, 3)

	assert.Equal(t, 2, parsed.Rows[0].Line)
	assert.Equal(t, "Acme Ltd", parsed.Rows[0].Name)
	assert.Equal(t, "billing@acme.test", parsed.Rows[0].Email)
	assert.Equal(t, "PT500000000", parsed.Rows[0].TaxNumber)

	assert.Equal(t, 3, parsed.Rows[1].Line)
	assert.Equal(t, "Smith, Jones & Co", parsed.Rows[1].Name)

	assert.Equal(t, 5, parsed.Rows[2].Line)
	assert.Empty(t, parsed.Rows[2].Email)
}

func TestParser_PortugueseSemicolonLatin1(t *testing.T) {
	csv := `Lista de clientes exportada
Nome;Email;Localidade;Código Postal;NIF
João Conceição;joao@example.com;Évora;7000-001;123456789
`

	latin1, err := charmap.Windows1252.NewEncoder().String(csv)
	require.NoError(t, err)

	parsed, err := importer.NewParser().Parse(strings.NewReader(latin1))
	require.NoError(t, err)

	assert.Equal(t, "pt", parsed.Profile)
	require.Len(t, parsed.Rows, 1)

	row := parsed.Rows[0]
	assert.Equal(t, 3, row.Line)
	assert.Equal(t, "João Conceição", row.Name)
	assert.Equal(t, "Évora", row.City)
	assert.Equal(t, "7000-001", row.PostalCode)
	assert.Equal(t, "123456789", row.TaxNumber)
}

func TestParser_OutlookNames(t *testing.T) {
	csv := `First Name,Last Name,Company,E-mail Address,Business City
Ana,Silva,,ana@example.com,Porto
Rui,Costa,Costa Lda,rui@costa.test,Braga
`

	parsed, err := importer.NewParser().Parse(strings.NewReader(csv))
	require.NoError(t, err)

	assert.Equal(t, "outlook", parsed.Profile)
	require.Len(t, parsed.Rows, 2)
	assert.Equal(t, "Ana Silva", parsed.Rows[0].Name)
	assert.Equal(t, "Porto", parsed.Rows[0].City)
	assert.Equal(t, "Costa Lda", parsed.Rows[1].Name)
}

func TestParser_CaseInsensitiveHeader(t *testing.T) {
	parsed, err := importer.NewParser().Parse(strings.NewReader("NAME,EMAIL\nBob,bob@example.com\n"))
	require.NoError(t, err)
	require.Len(t, parsed.Rows, 1)
	assert.Equal(t, "Bob", parsed.Rows[0].Name)
}

func TestParser_NoHeader(t *testing.T) {
	_, err := importer.NewParser().Parse(strings.NewReader("Client,Mail\nBob,bob@example.com\n"))
	assert.ErrorIs(t, err, apperr.ErrValidation)
}
