package resolver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/bryanwahyu/risknet/internal/domain/assessment"
	"github.com/bryanwahyu/risknet/internal/domain/entities"
)

func TestParseFormNested(t *testing.T) {
	body := []byte(`{
		"person": {"name": "John Smith", "phone": "+1-555-0123", "country": "US"},
		"company": {"name": "Acme Corp", "country": "US"}
	}`)
	form, err := ParseForm(body)
	require.NoError(t, err)
	assert.Equal(t, FormNested, form.Kind)
	require.NotNil(t, form.Person)
	require.NotNil(t, form.Company)
	assert.Equal(t, "John Smith", form.Person.Name)
	assert.Equal(t, "Acme Corp", form.Company.Name)
}

func TestParseFormLegacyDirector(t *testing.T) {
	body := []byte(`{
		"company": {"name": "Acme Corp", "director_id": "DIR001", "director_name": "Jane Doe"}
	}`)
	form, err := ParseForm(body)
	require.NoError(t, err)
	assert.Equal(t, FormLegacyDirector, form.Kind)
	require.Len(t, form.Company.Directors, 1)
	assert.Equal(t, "DIR001", form.Company.Directors[0].DirectorID)
	assert.Equal(t, "Jane Doe", form.Company.Directors[0].Name)
}

func TestParseFormFlatLegacy(t *testing.T) {
	body := []byte(`{
		"name": "John Smith",
		"phone": "+1-555-0123",
		"address": "1 Main St",
		"company": "Acme Corp",
		"company_address": "2 High St"
	}`)
	form, err := ParseForm(body)
	require.NoError(t, err)
	assert.Equal(t, FormFlatLegacy, form.Kind)
	require.NotNil(t, form.Person)
	require.NotNil(t, form.Company)
	assert.Equal(t, "Acme Corp", form.Company.Name)
	assert.Equal(t, "2 High St", form.Company.Address)
}

func TestParseFormMalformed(t *testing.T) {
	_, err := ParseForm([]byte(`{not json`))
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "body", verr.Field)
}

func TestResolveNested(t *testing.T) {
	svc := NewService()
	resolved, err := svc.Resolve([]byte(`{
		"person": {"name": "John Smith", "phone": "+1-555-0123", "country": "US"}
	}`))
	require.NoError(t, err)
	require.NotNil(t, resolved.Person)
	assert.Nil(t, resolved.Company)
	assert.Equal(t, entities.KindPerson, resolved.Person.Kind)
	assert.Equal(t, "john smith", resolved.Person.NormalizedName)
	assert.Contains(t, string(resolved.Person.ID), "person_")
}

// flat legacy input must resolve to the same entity pair as the equivalent
// nested form
func TestResolveFlatMatchesNested(t *testing.T) {
	svc := NewService()

	flat, err := svc.Resolve([]byte(`{
		"name": "John Smith", "phone": "+1-555-0123", "address": "1 Main St",
		"company": "Acme Corp", "company_address": "2 High St", "country": "US"
	}`))
	require.NoError(t, err)

	nested, err := svc.Resolve([]byte(`{
		"person": {"name": "John Smith", "phone": "+1-555-0123", "address": "1 Main St", "country": "US"},
		"company": {"name": "Acme Corp", "address": "2 High St", "country": "US"}
	}`))
	require.NoError(t, err)

	assert.Equal(t, nested.Person.ID, flat.Person.ID)
	assert.Equal(t, nested.Company.ID, flat.Company.ID)
}

func TestResolveCosmeticVariantsCollide(t *testing.T) {
	svc := NewService()
	a, err := svc.Resolve([]byte(`{"person": {"name": "John Smith", "phone": "+15550123000", "country": "US"}}`))
	require.NoError(t, err)
	b, err := svc.Resolve([]byte(`{"person": {"name": "  JOHN   smith ", "phone": "+15550123000", "country": "us"}}`))
	require.NoError(t, err)
	assert.Equal(t, a.Person.ID, b.Person.ID)
}

func TestResolvePersonRequiresContact(t *testing.T) {
	svc := NewService()
	_, err := svc.Resolve([]byte(`{"person": {"name": "John Smith"}}`))
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "person.phone", verr.Field)

	// email alone satisfies the contact requirement
	_, err = svc.Resolve([]byte(`{"person": {"name": "John Smith", "email": "j@example.com"}}`))
	assert.NoError(t, err)
}

func TestResolveRejectsBadPhone(t *testing.T) {
	svc := NewService()
	for _, phone := range []string{"12", "abc", "+1", "++15550123"} {
		_, err := svc.Resolve([]byte(`{"person": {"name": "John Smith", "phone": "` + phone + `"}}`))
		var verr *domain.ValidationError
		require.ErrorAs(t, err, &verr, "phone %q should be rejected", phone)
	}
	for _, phone := range []string{"+1-555-0123", "5550123", "+44 20 7946 0958"} {
		_, err := svc.Resolve([]byte(`{"person": {"name": "John Smith", "phone": "` + phone + `"}}`))
		assert.NoError(t, err, "phone %q should be accepted", phone)
	}
}

func TestResolveMissingName(t *testing.T) {
	svc := NewService()
	_, err := svc.Resolve([]byte(`{"person": {"phone": "+1-555-0123"}}`))
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "name", verr.Field)
}

func TestResolveDirectorIDs(t *testing.T) {
	svc := NewService()
	resolved, err := svc.Resolve([]byte(`{
		"company": {"name": "Acme Corp", "directors": [
			{"director_id": "DIR001", "name": "Jane Doe", "position": "CEO"},
			{"name": "Anonymous Director"}
		]}
	}`))
	require.NoError(t, err)
	require.Len(t, resolved.Directors, 2)

	withExternal := resolved.Directors[0]
	assert.Equal(t, entities.NewDirectorIDFromExternal("DIR001"), withExternal.Director.ID)
	assert.Equal(t, "CEO", withExternal.Attrs.Position)

	withoutExternal := resolved.Directors[1]
	assert.Empty(t, withoutExternal.Director.ExternalID)
	assert.NotEmpty(t, withoutExternal.Director.ID)
}
