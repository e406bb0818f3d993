package resolver

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/bryanwahyu/risknet/internal/domain/assessment"
	"github.com/bryanwahyu/risknet/internal/domain/entities"
	"github.com/bryanwahyu/risknet/internal/domain/graph"
)

// FormKind enum untuk bentuk input yang diterima
type FormKind string

const (
	FormNested         FormKind = "nested"
	FormLegacyDirector FormKind = "legacy_director"
	FormFlatLegacy     FormKind = "flat_legacy"
)

type DirectorInput struct {
	DirectorID      string `json:"director_id"`
	Name            string `json:"name" validate:"required"`
	Nationality     string `json:"nationality"`
	DateOfBirth     string `json:"date_of_birth"`
	Position        string `json:"position"`
	Status          string `json:"status"`
	AppointmentDate string `json:"appointment_date"`
}

type PersonInput struct {
	Name    string `json:"name" validate:"required"`
	Phone   string `json:"phone" validate:"omitempty,intl_phone"`
	Email   string `json:"email" validate:"omitempty,email"`
	Address string `json:"address"`
	Country string `json:"country"`
}

type CompanyInput struct {
	Name      string          `json:"name" validate:"required"`
	Address   string          `json:"address"`
	Country   string          `json:"country"`
	Directors []DirectorInput `json:"directors" validate:"dive"`
}

// Form is the parse result: exactly one shape, already converted to the
// nested representation.
type Form struct {
	Kind    FormKind
	Person  *PersonInput
	Company *CompanyInput
}

// rawRequest keeps the ambiguous fields unparsed. "company" is an object in
// the nested form but a plain string in the flat legacy form.
type rawRequest struct {
	Person  json.RawMessage `json:"person"`
	Company json.RawMessage `json:"company"`

	// flat legacy fields
	Name           string `json:"name"`
	Phone          string `json:"phone"`
	Email          string `json:"email"`
	Address        string `json:"address"`
	Country        string `json:"country"`
	CompanyAddress string `json:"company_address"`
}

// legacyCompany carries the single-director legacy key alongside the normal
// company fields.
type legacyCompany struct {
	CompanyInput
	DirectorID      string `json:"director_id"`
	DirectorName    string `json:"director_name"`
	DirectorCountry string `json:"director_nationality"`
}

// ParseForm classifies the payload into one of the three accepted shapes and
// converts it to the nested representation. Shape detection is structural,
// not content based.
func ParseForm(data []byte) (*Form, error) {
	var raw rawRequest
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, assessment.NewValidationError("body", "malformed JSON")
	}

	companyIsObject := len(raw.Company) > 0 && raw.Company[0] == '{'

	// flat legacy: top-level name plus company as a plain string (or absent)
	if raw.Person == nil && !companyIsObject {
		if raw.Name == "" {
			return nil, assessment.NewValidationError("name", "required")
		}
		f := &Form{
			Kind: FormFlatLegacy,
			Person: &PersonInput{
				Name:    raw.Name,
				Phone:   raw.Phone,
				Email:   raw.Email,
				Address: raw.Address,
				Country: raw.Country,
			},
		}
		if len(raw.Company) > 0 {
			var companyName string
			if err := json.Unmarshal(raw.Company, &companyName); err != nil {
				return nil, assessment.NewValidationError("company", "must be a string in flat form")
			}
			if companyName != "" {
				f.Company = &CompanyInput{
					Name:    companyName,
					Address: raw.CompanyAddress,
					Country: raw.Country,
				}
			}
		}
		return f, nil
	}

	f := &Form{Kind: FormNested}
	if raw.Person != nil {
		var p PersonInput
		if err := json.Unmarshal(raw.Person, &p); err != nil {
			return nil, assessment.NewValidationError("person", "malformed object")
		}
		f.Person = &p
	}
	if companyIsObject {
		var lc legacyCompany
		if err := json.Unmarshal(raw.Company, &lc); err != nil {
			return nil, assessment.NewValidationError("company", "malformed object")
		}
		c := lc.CompanyInput
		// legacy single-director key becomes a one-element directors list
		if lc.DirectorID != "" && len(c.Directors) == 0 {
			f.Kind = FormLegacyDirector
			name := lc.DirectorName
			if name == "" {
				name = lc.DirectorID
			}
			c.Directors = []DirectorInput{{
				DirectorID:  lc.DirectorID,
				Name:        name,
				Nationality: lc.DirectorCountry,
			}}
		}
		f.Company = &c
	}
	if f.Person == nil && f.Company == nil {
		return nil, assessment.NewValidationError("body", "person or company required")
	}
	return f, nil
}

// ResolvedDirector is a director with its edge attributes toward the
// submitted company.
type ResolvedDirector struct {
	Director entities.Director
	Attrs    graph.AssociationAttrs
}

// Resolved is the canonical entity pair plus directors, ready for
// fingerprinting and gathering.
type Resolved struct {
	Person    *entities.Entity
	Company   *entities.Entity
	Directors []ResolvedDirector
	InputType string
}

// Subjects lists the resolved entities, person first.
func (r *Resolved) Subjects() []*entities.Entity {
	var out []*entities.Entity
	if r.Person != nil {
		out = append(out, r.Person)
	}
	if r.Company != nil {
		out = append(out, r.Company)
	}
	return out
}

// Service implements use-cases untuk entity resolution
type Service struct {
	validate *validator.Validate
}

var phoneRe = regexp.MustCompile(`^\+?[0-9][0-9\-\s().]{5,18}[0-9]$`)

func NewService() *Service {
	v := validator.New()
	// lenient international pattern: optional +, 7-15 digits, common separators
	_ = v.RegisterValidation("intl_phone", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		if !phoneRe.MatchString(s) {
			return false
		}
		digits := 0
		for _, r := range s {
			if r >= '0' && r <= '9' {
				digits++
			}
		}
		return digits >= 7 && digits <= 15
	})
	return &Service{validate: v}
}

// Resolve parses, validates, and normalizes a raw request body into the
// canonical entity pair with deterministic ids.
func (s *Service) Resolve(data []byte) (*Resolved, error) {
	form, err := ParseForm(data)
	if err != nil {
		return nil, err
	}
	return s.ResolveForm(form)
}

// ResolveForm validates an already-parsed form and derives the entity ids.
func (s *Service) ResolveForm(form *Form) (*Resolved, error) {
	out := &Resolved{InputType: string(form.Kind)}

	if form.Person != nil {
		if err := s.validate.Struct(form.Person); err != nil {
			return nil, validationError(err)
		}
		// persons must be reachable: at least one contact field
		if strings.TrimSpace(form.Person.Phone) == "" && strings.TrimSpace(form.Person.Email) == "" {
			return nil, assessment.NewValidationError("person.phone", "phone or email required")
		}
		out.Person = buildEntity(entities.KindPerson, form.Person.Name, form.Person.Address, form.Person.Phone, form.Person.Email, form.Person.Country)
	}

	if form.Company != nil {
		if err := s.validate.Struct(form.Company); err != nil {
			return nil, validationError(err)
		}
		out.Company = buildEntity(entities.KindCompany, form.Company.Name, form.Company.Address, "", "", form.Company.Country)
		for _, d := range form.Company.Directors {
			out.Directors = append(out.Directors, resolveDirector(d))
		}
	}

	if out.Person == nil && out.Company == nil {
		return nil, assessment.NewValidationError("body", "person or company required")
	}
	return out, nil
}

func buildEntity(kind entities.Kind, name, address, phone, email, country string) *entities.Entity {
	normalized := entities.Normalize(name)
	return &entities.Entity{
		ID:             entities.NewEntityID(kind, normalized, country),
		Kind:           kind,
		Name:           strings.TrimSpace(name),
		NormalizedName: normalized,
		Address:        entities.Normalize(address),
		Phone:          strings.TrimSpace(phone),
		Email:          strings.ToLower(strings.TrimSpace(email)),
		Country:        strings.ToUpper(strings.TrimSpace(country)),
	}
}

func resolveDirector(d DirectorInput) ResolvedDirector {
	dir := entities.Director{
		ExternalID:  strings.TrimSpace(d.DirectorID),
		Name:        strings.TrimSpace(d.Name),
		Nationality: strings.ToUpper(strings.TrimSpace(d.Nationality)),
		DateOfBirth: strings.TrimSpace(d.DateOfBirth),
	}
	if dir.ExternalID != "" {
		dir.ID = entities.NewDirectorIDFromExternal(dir.ExternalID)
	} else {
		dir.ID = entities.NewDirectorID()
	}
	return ResolvedDirector{
		Director: dir,
		Attrs: graph.AssociationAttrs{
			Position:        strings.TrimSpace(d.Position),
			Status:          strings.TrimSpace(d.Status),
			AppointmentDate: strings.TrimSpace(d.AppointmentDate),
		},
	}
}

// validationError maps the first validator failure into the domain error so
// the response can name the offending field.
func validationError(err error) error {
	if errs, ok := err.(validator.ValidationErrors); ok && len(errs) > 0 {
		fe := errs[0]
		reason := "failed " + fe.Tag() + " validation"
		if fe.Tag() == "required" {
			reason = "required"
		}
		if fe.Tag() == "intl_phone" {
			reason = "must be an international phone number"
		}
		return assessment.NewValidationError(strings.ToLower(fe.Field()), reason)
	}
	return assessment.NewValidationError("body", err.Error())
}
