package models

import (
	"encoding/json"
	"strings"
	"time"

	id "cadastro/pkg/domain"
	dErrors "cadastro/pkg/domain-errors"
)

// Source names the tier that answered a lookup.
type Source string

const (
	SourceCache    Source = "cache"
	SourceStore    Source = "store"
	SourceRegistry Source = "registry"
)

// Company is a persisted registry record. JSON tags follow the list endpoint shape.
type Company struct {
	ID                  id.CompanyID `json:"id"`
	TaxID               id.TaxID     `json:"cnpj"`
	LegalName           string       `json:"razaoSocial"`
	TradeName           *string      `json:"nomeFantasia"`
	RegistrationStatus  *string      `json:"situacao"`
	PrimaryActivityCode *string      `json:"cnaePrincipal"`
	City                *string      `json:"cidade"`
	State               *string      `json:"uf"`
	CreatedAt           time.Time    `json:"criadoEm"`
	UpdatedAt           time.Time    `json:"atualizadoEm"`
}

// CompanyView is the public snake_case shape returned by store hits and write paths.
type CompanyView struct {
	CNPJ              string  `json:"cnpj"`
	RazaoSocial       string  `json:"razao_social"`
	NomeFantasia      *string `json:"nome_fantasia"`
	SituacaoCadastral *string `json:"situacao_cadastral"`
	CnaeFiscal        *string `json:"cnae_fiscal"`
	Municipio         *string `json:"municipio"`
	UF                *string `json:"uf"`
}

func (c *Company) View() CompanyView {
	return CompanyView{
		CNPJ:              c.TaxID.String(),
		RazaoSocial:       c.LegalName,
		NomeFantasia:      c.TradeName,
		SituacaoCadastral: c.RegistrationStatus,
		CnaeFiscal:        c.PrimaryActivityCode,
		Municipio:         c.City,
		UF:                c.State,
	}
}

// Record is the minimal subset written to the store, from a registry payload or a create request.
type Record struct {
	TaxID               id.TaxID
	LegalName           string
	TradeName           *string
	RegistrationStatus  *string
	PrimaryActivityCode *string
	City                *string
	State               *string
}

// Field is one optional column of a partial update. Set reports whether the
// caller sent it; a nil Value then clears the column.
type Field struct {
	Set   bool
	Value *string
}

// Patch carries the fields of a partial update. Nil TaxID or LegalName means unchanged.
type Patch struct {
	TaxID               *id.TaxID
	LegalName           *string
	TradeName           Field
	RegistrationStatus  Field
	PrimaryActivityCode Field
	City                Field
	State               Field
}

// Apply copies the patch onto c.
func (p Patch) Apply(c *Company) {
	if p.TaxID != nil {
		c.TaxID = *p.TaxID
	}
	if p.LegalName != nil {
		c.LegalName = *p.LegalName
	}
	p.TradeName.apply(&c.TradeName)
	p.RegistrationStatus.apply(&c.RegistrationStatus)
	p.PrimaryActivityCode.apply(&c.PrimaryActivityCode)
	p.City.apply(&c.City)
	p.State.apply(&c.State)
}

func (f Field) apply(dst **string) {
	if f.Set {
		*dst = f.Value
	}
}

// LookupResult is the JSON document a tier produced, returned to the caller as-is.
type LookupResult struct {
	Source Source
	Body   json.RawMessage
}

type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

type CompanyPage struct {
	Data       []Company  `json:"data"`
	Pagination Pagination `json:"pagination"`
}

// RegistryPayload decodes just the fields of an upstream document that are persisted.
type RegistryPayload struct {
	RazaoSocial       string          `json:"razao_social"`
	Nome              string          `json:"nome"`
	NomeFantasia      string          `json:"nome_fantasia"`
	SituacaoCadastral string          `json:"situacao_cadastral"`
	Situacao          string          `json:"situacao"`
	CnaeFiscal        json.RawMessage `json:"cnae_fiscal"`
	Municipio         string          `json:"municipio"`
	UF                string          `json:"uf"`
}

// Record maps the payload onto the persisted subset. `razao_social` falls back
// to `nome` and `situacao_cadastral` to `situacao`; empty values become null.
func (p RegistryPayload) Record(taxID id.TaxID) Record {
	return Record{
		TaxID:               taxID,
		LegalName:           firstNonEmpty(p.RazaoSocial, p.Nome),
		TradeName:           nullable(p.NomeFantasia),
		RegistrationStatus:  nullable(firstNonEmpty(p.SituacaoCadastral, p.Situacao)),
		PrimaryActivityCode: nullable(rawText(p.CnaeFiscal)),
		City:                nullable(p.Municipio),
		State:               nullable(p.UF),
	}
}

// CreateRequest is the body of POST /companies.
type CreateRequest struct {
	CNPJ          string  `json:"cnpj"`
	RazaoSocial   string  `json:"razaoSocial"`
	NomeFantasia  *string `json:"nomeFantasia"`
	Situacao      *string `json:"situacao"`
	CnaePrincipal *string `json:"cnaePrincipal"`
	Cidade        *string `json:"cidade"`
	UF            *string `json:"uf"`
}

func (r *CreateRequest) Sanitize() {
	r.CNPJ = strings.TrimSpace(r.CNPJ)
	r.RazaoSocial = strings.TrimSpace(r.RazaoSocial)
	trimAll(r.NomeFantasia, r.Situacao, r.CnaePrincipal, r.Cidade, r.UF)
}

func (r *CreateRequest) Validate() error {
	var fields []dErrors.FieldError
	if !id.IsValidTaxID(r.CNPJ) {
		fields = append(fields, dErrors.FieldError{Field: "cnpj", Message: "invalid tax id"})
	}
	if r.RazaoSocial == "" {
		fields = append(fields, dErrors.FieldError{Field: "razaoSocial", Message: "legal name is required"})
	}
	if r.UF != nil && len(*r.UF) > 2 {
		fields = append(fields, dErrors.FieldError{Field: "uf", Message: "state must have at most 2 characters"})
	}
	if len(fields) > 0 {
		return dErrors.NewValidation("invalid payload", fields...)
	}
	return nil
}

// Record converts a validated request into the persisted subset.
func (r *CreateRequest) Record() (Record, error) {
	taxID, err := id.ParseTaxID(r.CNPJ)
	if err != nil {
		return Record{}, err
	}
	return Record{
		TaxID:               taxID,
		LegalName:           r.RazaoSocial,
		TradeName:           nullablePtr(r.NomeFantasia),
		RegistrationStatus:  nullablePtr(r.Situacao),
		PrimaryActivityCode: nullablePtr(r.CnaePrincipal),
		City:                nullablePtr(r.Cidade),
		State:               nullablePtr(r.UF),
	}, nil
}

// UpdateRequest is the body of PUT /companies/{id}. Absent fields are left unchanged.
type UpdateRequest struct {
	CNPJ          *string `json:"cnpj"`
	RazaoSocial   *string `json:"razaoSocial"`
	NomeFantasia  *string `json:"nomeFantasia"`
	Situacao      *string `json:"situacao"`
	CnaePrincipal *string `json:"cnaePrincipal"`
	Cidade        *string `json:"cidade"`
	UF            *string `json:"uf"`
}

func (r *UpdateRequest) Sanitize() {
	trimAll(r.CNPJ, r.RazaoSocial, r.NomeFantasia, r.Situacao, r.CnaePrincipal, r.Cidade, r.UF)
}

func (r *UpdateRequest) Validate() error {
	var fields []dErrors.FieldError
	if r.CNPJ != nil && !id.IsValidTaxID(*r.CNPJ) {
		fields = append(fields, dErrors.FieldError{Field: "cnpj", Message: "invalid tax id"})
	}
	if r.RazaoSocial != nil && *r.RazaoSocial == "" {
		fields = append(fields, dErrors.FieldError{Field: "razaoSocial", Message: "legal name cannot be empty"})
	}
	if r.UF != nil && len(*r.UF) > 2 {
		fields = append(fields, dErrors.FieldError{Field: "uf", Message: "state must have at most 2 characters"})
	}
	if len(fields) > 0 {
		return dErrors.NewValidation("invalid payload", fields...)
	}
	return nil
}

// Patch converts a validated request.
func (r *UpdateRequest) Patch() (Patch, error) {
	var p Patch
	if r.CNPJ != nil {
		taxID, err := id.ParseTaxID(*r.CNPJ)
		if err != nil {
			return Patch{}, err
		}
		p.TaxID = &taxID
	}
	p.LegalName = r.RazaoSocial
	p.TradeName = optional(r.NomeFantasia)
	p.RegistrationStatus = optional(r.Situacao)
	p.PrimaryActivityCode = optional(r.CnaePrincipal)
	p.City = optional(r.Cidade)
	p.State = optional(r.UF)
	return p, nil
}

func optional(v *string) Field {
	if v == nil {
		return Field{}
	}
	return Field{Set: true, Value: nullable(*v)}
}

func trimAll(values ...*string) {
	for _, v := range values {
		if v != nil {
			*v = strings.TrimSpace(*v)
		}
	}
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func nullablePtr(s *string) *string {
	if s == nil {
		return nil
	}
	return nullable(*s)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// rawText reads a JSON string or number as text; anything else is empty.
func rawText(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}
