package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "cadastro/pkg/domain"
	dErrors "cadastro/pkg/domain-errors"
)

func strPtr(s string) *string { return &s }

func TestRegistryPayloadRecord(t *testing.T) {
	t.Run("prefers primary fields", func(t *testing.T) {
		var p RegistryPayload
		require.NoError(t, json.Unmarshal([]byte(`{
			"razao_social": "ACME LTDA", "nome": "ignored",
			"nome_fantasia": "ACME",
			"situacao_cadastral": "ATIVA", "situacao": "ignored",
			"cnae_fiscal": 6201501, "municipio": "SAO PAULO", "uf": "SP",
			"socios": [{"nome": "x"}]
		}`), &p))

		rec := p.Record("11222333000181")
		assert.Equal(t, "ACME LTDA", rec.LegalName)
		assert.Equal(t, "ACME", *rec.TradeName)
		assert.Equal(t, "ATIVA", *rec.RegistrationStatus)
		assert.Equal(t, "6201501", *rec.PrimaryActivityCode)
		assert.Equal(t, "SAO PAULO", *rec.City)
		assert.Equal(t, "SP", *rec.State)
	})

	t.Run("falls back and nulls empty values", func(t *testing.T) {
		var p RegistryPayload
		require.NoError(t, json.Unmarshal([]byte(`{"nome": "BETA SA", "situacao": "BAIXADA", "cnae_fiscal": "4711302", "nome_fantasia": ""}`), &p))

		rec := p.Record("11222333000181")
		assert.Equal(t, "BETA SA", rec.LegalName)
		assert.Equal(t, "BAIXADA", *rec.RegistrationStatus)
		assert.Equal(t, "4711302", *rec.PrimaryActivityCode)
		assert.Nil(t, rec.TradeName)
		assert.Nil(t, rec.City)
		assert.Nil(t, rec.State)
	})
}

func TestCompanyView(t *testing.T) {
	c := Company{ID: 7, TaxID: "11222333000181", LegalName: "ACME LTDA", State: strPtr("SP")}

	body, err := json.Marshal(c.View())
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"cnpj": "11222333000181", "razao_social": "ACME LTDA", "nome_fantasia": null,
		"situacao_cadastral": null, "cnae_fiscal": null, "municipio": null, "uf": "SP"
	}`, string(body))
}

func TestCreateRequestValidate(t *testing.T) {
	t.Run("collects every field error", func(t *testing.T) {
		req := &CreateRequest{CNPJ: "123", RazaoSocial: "  ", UF: strPtr("SPX")}
		req.Sanitize()

		err := req.Validate()
		require.Error(t, err)
		var de *dErrors.Error
		require.ErrorAs(t, err, &de)
		assert.Equal(t, dErrors.CodeValidation, de.Code)
		assert.Len(t, de.Fields, 3)
	})

	t.Run("normalizes into a record", func(t *testing.T) {
		req := &CreateRequest{CNPJ: "11.222.333/0001-81", RazaoSocial: " ACME ", NomeFantasia: strPtr(""), Cidade: strPtr(" Recife ")}
		req.Sanitize()
		require.NoError(t, req.Validate())

		rec, err := req.Record()
		require.NoError(t, err)
		assert.Equal(t, id.TaxID("11222333000181"), rec.TaxID)
		assert.Equal(t, "ACME", rec.LegalName)
		assert.Nil(t, rec.TradeName)
		assert.Equal(t, "Recife", *rec.City)
	})
}

func TestUpdateRequestPatch(t *testing.T) {
	t.Run("rejects empty legal name", func(t *testing.T) {
		req := &UpdateRequest{RazaoSocial: strPtr(" ")}
		req.Sanitize()
		assert.True(t, dErrors.HasCode(req.Validate(), dErrors.CodeValidation))
	})

	t.Run("rejects present but empty cnpj", func(t *testing.T) {
		req := &UpdateRequest{CNPJ: strPtr("  ")}
		req.Sanitize()
		err := req.Validate()
		require.Error(t, err)
		var de *dErrors.Error
		require.ErrorAs(t, err, &de)
		require.Len(t, de.Fields, 1)
		assert.Equal(t, "cnpj", de.Fields[0].Field)
	})

	t.Run("empty optional strings clear, absent ones keep", func(t *testing.T) {
		req := &UpdateRequest{CNPJ: strPtr("33000167000101"), NomeFantasia: strPtr(""), Cidade: strPtr("Natal")}
		req.Sanitize()
		require.NoError(t, req.Validate())
		patch, err := req.Patch()
		require.NoError(t, err)

		c := Company{TaxID: "11222333000181", LegalName: "ACME", TradeName: strPtr("ACME"), State: strPtr("SP")}
		patch.Apply(&c)

		assert.Equal(t, id.TaxID("33000167000101"), c.TaxID)
		assert.Equal(t, "ACME", c.LegalName)
		assert.Nil(t, c.TradeName)
		assert.Equal(t, "Natal", *c.City)
		assert.Equal(t, "SP", *c.State)
	})
}
