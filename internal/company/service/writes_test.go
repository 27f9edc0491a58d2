package service

import (
	"encoding/json"
	"errors"

	"go.uber.org/mock/gomock"

	"cadastro/internal/company/models"
	id "cadastro/pkg/domain"
	dErrors "cadastro/pkg/domain-errors"
	"cadastro/pkg/platform/sentinel"
)

func (s *ServiceSuite) expectCachedView(key string, company *models.Company) {
	want, err := json.Marshal(company.View())
	s.Require().NoError(err)
	s.mockCache.EXPECT().Set(gomock.Any(), key, want, DefaultCacheTTL).Return(nil)
}

func (s *ServiceSuite) TestCreate() {
	s.Run("upserts and refreshes cache", func() {
		rec := models.Record{TaxID: validTaxID, LegalName: "ACME LTDA", State: ptr("SP")}
		company := s.newCompany(1, validTaxID)
		s.mockStore.EXPECT().Upsert(gomock.Any(), rec).Return(company, nil)
		s.expectCachedView(validTaxKey, company)

		view, err := s.service.Create(s.ctx, rec)
		s.Require().NoError(err)
		s.Equal("11222333000181", view.CNPJ)
		s.Equal("ACME LTDA", view.RazaoSocial)
	})

	s.Run("cache failure does not fail the write", func() {
		rec := models.Record{TaxID: validTaxID, LegalName: "ACME LTDA"}
		s.mockStore.EXPECT().Upsert(gomock.Any(), rec).Return(s.newCompany(1, validTaxID), nil)
		s.mockCache.EXPECT().Set(gomock.Any(), validTaxKey, gomock.Any(), DefaultCacheTTL).Return(errors.New("down"))

		_, err := s.service.Create(s.ctx, rec)
		s.NoError(err)
	})

	s.Run("punctuated tax id is stored and cached normalized", func() {
		company := s.newCompany(1, validTaxID)
		s.mockStore.EXPECT().Upsert(gomock.Any(), models.Record{TaxID: validTaxID, LegalName: "ACME"}).Return(company, nil)
		s.expectCachedView(validTaxKey, company)

		view, err := s.service.Create(s.ctx, models.Record{TaxID: formattedTaxID, LegalName: "ACME"})
		s.Require().NoError(err)
		s.Equal("11222333000181", view.CNPJ)
	})

	s.Run("invalid tax id", func() {
		_, err := s.service.Create(s.ctx, models.Record{TaxID: "11222333000182", LegalName: "X"})
		s.requireCode(err, dErrors.CodeInvalidInput)
	})

	s.Run("missing legal name", func() {
		_, err := s.service.Create(s.ctx, models.Record{TaxID: validTaxID})
		s.requireCode(err, dErrors.CodeValidation)
	})

	s.Run("store failure is internal", func() {
		s.mockStore.EXPECT().Upsert(gomock.Any(), gomock.Any()).Return(nil, errors.New("boom"))
		_, err := s.service.Create(s.ctx, models.Record{TaxID: validTaxID, LegalName: "X"})
		s.requireCode(err, dErrors.CodeInternal)
	})
}

func (s *ServiceSuite) TestUpdate() {
	s.Run("caches view under the current tax id", func() {
		newTaxID := otherTaxID
		patch := models.Patch{TaxID: &newTaxID, City: models.Field{Set: true}}
		updated := s.newCompany(3, otherTaxID)
		updated.City = nil

		s.mockStore.EXPECT().Update(gomock.Any(), id.CompanyID(3), patch).Return(updated, nil)
		// the entry of the previous tax id is not touched
		s.expectCachedView("cnpj:33000167000101", updated)

		view, err := s.service.Update(s.ctx, 3, patch)
		s.Require().NoError(err)
		s.Equal("33000167000101", view.CNPJ)
		s.Nil(view.Municipio)
	})

	s.Run("not found", func() {
		s.mockStore.EXPECT().Update(gomock.Any(), id.CompanyID(9), gomock.Any()).Return(nil, sentinel.ErrNotFound)
		_, err := s.service.Update(s.ctx, 9, models.Patch{})
		s.requireCode(err, dErrors.CodeNotFound)
	})

	s.Run("tax id taken is conflict", func() {
		s.mockStore.EXPECT().Update(gomock.Any(), id.CompanyID(3), gomock.Any()).Return(nil, sentinel.ErrConflict)
		_, err := s.service.Update(s.ctx, 3, models.Patch{})
		s.requireCode(err, dErrors.CodeConflict)
	})

	s.Run("punctuated tax id is normalized before the store", func() {
		raw := id.TaxID("33.000.167/0001-01")
		want := otherTaxID
		updated := s.newCompany(3, otherTaxID)
		s.mockStore.EXPECT().Update(gomock.Any(), id.CompanyID(3), models.Patch{TaxID: &want}).Return(updated, nil)
		s.expectCachedView("cnpj:33000167000101", updated)

		_, err := s.service.Update(s.ctx, 3, models.Patch{TaxID: &raw})
		s.Require().NoError(err)
	})

	s.Run("invalid tax id is rejected", func() {
		bad := id.TaxID("33000167000102")
		_, err := s.service.Update(s.ctx, 3, models.Patch{TaxID: &bad})
		s.requireCode(err, dErrors.CodeInvalidInput)
	})

	s.Run("empty legal name is rejected", func() {
		_, err := s.service.Update(s.ctx, 3, models.Patch{LegalName: ptr("")})
		s.requireCode(err, dErrors.CodeValidation)
	})

	s.Run("non-positive id is rejected", func() {
		_, err := s.service.Update(s.ctx, 0, models.Patch{})
		s.requireCode(err, dErrors.CodeBadRequest)
	})
}

func (s *ServiceSuite) TestDelete() {
	s.Run("removes cache entry of deleted record", func() {
		s.mockStore.EXPECT().Delete(gomock.Any(), id.CompanyID(4)).Return(s.newCompany(4, validTaxID), nil)
		s.mockCache.EXPECT().Delete(gomock.Any(), validTaxKey).Return(nil)

		s.NoError(s.service.Delete(s.ctx, 4))
	})

	s.Run("cache failure does not fail the delete", func() {
		s.mockStore.EXPECT().Delete(gomock.Any(), id.CompanyID(4)).Return(s.newCompany(4, validTaxID), nil)
		s.mockCache.EXPECT().Delete(gomock.Any(), validTaxKey).Return(errors.New("down"))

		s.NoError(s.service.Delete(s.ctx, 4))
	})

	s.Run("not found", func() {
		s.mockStore.EXPECT().Delete(gomock.Any(), id.CompanyID(5)).Return(nil, sentinel.ErrNotFound)
		s.requireCode(s.service.Delete(s.ctx, 5), dErrors.CodeNotFound)
	})
}
