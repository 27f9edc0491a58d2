// Package domain provides the value types shared across the lookup and session domains.
package domain

import (
	"strconv"
	"strings"

	"github.com/google/uuid"

	dErrors "cadastro/pkg/domain-errors"
)

type (
	// UserID identifies an API caller.
	UserID uuid.UUID
	// CompanyID is the store-assigned numeric key of a company record.
	CompanyID int64
)

func ParseUserID(s string) (UserID, error) {
	if s == "" {
		return UserID{}, dErrors.New(dErrors.CodeInvalidInput, "user ID cannot be empty")
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return UserID{}, dErrors.New(dErrors.CodeInvalidInput, "invalid user ID")
	}
	return UserID(id), nil
}

// ParseCompanyID accepts positive decimal integers only.
func ParseCompanyID(s string) (CompanyID, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || n <= 0 {
		return 0, dErrors.New(dErrors.CodeInvalidInput, "invalid company ID")
	}
	return CompanyID(n), nil
}

func NewUserID() UserID { return UserID(uuid.New()) }

func (id UserID) String() string    { return uuid.UUID(id).String() }
func (id CompanyID) String() string { return strconv.FormatInt(int64(id), 10) }

func (id UserID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
