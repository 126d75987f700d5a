package handlers

import (
	"github.com/google/uuid"
)

// TransferRequest is the body of POST /accounts/transfer.
type TransferRequest struct {
	FromAccountNumber string `json:"fromAccountNumber" validate:"required,len=22"`
	ToAccountNumber   string `json:"toAccountNumber" validate:"required,len=22"`
	Amount            int64  `json:"amount" validate:"gt=0"`
	CurrencyCode      string `json:"currencyCode" validate:"required,len=3"`
	ToBIC             string `json:"toBIC" validate:"required,len=11"`
	Reference         string `json:"reference" validate:"max=140"`
}

// TransferResponse reports the outcome of a transfer.
// Code carries the failure tag; it is empty on success.
type TransferResponse struct {
	Success    bool       `json:"success"`
	TransferID *uuid.UUID `json:"transferId,omitempty"`
	Code       string     `json:"code,omitempty"`
	Reason     string     `json:"reason,omitempty"`
}

// BalanceRequest is one initial balance of a new account.
type BalanceRequest struct {
	CurrencyCode string `json:"currencyCode" validate:"required,len=3"`
	Balance      int64  `json:"balance" validate:"gte=0"`
}

// OpenAccountRequest is the body of POST /accounts.
type OpenAccountRequest struct {
	AccountNumber string           `json:"accountNumber" validate:"required,len=22"`
	Name          string           `json:"name" validate:"required,max=255"`
	CountryCode   string           `json:"countryCode" validate:"required,len=3"`
	Balances      []BalanceRequest `json:"balances" validate:"dive"`
}

// ListAccountsParams holds the parsed query of GET /accounts.
type ListAccountsParams struct {
	Page         int    `json:"page" validate:"gte=1"`
	PageSize     int    `json:"pageSize" validate:"gte=1,lte=100"`
	CurrencyCode string `json:"currencyCode" validate:"required,len=3"`
	MinBalance   *int64 `json:"minBalance"`
	MaxBalance   *int64 `json:"maxBalance"`
}

// ErrorResponse is the error envelope of every non-2xx response.
type ErrorResponse struct {
	ID          uuid.UUID         `json:"id"`
	Code        string            `json:"code"`
	Description string            `json:"description,omitempty"`
	Details     []ValidationError `json:"details,omitempty"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string `json:"status"`
}
