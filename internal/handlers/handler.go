package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spbu-ds-practicum-2025/example-project/services/ledger-service/internal/domain"
)

// AccountService is the account read and open path used by the handlers.
type AccountService interface {
	GetByAccountNumber(ctx context.Context, accountNumber string) (*domain.Account, error)
	ListAccounts(ctx context.Context, query domain.ListAccountsQuery) ([]domain.Account, error)
	OpenAccount(ctx context.Context, accountNumber, name, countryCode string, balances []domain.Balance) (*domain.Account, error)
}

// TransferService executes and looks up transfers.
type TransferService interface {
	Transfer(ctx context.Context, intent domain.TransferIntent) domain.TransferOutcome
	GetTransfer(ctx context.Context, id uuid.UUID) (*domain.Transfer, error)
}

// HealthChecker reports whether a dependency is reachable.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// Handler serves the ledger HTTP API.
type Handler struct {
	accounts  AccountService
	transfers TransferService
	health    HealthChecker
	logger    *zap.Logger
}

// NewHandler creates a new Handler. health may be nil.
func NewHandler(accounts AccountService, transfers TransferService, health HealthChecker, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		accounts:  accounts,
		transfers: transfers,
		health:    health,
		logger:    logger,
	}
}

// GetAccount handles GET /accounts/{accountNumber}.
func (h *Handler) GetAccount(w http.ResponseWriter, r *http.Request) {
	accountNumber := chi.URLParam(r, "accountNumber")
	if len(accountNumber) != domain.AccountNumberLength {
		sendValidationError(w, []ValidationError{{
			Field:   "accountNumber",
			Message: "Value must be exactly 22 characters long",
			Type:    "len",
		}})
		return
	}

	account, err := h.accounts.GetByAccountNumber(r.Context(), accountNumber)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			sendErrorResponse(w, http.StatusNotFound, "NOT_FOUND", "Account not found")
			return
		}
		h.logger.Error("failed to get account", zap.String("account_number", accountNumber), zap.Error(err))
		sendErrorResponse(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
		return
	}

	writeJSON(w, http.StatusOK, account)
}

// ListAccounts handles GET /accounts.
func (h *Handler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	params, verrs := parseListAccountsParams(r.URL.Query())
	if len(verrs) == 0 {
		verrs = ValidateRequest(params)
	}
	if len(verrs) > 0 {
		sendValidationError(w, verrs)
		return
	}

	accounts, err := h.accounts.ListAccounts(r.Context(), domain.ListAccountsQuery{
		Page:         params.Page,
		PageSize:     params.PageSize,
		CurrencyCode: params.CurrencyCode,
		MinBalance:   params.MinBalance,
		MaxBalance:   params.MaxBalance,
	})
	if err != nil {
		if errors.Is(err, domain.ErrInvalidQuery) {
			sendErrorResponse(w, http.StatusBadRequest, "INVALID_QUERY", err.Error())
			return
		}
		h.logger.Error("failed to list accounts", zap.Error(err))
		sendErrorResponse(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
		return
	}

	if accounts == nil {
		accounts = []domain.Account{}
	}
	writeJSON(w, http.StatusOK, accounts)
}

// OpenAccount handles POST /accounts.
func (h *Handler) OpenAccount(w http.ResponseWriter, r *http.Request) {
	var req OpenAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendErrorResponse(w, http.StatusBadRequest, "INVALID_REQUEST", "Failed to parse request body: "+err.Error())
		return
	}
	if verrs := ValidateRequest(req); len(verrs) > 0 {
		sendValidationError(w, verrs)
		return
	}

	balances := make([]domain.Balance, 0, len(req.Balances))
	for _, b := range req.Balances {
		balances = append(balances, domain.Balance{CurrencyCode: b.CurrencyCode, Amount: b.Balance})
	}

	account, err := h.accounts.OpenAccount(r.Context(), req.AccountNumber, req.Name, req.CountryCode, balances)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrDuplicateAccount):
			sendErrorResponse(w, http.StatusConflict, "ALREADY_EXISTS", "Account number already exists")
		case errors.Is(err, domain.ErrDuplicateBalance), errors.Is(err, domain.ErrInvalidBalance):
			sendErrorResponse(w, http.StatusBadRequest, "INVALID_ARGUMENT", err.Error())
		default:
			h.logger.Error("failed to open account", zap.String("account_number", req.AccountNumber), zap.Error(err))
			sendErrorResponse(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
		}
		return
	}

	writeJSON(w, http.StatusCreated, account)
}

// Transfer handles POST /accounts/transfer.
// Every failed outcome maps to 409; the failure tag is returned in the code field.
func (h *Handler) Transfer(w http.ResponseWriter, r *http.Request) {
	var req TransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendErrorResponse(w, http.StatusBadRequest, "INVALID_REQUEST", "Failed to parse request body: "+err.Error())
		return
	}
	if verrs := ValidateRequest(req); len(verrs) > 0 {
		sendValidationError(w, verrs)
		return
	}

	outcome := h.transfers.Transfer(r.Context(), domain.TransferIntent{
		FromAccountNumber: req.FromAccountNumber,
		ToAccountNumber:   req.ToAccountNumber,
		Amount:            req.Amount,
		CurrencyCode:      req.CurrencyCode,
		ToBIC:             req.ToBIC,
		Reference:         req.Reference,
	})

	if !outcome.Succeeded() {
		writeJSON(w, http.StatusConflict, TransferResponse{
			Success: false,
			Code:    string(outcome.Status),
			Reason:  outcome.Reason,
		})
		return
	}

	resp := TransferResponse{Success: true}
	if outcome.Transfer != nil {
		id := outcome.Transfer.ID
		resp.TransferID = &id
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetTransfer handles GET /transfers/{transferId}.
func (h *Handler) GetTransfer(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "transferId"))
	if err != nil {
		sendErrorResponse(w, http.StatusBadRequest, "INVALID_ARGUMENT", "Invalid transfer ID")
		return
	}

	transfer, err := h.transfers.GetTransfer(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrTransferNotFound) {
			sendErrorResponse(w, http.StatusNotFound, "NOT_FOUND", "Transfer not found")
			return
		}
		h.logger.Error("failed to get transfer", zap.Stringer("transfer_id", id), zap.Error(err))
		sendErrorResponse(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
		return
	}

	writeJSON(w, http.StatusOK, transfer)
}

// Health handles GET /health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if h.health != nil {
		if err := h.health.Ping(r.Context()); err != nil {
			h.logger.Warn("health check failed", zap.Error(err))
			writeJSON(w, http.StatusServiceUnavailable, HealthResponse{Status: "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// parseListAccountsParams converts the raw query string. Numeric fields that do not
// parse as integers are reported as validation errors.
func parseListAccountsParams(q url.Values) (ListAccountsParams, []ValidationError) {
	var (
		params ListAccountsParams
		verrs  []ValidationError
	)

	parseInt := func(name string, required bool) (int64, bool) {
		raw := q.Get(name)
		if raw == "" {
			if required {
				verrs = append(verrs, ValidationError{Field: name, Message: "This field is required", Type: "required"})
			}
			return 0, false
		}
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			verrs = append(verrs, ValidationError{Field: name, Message: "Value must be an integer", Type: "integer"})
			return 0, false
		}
		return v, true
	}

	if v, ok := parseInt("page", true); ok {
		params.Page = pageNumber(v)
	}
	if v, ok := parseInt("pageSize", true); ok {
		params.PageSize = pageNumber(v)
	}
	if v, ok := parseInt("minBalance", false); ok {
		params.MinBalance = &v
	}
	if v, ok := parseInt("maxBalance", false); ok {
		params.MaxBalance = &v
	}
	params.CurrencyCode = q.Get("currencyCode")

	return params, verrs
}

// pageNumber narrows a parsed paging value to int. Values outside the int32 range
// become -1 so the struct validation rejects them.
func pageNumber(v int64) int {
	if v > math.MaxInt32 || v < 0 {
		return -1
	}
	return int(v)
}

func writeJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(body)
}

// sendErrorResponse sends an error response in the expected format
func sendErrorResponse(w http.ResponseWriter, statusCode int, code, description string) {
	writeJSON(w, statusCode, ErrorResponse{
		ID:          uuid.New(),
		Code:        code,
		Description: description,
	})
}

func sendValidationError(w http.ResponseWriter, verrs []ValidationError) {
	writeJSON(w, http.StatusBadRequest, ErrorResponse{
		ID:          uuid.New(),
		Code:        "VALIDATION_ERROR",
		Description: "Invalid request data",
		Details:     verrs,
	})
}
