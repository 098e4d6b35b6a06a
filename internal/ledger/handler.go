package ledger

import (
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Handler exposes the ledger HTTP endpoints.
type Handler struct {
	service *Service
}

// NewHandler builds a ledger HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type transactionRequest struct {
	Amount      int64  `json:"amount"`
	Kind        string `json:"kind"`
	Description string `json:"description"`
}

type transactionResponse struct {
	Limit   int64 `json:"limit"`
	Balance int64 `json:"balance"`
}

type statementTransaction struct {
	Amount      int64     `json:"amount"`
	Kind        string    `json:"kind"`
	Description string    `json:"description"`
	OccurredAt  time.Time `json:"occurred_at"`
}

type statementResponse struct {
	Balance       int64                  `json:"balance"`
	Limit         int64                  `json:"limit"`
	StatementTime time.Time              `json:"statement_time"`
	Transactions  []statementTransaction `json:"transactions"`
}

// CreateTransaction applies a credit or debit to the account in the path and
// returns the post-transaction limit and balance.
func (h *Handler) CreateTransaction(c *fiber.Ctx) error {
	accountID, err := c.ParamsInt("id")
	if err != nil {
		return fiber.NewError(http.StatusUnprocessableEntity, "account id must be an integer")
	}

	var req transactionRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusUnprocessableEntity, "malformed transaction body")
	}

	res, err := h.service.CreateTransaction(c.UserContext(), TransactionInput{
		AccountID:   int64(accountID),
		Amount:      req.Amount,
		Kind:        Kind(req.Kind),
		Description: req.Description,
	})
	if err != nil {
		return mapError(err)
	}

	return c.Status(http.StatusOK).JSON(transactionResponse{Limit: res.Limit, Balance: res.Balance})
}

// GetStatement returns the account balance and its most recent transactions,
// newest first.
func (h *Handler) GetStatement(c *fiber.Ctx) error {
	accountID, err := c.ParamsInt("id")
	if err != nil {
		return fiber.NewError(http.StatusUnprocessableEntity, "account id must be an integer")
	}

	st, err := h.service.GetStatement(c.UserContext(), int64(accountID))
	if err != nil {
		return mapError(err)
	}

	resp := statementResponse{
		Balance:       st.Balance,
		Limit:         st.Limit,
		StatementTime: st.GeneratedAt,
		Transactions:  make([]statementTransaction, 0, len(st.Transactions)),
	}
	for _, t := range st.Transactions {
		resp.Transactions = append(resp.Transactions, statementTransaction{
			Amount:      t.Amount,
			Kind:        string(t.Kind),
			Description: t.Description,
			OccurredAt:  t.OccurredAt,
		})
	}

	return c.Status(http.StatusOK).JSON(resp)
}

func mapError(err error) error {
	switch {
	case errors.Is(err, ErrInvalidInput):
		return fiber.NewError(http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, ErrAccountNotFound):
		return fiber.NewError(http.StatusNotFound, "account not found")
	case errors.Is(err, ErrInsufficientFunds):
		return fiber.NewError(http.StatusUnprocessableEntity, "insufficient funds")
	default:
		return fiber.NewError(http.StatusInternalServerError, "storage failure")
	}
}
