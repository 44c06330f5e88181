package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"budgeteer/internal/core"
	applog "budgeteer/internal/log"
)

type bucketDTO struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Limit float64 `json:"limit"`
	Spent float64 `json:"spent"`
}

func toBucketDTO(b core.Bucket) bucketDTO {
	return bucketDTO{ID: b.ID, Name: b.Name, Limit: b.Limit, Spent: b.Spent}
}

type transactionDTO struct {
	ID     string   `json:"id"`
	Amount float64  `json:"amount"`
	Bucket string   `json:"bucket"`
	Note   string   `json:"note"`
	Date   string   `json:"date"`
	Type   string   `json:"type"`
	Tags   []string `json:"tags,omitempty"`
}

func toTransactionDTO(t core.Transaction) transactionDTO {
	return transactionDTO{
		ID:     t.ID,
		Amount: t.Amount,
		Bucket: t.Bucket,
		Note:   t.Note,
		Date:   t.Date.Format(time.RFC3339),
		Type:   string(t.Type),
		Tags:   t.Tags,
	}
}

func (s *Server) handleListBuckets(w http.ResponseWriter, r *http.Request) {
	year, month := parseYearMonth(r, s.now())
	buckets, err := s.store.ListBuckets(r.Context(), year, month)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "list buckets failed", applog.FieldError, err)
		writeError(w, http.StatusInternalServerError, "failed to list buckets")
		return
	}

	out := make([]bucketDTO, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, toBucketDTO(b))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateBucket(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name  string  `json:"name"`
		Limit float64 `json:"limit"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	bucket, err := s.store.CreateBucket(r.Context(), sanitizeInput(req.Name), req.Limit)
	switch {
	case errors.Is(err, core.ErrDuplicateBucket):
		writeError(w, http.StatusConflict, "bucket name already exists")
		return
	case errors.Is(err, core.ErrEmptyBucketName), errors.Is(err, core.ErrNegativeAmount):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	case err != nil:
		s.logger.ErrorContext(r.Context(), "create bucket failed", applog.FieldError, err)
		writeError(w, http.StatusInternalServerError, "failed to create bucket")
		return
	}

	writeJSON(w, http.StatusCreated, toBucketDTO(bucket))
}

func (s *Server) handleUpdateBucket(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Limit float64 `json:"limit"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	err := s.store.UpdateBucketLimit(r.Context(), r.PathValue("id"), req.Limit)
	switch {
	case errors.Is(err, core.ErrBucketNotFound):
		writeError(w, http.StatusNotFound, "bucket not found")
		return
	case errors.Is(err, core.ErrNegativeAmount):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	case err != nil:
		s.logger.ErrorContext(r.Context(), "update bucket failed", applog.FieldError, err)
		writeError(w, http.StatusInternalServerError, "failed to update bucket")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	year, month := parseYearMonth(r, s.now())
	transactions, err := s.store.ListTransactions(r.Context(), year, month)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "list transactions failed", applog.FieldError, err)
		writeError(w, http.StatusInternalServerError, "failed to list transactions")
		return
	}

	out := make([]transactionDTO, 0, len(transactions))
	for _, t := range transactions {
		out = append(out, toTransactionDTO(t))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Amount float64  `json:"amount"`
		Bucket string   `json:"bucket"`
		Note   string   `json:"note"`
		Date   string   `json:"date"`
		Tags   []string `json:"tags"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	date := s.now()
	if req.Date != "" {
		parsed, err := time.Parse(time.RFC3339, req.Date)
		if err != nil {
			parsed, err = time.Parse("2006-01-02", req.Date)
		}
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, "invalid date")
			return
		}
		date = parsed
	}

	tx, err := s.store.CreateTransaction(r.Context(), core.Transaction{
		Amount: req.Amount,
		Bucket: sanitizeInput(req.Bucket),
		Note:   sanitizeInput(req.Note),
		Date:   date,
		Tags:   req.Tags,
	})
	switch {
	case errors.Is(err, core.ErrMissingBucket), errors.Is(err, core.ErrInvalidDate):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	case err != nil:
		s.logger.ErrorContext(r.Context(), "create transaction failed", applog.FieldError, err)
		writeError(w, http.StatusInternalServerError, "failed to create transaction")
		return
	}

	if s.notifier != nil {
		s.notifier.TransactionCommitted(r.Context(), tx)
	}
	writeJSON(w, http.StatusCreated, toTransactionDTO(tx))
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	err := s.store.DeleteTransaction(r.Context(), r.PathValue("id"))
	switch {
	case errors.Is(err, core.ErrTransactionGone):
		writeError(w, http.StatusNotFound, "transaction not found")
		return
	case err != nil:
		s.logger.ErrorContext(r.Context(), "delete transaction failed", applog.FieldError, err)
		writeError(w, http.StatusInternalServerError, "failed to delete transaction")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetIncome(w http.ResponseWriter, r *http.Request) {
	s.handleGetAmount(w, r, s.store.Income)
}

func (s *Server) handleSetIncome(w http.ResponseWriter, r *http.Request) {
	s.handleSetAmount(w, r, s.store.SaveIncome)
}

func (s *Server) handleGetSavingsGoal(w http.ResponseWriter, r *http.Request) {
	s.handleGetAmount(w, r, s.store.SavingsGoal)
}

func (s *Server) handleSetSavingsGoal(w http.ResponseWriter, r *http.Request) {
	s.handleSetAmount(w, r, s.store.SaveSavingsGoal)
}

func (s *Server) handleGetAmount(w http.ResponseWriter, r *http.Request, get func(ctx context.Context) (float64, error)) {
	amount, err := get(r.Context())
	if err != nil {
		s.logger.ErrorContext(r.Context(), "read amount failed", applog.FieldError, err)
		writeError(w, http.StatusInternalServerError, "failed to read value")
		return
	}
	writeJSON(w, http.StatusOK, map[string]float64{"amount": amount})
}

func (s *Server) handleSetAmount(w http.ResponseWriter, r *http.Request, save func(ctx context.Context, amount float64) error) {
	var req struct {
		Amount float64 `json:"amount"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	err := save(r.Context(), req.Amount)
	switch {
	case errors.Is(err, core.ErrNegativeAmount):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	case err != nil:
		s.logger.ErrorContext(r.Context(), "save amount failed", applog.FieldError, err)
		writeError(w, http.StatusInternalServerError, "failed to save value")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListRecurring(w http.ResponseWriter, r *http.Request) {
	expenses, err := s.store.ListRecurringExpenses(r.Context())
	if err != nil {
		s.logger.ErrorContext(r.Context(), "list recurring failed", applog.FieldError, err)
		writeError(w, http.StatusInternalServerError, "failed to list recurring expenses")
		return
	}

	type dto struct {
		ID     string  `json:"id"`
		Name   string  `json:"name"`
		Amount float64 `json:"amount"`
	}
	out := make([]dto, 0, len(expenses))
	for _, e := range expenses {
		out = append(out, dto{ID: e.ID, Name: e.Name, Amount: e.Amount})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleAddRecurring(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name   string  `json:"name"`
		Amount float64 `json:"amount"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	expense, err := s.store.AddRecurringExpense(r.Context(), sanitizeInput(req.Name), req.Amount)
	switch {
	case errors.Is(err, core.ErrEmptyName), errors.Is(err, core.ErrNegativeAmount):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	case err != nil:
		s.logger.ErrorContext(r.Context(), "add recurring failed", applog.FieldError, err)
		writeError(w, http.StatusInternalServerError, "failed to add recurring expense")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"id":     expense.ID,
		"name":   expense.Name,
		"amount": expense.Amount,
	})
}

func (s *Server) handleDisableRecurring(w http.ResponseWriter, r *http.Request) {
	err := s.store.DisableRecurringExpense(r.Context(), r.PathValue("id"))
	switch {
	case errors.Is(err, core.ErrTransactionGone):
		writeError(w, http.StatusNotFound, "recurring expense not found")
		return
	case err != nil:
		s.logger.ErrorContext(r.Context(), "disable recurring failed", applog.FieldError, err)
		writeError(w, http.StatusInternalServerError, "failed to disable recurring expense")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
