package http

import (
	"errors"
	"fmt"
	"net/http"

	"ledger/internal/auth"
	"ledger/internal/core"
	"ledger/internal/log"
)

func (s *Server) handleGetTransactions(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.ClaimsFromContext(r.Context())
	records, err := s.ledgers.Load(r.Context(), claims.UserID)
	if err != nil {
		s.structured.LogError(r.Context(), "Failed to load ledger", err, log.ComponentStorage, log.OpLoad, log.NewFields().WithUser(claims.UserID))
		writeError(w, http.StatusInternalServerError, msgServerError)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

// handleSaveTransactions replaces the caller's whole ledger.
func (s *Server) handleSaveTransactions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	claims, _ := auth.ClaimsFromContext(ctx)

	var records []core.Transaction
	if err := decodeJSON(w, r, &records); err != nil {
		writeError(w, http.StatusBadRequest, msgInvalidLedger)
		return
	}

	err := s.ledgers.Save(ctx, claims.UserID, records)
	switch {
	case errors.Is(err, core.ErrValidation):
		log.FromContext(ctx).WarnContext(ctx, "Rejected ledger", log.FieldUserID, claims.UserID, log.FieldError, err)
		writeError(w, http.StatusBadRequest, fmt.Sprintf("%s: %v", msgInvalidLedger, err))
		return
	case err != nil:
		s.structured.LogError(ctx, "Failed to save ledger", err, log.ComponentStorage, log.OpSave, log.NewFields().WithUser(claims.UserID))
		writeError(w, http.StatusInternalServerError, msgServerError)
		return
	}

	s.structured.LogLedgerSaved(ctx, claims.UserID, len(records))
	writeJSON(w, http.StatusOK, map[string]string{"message": msgSaved})
}
