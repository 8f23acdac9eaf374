package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"tracker/internal/core"
	"tracker/internal/ledger"
	"tracker/internal/log"
	"tracker/internal/middleware/trace"
)

const (
	indexTemplate  = "index.html"
	ledgerTemplate = "ledger"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.started).String(),
	})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	status, code := "ready", http.StatusOK
	checks := map[string]any{
		"rate_limiter": map[string]any{
			"active_clients": s.rateLimiter.ActiveClients(),
			"rejected":       s.rateLimiter.Hits(),
		},
		"security": map[string]any{"suspicious_requests": s.detector.SuspiciousRequests()},
		"requests": s.tracer.TotalRequests(),
	}
	if s.templates == nil {
		checks["templates"] = "failed: templates not loaded"
		status, code = "not_ready", http.StatusServiceUnavailable
	} else {
		checks["templates"] = "ok"
	}
	if s.ledger == nil {
		checks["ledger"] = "not_configured"
		status, code = "not_ready", http.StatusServiceUnavailable
	} else {
		snap := s.ledger.Snapshot()
		checks["ledger"] = map[string]any{
			"transactions": len(snap.Transactions),
			"unsaved":      snap.Unsaved,
		}
	}

	writeJSON(w, code, map[string]any{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	})
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, indexTemplate, s.pageData(s.ledger.Snapshot()))
}

func (s *Server) handleLedgerPartial(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, ledgerTemplate, s.pageData(s.ledger.Snapshot()))
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	logger := log.FromContext(r.Context())

	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		logger.WarnContext(r.Context(), "Unparseable transaction request",
			log.FieldOperation, log.OpParse,
			log.FieldErrorType, log.ErrorTypeValidation,
			log.FieldError, err)
		BadRequestError("Malformed request").Write(w)
		return
	}

	typ := p.Get("type")
	if typ == "" {
		typ = string(core.Expense)
	}

	tx, snap, err := s.ledger.Add(r.Context(), p.Get("description"), p.Get("amount"), typ)
	if err != nil {
		var ve *core.ValidationError
		if errors.As(err, &ve) {
			logger.InfoContext(r.Context(), "Transaction rejected",
				log.FieldOperation, log.OpValidate,
				log.FieldErrorType, log.ErrorTypeValidation,
				"field", ve.Field,
				log.FieldError, err)
			msg := validationMessage(ve)
			UnprocessableEntityError(msg).TriggerErrorNotification(msg).Write(w)
			return
		}
		logger.ErrorContext(r.Context(), "Transaction add failed", log.FieldError, err)
		InternalServerError("Could not add the transaction (request " + trace.GetRequestID(r.Context()) + ")").Write(w)
		return
	}

	if p.IsJSON() {
		writeJSON(w, http.StatusCreated, map[string]any{
			"transaction": newTransactionJSON(tx),
			"totals":      newTotalsJSON(snap.Totals),
			"unsaved":     snap.Unsaved,
		})
		return
	}

	b := NewHTMXResponse().
		TriggerTransactionCreated(tx.ID).
		TriggerFormReset()
	if snap.Unsaved {
		b.TriggerNotification(NotificationWarning, "Added, but the ledger could not be saved", 5000)
	} else {
		b.TriggerSuccessNotification("Transaction added: " + tx.Description)
	}
	s.renderPartial(w, r, b, snap)
}

// handleDeleteTransaction is idempotent: an unknown id still re-renders
// the ledger.
func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	snap, removed := s.ledger.Remove(r.Context(), id)

	b := NewHTMXResponse().TriggerTransactionDeleted(id)
	switch {
	case !removed:
		b.TriggerNotification(NotificationInfo, "Transaction already removed", 3000)
	case snap.Unsaved:
		b.TriggerNotification(NotificationWarning, "Removed, but the ledger could not be saved", 5000)
	default:
		b.TriggerSuccessNotification("Transaction removed")
	}
	s.renderPartial(w, r, b, snap)
}

func (s *Server) handleAPITransactions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, newSnapshotJSON(s.ledger.Snapshot()))
}

func (s *Server) renderPartial(w http.ResponseWriter, r *http.Request, b *HTMXResponseBuilder, snap ledger.Snapshot) {
	if s.templates == nil {
		InternalServerError("Templates not loaded").Write(w)
		return
	}
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, ledgerTemplate, s.pageData(snap)); err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Template execution failed",
			log.FieldOperation, log.OpRender,
			"template", ledgerTemplate,
			log.FieldError, err)
		InternalServerError("Could not render the ledger").Write(w)
		return
	}
	b.BodyHTML(buf.String()).Write(w)
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	if s.templates == nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Templates not loaded", log.FieldPath, r.URL.Path)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Template execution failed",
			log.FieldOperation, log.OpRender,
			"template", name,
			log.FieldError, err)
		http.Error(w, "could not render page", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
