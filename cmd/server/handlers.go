package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/Simplici0/stairworks/internal/metrics"
	"github.com/Simplici0/stairworks/internal/pricing"
	"github.com/Simplici0/stairworks/internal/quotes"
	"github.com/Simplici0/stairworks/internal/rules"
)

// maxImportBytes caps rule workbook uploads.
var maxImportBytes int64 = 10 << 20

type priceResponse struct {
	QuoteID string `json:"quoteId,omitempty"`
	pricing.Breakdown
}

type errorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`

	BoardType  string `json:"boardType,omitempty"`
	MaterialID int64  `json:"materialId,omitempty"`
	Width      string `json:"width,omitempty"`
}

type ruleJSON struct {
	ID                 int64            `json:"id"`
	BoardType          string           `json:"boardType"`
	MaterialID         int64            `json:"materialId"`
	MinWidth           *decimal.Decimal `json:"minWidth"`
	MaxWidth           *decimal.Decimal `json:"maxWidth"`
	BasePrice          decimal.Decimal  `json:"basePrice"`
	LengthChargeRate   decimal.Decimal  `json:"lengthChargeRate"`
	WidthChargeRate    decimal.Decimal  `json:"widthChargeRate"`
	MitreCharge        decimal.Decimal  `json:"mitreCharge"`
	MaterialMultiplier decimal.Decimal  `json:"materialMultiplier"`
	Active             bool             `json:"active"`
	Notes              string           `json:"notes"`
}

func toRuleJSON(rec rules.Record) ruleJSON {
	return ruleJSON{
		ID:                 rec.ID,
		BoardType:          string(rec.BoardType),
		MaterialID:         rec.MaterialID,
		MinWidth:           rec.MinWidth,
		MaxWidth:           rec.MaxWidth,
		BasePrice:          rec.BasePrice,
		LengthChargeRate:   rec.LengthChargeRate,
		WidthChargeRate:    rec.WidthChargeRate,
		MitreCharge:        rec.MitreCharge,
		MaterialMultiplier: rec.MaterialMultiplier,
		Active:             rec.Active,
		Notes:              rec.Notes,
	}
}

func (j ruleJSON) record() rules.Record {
	return rules.Record{
		Active: j.Active,
		Rule: pricing.Rule{
			ID:                 j.ID,
			BoardType:          pricing.BoardType(strings.ToLower(j.BoardType)),
			MaterialID:         j.MaterialID,
			MinWidth:           j.MinWidth,
			MaxWidth:           j.MaxWidth,
			BasePrice:          j.BasePrice,
			LengthChargeRate:   j.LengthChargeRate,
			WidthChargeRate:    j.WidthChargeRate,
			MitreCharge:        j.MitreCharge,
			MaterialMultiplier: j.MaterialMultiplier,
			Notes:              j.Notes,
		},
	}
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func (s *server) handleStairPrice(w http.ResponseWriter, r *http.Request) {
	req, err := pricing.DecodeOrderRequest(r.Body)
	if err != nil {
		s.writeCalcError(w, r, err)
		return
	}

	start := time.Now()
	breakdown, err := s.calc.Calculate(r.Context(), req.Order())
	metrics.ObserveCalculation(err, time.Since(start))
	if err != nil {
		s.writeCalcError(w, r, err)
		return
	}

	resp := priceResponse{Breakdown: breakdown}
	if r.URL.Query().Get("save") == "1" {
		q, err := s.quotes.Save(r.Context(), req.JobID, req, breakdown)
		if err != nil {
			s.log.Error("save quote failed", "job_id", req.JobID, "err", err)
			writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to save quote"})
			return
		}
		resp.QuoteID = q.ID
	}

	s.log.Debug("stair priced", "job_id", req.JobID, "lines", len(breakdown.Lines), "total", breakdown.Total.StringFixed(2))
	writeJSON(w, http.StatusOK, resp)
}

// writeCalcError maps the pricing error taxonomy onto HTTP statuses.
func (s *server) writeCalcError(w http.ResponseWriter, r *http.Request, err error) {
	var notFound *pricing.RuleNotFoundError

	switch {
	case errors.As(err, &notFound):
		s.log.Warn("stair price rejected: missing rule", "board_type", notFound.BoardType, "material_id", notFound.MaterialID, "width", notFound.Width.String(), "candidates", notFound.Candidates)
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{
			Error:      "invalid configuration",
			Detail:     err.Error(),
			BoardType:  string(notFound.BoardType),
			MaterialID: notFound.MaterialID,
			Width:      notFound.Width.String(),
		})
	case errors.Is(err, pricing.ErrRuleNotFound):
		s.log.Warn("stair price rejected: invalid rule", "err", err)
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: "invalid configuration", Detail: err.Error()})
	case errors.Is(err, pricing.ErrInvalidOrder), errors.Is(err, pricing.ErrUnknownSpecialPart):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid order", Detail: err.Error()})
	case errors.Is(err, pricing.ErrStoreUnavailable):
		s.log.Error("stair price failed: rule store unavailable", "path", r.URL.Path, "err", err)
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "pricing temporarily unavailable"})
	default:
		s.log.Error("stair price failed", "path", r.URL.Path, "err", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

func (s *server) handleQuotesList(w http.ResponseWriter, r *http.Request) {
	var jobID int64
	if raw := strings.TrimSpace(r.URL.Query().Get("job_id")); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid job_id"})
			return
		}
		jobID = id
	}

	list, err := s.quotes.List(r.Context(), jobID)
	if err != nil {
		s.log.Error("list quotes failed", "err", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to load quotes"})
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *server) handleQuoteGet(w http.ResponseWriter, r *http.Request) {
	q, ok := s.loadQuote(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, q)
}

// handleQuoteText returns a plain-text summary suitable for pasting into an
// email or job ticket.
func (s *server) handleQuoteText(w http.ResponseWriter, r *http.Request) {
	q, ok := s.loadQuote(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, quoteText(q))
}

func (s *server) loadQuote(w http.ResponseWriter, r *http.Request) (quotes.Quote, bool) {
	q, err := s.quotes.Get(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, quotes.ErrNotFound) {
		http.NotFound(w, r)
		return quotes.Quote{}, false
	}
	if err != nil {
		s.log.Error("load quote failed", "err", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to load quote"})
		return quotes.Quote{}, false
	}
	return q, true
}

func quoteText(q quotes.Quote) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Stair quote %s\n", q.ID)
	if q.JobID != 0 {
		fmt.Fprintf(&b, "Job: %d\n", q.JobID)
	}
	fmt.Fprintf(&b, "Created: %s\n\n", q.CreatedAt.Format("2006-01-02 15:04"))
	for _, l := range q.Breakdown.Lines {
		label := string(l.Component)
		if l.Label != "" {
			label = l.Label
		}
		fmt.Fprintf(&b, "%-24s %3d x %10s = %10s\n", label, l.Quantity, l.UnitPrice.StringFixed(2), l.LineTotal.StringFixed(2))
	}
	fmt.Fprintf(&b, "\nSubtotal: %s\n", q.Breakdown.Subtotal.StringFixed(2))
	fmt.Fprintf(&b, "Total: %s\n", q.Breakdown.Total.StringFixed(2))
	return b.String()
}

func (s *server) handleRulesList(w http.ResponseWriter, r *http.Request) {
	records, err := s.rules.List(r.Context())
	if err != nil {
		s.log.Error("list rules failed", "err", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to load rules"})
		return
	}
	out := make([]ruleJSON, 0, len(records))
	for _, rec := range records {
		out = append(out, toRuleJSON(rec))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *server) handleRuleUpsert(w http.ResponseWriter, r *http.Request) {
	var body ruleJSON
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid rule", Detail: err.Error()})
		return
	}

	id, err := s.rules.Upsert(r.Context(), body.record())
	if errors.Is(err, rules.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid rule", Detail: err.Error()})
		return
	}

	rec, err := s.rules.Get(r.Context(), id)
	if err != nil {
		s.log.Error("reload rule failed", "id", id, "err", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to load rule"})
		return
	}
	writeJSON(w, http.StatusOK, toRuleJSON(rec))
}

func (s *server) handleRulesExport(w http.ResponseWriter, r *http.Request) {
	records, err := s.rules.List(r.Context())
	if err != nil {
		s.log.Error("list rules failed", "err", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to load rules"})
		return
	}
	buf, err := rules.ExportXLSX(records)
	if err != nil {
		s.log.Error("export rules failed", "err", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to export rules"})
		return
	}

	name := fmt.Sprintf("pricing_rules_%s.xlsx", time.Now().Format("20060102_150405"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	_, _ = w.Write(buf.Bytes())
}

// handleRulesImport accepts a workbook either as multipart field "file" or as
// the raw request body.
func (s *server) handleRulesImport(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxImportBytes)
	var src io.Reader = r.Body
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(maxImportBytes); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid upload", Detail: err.Error()})
			return
		}
		f, _, err := r.FormFile("file")
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "missing file field"})
			return
		}
		defer f.Close()
		src = f
	}

	records, err := rules.ParseXLSX(src)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid workbook", Detail: err.Error()})
		return
	}
	stats, err := s.rules.Import(r.Context(), records)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "import rejected", Detail: err.Error()})
		return
	}
	metrics.AddRuleImports(stats.Inserts + stats.Updates)
	s.log.Info("pricing rules imported", "inserts", stats.Inserts, "updates", stats.Updates)

	writeJSON(w, http.StatusOK, map[string]int{"inserts": stats.Inserts, "updates": stats.Updates})
}

func (s *server) handleMaterialsList(w http.ResponseWriter, r *http.Request) {
	materials, err := s.rules.ListMaterials(r.Context())
	if err != nil {
		s.log.Error("list materials failed", "err", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to load materials"})
		return
	}

	type materialJSON struct {
		ID      int64  `json:"id"`
		Name    string `json:"name"`
		Species string `json:"species"`
		Active  bool   `json:"active"`
	}
	out := make([]materialJSON, 0, len(materials))
	for _, m := range materials {
		out = append(out, materialJSON{ID: m.ID, Name: m.Name, Species: m.Species, Active: m.Active})
	}
	writeJSON(w, http.StatusOK, out)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
