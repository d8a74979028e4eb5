package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"sjsage522/propertyscraper/internal/export"
	"sjsage522/propertyscraper/internal/record"
)

// Handler answers queries over a dataset
type Handler struct {
	data *export.Dataset

	// Now is the clock stamped on documents and reports
	Now func() time.Time
}

func NewHandler(data *export.Dataset) *Handler {
	if data == nil {
		data = &export.Dataset{}
	}
	return &Handler{data: data, Now: time.Now}
}

// SummaryResponse is the body of GET /api/summary
type SummaryResponse struct {
	TotalItems int                     `json:"total_items"`
	Counts     map[record.Category]int `json:"counts"`
}

// Health handles GET /health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	RespondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Properties handles GET /api/properties. Query parameters mirror the
// export filters; q narrows by title or location.
func (h *Handler) Properties(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	filters, err := parseFilters(query)
	if err != nil {
		WriteJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	listings := export.Search(h.data.Properties, query.Get("q"))
	RespondWithJSON(w, http.StatusOK, export.NewDocument(listings, filters, h.Now()))
}

// Report handles GET /api/report
func (h *Handler) Report(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := export.WriteReport(&buf, h.data, h.Now()); err != nil {
		WriteJSONError(w, http.StatusInternalServerError, "failed to render report")
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// Summary handles GET /api/summary
func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	RespondWithJSON(w, http.StatusOK, SummaryResponse{
		TotalItems: h.data.Total(),
		Counts:     h.data.Counts(),
	})
}

func parseFilters(query url.Values) (export.Filters, error) {
	f := export.Filters{
		Location:        query.Get("location"),
		PropertyType:    query.Get("property_type"),
		TransactionType: query.Get("transaction_type"),
	}

	var err error
	if f.PriceMin, err = parseFloat(query, "price_min"); err != nil {
		return f, err
	}
	if f.PriceMax, err = parseFloat(query, "price_max"); err != nil {
		return f, err
	}
	return f, nil
}

func parseFloat(query url.Values, key string) (*float64, error) {
	raw := query.Get(key)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, &paramError{key: key, value: raw}
	}
	return &v, nil
}

type paramError struct {
	key, value string
}

func (e *paramError) Error() string {
	return "invalid " + e.key + ": " + strconv.Quote(e.value)
}

// WriteJSONError sends a JSON body with an "error" field
func WriteJSONError(w http.ResponseWriter, statusCode int, message string) {
	RespondWithJSON(w, statusCode, map[string]string{"error": message})
}

// RespondWithJSON sends payload as JSON
func RespondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		http.Error(w, "Failed to marshal JSON response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}
