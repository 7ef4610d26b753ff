package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/norvantechnology/hisab/internal/adapter/http/dto"
	"github.com/norvantechnology/hisab/internal/adapter/http/middleware"
	"github.com/norvantechnology/hisab/internal/domain"
)

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, status int, message, details string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(dto.ErrorResponse{
		Error:   message,
		Message: details,
	})
}

// mapDomainError maps domain errors to HTTP status codes.
func mapDomainError(err error) int {
	switch {
	case errors.Is(err, domain.ErrAccountNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrTransactionNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrAccountDeleted):
		return http.StatusConflict
	case errors.Is(err, domain.ErrAccountInactive):
		return http.StatusConflict
	case errors.Is(err, domain.ErrInvalidAmount):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrSameAccount):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrInvalidStatus):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrInvalidDateRange):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrInvalidCategory):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrInvalidAccountName):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrInvalidCurrency):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// parseIntQuery parses an integer query parameter with a default value.
func parseIntQuery(r *http.Request, key string, defaultValue int) int {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultValue
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultValue
	}
	return i
}

// parseDateRange reads the optional from/to query parameters. Dates are
// accepted as YYYY-MM-DD or RFC 3339 timestamps.
func parseDateRange(r *http.Request) (domain.DateRange, error) {
	var dr domain.DateRange

	from, err := parseDateQuery(r, "from")
	if err != nil {
		return dr, err
	}
	to, err := parseDateQuery(r, "to")
	if err != nil {
		return dr, err
	}

	dr.From = from
	dr.To = to
	return dr, dr.Validate()
}

func parseDateQuery(r *http.Request, key string) (*time.Time, error) {
	val := r.URL.Query().Get(key)
	if val == "" {
		return nil, nil
	}
	if t, err := time.Parse("2006-01-02", val); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.RFC3339, val)
	if err != nil {
		return nil, domain.ErrInvalidDateRange
	}
	return &t, nil
}

// parseCategories reads the optional comma-separated categories parameter.
func parseCategories(r *http.Request) ([]domain.EventCategory, error) {
	val := r.URL.Query().Get("categories")
	if val == "" {
		return nil, nil
	}

	parts := strings.Split(val, ",")
	categories := make([]domain.EventCategory, 0, len(parts))
	for _, p := range parts {
		c, err := domain.ParseCategory(strings.TrimSpace(p))
		if err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, nil
}

// requestCompanyID resolves the company scope set by the auth middleware.
func requestCompanyID(r *http.Request) (string, error) {
	companyID, ok := middleware.CompanyFromContext(r.Context())
	if !ok {
		return "", domain.ErrUnauthorized
	}
	return companyID, nil
}
