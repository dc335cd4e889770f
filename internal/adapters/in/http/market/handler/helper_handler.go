// internal/adapters/in/http/market/handler/helper_handler.go
package marketHandler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	usecase "campusmarket/internal/application/usecase"
	itemdom "campusmarket/internal/domain/item"
)

const maxBody = 1 << 20 // 1MB

// ============================================================
// HTTP helpers
// ============================================================

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// StatusFor maps a usecase Kind to its HTTP status.
func StatusFor(k usecase.Kind) int {
	switch k {
	case usecase.KindUnauthorized:
		return http.StatusUnauthorized
	case usecase.KindForbidden:
		return http.StatusForbidden
	case usecase.KindNotFound:
		return http.StatusNotFound
	case usecase.KindInvalidInput:
		return http.StatusBadRequest
	case usecase.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusServiceUnavailable
	}
}

// writeError renders err as a tagged failure. Dependency failures never
// leak the underlying error text.
func writeError(w http.ResponseWriter, log *zap.Logger, err error) {
	kind := usecase.KindOf(err)
	msg := err.Error()
	if kind == usecase.KindDependencyFailure {
		log.Error("dependency failure", zap.Error(err))
		msg = "a backing service is unavailable; retry later"
	}
	writeJSON(w, StatusFor(kind), errorBody{Error: errorDetail{Kind: string(kind), Message: msg}})
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, errorBody{Error: errorDetail{Kind: string(usecase.KindInvalidInput), Message: msg}})
}

var errEmptyBody = errors.New("request body is empty")

// decodeJSON reads at most maxBody bytes. Unknown fields are ignored.
func decodeJSON(r *http.Request, dst any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBody))
	if err != nil {
		return err
	}
	_ = r.Body.Close()
	if len(strings.TrimSpace(string(body))) == 0 {
		return errEmptyBody
	}
	return json.Unmarshal(body, dst)
}

// ============================================================
// Query helpers
// ============================================================

func readPage(r *http.Request) (itemdom.Page, error) {
	q := r.URL.Query()
	num, err := atoiDefault(q.Get("page"), 1)
	if err != nil {
		return itemdom.Page{}, errors.New("page must be an integer")
	}
	per, err := atoiDefault(q.Get("perPage"), 0)
	if err != nil {
		return itemdom.Page{}, errors.New("perPage must be an integer")
	}
	return itemdom.Page{Number: num, PerPage: per}, nil
}

func readSort(r *http.Request) (itemdom.Sort, error) {
	q := r.URL.Query()
	col := strings.TrimSpace(q.Get("sort"))
	order := strings.ToLower(strings.TrimSpace(q.Get("order")))

	switch col {
	case "":
		if order != "" {
			return itemdom.Sort{}, errors.New("order requires sort")
		}
		return itemdom.Sort{}, nil
	case itemdom.SortByPostedAt, itemdom.SortByUpdatedAt, itemdom.SortByPrice:
	default:
		return itemdom.Sort{}, errors.New("sort must be postedAt, updatedAt or price")
	}

	s := itemdom.Sort{Column: col, Order: itemdom.SortDesc}
	switch order {
	case "", string(itemdom.SortDesc):
	case string(itemdom.SortAsc):
		s.Order = itemdom.SortAsc
	default:
		return itemdom.Sort{}, errors.New("order must be asc or desc")
	}
	return s, nil
}

func readStatuses(r *http.Request) []itemdom.Status {
	raw := strings.TrimSpace(r.URL.Query().Get("status"))
	if raw == "" {
		return nil
	}
	out := make([]itemdom.Status, 0, 4)
	for _, s := range strings.Split(raw, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, itemdom.Status(s))
		}
	}
	return out
}

func atoiDefault(s string, def int) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return def, nil
	}
	return strconv.Atoi(s)
}
