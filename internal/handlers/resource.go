// Package handlers exposes the record stores over HTTP as JSON.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/diewo77/freelance-pro/auth"
	gate "github.com/diewo77/freelance-pro/go-gate"
	"github.com/diewo77/freelance-pro/httpx"
	"github.com/diewo77/freelance-pro/i18n"
	"github.com/diewo77/freelance-pro/internal/cache"
	"github.com/diewo77/freelance-pro/internal/middleware"
	"github.com/diewo77/freelance-pro/validation"
)

// Labeled records have a display title used by the list filter.
type Labeled interface {
	Label() string
}

// ListResponse is the body of every list endpoint.
type ListResponse[T any] struct {
	Items []T `json:"items"`
	Total int `json:"total"`
}

// MutationResponse wraps a created or updated record.
type MutationResponse[T any] struct {
	Record    T      `json:"record"`
	Persisted bool   `json:"persisted"`
	Message   string `json:"message"`
}

// Resource serves one record domain: list, create, view, update, delete
// and reset.
type Resource[T any, P interface {
	*T
	cache.Record
	Labeled
}] struct {
	name  string
	store *cache.Store[T, P]
	gate  *gate.Gate[string]
	check func(T) validation.Violations
}

// NewResource builds the handler of store. name is the singular resource
// type registered on g ("client", "invoice", ...).
func NewResource[T any, P interface {
	*T
	cache.Record
	Labeled
}](name string, store *cache.Store[T, P], g *gate.Gate[string]) *Resource[T, P] {
	return &Resource[T, P]{name: name, store: store, gate: g}
}

// WithCheck adds validation that needs more than the record itself, such
// as references to catalogs.
func (h *Resource[T, P]) WithCheck(fn func(T) validation.Violations) *Resource[T, P] {
	h.check = fn
	return h
}

func (h *Resource[T, P]) List(w http.ResponseWriter, r *http.Request) {
	if !h.authorize(w, r, gate.ActionList, nil) {
		return
	}
	userID, _ := auth.UserIDFromContext(r.Context())
	query := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("q")))

	items := []T{}
	for _, rec := range h.store.List(r.Context()) {
		p := P(&rec)
		if !h.gate.Can(r.Context(), userID, gate.ActionView, h.name, p) {
			continue
		}
		if query != "" && !strings.Contains(strings.ToLower(p.Label()), query) {
			continue
		}
		items = append(items, rec)
	}
	httpx.JSON(w, http.StatusOK, ListResponse[T]{Items: items, Total: len(items)})
}

func (h *Resource[T, P]) Create(w http.ResponseWriter, r *http.Request) {
	if !h.authorize(w, r, gate.ActionCreate, nil) {
		return
	}
	lang := middleware.LangFrom(r)
	var rec T
	if err := httpx.DecodeJSON(r, &rec); err != nil {
		httpx.JSONErrorMessage(w, http.StatusBadRequest, "invalid_json", i18n.T(lang, "invalid_json"), err.Error())
		return
	}
	// owner is always the requesting user
	userID, _ := auth.UserIDFromContext(r.Context())
	P(&rec).GetMeta().UserID = userID
	if v := h.validate(&rec); !v.Empty() {
		h.violations(w, lang, v)
		return
	}

	created, ok := h.store.Create(r.Context(), rec)
	msg := i18n.T(lang, h.name+"_created")
	if !ok {
		msg = i18n.T(lang, "not_persisted")
	}
	httpx.JSON(w, http.StatusCreated, MutationResponse[T]{Record: created, Persisted: ok, Message: msg})
}

func (h *Resource[T, P]) View(w http.ResponseWriter, r *http.Request) {
	rec, ok := h.load(w, r, gate.ActionView)
	if !ok {
		return
	}
	httpx.JSON(w, http.StatusOK, rec)
}

// Update applies the JSON object in the body as a shallow patch.
func (h *Resource[T, P]) Update(w http.ResponseWriter, r *http.Request) {
	cur, ok := h.load(w, r, gate.ActionUpdate)
	if !ok {
		return
	}
	lang := middleware.LangFrom(r)
	var patch map[string]json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		httpx.JSONErrorMessage(w, http.StatusBadRequest, "invalid_json", i18n.T(lang, "invalid_json"), err.Error())
		return
	}
	merged, err := cache.Merge(cur, patch)
	if err != nil {
		httpx.JSONErrorMessage(w, http.StatusBadRequest, "invalid_json", i18n.T(lang, "invalid_json"), err.Error())
		return
	}
	if v := h.validate(&merged); !v.Empty() {
		h.violations(w, lang, v)
		return
	}

	updated, outcome := h.store.Patch(r.Context(), r.PathValue("id"), patch)
	switch outcome {
	case cache.OK:
		httpx.JSON(w, http.StatusOK, MutationResponse[T]{Record: updated, Persisted: true, Message: i18n.T(lang, h.name+"_updated")})
	case cache.NotPersisted:
		httpx.JSON(w, http.StatusOK, MutationResponse[T]{Record: updated, Message: i18n.T(lang, "not_persisted")})
	case cache.NotFound:
		httpx.JSONErrorMessage(w, http.StatusNotFound, "not_found", i18n.T(lang, "not_found"), nil)
	default:
		httpx.JSONErrorMessage(w, http.StatusBadRequest, "validation_failed", i18n.T(lang, "validation_failed"), nil)
	}
}

// Delete is idempotent: deleting an absent id succeeds.
func (h *Resource[T, P]) Delete(w http.ResponseWriter, r *http.Request) {
	lang := middleware.LangFrom(r)
	id := r.PathValue("id")
	var resource any
	if rec, ok := h.store.Get(r.Context(), id); ok {
		resource = P(&rec)
	}
	if !h.authorize(w, r, gate.ActionDelete, resource) {
		return
	}
	if !h.store.Delete(r.Context(), id) {
		httpx.JSONErrorMessage(w, http.StatusInternalServerError, "delete_failed", i18n.T(lang, "delete_failed"), nil)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"deleted": true, "message": i18n.T(lang, h.name+"_deleted")})
}

// Reset restores the demo data of the domain.
func (h *Resource[T, P]) Reset(w http.ResponseWriter, r *http.Request) {
	if !h.authorize(w, r, gate.ActionReset, nil) {
		return
	}
	lang := middleware.LangFrom(r)
	if !h.store.Reset(r.Context()) {
		httpx.JSONErrorMessage(w, http.StatusInternalServerError, "reset_failed", i18n.T(lang, "reset_failed"), nil)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"reset": true, "message": i18n.T(lang, "reset_done")})
}

// load resolves the {id} path value and authorizes action on it, writing
// the error response when either fails.
func (h *Resource[T, P]) load(w http.ResponseWriter, r *http.Request, action gate.Action) (T, bool) {
	rec, ok := h.store.Get(r.Context(), r.PathValue("id"))
	if !ok {
		httpx.JSONErrorMessage(w, http.StatusNotFound, "not_found", i18n.T(middleware.LangFrom(r), "not_found"), nil)
		return rec, false
	}
	if !h.authorize(w, r, action, P(&rec)) {
		return rec, false
	}
	return rec, true
}

func (h *Resource[T, P]) authorize(w http.ResponseWriter, r *http.Request, action gate.Action, resource any) bool {
	return authorize(w, r, h.gate, action, h.name, resource)
}

// validate runs the record's own rules after refreshing derived fields,
// then the extra check.
func (h *Resource[T, P]) validate(rec *T) validation.Violations {
	p := P(rec)
	if d, ok := any(p).(cache.Deriver); ok {
		d.Derive()
	}
	v := p.Validate()
	if h.check != nil {
		v.Merge(h.check(*rec))
	}
	return v
}

func (h *Resource[T, P]) violations(w http.ResponseWriter, lang string, v validation.Violations) {
	httpx.JSONErrorMessage(w, http.StatusBadRequest, "validation_failed", i18n.T(lang, "validation_failed"), i18n.Violations(lang, v))
}

func authorize(w http.ResponseWriter, r *http.Request, g *gate.Gate[string], action gate.Action, resourceType string, resource any) bool {
	userID, _ := auth.UserIDFromContext(r.Context())
	err := g.Authorize(r.Context(), userID, action, resourceType, resource)
	lang := middleware.LangFrom(r)
	switch {
	case err == nil:
		return true
	case errors.Is(err, gate.ErrNoPolicyDefined):
		httpx.JSONError(w, http.StatusInternalServerError, "no_policy", resourceType)
	case userID == "":
		httpx.JSONErrorMessage(w, http.StatusUnauthorized, "unauthorized", i18n.T(lang, "unauthorized"), nil)
	default:
		httpx.JSONErrorMessage(w, http.StatusForbidden, "forbidden", i18n.T(lang, "forbidden"), nil)
	}
	return false
}
