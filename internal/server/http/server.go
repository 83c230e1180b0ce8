// Package httpserver exposes the vault services over a JSON API. The UI and
// login flow live elsewhere; every route here expects a bearer token from the
// external identity provider.
package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	"github.com/avolkov86/passvault/internal/errs"
	"github.com/avolkov86/passvault/internal/model"
	"github.com/avolkov86/passvault/internal/service"
)

// Server wires services into HTTP handlers.
type Server struct {
	cats    service.CategoryService
	creds   service.CredentialService
	signKey []byte
	logger  *zap.Logger
}

// New constructs a server with injected services.
func New(cats service.CategoryService, creds service.CredentialService, signKey []byte, logger *zap.Logger) *Server {
	return &Server{cats: cats, creds: creds, signKey: signKey, logger: logger}
}

// Handler builds the routed, middleware-wrapped handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/categories", s.listCategories)
	mux.HandleFunc("POST /api/categories", s.createCategory)
	mux.HandleFunc("POST /api/categories/default", s.ensureDefaultCategory)
	mux.HandleFunc("PUT /api/categories/{id}", s.renameCategory)
	mux.HandleFunc("DELETE /api/categories/{id}", s.deleteCategory)

	mux.HandleFunc("GET /api/credentials", s.listCredentials)
	mux.HandleFunc("POST /api/credentials", s.createCredential)
	mux.HandleFunc("GET /api/credentials/{id}", s.getCredential)
	mux.HandleFunc("PUT /api/credentials/{id}", s.updateCredential)
	mux.HandleFunc("DELETE /api/credentials/{id}", s.deleteCredential)
	mux.HandleFunc("GET /api/credentials/{id}/secret", s.revealSecret)

	var h http.Handler = mux
	h = Auth(s.signKey)(h)
	h = Logging(s.logger)(h)
	h = Recover(s.logger)(h)
	return h
}

// --- Categories ---

type categoryDTO struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	IconRef   string    `json:"icon_ref,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type categoryReq struct {
	Name    string `json:"name"`
	IconRef string `json:"icon_ref"`
}

func (s *Server) listCategories(w http.ResponseWriter, r *http.Request) {
	ownerID, _ := OwnerIDFromCtx(r.Context())
	cats, err := s.cats.List(r.Context(), ownerID)
	if err != nil {
		s.writeErr(w, err)
		return
	}
	out := make([]categoryDTO, 0, len(cats))
	for _, c := range cats {
		out = append(out, toCategoryDTO(c))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) createCategory(w http.ResponseWriter, r *http.Request) {
	ownerID, _ := OwnerIDFromCtx(r.Context())
	var req categoryReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	c, err := s.cats.Create(r.Context(), ownerID, req.Name, req.IconRef)
	if err != nil {
		s.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toCategoryDTO(*c))
}

// ensureDefaultCategory guarantees the default category exists and adopts any
// orphaned credentials into it. Idempotent; the UI calls it on vault load.
func (s *Server) ensureDefaultCategory(w http.ResponseWriter, r *http.Request) {
	ownerID, _ := OwnerIDFromCtx(r.Context())
	c, err := s.cats.EnsureDefault(r.Context(), ownerID)
	if err != nil {
		s.writeErr(w, err)
		return
	}
	adopted, err := s.cats.AdoptOrphans(r.Context(), ownerID)
	if err != nil {
		s.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Category categoryDTO `json:"category"`
		Adopted  int64       `json:"adopted"`
	}{toCategoryDTO(*c), adopted})
}

func (s *Server) renameCategory(w http.ResponseWriter, r *http.Request) {
	ownerID, _ := OwnerIDFromCtx(r.Context())
	id, err := uuid.FromString(r.PathValue("id"))
	if err != nil {
		http.Error(w, "bad id", http.StatusBadRequest)
		return
	}
	var req categoryReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	if err := s.cats.Rename(r.Context(), ownerID, id, req.Name, req.IconRef); err != nil {
		s.writeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) deleteCategory(w http.ResponseWriter, r *http.Request) {
	ownerID, _ := OwnerIDFromCtx(r.Context())
	id, err := uuid.FromString(r.PathValue("id"))
	if err != nil {
		http.Error(w, "bad id", http.StatusBadRequest)
		return
	}
	if err := s.cats.Delete(r.Context(), ownerID, id); err != nil {
		s.writeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- Credentials ---

type historyDTO struct {
	ChangedAt time.Time `json:"changed_at"`
}

type credentialDTO struct {
	ID             uuid.UUID    `json:"id"`
	CategoryID     uuid.UUID    `json:"category_id"`
	Title          string       `json:"title"`
	Username       string       `json:"username"`
	WebsiteURL     string       `json:"website_url,omitempty"`
	Notes          string       `json:"notes,omitempty"`
	History        []historyDTO `json:"history"`
	LastModifiedAt time.Time    `json:"last_modified_at"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

type credentialReq struct {
	Title      string `json:"title"`
	Username   string `json:"username"`
	Secret     string `json:"secret"`
	CategoryID string `json:"category_id"`
	WebsiteURL string `json:"website_url"`
	Notes      string `json:"notes"`
}

func (r credentialReq) toInput() (model.CredentialInput, error) {
	in := model.CredentialInput{
		Title:      r.Title,
		Username:   r.Username,
		Secret:     r.Secret,
		WebsiteURL: r.WebsiteURL,
		Notes:      r.Notes,
	}
	if r.CategoryID != "" {
		id, err := uuid.FromString(r.CategoryID)
		if err != nil {
			return in, err
		}
		in.CategoryID = id
	}
	return in, nil
}

func (s *Server) listCredentials(w http.ResponseWriter, r *http.Request) {
	ownerID, _ := OwnerIDFromCtx(r.Context())
	categoryID := uuid.Nil
	if raw := r.URL.Query().Get("category_id"); raw != "" {
		id, err := uuid.FromString(raw)
		if err != nil {
			http.Error(w, "bad category_id", http.StatusBadRequest)
			return
		}
		categoryID = id
	}
	creds, err := s.creds.List(r.Context(), ownerID, categoryID)
	if err != nil {
		s.writeErr(w, err)
		return
	}
	out := make([]credentialDTO, 0, len(creds))
	for _, c := range creds {
		out = append(out, toCredentialDTO(c))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) createCredential(w http.ResponseWriter, r *http.Request) {
	ownerID, _ := OwnerIDFromCtx(r.Context())
	var req credentialReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	in, err := req.toInput()
	if err != nil {
		http.Error(w, "bad category_id", http.StatusBadRequest)
		return
	}
	c, err := s.creds.Create(r.Context(), ownerID, in)
	if err != nil {
		s.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toCredentialDTO(*c))
}

func (s *Server) getCredential(w http.ResponseWriter, r *http.Request) {
	ownerID, _ := OwnerIDFromCtx(r.Context())
	id, err := uuid.FromString(r.PathValue("id"))
	if err != nil {
		http.Error(w, "bad id", http.StatusBadRequest)
		return
	}
	c, err := s.creds.Get(r.Context(), ownerID, id)
	if err != nil {
		s.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCredentialDTO(*c))
}

func (s *Server) updateCredential(w http.ResponseWriter, r *http.Request) {
	ownerID, _ := OwnerIDFromCtx(r.Context())
	id, err := uuid.FromString(r.PathValue("id"))
	if err != nil {
		http.Error(w, "bad id", http.StatusBadRequest)
		return
	}
	var req credentialReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	in, err := req.toInput()
	if err != nil {
		http.Error(w, "bad category_id", http.StatusBadRequest)
		return
	}
	c, err := s.creds.Update(r.Context(), ownerID, id, in)
	if err != nil {
		s.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCredentialDTO(*c))
}

func (s *Server) deleteCredential(w http.ResponseWriter, r *http.Request) {
	ownerID, _ := OwnerIDFromCtx(r.Context())
	id, err := uuid.FromString(r.PathValue("id"))
	if err != nil {
		http.Error(w, "bad id", http.StatusBadRequest)
		return
	}
	if err := s.creds.Delete(r.Context(), ownerID, id); err != nil {
		s.writeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) revealSecret(w http.ResponseWriter, r *http.Request) {
	ownerID, _ := OwnerIDFromCtx(r.Context())
	id, err := uuid.FromString(r.PathValue("id"))
	if err != nil {
		http.Error(w, "bad id", http.StatusBadRequest)
		return
	}
	secret, err := s.creds.Reveal(r.Context(), ownerID, id)
	if err != nil {
		s.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Secret string `json:"secret"`
	}{secret})
}

// --- helpers ---

func toCategoryDTO(c model.Category) categoryDTO {
	return categoryDTO{ID: c.ID, Name: c.Name, IconRef: c.IconRef, CreatedAt: c.CreatedAt, UpdatedAt: c.UpdatedAt}
}

func toCredentialDTO(c model.Credential) credentialDTO {
	history := make([]historyDTO, 0, len(c.History))
	for _, h := range c.History {
		history = append(history, historyDTO{ChangedAt: h.ChangedAt})
	}
	return credentialDTO{
		ID:             c.ID,
		CategoryID:     c.CategoryID,
		Title:          c.Title,
		Username:       c.Username,
		WebsiteURL:     c.WebsiteURL,
		Notes:          c.Notes,
		History:        history,
		LastModifiedAt: c.LastModifiedAt,
		CreatedAt:      c.CreatedAt,
		UpdatedAt:      c.UpdatedAt,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeErr maps service sentinels to HTTP status codes. Store failures stay
// opaque to clients.
func (s *Server) writeErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, errs.ErrValidation):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, errs.ErrNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	case errors.Is(err, errs.ErrAlreadyExists):
		http.Error(w, "already exists", http.StatusConflict)
	default:
		s.logger.Error("internal error", zap.Error(err))
		http.Error(w, "internal", http.StatusInternalServerError)
	}
}
