package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/avolkov86/passvault/internal/crypto"
	"github.com/avolkov86/passvault/internal/errs"
	"github.com/avolkov86/passvault/internal/model"
	"github.com/avolkov86/passvault/internal/repository"
)

// CredentialService defines operations over credential records. Secrets cross
// this boundary as plaintext exactly once per call; everything below it sees
// ciphertext only.
type CredentialService interface {
	// Create stores a new credential with its secret encrypted at rest.
	Create(ctx context.Context, ownerID uuid.UUID, in model.CredentialInput) (*model.Credential, error)
	// Update overwrites editable fields. An empty in.Secret keeps the stored
	// secret; a changed secret pushes the old ciphertext into history.
	Update(ctx context.Context, ownerID, id uuid.UUID, in model.CredentialInput) (*model.Credential, error)
	// Delete removes the credential and its history; missing rows are a no-op.
	Delete(ctx context.Context, ownerID, id uuid.UUID) error
	// Get returns one credential.
	Get(ctx context.Context, ownerID, id uuid.UUID) (*model.Credential, error)
	// List returns the owner's credentials ordered by title; a zero categoryID
	// means all categories.
	List(ctx context.Context, ownerID, categoryID uuid.UUID) ([]model.Credential, error)
	// Reveal decrypts the current secret. Undecryptable ciphertext yields the
	// display placeholder, not an error.
	Reveal(ctx context.Context, ownerID, id uuid.UUID) (string, error)
}

type CredentialServiceImpl struct {
	creds  repository.CredentialRepository
	cats   CategoryService
	cipher *crypto.SecretCipher
}

// NewCredentialService constructs CredentialService.
func NewCredentialService(
	creds repository.CredentialRepository, cats CategoryService, cipher *crypto.SecretCipher,
) *CredentialServiceImpl {
	return &CredentialServiceImpl{creds: creds, cats: cats, cipher: cipher}
}

// Create validates required fields, resolves the category, encrypts the
// secret, and writes a record with empty history.
func (s *CredentialServiceImpl) Create(ctx context.Context, ownerID uuid.UUID, in model.CredentialInput) (*model.Credential, error) {
	if ownerID == uuid.Nil {
		return nil, fmt.Errorf("%w: empty owner id", errs.ErrValidation)
	}
	if err := validateInput(in, true); err != nil {
		return nil, err
	}
	catID, err := s.cats.ResolveCategoryID(ctx, ownerID, in.CategoryID)
	if err != nil {
		return nil, err
	}
	enc, err := s.cipher.Encrypt(in.Secret)
	if err != nil {
		return nil, err
	}
	id, err := uuid.NewV4()
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	c := &model.Credential{
		ID:             id,
		OwnerID:        ownerID,
		CategoryID:     catID,
		Title:          strings.TrimSpace(in.Title),
		Username:       in.Username,
		SecretEnc:      enc,
		WebsiteURL:     in.WebsiteURL,
		Notes:          in.Notes,
		History:        model.History{},
		LastModifiedAt: now,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.creds.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Update re-resolves the category when omitted and hands the new ciphertext
// to the store, which owns the history-append rule. Ciphertext inequality is
// the change signal; since the cipher is nonce-randomized, re-submitting an
// identical plaintext also counts as a change. Callers that do not intend to
// rotate the secret leave in.Secret empty.
func (s *CredentialServiceImpl) Update(ctx context.Context, ownerID, id uuid.UUID, in model.CredentialInput) (*model.Credential, error) {
	if ownerID == uuid.Nil || id == uuid.Nil {
		return nil, fmt.Errorf("%w: empty owner/credential id", errs.ErrValidation)
	}
	if err := validateInput(in, false); err != nil {
		return nil, err
	}
	catID, err := s.cats.ResolveCategoryID(ctx, ownerID, in.CategoryID)
	if err != nil {
		return nil, err
	}
	var enc string
	if in.Secret != "" {
		if enc, err = s.cipher.Encrypt(in.Secret); err != nil {
			return nil, err
		}
	}
	return s.creds.Update(ctx, ownerID, id, model.CredentialUpdate{
		Title:      strings.TrimSpace(in.Title),
		Username:   in.Username,
		SecretEnc:  enc,
		CategoryID: catID,
		WebsiteURL: in.WebsiteURL,
		Notes:      in.Notes,
	})
}

// Delete removes the record. Ownership scoping happens in the repository; a
// foreign or missing id deletes nothing and reports nothing.
func (s *CredentialServiceImpl) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	if ownerID == uuid.Nil || id == uuid.Nil {
		return fmt.Errorf("%w: empty owner/credential id", errs.ErrValidation)
	}
	return s.creds.Delete(ctx, ownerID, id)
}

// Get fetches a single credential by id.
func (s *CredentialServiceImpl) Get(ctx context.Context, ownerID, id uuid.UUID) (*model.Credential, error) {
	if ownerID == uuid.Nil || id == uuid.Nil {
		return nil, fmt.Errorf("%w: empty owner/credential id", errs.ErrValidation)
	}
	return s.creds.Get(ctx, ownerID, id)
}

// List returns the owner's credentials, optionally narrowed to one category.
func (s *CredentialServiceImpl) List(ctx context.Context, ownerID, categoryID uuid.UUID) ([]model.Credential, error) {
	if ownerID == uuid.Nil {
		return nil, fmt.Errorf("%w: empty owner id", errs.ErrValidation)
	}
	return s.creds.ListByOwner(ctx, ownerID, categoryID)
}

// Reveal decrypts the stored secret for display.
func (s *CredentialServiceImpl) Reveal(ctx context.Context, ownerID, id uuid.UUID) (string, error) {
	c, err := s.Get(ctx, ownerID, id)
	if err != nil {
		return "", err
	}
	return s.cipher.DecryptForDisplay(c.SecretEnc), nil
}

func validateInput(in model.CredentialInput, secretRequired bool) error {
	if strings.TrimSpace(in.Title) == "" {
		return fmt.Errorf("%w: title is required", errs.ErrValidation)
	}
	if in.Username == "" {
		return fmt.Errorf("%w: username is required", errs.ErrValidation)
	}
	if secretRequired && in.Secret == "" {
		return fmt.Errorf("%w: secret is required", errs.ErrValidation)
	}
	return nil
}
