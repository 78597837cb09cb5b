package store

import (
	"context"
	"errors"
	"strings"

	"pagefun/app/internal/models"
)

// ErrNotFound is returned by Get when no page exists under the slug.
var ErrNotFound = errors.New("page not found")

// PageStore persists pages keyed by slug, with a secondary wallet index for
// the "list my pages" operation. Semantics are whole-record replace,
// last-write-wins; callers read-modify-write. All backends behave
// identically.
type PageStore interface {
	// Get returns the page stored under slug, or ErrNotFound.
	Get(ctx context.Context, slug string) (*models.Page, error)
	// Put replaces the record under page.Slug and updates the wallet index.
	// An index update that fails after a successful primary write is logged,
	// not returned; the record write stands.
	Put(ctx context.Context, page *models.Page) error
	// Delete removes the record and its wallet-index entry. Deleting an
	// absent slug is a no-op.
	Delete(ctx context.Context, slug string) error
	// ListByWallet returns summaries of all pages owned by the wallet.
	ListByWallet(ctx context.Context, walletAddress string) ([]models.PageSummary, error)
}

// PageKey is the primary-record key layout shared by the KV backends.
func PageKey(slug string) string {
	return "page:" + slug
}

// WalletKey is the secondary-index key. Addresses are lowercased so the
// index follows the same case-insensitive policy as ownership checks.
func WalletKey(walletAddress string) string {
	return "wallet:" + strings.ToLower(walletAddress)
}
