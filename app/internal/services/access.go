package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"pagefun/app/internal/models"
	"pagefun/app/internal/store"
	"pagefun/shared/logger"
)

// AccessEngine is the policy layer every page-serving and page-editing path
// goes through: who may mutate a page, who may see owner-only fields, and
// when a gated destination URL may be released.
type AccessEngine struct {
	pageStore         store.PageStore
	oracle            BalanceOracle
	optimisticLocking bool
	appLogger         *logger.Logger
}

func NewAccessEngine(pageStore store.PageStore, oracle BalanceOracle, optimisticLocking bool, appLogger *logger.Logger) *AccessEngine {
	return &AccessEngine{
		pageStore:         pageStore,
		oracle:            oracle,
		optimisticLocking: optimisticLocking,
		appLogger:         appLogger,
	}
}

// GatedLink identifies a gated item without exposing its URL.
type GatedLink struct {
	ItemID         string `json:"itemId"`
	Title          string `json:"title,omitempty"`
	RequiredAmount uint64 `json:"requiredAmount"`
}

// AccessSummary is the read-only capability answer for verify-access. It
// never contains gated URLs; reveal re-checks the balance on every call.
type AccessSummary struct {
	IsOwner        bool        `json:"isOwner"`
	HasTokenAccess bool        `json:"hasTokenAccess"`
	TokenRequired  bool        `json:"tokenRequired"`
	ConnectedToken string      `json:"connectedToken,omitempty"`
	TokenSymbol    string      `json:"tokenSymbol,omitempty"`
	GatedLinks     []GatedLink `json:"gatedLinks"`
}

// GetPublicView fetches a page at the sanitization level the caller is
// entitled to. Owners get the record verbatim; everyone else, including
// anonymous visitors, gets a copy with every gated destination URL
// stripped, so the URL never appears in the initial page payload.
func (e *AccessEngine) GetPublicView(ctx context.Context, slug string, claims *IdentityClaims) (*models.Page, bool, error) {
	page, err := e.getPage(ctx, slug)
	if err != nil {
		return nil, false, err
	}

	if IsOwner(claims, page.WalletAddress) {
		return page, true, nil
	}

	sanitized := page.Clone()
	for i := range sanitized.Items {
		if sanitized.Items[i].TokenGated {
			sanitized.Items[i].URL = ""
		}
	}
	return sanitized, false, nil
}

// ApplyUpdate creates or updates the page under slug on behalf of the
// caller. The owning wallet and creation time are immutable; a patch can
// never transfer ownership.
func (e *AccessEngine) ApplyUpdate(ctx context.Context, slug string, claims *IdentityClaims, patch *PagePatch) (*models.Page, error) {
	if claims == nil {
		return nil, ErrUnauthenticated
	}

	existing, err := e.pageStore.Get(ctx, slug)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if errors.Is(err, store.ErrNotFound) {
		existing = nil
	}

	claimedWallet := patch.WalletAddress
	if claimedWallet == "" && existing != nil {
		claimedWallet = existing.WalletAddress
	}
	if claimedWallet == "" {
		verr := newValidationError()
		verr.add("walletAddress", "is required")
		return nil, verr
	}
	if err := RequireOwnership(claims, claimedWallet); err != nil {
		return nil, err
	}
	if existing != nil && !strings.EqualFold(existing.WalletAddress, claimedWallet) {
		return nil, ErrSlugTaken
	}

	if e.optimisticLocking && patch.ExpectedVersion != nil && existing != nil &&
		*patch.ExpectedVersion != existing.Version {
		return nil, ErrVersionConflict
	}

	patch.Slug = slug
	merged := patch.merge(existing, time.Now().UTC())
	if err := validatePage(merged); err != nil {
		return nil, err
	}

	if err := e.pageStore.Put(ctx, merged); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	e.appLogger.Info("Page saved", "slug", slug, "wallet", merged.WalletAddress,
		"version", merged.Version, "setupWizard", patch.IsSetupWizard)
	return merged, nil
}

// DeletePage removes the page and its wallet-index entry.
func (e *AccessEngine) DeletePage(ctx context.Context, slug string, claims *IdentityClaims) error {
	page, err := e.getPage(ctx, slug)
	if err != nil {
		return err
	}
	if err := RequireOwnership(claims, page.WalletAddress); err != nil {
		return err
	}
	if err := e.pageStore.Delete(ctx, slug); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	e.appLogger.Info("Page deleted", "slug", slug, "wallet", page.WalletAddress)
	return nil
}

// ListPages returns full-fidelity summaries of the caller's own pages.
func (e *AccessEngine) ListPages(ctx context.Context, walletAddress string, claims *IdentityClaims) ([]models.PageSummary, error) {
	if err := RequireOwnership(claims, walletAddress); err != nil {
		return nil, err
	}
	summaries, err := e.pageStore.ListByWallet(ctx, walletAddress)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return summaries, nil
}

// RevealURL releases a gated item's destination URL after a fresh balance
// check. This is the only path that ever transmits a gated URL to a
// non-owner; a prior positive result is never treated as authoritative.
func (e *AccessEngine) RevealURL(ctx context.Context, slug, itemID string, claims *IdentityClaims) (string, error) {
	wallets := OwnedWallets(claims)
	if len(wallets) == 0 {
		return "", ErrUnauthenticated
	}

	page, err := e.getPage(ctx, slug)
	if err != nil {
		return "", err
	}

	var item *models.PageItem
	for i := range page.Items {
		if page.Items[i].ID == itemID {
			item = &page.Items[i]
			break
		}
	}
	if item == nil {
		return "", ErrNotFound
	}
	if !item.TokenGated || item.URL == "" || page.ConnectedToken == "" {
		return "", ErrNotGated
	}

	required := item.EffectiveRequiredAmount()
	var oracleErr error
	for _, wallet := range wallets {
		hasEnough, err := e.oracle.HasBalance(ctx, wallet, page.ConnectedToken, required)
		if err != nil {
			oracleErr = err
			continue
		}
		if hasEnough {
			e.appLogger.Info("Gated URL revealed", "slug", slug, "itemId", itemID, "wallet", wallet)
			return strings.ReplaceAll(item.URL, "[token]", page.ConnectedToken), nil
		}
	}
	if oracleErr != nil {
		e.appLogger.Error("Balance oracle failed during reveal", "slug", slug, "itemId", itemID, "error", oracleErr)
		return "", fmt.Errorf("%w: %v", ErrOracleUnavailable, oracleErr)
	}
	return "", ErrInsufficientBalance
}

// VerifyAccess summarizes what the caller can do on a page, so the front
// end can decide which affordances to show. The balance check runs against
// the posted wallet only when that wallet is linked to the caller's claims.
func (e *AccessEngine) VerifyAccess(ctx context.Context, slug, walletAddress string, claims *IdentityClaims) (*AccessSummary, error) {
	page, err := e.getPage(ctx, slug)
	if err != nil {
		return nil, err
	}

	gatedLinks := make([]GatedLink, 0)
	var minRequired uint64
	for _, item := range page.Items {
		if !item.TokenGated {
			continue
		}
		required := item.EffectiveRequiredAmount()
		gatedLinks = append(gatedLinks, GatedLink{
			ItemID:         item.ID,
			Title:          item.Title,
			RequiredAmount: required,
		})
		if minRequired == 0 || required < minRequired {
			minRequired = required
		}
	}

	summary := &AccessSummary{
		IsOwner:        IsOwner(claims, page.WalletAddress),
		TokenRequired:  page.ConnectedToken != "" && len(gatedLinks) > 0,
		ConnectedToken: page.ConnectedToken,
		TokenSymbol:    page.TokenSymbol,
		GatedLinks:     gatedLinks,
	}

	switch {
	case summary.IsOwner:
		summary.HasTokenAccess = true
	case !summary.TokenRequired:
		summary.HasTokenAccess = true
	case walletAddress != "" && IsOwner(claims, walletAddress):
		hasEnough, err := e.oracle.HasBalance(ctx, walletAddress, page.ConnectedToken, minRequired)
		if err != nil {
			// Oracle failure blocks only the gated capability, never the
			// summary itself.
			e.appLogger.Error("Balance oracle failed during verify-access", "slug", slug, "error", err)
			hasEnough = false
		}
		summary.HasTokenAccess = hasEnough
	}

	return summary, nil
}

func (e *AccessEngine) getPage(ctx context.Context, slug string) (*models.Page, error) {
	page, err := e.pageStore.Get(ctx, slug)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return page, nil
}
