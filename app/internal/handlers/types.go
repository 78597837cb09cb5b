package handlers

import "pagefun/app/internal/models"

// PageResponse is the GET /pages/{slug} payload. IsComplete is populated
// for owners only; it drives the setup-wizard prompts.
type PageResponse struct {
	Page       *models.Page `json:"page"`
	IsOwner    bool         `json:"isOwner"`
	IsComplete *bool        `json:"isComplete,omitempty"`
}

// PageListResponse is the "my pages" payload.
type PageListResponse struct {
	Pages []models.PageSummary `json:"pages"`
}

// RevealRequest asks for a gated item's destination URL.
type RevealRequest struct {
	ItemID string `json:"itemId" binding:"required"`
}

// RevealResponse carries the released URL.
type RevealResponse struct {
	URL string `json:"url"`
}

// VerifyAccessRequest asks for the caller's capabilities on a page.
type VerifyAccessRequest struct {
	Slug          string `json:"slug" binding:"required"`
	WalletAddress string `json:"walletAddress,omitempty"`
}

// ErrorBody is the machine-readable error envelope.
type ErrorBody struct {
	Kind    string            `json:"kind"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// ErrorResponse wraps ErrorBody for JSON error responses.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}
