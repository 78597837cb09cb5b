package handlers

import (
	"net/http"

	"pagefun/app/internal/services"
	"pagefun/shared/logger"

	"github.com/gin-gonic/gin"
)

// Handler carries the dependencies every route needs.
type Handler struct {
	engine    *services.AccessEngine
	resolver  services.IdentityResolver
	appLogger *logger.Logger
}

func NewHandler(engine *services.AccessEngine, resolver services.IdentityResolver, appLogger *logger.Logger) *Handler {
	return &Handler{engine: engine, resolver: resolver, appLogger: appLogger}
}

// RegisterRoutes mounts the non-API surface.
func RegisterRoutes(router *gin.Engine) {
	router.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "pagefun API is running")
	})
}

// RateLimitConfig is the per-IP budget for the oracle-backed endpoints.
type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
}

// RegisterAPIRoutes mounts the versioned API.
func (h *Handler) RegisterAPIRoutes(router *gin.Engine, rateCfg RateLimitConfig) {
	api := router.Group("/api/v1")
	api.Use(RequestID())

	api.GET("/health", h.health)

	api.GET("/pages", h.listPages)
	api.POST("/pages", h.createPage)
	api.GET("/pages/:slug", h.getPage)
	api.PATCH("/pages/:slug", h.updatePage)
	api.DELETE("/pages/:slug", h.deletePage)

	limited := api.Group("")
	limited.Use(RateLimit(rateCfg.RequestsPerSecond, rateCfg.Burst, h.appLogger))
	limited.POST("/pages/:slug/reveal", h.revealURL)
	limited.POST("/verify-access", h.verifyAccess)
}

// claims resolves the caller's identity, or nil for anonymous callers.
// Invalid or expired tokens degrade to anonymous on read paths; write
// paths surface the missing identity as UNAUTHENTICATED downstream.
func (h *Handler) claims(c *gin.Context) *services.IdentityClaims {
	token := services.TokenFromRequest(c.Request)
	if token == "" {
		return nil
	}
	claims, err := h.resolver.Resolve(c.Request.Context(), token)
	if err != nil {
		return nil
	}
	return claims
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) getPage(c *gin.Context) {
	slug := c.Param("slug")
	claims := h.claims(c)

	page, isOwner, err := h.engine.GetPublicView(c.Request.Context(), slug, claims)
	if err != nil {
		writeError(c, h.appLogger, err)
		return
	}

	resp := PageResponse{Page: page, IsOwner: isOwner}
	if isOwner {
		complete := page.IsComplete()
		resp.IsComplete = &complete
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) listPages(c *gin.Context) {
	walletAddress := c.Query("walletAddress")
	if walletAddress == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: ErrorBody{
			Kind:    "VALIDATION_ERROR",
			Message: "Request payload failed validation.",
			Fields:  map[string]string{"walletAddress": "query parameter is required"},
		}})
		return
	}

	summaries, err := h.engine.ListPages(c.Request.Context(), walletAddress, h.claims(c))
	if err != nil {
		writeError(c, h.appLogger, err)
		return
	}
	c.JSON(http.StatusOK, PageListResponse{Pages: summaries})
}

func (h *Handler) createPage(c *gin.Context) {
	var patch services.PagePatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: ErrorBody{
			Kind:    "VALIDATION_ERROR",
			Message: "Request body is not valid JSON.",
		}})
		return
	}

	page, err := h.engine.ApplyUpdate(c.Request.Context(), patch.Slug, h.claims(c), &patch)
	if err != nil {
		writeError(c, h.appLogger, err)
		return
	}
	c.JSON(http.StatusCreated, PageResponse{Page: page, IsOwner: true})
}

func (h *Handler) updatePage(c *gin.Context) {
	var patch services.PagePatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: ErrorBody{
			Kind:    "VALIDATION_ERROR",
			Message: "Request body is not valid JSON.",
		}})
		return
	}

	page, err := h.engine.ApplyUpdate(c.Request.Context(), c.Param("slug"), h.claims(c), &patch)
	if err != nil {
		writeError(c, h.appLogger, err)
		return
	}
	c.JSON(http.StatusOK, PageResponse{Page: page, IsOwner: true})
}

func (h *Handler) deletePage(c *gin.Context) {
	if err := h.engine.DeletePage(c.Request.Context(), c.Param("slug"), h.claims(c)); err != nil {
		writeError(c, h.appLogger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) revealURL(c *gin.Context) {
	var req RevealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: ErrorBody{
			Kind:    "VALIDATION_ERROR",
			Message: "Request payload failed validation.",
			Fields:  map[string]string{"itemId": "is required"},
		}})
		return
	}

	url, err := h.engine.RevealURL(c.Request.Context(), c.Param("slug"), req.ItemID, h.claims(c))
	if err != nil {
		writeError(c, h.appLogger, err)
		return
	}
	c.JSON(http.StatusOK, RevealResponse{URL: url})
}

func (h *Handler) verifyAccess(c *gin.Context) {
	var req VerifyAccessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: ErrorBody{
			Kind:    "VALIDATION_ERROR",
			Message: "Request payload failed validation.",
			Fields:  map[string]string{"slug": "is required"},
		}})
		return
	}

	summary, err := h.engine.VerifyAccess(c.Request.Context(), req.Slug, req.WalletAddress, h.claims(c))
	if err != nil {
		writeError(c, h.appLogger, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}
