package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"snaplink/internal/apperr"
	"snaplink/internal/entities"
	"snaplink/internal/models"
	"snaplink/internal/service"
)

// LinksController is the authenticated admin surface for links. It talks to
// the link service, which owns cache invalidation; the redirect path is
// untouched by anything here.
type LinksController struct {
	linkService service.LinkService
	baseURL     string
}

func NewLinksController(linkService service.LinkService, baseURL string) *LinksController {
	return &LinksController{
		linkService: linkService,
		baseURL:     baseURL,
	}
}

// Create handles POST /api/links
func (lc *LinksController) Create(c *gin.Context) {
	var req models.CreateLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	ownerID, ok := ownerFromContext(c)
	if !ok {
		return
	}

	link, err := lc.linkService.Create(c.Request.Context(), &req, &ownerID)
	if err != nil {
		status := statusFor(err)
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, lc.toResponse(link))
}

// Deactivate handles DELETE /api/links/:slug
func (lc *LinksController) Deactivate(c *gin.Context) {
	slug := c.Param("slug")

	ownerID, ok := ownerFromContext(c)
	if !ok {
		return
	}

	if err := lc.linkService.Deactivate(c.Request.Context(), slug, &ownerID); err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Link deactivated successfully",
	})
}

// UpdateTarget handles PATCH /api/links/:slug
func (lc *LinksController) UpdateTarget(c *gin.Context) {
	slug := c.Param("slug")

	var req models.UpdateLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	ownerID, ok := ownerFromContext(c)
	if !ok {
		return
	}

	if err := lc.linkService.UpdateTarget(c.Request.Context(), slug, &ownerID, req.TargetURL); err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Link target updated successfully",
	})
}

// List handles GET /api/links - returns all links for the authenticated owner
func (lc *LinksController) List(c *gin.Context) {
	ownerID, ok := ownerFromContext(c)
	if !ok {
		return
	}

	links, err := lc.linkService.GetByOwner(c.Request.Context(), ownerID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	responses := make([]models.LinkResponse, len(links))
	for i, link := range links {
		responses[i] = lc.toResponse(link)
	}
	c.JSON(http.StatusOK, responses)
}

func (lc *LinksController) toResponse(link *entities.Link) models.LinkResponse {
	return models.LinkResponse{
		Slug:      link.Slug,
		TargetURL: link.TargetURL,
		ShortURL:  lc.baseURL + "/" + link.Slug,
		Active:    link.Active,
		CreatedAt: link.CreatedAt,
		ExpiresAt: link.ExpiresAt,
	}
}

func ownerFromContext(c *gin.Context) (string, bool) {
	ownerID, exists := c.Get("owner_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "Owner ID not found in token",
		})
		c.Abort()
		return "", false
	}
	return ownerID.(string), true
}

func statusFor(err error) int {
	switch {
	case apperr.IsConflict(err):
		return http.StatusConflict
	case apperr.IsForbidden(err):
		return http.StatusForbidden
	case apperr.IsNotFound(err):
		return http.StatusNotFound
	case apperr.IsInvalid(err):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
