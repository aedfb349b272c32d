package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"snaplink/internal/clicks"
	"snaplink/internal/entities"
	"snaplink/internal/models"
	"snaplink/internal/resolver"
)

// RedirectController serves the redirect hot path. Per request: admission
// has already happened in middleware; here the slug is resolved, the
// redirect dispatched, and only then a click event queued. Recording can
// never fail or delay the redirect.
type RedirectController struct {
	resolver *resolver.Resolver
	recorder *clicks.Recorder
	salt     string
}

func NewRedirectController(res *resolver.Resolver, recorder *clicks.Recorder, fingerprintSalt string) *RedirectController {
	return &RedirectController{
		resolver: res,
		recorder: recorder,
		salt:     fingerprintSalt,
	}
}

// Redirect handles GET /:slug - resolves and redirects to the target URL
func (rc *RedirectController) Redirect(c *gin.Context) {
	slug := c.Param("slug")

	link, err := rc.resolver.Resolve(c.Request.Context(), slug)
	if err != nil {
		// Unknown, expired, deactivated and transient failures all read the
		// same from outside
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Short link not found or expired",
		})
		return
	}

	// 302 rather than 301 so browsers keep coming back and clicks keep
	// counting
	c.Redirect(http.StatusFound, link.TargetURL)

	rc.recorder.Record(entities.ClickEvent{
		Slug:        slug,
		Timestamp:   time.Now().UTC(),
		Fingerprint: entities.Fingerprint(c.ClientIP(), c.Request.UserAgent(), rc.salt),
		Referrer:    c.Request.Referer(),
	})
}

// Preview handles GET /api/links/preview/:slug - returns link metadata
// without redirecting. Previews pass the limiter and cache like any lookup
// but never emit a click event.
func (rc *RedirectController) Preview(c *gin.Context) {
	slug := c.Param("slug")

	link, err := rc.resolver.Resolve(c.Request.Context(), slug)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Short link not found or expired",
		})
		return
	}

	c.JSON(http.StatusOK, models.PreviewResponse{
		Slug:      link.Slug,
		TargetURL: link.TargetURL,
		CreatedAt: link.CreatedAt,
		ExpiresAt: link.ExpiresAt,
	})
}
