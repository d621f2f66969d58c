package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/farmhand/farmhand/internal/models"
)

// accepted acknowledges a mutation. In cloud mode the write may not be
// visible to reads yet.
func accepted(c *gin.Context, id string) {
	c.JSON(http.StatusAccepted, gin.H{"id": id})
}

func badRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": msg})
}

func notFound(c *gin.Context, what string) {
	c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": what + " not found"})
}

// validationErrors collects form errors and reports them as one message.
type validationErrors []string

func (v *validationErrors) require(ok bool, msg string) {
	if !ok {
		*v = append(*v, msg)
	}
}

func (v *validationErrors) date(value, name string, required bool) {
	if value == "" {
		v.require(!required, name+" is required")
		return
	}
	if _, err := time.Parse(time.DateOnly, value); err != nil {
		*v = append(*v, name+" must be a YYYY-MM-DD date")
	}
}

// abort writes the collected errors and reports whether there were any.
func (v validationErrors) abort(c *gin.Context) bool {
	if len(v) == 0 {
		return false
	}
	badRequest(c, strings.Join(v, "; "))
	return true
}

func bindPatch(c *gin.Context) (models.Patch, bool) {
	var p models.Patch
	if err := c.ShouldBindJSON(&p); err != nil {
		badRequest(c, "invalid JSON body: "+err.Error())
		return nil, false
	}
	if len(p) == 0 {
		badRequest(c, "empty update")
		return nil, false
	}
	return p.Sanitized(), true
}

func bindJSON(c *gin.Context, v any) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		badRequest(c, "invalid JSON body: "+err.Error())
		return false
	}
	return true
}
