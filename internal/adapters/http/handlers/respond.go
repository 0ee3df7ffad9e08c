package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/cardsdk/internal/adapters/http/dto"
)

// writeDocument renders a JSON:API body with the JSON:API media type.
// gin keeps a Content-Type set before c.JSON.
func writeDocument(c *gin.Context, status int, doc any) {
	c.Header("Content-Type", dto.MediaType)
	c.JSON(status, doc)
}

// writeLaravel renders the body Laravel's exception handler produces.
func writeLaravel(c *gin.Context, status int, message string, fields map[string][]string) {
	c.JSON(status, dto.LaravelError{Message: message, Errors: fields})
}

// writeProblem renders a one-error JSON:API error document.
func writeProblem(c *gin.Context, status int, code, detail, parameter string) {
	doc := dto.NewErrorDocument(status, code, detail)
	if parameter != "" {
		doc.Errors[0].Source = &dto.ErrorSource{Parameter: parameter}
	}

	writeDocument(c, status, doc)
}
