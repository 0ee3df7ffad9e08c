package http

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/cardsdk/internal/adapters/http/dto"
)

// routeNotFound renders unmatched paths the way Laravel's router does.
func routeNotFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, dto.LaravelError{
		Message: fmt.Sprintf("The route %s could not be found.", trimSlash(c.Request.URL.Path)),
	})
}

// methodNotAllowed renders Laravel's MethodNotAllowedHttpException.
func methodNotAllowed(c *gin.Context) {
	c.JSON(http.StatusMethodNotAllowed, dto.LaravelError{
		Message: fmt.Sprintf("The %s method is not supported for this route.", c.Request.Method),
	})
}

// tooLarge renders the body Laravel sends for PostTooLargeException.
func tooLarge(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, dto.LaravelError{Message: "Payload Too Large"})
}

func trimSlash(path string) string {
	if len(path) > 0 && path[0] == '/' {
		return path[1:]
	}

	return path
}
