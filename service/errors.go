package service

import (
	"errors"
	"net/http"

	"bookcatalog/catalog"
	"bookcatalog/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var errInvalidBody = errors.New("invalid request body")

func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrInvalidYear),
		errors.Is(err, models.ErrMissingField),
		errors.Is(err, catalog.ErrInvalidPage),
		errors.Is(err, catalog.ErrInvalidLimit),
		errors.Is(err, errInvalidBody):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// failureMessage logs server side failures and returns the text the client sees.
func (server *Server) failureMessage(c *gin.Context, err error, status int, internalMessage string) string {
	_ = c.Error(err)

	switch status {
	case http.StatusNotFound:
		return "Book not found"
	case http.StatusInternalServerError:
		server.Logger.Error(internalMessage,
			zap.Error(err),
			zap.String("request_id", c.GetString(requestIDKey)),
		)
		return internalMessage
	default:
		return err.Error()
	}
}

// fail answers a page request with a plain text error.
func (server *Server) fail(c *gin.Context, err error, internalMessage string) {
	status := statusFor(err)
	c.Abort()
	c.String(status, server.failureMessage(c, err, status, internalMessage))
}

// failJSON answers an API request with a {"message": ...} body.
func (server *Server) failJSON(c *gin.Context, err error, internalMessage string) {
	status := statusFor(err)
	c.AbortWithStatusJSON(status, gin.H{"message": server.failureMessage(c, err, status, internalMessage)})
}
