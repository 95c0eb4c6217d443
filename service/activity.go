package service

import (
	"encoding/json"
	"net/http"
	"time"

	"bookcatalog/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const usernameParam = "username"

func (server *Server) Activity(c *gin.Context) {
	username := c.Param(usernameParam)

	userRequests, err := server.RequestCache.Read(username)
	if err != nil {
		server.failJSON(c, err, "Error reading user activity")
		return
	}

	userRequestsRaw := make([]models.UserRequest, 0, len(userRequests))
	for _, request := range userRequests {
		var userRequest models.UserRequest
		if err := json.Unmarshal([]byte(request), &userRequest); err != nil {
			server.Logger.Warn("skipping malformed activity entry", zap.String("username", username), zap.Error(err))
			continue
		}
		userRequestsRaw = append(userRequestsRaw, userRequest)
	}

	c.JSON(http.StatusOK, userRequestsRaw)
}

// CacheUserRequest journals the request for the user named in the
// username query parameter. A journal failure never fails the request.
func (server *Server) CacheUserRequest(c *gin.Context) {
	username, ok := c.GetQuery(usernameParam)
	if !ok || username == "" {
		c.Next()
		return
	}

	c.Next()

	userRequest := models.UserRequest{
		Method: c.Request.Method,
		Route:  c.Request.URL.Path,
		Status: c.Writer.Status(),
		At:     time.Now().UTC(),
	}

	request, err := json.Marshal(userRequest)
	if err == nil {
		err = server.RequestCache.Write(username, request)
	}
	if err != nil {
		server.Logger.Warn("cannot journal user request", zap.String("username", username), zap.Error(err))
	}
}
