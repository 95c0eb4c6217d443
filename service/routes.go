package service

import (
	"net/http"

	"bookcatalog/web"

	"github.com/gin-gonic/gin"
)

func (server *Server) SetupRoutes() (*gin.Engine, error) {
	templates, err := web.Templates()
	if err != nil {
		return nil, err
	}

	routes := gin.New()
	routes.Use(gin.Recovery(), RequestID(), AccessLog(server.Logger))
	routes.SetHTMLTemplate(templates)
	routes.StaticFS("/static", http.FS(web.Static()))

	routes.GET("/healthz", Health)
	routes.GET("/activity/:username", server.Activity)

	cachedRoutes := routes.Group("/")
	{
		cachedRoutes.Use(server.CacheUserRequest)

		cachedRoutes.GET("/", Home)
		cachedRoutes.GET("/main", server.MainPage)
		cachedRoutes.GET("/add", AddPage)
		cachedRoutes.POST("/add", server.AddBook)
		cachedRoutes.GET("/catalog", server.CatalogPage)
		cachedRoutes.GET("/edit", server.EditPage)
		cachedRoutes.PUT("/edit/:id", server.EditBook)
		cachedRoutes.DELETE("/edit/:id", server.RemoveBook)

		api := cachedRoutes.Group("/api")
		api.GET("/books", server.ListBooks)
		api.POST("/books", server.CreateBook)
		api.GET("/books/:id", server.GetBookById)
		api.PUT("/books/:id", server.UpdateBookById)
		api.DELETE("/books/:id", server.DeleteBookById)
		api.GET("/stats", server.Stats)
	}

	return routes, nil
}
