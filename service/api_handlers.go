package service

import (
	"fmt"
	"net/http"

	"bookcatalog/catalog"
	"bookcatalog/models"

	"github.com/gin-gonic/gin"
)

func (server *Server) ListBooks(c *gin.Context) {
	var params catalog.Params
	if err := c.ShouldBindQuery(&params); err != nil {
		server.failJSON(c, fmt.Errorf("%w: %v", errInvalidBody, err), "")
		return
	}

	query, err := catalog.BuildQuery(params)
	if err != nil {
		server.failJSON(c, err, "")
		return
	}

	page, err := catalog.Fetch(c.Request.Context(), server.Library, query)
	if err != nil {
		server.failJSON(c, err, "Error fetching books from the database")
		return
	}

	c.JSON(http.StatusOK, page)
}

func (server *Server) CreateBook(c *gin.Context) {
	book, err := bindBook(c)
	if err != nil {
		server.failJSON(c, err, "")
		return
	}

	created, err := server.Library.Create(c.Request.Context(), &book)
	if err != nil {
		server.failJSON(c, err, "Error saving book to the database")
		return
	}

	c.JSON(http.StatusCreated, created)
}

func (server *Server) GetBookById(c *gin.Context) {
	book, err := server.Library.GetById(c.Request.Context(), models.Id(c.Param("id")))
	if err != nil {
		server.failJSON(c, err, "Error fetching book from the database")
		return
	}

	c.JSON(http.StatusOK, book)
}

func (server *Server) UpdateBookById(c *gin.Context) {
	book, err := bindBook(c)
	if err != nil {
		server.failJSON(c, err, "")
		return
	}

	updated, err := server.Library.Update(c.Request.Context(), models.Id(c.Param("id")), &book)
	if err != nil {
		server.failJSON(c, err, "Error updating book in the database")
		return
	}

	c.JSON(http.StatusOK, updated)
}

func (server *Server) DeleteBookById(c *gin.Context) {
	if err := server.Library.Delete(c.Request.Context(), models.Id(c.Param("id"))); err != nil {
		server.failJSON(c, err, "Error deleting book from the database")
		return
	}

	c.String(http.StatusOK, "Book deleted successfully")
}

func (server *Server) Stats(c *gin.Context) {
	stats, err := server.Library.Stats(c.Request.Context())
	if err != nil {
		server.failJSON(c, err, "Error reading catalog statistics")
		return
	}

	c.JSON(http.StatusOK, stats)
}
