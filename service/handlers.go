package service

import (
	"fmt"
	"net/http"

	"bookcatalog/catalog"
	"bookcatalog/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func Home(c *gin.Context) {
	c.Redirect(http.StatusFound, "/main")
}

func Health(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

func (server *Server) MainPage(c *gin.Context) {
	books, err := server.allBooks(c)
	if err != nil {
		server.fail(c, err, "Error fetching books from the database")
		return
	}

	c.HTML(http.StatusOK, "main.tmpl", gin.H{"Books": books})
}

func AddPage(c *gin.Context) {
	c.HTML(http.StatusOK, "add.tmpl", gin.H{
		"MinYear": models.MinYear,
		"MaxYear": models.MaxYear,
	})
}

func (server *Server) CatalogPage(c *gin.Context) {
	var params catalog.Params
	if err := c.ShouldBindQuery(&params); err != nil {
		server.fail(c, fmt.Errorf("%w: %v", errInvalidBody, err), "")
		return
	}

	query, err := catalog.BuildQuery(params)
	if err != nil {
		server.fail(c, err, "")
		return
	}

	page, err := catalog.Fetch(c.Request.Context(), server.Library, query)
	if err != nil {
		server.fail(c, err, "Error fetching books from the database")
		return
	}

	c.HTML(http.StatusOK, "catalog.tmpl", gin.H{
		"Books":      page.Books,
		"Pagination": page.Pagination,
		"Year":       params.Year,
		"Sort":       string(query.Sort),
		"Limit":      query.Limit,
	})
}

func (server *Server) AddBook(c *gin.Context) {
	book, err := bindBook(c)
	if err != nil {
		server.fail(c, err, "")
		return
	}

	created, err := server.Library.Create(c.Request.Context(), &book)
	if err != nil {
		server.fail(c, err, "Error saving book to the database")
		return
	}

	server.Logger.Info("book added", zap.String("id", created.ID), zap.String("title", created.Title))
	c.Redirect(http.StatusFound, "/main")
}

func (server *Server) EditPage(c *gin.Context) {
	books, err := server.allBooks(c)
	if err != nil {
		server.fail(c, err, "Error fetching books for editing")
		return
	}

	c.HTML(http.StatusOK, "edit.tmpl", gin.H{"Books": books})
}

// EditBook updates a book and then shows the main page, not the edit list.
func (server *Server) EditBook(c *gin.Context) {
	book, err := bindBook(c)
	if err != nil {
		server.fail(c, err, "")
		return
	}

	if _, err := server.Library.Update(c.Request.Context(), models.Id(c.Param("id")), &book); err != nil {
		server.fail(c, err, "Error updating book in the database")
		return
	}

	server.MainPage(c)
}

// RemoveBook deletes a book and then shows the main page.
func (server *Server) RemoveBook(c *gin.Context) {
	if err := server.Library.Delete(c.Request.Context(), models.Id(c.Param("id"))); err != nil {
		server.fail(c, err, "Error deleting book from the database")
		return
	}

	server.MainPage(c)
}

func (server *Server) allBooks(c *gin.Context) ([]models.Book, error) {
	return server.Library.Find(c.Request.Context(), models.Query{Page: 1})
}

// bindBook reads a form or JSON body and validates it.
func bindBook(c *gin.Context) (models.Book, error) {
	var input models.BookInput
	if err := c.ShouldBind(&input); err != nil {
		return models.Book{}, fmt.Errorf("%w: %v", errInvalidBody, err)
	}

	return models.ValidateBook(input)
}
