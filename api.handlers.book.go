package main

import (
	"errors"
	"net/http"

	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"
)

const (
	// MsgCreateBookFailure is the fixed message sent whenever the creation fails on storage side.
	MsgCreateBookFailure = "Error retrieving data from the database"
	// MsgInternalFailure is the opaque message of unexpected failures.
	MsgInternalFailure = "failed to process the request."
)

// sendError writes the error envelope and logs the failure to send it.
func (api *APIHandler) sendError(w http.ResponseWriter, r *http.Request, status int, message string, data interface{}) {
	requestID := GetValueFromContext(r.Context(), RequestIDContextKey)
	errResp := NewAPIError(requestID, status, message, data)
	if err := WriteErrorResponse(r.Context(), w, errResp); err != nil {
		api.GetLoggerFromContext(r.Context()).Error("failed to send error response", zap.Error(err))
	}
}

// bookLocation returns the path of the endpoint serving the book.
func (api *APIHandler) bookLocation(id string) string {
	return api.config.Server.BasePath + "/" + id
}

// GetAllBooks godoc
//
//	@Summary	List all books
//	@Tags		books
//	@Produce	json
//	@Success	200	{array}		Book
//	@Failure	500	{object}	APIError
//	@Router		/api/PresensiHarianGuru [get]
func (api *APIHandler) GetAllBooks(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	logger := api.GetLoggerFromContext(r.Context())
	books, err := api.bookService.GetAll(r.Context())
	if err != nil {
		logger.Error("failed to get all books", zap.Error(err))
		api.sendError(w, r, http.StatusInternalServerError, MsgInternalFailure, EmptyData)
		return
	}
	if books == nil {
		books = []Book{}
	}
	logger.Info("success to get all books", zap.Int("books.total", len(books)))
	if err = WriteResponse(r.Context(), w, http.StatusOK, books); err != nil {
		logger.Error("failed to send response", zap.Error(err))
	}
}

// GetOneBook godoc
//
//	@Summary	Show a book by its id
//	@Tags		books
//	@Produce	json
//	@Param		id	path		string	true	"Book id (24 chars)"	minlength(24)	maxlength(24)
//	@Success	200	{object}	Book
//	@Failure	404	{object}	APIError
//	@Failure	500	{object}	APIError
//	@Router		/api/PresensiHarianGuru/{id} [get]
func (api *APIHandler) GetOneBook(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id := ps.ByName("id")
	logger := api.GetLoggerFromContext(r.Context()).With(zap.String("book.id", id))
	book, err := api.bookService.GetOne(r.Context(), id)
	if errors.Is(err, ErrBookNotFound) {
		logger.Info("book does not exist")
		api.sendError(w, r, http.StatusNotFound, "book does not exist", EmptyData)
		return
	}
	if err != nil {
		logger.Error("failed to get book", zap.Error(err))
		api.sendError(w, r, http.StatusInternalServerError, MsgInternalFailure, EmptyData)
		return
	}
	logger.Info("success to get book")
	if err = WriteResponse(r.Context(), w, http.StatusOK, book); err != nil {
		logger.Error("failed to send response", zap.Error(err))
	}
}

// CreateBook godoc
//
//	@Summary	Create a new book
//	@Tags		books
//	@Accept		json
//	@Produce	json
//	@Param		book	body		Book	true	"Book to create"
//	@Success	201		{object}	Book
//	@Header		201		{string}	Location	"Path of the created book"
//	@Failure	400		{object}	APIError
//	@Failure	401		{object}	APIError
//	@Failure	500		{object}	APIError
//	@Security	BearerAuth
//	@Router		/api/PresensiHarianGuru [post]
func (api *APIHandler) CreateBook(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	logger := api.GetLoggerFromContext(r.Context())
	book, err := DecodeBookRequestBody(w, r)
	if err != nil {
		logger.Error("failed to decode book", zap.Error(err))
		api.sendError(w, r, http.StatusBadRequest, "book is missing or invalid", err.Error())
		return
	}

	// any storage failure is reported with the same message.
	if err = api.bookService.Add(r.Context(), book); err != nil {
		logger.Error("failed to create book", zap.Error(err))
		api.sendError(w, r, http.StatusInternalServerError, MsgCreateBookFailure, EmptyData)
		return
	}

	logger.Info("success to create book", zap.String("book.id", book.ID))
	w.Header().Set("Location", api.bookLocation(book.ID))
	if err = WriteResponse(r.Context(), w, http.StatusCreated, book); err != nil {
		logger.Error("failed to send response", zap.Error(err))
	}
}

// UpdateBook godoc
//
//	@Summary		Replace a book
//	@Description	All fields are replaced. The id sent into the body is ignored.
//	@Tags			books
//	@Accept			json
//	@Param			id		path	string	true	"Book id (24 chars)"	minlength(24)	maxlength(24)
//	@Param			book	body	Book	true	"New book fields"
//	@Success		204
//	@Failure		400	{object}	APIError
//	@Failure		401	{object}	APIError
//	@Failure		404	{object}	APIError
//	@Failure		500	{object}	APIError
//	@Security		BearerAuth
//	@Router			/api/PresensiHarianGuru/{id} [put]
func (api *APIHandler) UpdateBook(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id := ps.ByName("id")
	logger := api.GetLoggerFromContext(r.Context()).With(zap.String("book.id", id))
	book, err := DecodeBookRequestBody(w, r)
	if err != nil {
		logger.Error("failed to decode book", zap.Error(err))
		api.sendError(w, r, http.StatusBadRequest, "book is missing or invalid", err.Error())
		return
	}

	existing, err := api.bookService.GetOne(r.Context(), id)
	if errors.Is(err, ErrBookNotFound) {
		logger.Info("book does not exist")
		api.sendError(w, r, http.StatusNotFound, "book does not exist", EmptyData)
		return
	}
	if err != nil {
		logger.Error("failed to check if the book exist", zap.Error(err))
		api.sendError(w, r, http.StatusInternalServerError, MsgInternalFailure, EmptyData)
		return
	}

	book.ID = existing.ID
	err = api.bookService.Update(r.Context(), id, *book)
	if errors.Is(err, ErrBookNotFound) {
		logger.Info("book removed before its update")
		api.sendError(w, r, http.StatusNotFound, "book does not exist", EmptyData)
		return
	}
	if err != nil {
		logger.Error("failed to update book", zap.Error(err))
		api.sendError(w, r, http.StatusInternalServerError, MsgInternalFailure, EmptyData)
		return
	}
	logger.Info("success to update book")
	if err = WriteNoContent(r.Context(), w); err != nil {
		logger.Error("failed to send response", zap.Error(err))
	}
}

// DeleteOneBook godoc
//
//	@Summary	Delete a book
//	@Tags		books
//	@Param		id	path	string	true	"Book id (24 chars)"	minlength(24)	maxlength(24)
//	@Success	204
//	@Failure	401	{object}	APIError
//	@Failure	404	{object}	APIError
//	@Failure	500	{object}	APIError
//	@Security	BearerAuth
//	@Router		/api/PresensiHarianGuru/{id} [delete]
func (api *APIHandler) DeleteOneBook(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id := ps.ByName("id")
	logger := api.GetLoggerFromContext(r.Context()).With(zap.String("book.id", id))
	_, err := api.bookService.GetOne(r.Context(), id)
	if errors.Is(err, ErrBookNotFound) {
		logger.Info("book does not exist")
		api.sendError(w, r, http.StatusNotFound, "book does not exist", EmptyData)
		return
	}
	if err != nil {
		logger.Error("failed to check if the book exist", zap.Error(err))
		api.sendError(w, r, http.StatusInternalServerError, MsgInternalFailure, EmptyData)
		return
	}

	err = api.bookService.Delete(r.Context(), id)
	if errors.Is(err, ErrBookNotFound) {
		logger.Info("book already deleted")
		api.sendError(w, r, http.StatusNotFound, "book does not exist", EmptyData)
		return
	}
	if err != nil {
		logger.Error("failed to delete book", zap.Error(err))
		api.sendError(w, r, http.StatusInternalServerError, MsgInternalFailure, EmptyData)
		return
	}
	logger.Info("success to delete book")
	if err = WriteNoContent(r.Context(), w); err != nil {
		logger.Error("failed to send response", zap.Error(err))
	}
}
