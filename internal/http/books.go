package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/mrlokans/notebooksync/internal/catalog"
	"github.com/mrlokans/notebooksync/internal/entities"
	"github.com/mrlokans/notebooksync/internal/exporters"
)

// BooksResponse is the body of GET /books.
type BooksResponse struct {
	Items    []entities.LibraryItem `json:"items"`
	Count    int                    `json:"count"`
	LastSync *time.Time             `json:"lastSync"`
}

type BooksController struct {
	store  catalog.Store
	covers CoverSource
	logger zerolog.Logger
}

func NewBooksController(store catalog.Store, covers CoverSource, logger zerolog.Logger) *BooksController {
	return &BooksController{
		store:  store,
		covers: covers,
		logger: logger,
	}
}

func (controller *BooksController) GetAllBooks(c *gin.Context) {
	items := controller.store.All()
	if items == nil {
		items = []entities.LibraryItem{}
	}

	resp := BooksResponse{Items: items, Count: len(items)}
	if len(items) > 0 {
		lastSync := items[0].ScrapedAt
		resp.LastSync = &lastSync
	}
	c.IndentedJSON(http.StatusOK, resp)
}

func (controller *BooksController) GetBook(c *gin.Context) {
	item, ok := controller.lookup(c)
	if !ok {
		return
	}
	c.IndentedJSON(http.StatusOK, item)
}

func (controller *BooksController) GetStats(c *gin.Context) {
	c.IndentedJSON(http.StatusOK, controller.store.Stats())
}

// GetMarkdown renders one item as a markdown note.
func (controller *BooksController) GetMarkdown(c *gin.Context) {
	item, ok := controller.lookup(c)
	if !ok {
		return
	}
	c.Header("Content-Disposition", `inline; filename="`+exporters.Filename(item.Title)+`.md"`)
	c.Data(http.StatusOK, "text/markdown; charset=utf-8", []byte(exporters.GenerateMarkdown(item)))
}

// GetCover serves the cached cover image, fetching it on first use. When the
// download fails the client is redirected to the original URL.
func (controller *BooksController) GetCover(c *gin.Context) {
	item, ok := controller.lookup(c)
	if !ok {
		return
	}
	if item.CoverURL == "" || controller.covers == nil {
		respondNotFound(c, "cover")
		return
	}

	path, err := controller.covers.GetCover(c.Request.Context(), item.ID, item.CoverURL)
	if err != nil || path == "" {
		if err != nil {
			controller.logger.Warn().Err(err).Str("item_id", item.ID).Msg("cover fetch failed, redirecting")
		}
		c.Redirect(http.StatusTemporaryRedirect, item.CoverURL)
		return
	}
	c.File(path)
}

func (controller *BooksController) lookup(c *gin.Context) (entities.LibraryItem, bool) {
	item, err := controller.store.Get(c.Param("id"))
	if errors.Is(err, catalog.ErrNotFound) {
		respondNotFound(c, "book")
		return item, false
	}
	if err != nil {
		respondInternalError(c, controller.logger, "failed to read catalog", err)
		return item, false
	}
	return item, true
}
