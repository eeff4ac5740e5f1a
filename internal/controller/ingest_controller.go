package controller

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"book-rag-be/internal/dto"
	"book-rag-be/internal/pkg/serverutils"
	"book-rag-be/internal/service"
	"book-rag-be/pkg/document"

	"github.com/gofiber/fiber/v2"
)

type IIngestController interface {
	RegisterRoutes(r fiber.Router, auth fiber.Handler)
	Ingest(ctx *fiber.Ctx) error
	Upload(ctx *fiber.Ctx) error
	Delete(ctx *fiber.Ctx) error
	DeleteBook(ctx *fiber.Ctx) error
}

type ingestController struct {
	ingestService service.IIngestService
}

func NewIngestController(ingestService service.IIngestService) IIngestController {
	return &ingestController{
		ingestService: ingestService,
	}
}

func (c *ingestController) RegisterRoutes(r fiber.Router, auth fiber.Handler) {
	h := r.Group("/ingest/v1")
	h.Use(auth)
	h.Post("", c.Ingest)
	h.Post("upload", c.Upload)
	h.Delete("books/:bookId", c.DeleteBook)
	h.Delete(":id", c.Delete)
}

func (c *ingestController) Ingest(ctx *fiber.Ctx) error {
	var req dto.IngestContentRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.ingestService.Ingest(ctx.UserContext(), &req)
	if err != nil {
		return err
	}
	return ctx.Status(fiber.StatusAccepted).JSON(serverutils.SuccessResponse("Content queued for indexing", res))
}

// Upload takes a multipart form with a "file" part (text or PDF) and the
// same metadata fields as Ingest.
func (c *ingestController) Upload(ctx *fiber.Ctx) error {
	fh, err := ctx.FormFile("file")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Missing file")
	}
	ext := strings.ToLower(filepath.Ext(fh.Filename))

	dir, err := os.MkdirTemp("", "ingest-*")
	if err != nil {
		return err
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "upload"+ext)
	if err := ctx.SaveFile(fh, path); err != nil {
		return err
	}
	content, err := document.ExtractText(path)
	if errors.Is(err, document.ErrNoText) {
		return fiber.NewError(fiber.StatusUnprocessableEntity, "File has no extractable text")
	}
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Unreadable file")
	}

	req := dto.IngestContentRequest{
		BookId:          ctx.FormValue("book_id"),
		Title:           ctx.FormValue("title"),
		Content:         content,
		SourceReference: ctx.FormValue("source_reference"),
	}
	if section := ctx.FormValue("section_title"); section != "" {
		req.SectionTitle = &section
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.ingestService.Ingest(ctx.UserContext(), &req)
	if err != nil {
		return err
	}
	return ctx.Status(fiber.StatusAccepted).JSON(serverutils.SuccessResponse("Content queued for indexing", res))
}

func (c *ingestController) Delete(ctx *fiber.Ctx) error {
	res, err := c.ingestService.Delete(ctx.UserContext(), ctx.Params("id"))
	if err != nil {
		return err
	}
	if !res.Deleted {
		return fiber.NewError(fiber.StatusNotFound, "Content not found")
	}
	return ctx.JSON(serverutils.SuccessResponse("Success delete content", res))
}

func (c *ingestController) DeleteBook(ctx *fiber.Ctx) error {
	res, err := c.ingestService.DeleteBook(ctx.UserContext(), ctx.Params("bookId"))
	if err != nil {
		return err
	}
	if res.Deleted == 0 {
		return fiber.NewError(fiber.StatusNotFound, "Book not found")
	}
	return ctx.JSON(serverutils.SuccessResponse("Success delete book", res))
}
