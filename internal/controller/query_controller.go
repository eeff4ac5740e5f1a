package controller

import (
	"book-rag-be/internal/dto"
	"book-rag-be/internal/pkg/serverutils"
	"book-rag-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IQueryController interface {
	RegisterRoutes(r fiber.Router, auth fiber.Handler)
	AskFullCorpus(ctx *fiber.Ctx) error
	AskSelectedPassage(ctx *fiber.Ctx) error
	AskByContextMode(ctx *fiber.Ctx) error
	GetSession(ctx *fiber.Ctx) error
	EndSession(ctx *fiber.Ctx) error
}

type queryController struct {
	queryService service.IQueryService
}

func NewQueryController(queryService service.IQueryService) IQueryController {
	return &queryController{
		queryService: queryService,
	}
}

func (c *queryController) RegisterRoutes(r fiber.Router, auth fiber.Handler) {
	h := r.Group("/query/v1")
	h.Use(auth)
	h.Post("full", c.AskFullCorpus)
	h.Post("selected", c.AskSelectedPassage)
	h.Post("", c.AskByContextMode)
	h.Get("sessions/:id", c.GetSession)
	h.Delete("sessions/:id", c.EndSession)
}

func (c *queryController) AskFullCorpus(ctx *fiber.Ctx) error {
	var req dto.FullCorpusQueryRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.queryService.AskFullCorpus(ctx.UserContext(), serverutils.UserId(ctx), &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success answer query", res))
}

func (c *queryController) AskSelectedPassage(ctx *fiber.Ctx) error {
	var req dto.SelectedPassageQueryRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.queryService.AskSelectedPassage(ctx.UserContext(), serverutils.UserId(ctx), &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success answer query", res))
}

func (c *queryController) AskByContextMode(ctx *fiber.Ctx) error {
	var req dto.ContextModeQueryRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.queryService.AskByContextMode(ctx.UserContext(), serverutils.UserId(ctx), &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success answer query", res))
}

func (c *queryController) GetSession(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid session id")
	}

	res, err := c.queryService.GetSession(ctx.UserContext(), id)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success show session", res))
}

func (c *queryController) EndSession(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid session id")
	}

	if err := c.queryService.EndSession(ctx.UserContext(), id); err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse[any]("Success end session", nil))
}
