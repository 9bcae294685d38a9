package controller

import (
	"curriculum-rag-be/internal/dto"
	"curriculum-rag-be/internal/mapper"
	"curriculum-rag-be/internal/pkg/serverutils"
	"curriculum-rag-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IIngestController interface {
	RegisterRoutes(r fiber.Router)
	Ingest(ctx *fiber.Ctx) error
	IngestAsync(ctx *fiber.Ctx) error
	Runs(ctx *fiber.Ctx) error
	Pending(ctx *fiber.Ctx) error
	// Guard is the shared-secret check every ingest route sits behind.
	Guard() fiber.Handler
}

type ingestController struct {
	ingestionService service.IIngestionService
	trigger          service.IIngestTrigger
	guard            fiber.Handler
	mapper           *mapper.IngestionRunMapper
}

func NewIngestController(ingestionService service.IIngestionService, trigger service.IIngestTrigger, sharedSecret string) IIngestController {
	return &ingestController{
		ingestionService: ingestionService,
		trigger:          trigger,
		guard:            serverutils.SharedSecretMiddleware(sharedSecret),
		mapper:           mapper.NewIngestionRunMapper(),
	}
}

func (c *ingestController) Guard() fiber.Handler {
	return c.guard
}

func (c *ingestController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/ingest", c.guard)
	h.Post("", c.Ingest)
	h.Post("/async", c.IngestAsync)
	h.Get("/runs", c.Runs)
	h.Get("/pending", c.Pending)
}

// Ingest runs the pipeline synchronously. Per-document failures still
// produce 200; only an aborted run is a 500.
func (c *ingestController) Ingest(ctx *fiber.Ctx) error {
	run, err := c.ingestionService.IngestAll(ctx.UserContext())

	logs := []string{}
	if run != nil && run.Logs != nil {
		logs = run.Logs
	}

	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(dto.IngestResponse{
			Success: false,
			Error:   serverutils.SafeMessage(err),
			Logs:    logs,
		})
	}

	return ctx.JSON(dto.IngestResponse{
		Success:   true,
		Logs:      logs,
		Documents: c.mapper.ToDocumentResults(run.Documents),
	})
}

func (c *ingestController) IngestAsync(ctx *fiber.Ctx) error {
	if c.trigger == nil {
		return fiber.NewError(fiber.StatusServiceUnavailable, "async ingestion is not enabled")
	}

	requestId, err := c.trigger.Request(ctx.UserContext())
	if err != nil {
		return err
	}

	res := serverutils.SuccessResponse("Ingestion queued", dto.AsyncIngestResponse{RequestId: requestId})
	res.Code = fiber.StatusAccepted
	return ctx.Status(fiber.StatusAccepted).JSON(res)
}

func (c *ingestController) Runs(ctx *fiber.Ctx) error {
	limit := ctx.QueryInt("limit", 20)
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	runs, err := c.ingestionService.RecentRuns(ctx.UserContext(), limit)
	if err != nil {
		return err
	}

	res := make([]dto.IngestionRunResponse, len(runs))
	for i, r := range runs {
		res[i] = c.mapper.ToResponse(r)
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get ingestion runs", res))
}

func (c *ingestController) Pending(ctx *fiber.Ctx) error {
	names, err := c.ingestionService.ListPending(ctx.UserContext())
	if err != nil {
		return err
	}
	if names == nil {
		names = []string{}
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get pending documents", dto.PendingDocumentsResponse{Documents: names}))
}
