package controller

import (
	"bufio"
	"context"

	"curriculum-rag-be/internal/dto"
	"curriculum-rag-be/internal/pkg/apperror"
	"curriculum-rag-be/internal/pkg/serverutils"
	"curriculum-rag-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"go.opentelemetry.io/otel/trace"
)

type IQueryController interface {
	RegisterRoutes(r fiber.Router)
	Query(ctx *fiber.Ctx) error
	// Guard is nil when queries are public.
	Guard() fiber.Handler
}

type queryController struct {
	queryService service.IQueryService
	guard        fiber.Handler
}

// NewQueryController protects /query with a Supabase JWT when jwtSecret is
// set.
func NewQueryController(queryService service.IQueryService, jwtSecret string) IQueryController {
	c := &queryController{queryService: queryService}
	if jwtSecret != "" {
		c.guard = serverutils.JwtMiddleware(jwtSecret)
	}
	return c
}

func (c *queryController) Guard() fiber.Handler {
	return c.guard
}

func (c *queryController) RegisterRoutes(r fiber.Router) {
	if c.guard != nil {
		r.Post("/query", c.guard, c.Query)
		return
	}
	r.Post("/query", c.Query)
}

func (c *queryController) Query(ctx *fiber.Ctx) error {
	var req dto.QueryRequest
	if err := ctx.BodyParser(&req); err != nil {
		return apperror.New(apperror.KindValidation, "invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	retrieval, err := c.queryService.Retrieve(ctx.UserContext(), req.Question)
	if err != nil {
		switch apperror.KindOf(err) {
		case apperror.KindValidation, apperror.KindNoRelevantInformation:
			return err
		}
		// Upstream failures before the stream opens are still reported in
		// the stream format so clients need one parser.
		frame, ferr := serverutils.SSEFrame(dto.ErrorEvent(serverutils.SafeMessage(err)))
		if ferr != nil {
			return err
		}
		serverutils.SetSSEHeaders(ctx)
		return ctx.Status(apperror.HTTPStatus(err)).Send(frame)
	}

	// The stream outlives the handler, so it gets its own context carrying
	// only the trace.
	spanCtx := trace.SpanContextFromContext(ctx.UserContext())

	serverutils.SetSSEHeaders(ctx)
	ctx.Status(fiber.StatusOK)
	ctx.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		streamCtx, cancel := context.WithCancel(trace.ContextWithSpanContext(context.Background(), spanCtx))
		defer cancel()

		writer := serverutils.NewSSEWriter(w)
		_ = c.queryService.Stream(streamCtx, retrieval, func(event dto.StreamEvent) error {
			return writer.WriteEvent(event)
		})
	})
	return nil
}
