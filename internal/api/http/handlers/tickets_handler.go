package handlers

import (
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/SaschaHYR/G-Copro-sub000/internal/api/dto"
	"github.com/SaschaHYR/G-Copro-sub000/internal/auth"
	"github.com/SaschaHYR/G-Copro-sub000/internal/domain"
	"github.com/SaschaHYR/G-Copro-sub000/internal/service"
	"github.com/SaschaHYR/G-Copro-sub000/internal/storage"
	apperrors "github.com/SaschaHYR/G-Copro-sub000/pkg/util/errorutil"
)

// TicketsHandler manages ticket endpoints.
type TicketsHandler struct {
	service  *service.TicketService
	uploader storage.Uploader
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService, uploader storage.Uploader) *TicketsHandler {
	return &TicketsHandler{service: ticketService, uploader: uploader}
}

// CreateTicket POST /tickets.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	input := service.TicketCreateInput{
		Title:         req.Title,
		Description:   req.Description,
		CategoryID:    req.CategoryID,
		BuildingID:    req.BuildingID,
		RecipientRole: req.RecipientRole,
		Priority:      req.Priority,
		Attachments:   req.Attachments,
	}
	ticket, err := h.service.CreateTicket(c.Context(), principal.User, input)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": ticketSummary(ticket)})
}

// ListTickets GET /tickets?status=&building=&period=.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	filters := service.VisibilityFilters{
		Status:   c.Query("status"),
		Building: c.Query("building"),
		Period:   c.Query("period"),
	}
	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), 50)
	filters.Offset = (page - 1) * pageSize
	filters.Limit = pageSize

	tickets, err := h.service.ListTickets(c.Context(), principal.User, filters)
	if err != nil {
		return err
	}
	items := make([]dto.TicketSummary, 0, len(tickets))
	for i := range tickets {
		items = append(items, ticketSummary(&tickets[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetTicket GET /tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	ticket, comments, err := h.service.GetTicket(c.Context(), principal.User, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketDetail(ticket, comments)})
}

// GetTicketByCode GET /tickets/code/:code.
func (h *TicketsHandler) GetTicketByCode(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	ticket, comments, err := h.service.GetTicketByCode(c.Context(), principal.User, c.Params("code"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketDetail(ticket, comments)})
}

// Reply POST /tickets/:id/comments. Accepts JSON or multipart; multipart
// file parts are uploaded first and their public URLs appended to the body.
func (h *TicketsHandler) Reply(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	var body string
	var attachmentURLs []string

	if form, err := c.MultipartForm(); err == nil && form != nil {
		if vals := form.Value["body"]; len(vals) > 0 {
			body = vals[0]
		}
		for _, header := range form.File["attachments"] {
			f, err := header.Open()
			if err != nil {
				return apperrors.NewValidationError("unreadable attachment", map[string]any{"file": header.Filename})
			}
			url, err := h.uploader.Save(c.UserContext(), header.Filename, f)
			f.Close()
			if err != nil {
				return apperrors.MapError(err)
			}
			attachmentURLs = append(attachmentURLs, url)
		}
	} else {
		var req dto.ReplyRequest
		if err := c.BodyParser(&req); err != nil {
			return apperrors.NewValidationError("invalid payload", nil)
		}
		body = req.Body
		attachmentURLs = req.Attachments
	}

	comment, err := h.service.Reply(c.Context(), principal.User, c.Params("id"), body, attachmentURLs)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": commentResponse(comment)})
}

// Transfer POST /tickets/:id/transfer.
func (h *TicketsHandler) Transfer(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.TransferRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Target == "" {
		return apperrors.NewValidationError("target required", nil)
	}
	ticket, err := h.service.Transfer(c.Context(), principal.User, c.Params("id"), req.Target, req.Note)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketSummary(ticket)})
}

// CloseTicket POST /tickets/:id/close.
func (h *TicketsHandler) CloseTicket(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	ticket, err := h.service.Close(c.Context(), principal.User, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketSummary(ticket)})
}

// ReopenTicket POST /tickets/:id/reopen.
func (h *TicketsHandler) ReopenTicket(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	ticket, err := h.service.Reopen(c.Context(), principal.User, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketSummary(ticket)})
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

func ticketSummary(ticket *domain.Ticket) dto.TicketSummary {
	return dto.TicketSummary{
		ID:            ticket.ID,
		Code:          ticket.Code,
		Title:         ticket.Title,
		CategoryID:    ticket.CategoryID,
		BuildingID:    ticket.BuildingID,
		CreatorID:     ticket.CreatorID,
		RecipientRole: ticket.RecipientRole,
		Status:        ticket.Status,
		Priority:      ticket.Priority,
		CreatedAt:     ticket.CreatedAt,
		UpdatedAt:     ticket.UpdatedAt,
	}
}

func ticketDetail(ticket *domain.Ticket, comments []domain.Comment) dto.TicketDetailResponse {
	items := make([]dto.CommentResponse, 0, len(comments))
	for i := range comments {
		items = append(items, commentResponse(&comments[i]))
	}
	return dto.TicketDetailResponse{
		TicketSummary: ticketSummary(ticket),
		Description:   ticket.Description,
		Attachments:   ticket.Attachments,
		ClosedAt:      ticket.ClosedAt,
		ClosedBy:      ticket.ClosedBy,
		Comments:      items,
	}
}

func commentResponse(comment *domain.Comment) dto.CommentResponse {
	return dto.CommentResponse{
		ID:        comment.ID,
		AuthorID:  comment.AuthorID,
		Type:      comment.Type,
		Body:      comment.Body,
		CreatedAt: comment.CreatedAt,
	}
}
