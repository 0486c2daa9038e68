package handler

import (
	"go-printshop-ws/internal/middleware"
	"go-printshop-ws/internal/model"
	"go-printshop-ws/internal/service"

	"github.com/gofiber/fiber/v2"
)

type RecordHandler struct {
	entities service.EntityService
}

func NewRecordHandler(entities service.EntityService) *RecordHandler {
	return &RecordHandler{entities: entities}
}

// DeleteRecord soft-deletes any record by kind.
// DELETE /api/v1/records/:kind/:id
func (h *RecordHandler) DeleteRecord(c *fiber.Ctx) error {
	kind, err := model.ParseEntityKind(c.Params("kind"))
	if err != nil {
		return writeError(c, err)
	}
	id, ok := parseID(c)
	if !ok {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid record ID"})
	}

	if err := h.entities.DeleteEntity(c.UserContext(), kind, id, middleware.Actor(c)); err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Record deleted successfully"})
}
