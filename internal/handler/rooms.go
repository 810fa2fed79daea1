package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/hotel-room-reservation/internal/repository"
	"github.com/iliyamo/hotel-room-reservation/internal/service"
)

// RoomHandler exposes the room directory read-only.
type RoomHandler struct {
	Rooms service.RoomDirectory
	Log   *zap.Logger
}

func NewRoomHandler(rooms service.RoomDirectory, log *zap.Logger) *RoomHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &RoomHandler{Rooms: rooms, Log: log}
}

type roomView struct {
	ID               uint64 `json:"id"`
	Name             string `json:"name"`
	NightlyRateCents uint32 `json:"nightly_rate_cents"`
}

// GetRoom handles GET /v1/rooms/:id.  Inactive rooms are reported as not
// found, the same as missing ones.
func (h *RoomHandler) GetRoom(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid room id"})
	}
	room, err := h.Rooms.FindByID(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "room not found"})
		}
		return internalError(c, h.Log, "database error", err)
	}
	if !room.IsActive {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "room not found"})
	}
	return c.JSON(http.StatusOK, roomView{ID: room.ID, Name: room.Name, NightlyRateCents: room.NightlyRateCents})
}
