package http

import (
	"net/http"

	"github.com/dkeye/Huddle/internal/adapters/rtc"
	"github.com/dkeye/Huddle/internal/app/orch"
	"github.com/dkeye/Huddle/internal/domain"
	"github.com/gin-gonic/gin"
)

type handlers struct {
	orch       *orch.Orchestrator
	iceServers []string
}

// GET /api/rooms
func (h *handlers) listRooms(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"rooms": h.orch.Rooms()})
}

// GET /api/rooms/:id never creates the room it is asked about.
func (h *handlers) getRoom(c *gin.Context) {
	id := domain.RoomID(c.Param("id"))
	users, ok := h.orch.Snapshot(id)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "users": users})
}

// GET /api/ice-servers
func (h *handlers) iceServerList(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"iceServers": rtc.ICEServers(h.iceServers)})
}
