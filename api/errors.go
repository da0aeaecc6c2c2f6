package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mavvricks/eloque/internal/domain"
	"github.com/mavvricks/eloque/internal/middleware"
)

// writeError maps core errors onto HTTP statuses. Capacity and lock
// window failures are client errors with the core's message passed
// through so it can cite the remaining capacity.
func writeError(c *gin.Context, err error) {
	var validationErr *domain.ValidationError
	var capacityErr *domain.CapacityError

	switch {
	case errors.As(err, &validationErr),
		errors.As(err, &capacityErr),
		errors.Is(err, domain.ErrLockWindow),
		errors.Is(err, domain.ErrAlreadyCancelled),
		errors.Is(err, domain.ErrBookingCancelled),
		errors.Is(err, domain.ErrNothingToRecord):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrPaymentFinalized):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func actorFrom(c *gin.Context) domain.Actor {
	return middleware.ActorFrom(c)
}
