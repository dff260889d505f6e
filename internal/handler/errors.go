package handler

import (
	"errors"
	"net/http"

	"github.com/crmlens/crmlens/internal/models"
	"github.com/crmlens/crmlens/internal/service"
	"github.com/crmlens/crmlens/internal/sqlgen"
)

// writeServiceError maps pipeline errors onto HTTP statuses. Policy
// rejections carry a machine-readable reason; anything unrecognized is a
// plain 500 with no detail leaked.
func writeServiceError(w http.ResponseWriter, err error) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		models.WriteRejection(w, http.StatusBadRequest, verr.Message, models.ReasonInvalidQuestion)
	case errors.Is(err, service.ErrSensitiveData):
		models.WriteRejection(w, http.StatusBadRequest, err.Error(), models.ReasonSensitiveData)
	case errors.Is(err, sqlgen.ErrMissingTenant):
		models.WriteError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, sqlgen.ErrRequiredFilter):
		models.WriteError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, sqlgen.ErrNoAuthorizedTable):
		models.WriteRejection(w, http.StatusForbidden, err.Error(), models.ReasonNoAuthorizedTable)
	case errors.Is(err, sqlgen.ErrRiskTooHigh):
		models.WriteRejection(w, http.StatusUnprocessableEntity, err.Error(), models.ReasonRiskTooHigh)
	default:
		models.WriteError(w, http.StatusInternalServerError, "internal error")
	}
}
