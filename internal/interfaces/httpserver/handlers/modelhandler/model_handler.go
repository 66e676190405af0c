// Package modelhandler serves the public model catalog.
package modelhandler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"glot-server/internal/domain/model"
	"glot-server/internal/utils/functional"
)

// ModelResponse is one catalog entry as exposed over HTTP. IsPremium is
// only present when the caller asked for the premium view.
type ModelResponse struct {
	ID             string `json:"id"`
	DisplayName    string `json:"displayName"`
	IsDefault      bool   `json:"isDefault"`
	SupportsVision bool   `json:"supportsVision"`
	IsPremium      *bool  `json:"isPremium,omitempty"`
}

// ModelResponseList wraps the catalog listing.
type ModelResponseList struct {
	Models []ModelResponse `json:"models"`
}

type ModelHandler struct {
	catalog *model.Catalog
}

func NewModelHandler(catalog *model.Catalog) *ModelHandler {
	return &ModelHandler{catalog: catalog}
}

// GetModels lists the catalog. Without premium=1 the premium entries are
// filtered out and the isPremium field stripped from the remainder.
func (h *ModelHandler) GetModels(c *gin.Context) {
	includePremium := c.Query("premium") == "1"

	descriptors := h.catalog.List(includePremium)
	models := functional.Map(descriptors, func(d model.Descriptor) ModelResponse {
		resp := ModelResponse{
			ID:             d.ID,
			DisplayName:    d.DisplayName,
			IsDefault:      d.IsDefault,
			SupportsVision: d.SupportsVision,
		}
		if includePremium {
			premium := d.IsPremium
			resp.IsPremium = &premium
		}
		return resp
	})

	c.JSON(http.StatusOK, ModelResponseList{Models: models})
}
