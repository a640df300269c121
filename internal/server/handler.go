package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"OptionsIntraday/internal/contract"
	"OptionsIntraday/internal/dashboard"
	"OptionsIntraday/internal/model"
)

// WatchSource exposes the latest scheduled render.
type WatchSource interface {
	Last() *model.RenderModel
}

type chartHandler struct {
	svc   *dashboard.Service
	today func() time.Time
	watch func() WatchSource
}

func (h *chartHandler) RegisterRoutes(r *gin.RouterGroup) {
	v1 := r.Group("/v1")
	{
		v1.GET("/chart", h.GetChart)
		v1.GET("/contract", h.GetContract)
		v1.GET("/choices", h.GetChoices)
		v1.GET("/watch", h.GetWatch)
	}
}

// GetChart runs the full pipeline. The body is always a RenderModel.
func (h *chartHandler) GetChart(c *gin.Context) {
	req, err := h.bind(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, dashboard.Rejected(err))
		return
	}
	m := h.svc.HandleRequest(c.Request.Context(), req)
	c.JSON(StatusFor(m.State), m)
}

// GetContract formats the contract id only; no upstream call is made.
// With ?id= it decodes an existing id instead.
func (h *chartHandler) GetContract(c *gin.Context) {
	if raw := c.Query("id"); raw != "" {
		h.decodeContract(c, raw)
		return
	}
	req, err := h.bind(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	id, err := h.svc.ContractID(req)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"contract_id": id, "vendor_symbol": contract.VendorSymbol(id)})
}

func (h *chartHandler) decodeContract(c *gin.Context, raw string) {
	spec, err := contract.Parse(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	id, err := contract.Format(spec)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"contract_id": id, "vendor_symbol": contract.VendorSymbol(id), "contract": spec})
}

// GetWatch returns the latest scheduled render of the watched contract.
func (h *chartHandler) GetWatch(c *gin.Context) {
	src := h.watch()
	if src == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "watch is disabled"})
		return
	}
	m := src.Last()
	if m == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "watch has not run yet"})
		return
	}
	c.JSON(StatusFor(m.State), m)
}

func (h *chartHandler) GetChoices(c *gin.Context) {
	c.JSON(http.StatusOK, dashboard.WidgetChoices(h.today()))
}

func (h *chartHandler) bind(c *gin.Context) (dashboard.Request, error) {
	var raw dashboard.RawRequest
	if err := c.ShouldBindQuery(&raw); err != nil {
		return dashboard.Request{}, err
	}
	return dashboard.ParseRequest(raw, dashboard.DefaultRequest(h.today()))
}

// StatusFor maps a render state to the HTTP status of the chart endpoint.
func StatusFor(state model.RenderState) int {
	switch state {
	case model.StateReady, model.StateNoData:
		return http.StatusOK
	case model.StateInvalidRequest:
		return http.StatusBadRequest
	case model.StateUpstreamError, model.StateMalformedResponse:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
