package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	billingapp "github.com/stoptime/backend/internal/application/billing"
	"github.com/stoptime/backend/internal/interfaces/http/dto"
)

// CompanyHandler handles the company profile endpoints
type CompanyHandler struct {
	BaseHandler
	company CompanyService
}

// NewCompanyHandler creates a new CompanyHandler
func NewCompanyHandler(company CompanyService) *CompanyHandler {
	return &CompanyHandler{company: company}
}

// Get godoc
// @ID           getCompany
// @Summary      Current company details
// @Tags         company
// @Produce      json
// @Success      200 {object} dto.Envelope[billingapp.CompanyInfoResponse]
// @Router       /company [get]
func (h *CompanyHandler) Get(c *gin.Context) {
	info, err := h.company.GetLatest(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, info)
}

// Edit godoc
// @ID           editCompany
// @Summary      Edit the company details
// @Description  Editing a revision already printed on an invoice creates a new revision.
// @Description  Returns 201 when a revision was created and 200 when edited in place.
// @Tags         company
// @Accept       json
// @Produce      json
// @Param        request body billingapp.UpdateCompanyInfoRequest true "Changed fields"
// @Success      200 {object} dto.Envelope[billingapp.CompanyEditResponse]
// @Success      201 {object} dto.Envelope[billingapp.CompanyEditResponse]
// @Failure      409 {object} dto.Response
// @Router       /company [put]
func (h *CompanyHandler) Edit(c *gin.Context) {
	var req billingapp.UpdateCompanyInfoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	result, err := h.company.Edit(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	status := http.StatusOK
	if result.Created {
		status = http.StatusCreated
	}
	c.JSON(status, dto.NewSuccessResponse(result))
}

// History godoc
// @ID           getCompanyHistory
// @Summary      Every company revision, newest first
// @Tags         company
// @Produce      json
// @Success      200 {object} dto.Envelope[[]billingapp.CompanyInfoResponse]
// @Router       /company/history [get]
func (h *CompanyHandler) History(c *gin.Context) {
	history, err := h.company.History(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, history)
}
