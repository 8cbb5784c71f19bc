package handler

import (
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	billingapp "github.com/stoptime/backend/internal/application/billing"
	"github.com/stoptime/backend/internal/interfaces/http/dto"
)

// InvoiceHandler handles invoice and invoice document endpoints
type InvoiceHandler struct {
	BaseHandler
	invoices  InvoiceService
	documents DocumentService
}

// NewInvoiceHandler creates a new InvoiceHandler
func NewInvoiceHandler(invoices InvoiceService, documents DocumentService) *InvoiceHandler {
	return &InvoiceHandler{invoices: invoices, documents: documents}
}

type invoiceListQuery struct {
	dto.PageRequest
	Period string `form:"period" binding:"omitempty,datetime=2006-01"`
}

// bindNumber reads the :number path parameter
func (h *InvoiceHandler) bindNumber(c *gin.Context) (string, bool) {
	var req dto.InvoiceNumberRequest
	if err := c.ShouldBindUri(&req); err != nil {
		h.Error(c, dto.ErrCodeInvalidInvoiceNumber, fmt.Sprintf("Invoice number %q is not of the form YYYYSS", c.Param("number")))
		return "", false
	}
	return req.Number, true
}

// Create godoc
// @ID           createInvoice
// @Summary      Invoice selected work of a customer
// @Description  Selected entries of partly selected tasks move to a billed copy of the task
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Param        request body billingapp.CreateInvoiceRequest true "Selection"
// @Success      201 {object} dto.Envelope[billingapp.CreateInvoiceResponse]
// @Failure      409 {object} dto.Response
// @Failure      422 {object} dto.Response
// @Router       /invoices [post]
func (h *InvoiceHandler) Create(c *gin.Context) {
	var req billingapp.CreateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	created, err := h.invoices.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if created.Invoice != nil {
		c.Header("Location", "/api/v1/invoices/"+created.Invoice.Number)
	}
	h.Created(c, created)
}

// List godoc
// @ID           listInvoices
// @Summary      List invoices, newest number first
// @Tags         invoices
// @Produce      json
// @Param        customer_id query string false "Customer ID" format(uuid)
// @Param        period      query string false "Creation month, YYYY-MM"
// @Success      200 {object} dto.Envelope[[]billingapp.InvoiceResponse]
// @Router       /invoices [get]
func (h *InvoiceHandler) List(c *gin.Context) {
	var q invoiceListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BindError(c, err)
		return
	}
	customerID, ok := h.parseOptionalID(c, "customer_id")
	if !ok {
		return
	}

	invoices, err := h.invoices.List(c.Request.Context(), billingapp.InvoiceListFilter{
		CustomerID: customerID,
		Period:     q.Period,
		Page:       q.Page,
		PageSize:   q.PageSize,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, invoices)
}

// GetByNumber godoc
// @ID           getInvoice
// @Summary      Get an invoice with its lines and totals
// @Tags         invoices
// @Produce      json
// @Param        number path string true "Invoice number, YYYYSS"
// @Success      200 {object} dto.Envelope[billingapp.InvoiceDetailResponse]
// @Failure      400 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Router       /invoices/{number} [get]
func (h *InvoiceHandler) GetByNumber(c *gin.Context) {
	number, ok := h.bindNumber(c)
	if !ok {
		return
	}
	invoice, err := h.invoices.GetByNumber(c.Request.Context(), number)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, invoice)
}

// MarkPaid godoc
// @ID           payInvoice
// @Summary      Mark an invoice as paid
// @Description  Paying an invoice twice keeps the first payment date
// @Tags         invoices
// @Produce      json
// @Param        number path string true "Invoice number, YYYYSS"
// @Success      200 {object} dto.Envelope[billingapp.InvoiceResponse]
// @Router       /invoices/{number}/pay [post]
func (h *InvoiceHandler) MarkPaid(c *gin.Context) {
	number, ok := h.bindNumber(c)
	if !ok {
		return
	}
	invoice, err := h.invoices.MarkPaid(c.Request.Context(), number)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, invoice)
}

// GenerateDocument godoc
// @ID           generateInvoiceDocument
// @Summary      Render the invoice PDF
// @Description  An existing document is kept unless force is set
// @Tags         invoices
// @Produce      json
// @Param        number path  string true  "Invoice number, YYYYSS"
// @Param        force  query bool   false "Render again"
// @Success      200 {object} dto.Envelope[billingapp.DocumentResponse]
// @Success      201 {object} dto.Envelope[billingapp.DocumentResponse]
// @Router       /invoices/{number}/document [post]
func (h *InvoiceHandler) GenerateDocument(c *gin.Context) {
	number, ok := h.bindNumber(c)
	if !ok {
		return
	}
	doc, err := h.documents.Generate(c.Request.Context(), number, queryBool(c, "force"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if doc.Generated {
		h.Created(c, doc)
		return
	}
	h.Success(c, doc)
}

// DownloadDocument godoc
// @ID           downloadInvoiceDocument
// @Summary      Download the invoice PDF, rendering it first when missing
// @Tags         invoices
// @Produce      application/pdf
// @Param        number path string true "Invoice number, YYYYSS"
// @Success      200 {file} binary
// @Router       /invoices/{number}/document [get]
func (h *InvoiceHandler) DownloadDocument(c *gin.Context) {
	number, ok := h.bindNumber(c)
	if !ok {
		return
	}
	rc, doc, err := h.documents.Open(c.Request.Context(), number)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	defer rc.Close()

	c.Header("Content-Type", billingapp.PDFContentType)
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, doc.Key))
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, rc); err != nil {
		_ = c.Error(err)
	}
}
