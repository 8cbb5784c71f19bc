package handler

import (
	"github.com/gin-gonic/gin"
	billingapp "github.com/stoptime/backend/internal/application/billing"
	"github.com/stoptime/backend/internal/domain/shared"
	"github.com/stoptime/backend/internal/interfaces/http/dto"
)

// CustomerHandler handles customer endpoints
type CustomerHandler struct {
	BaseHandler
	customers CustomerService
	tasks     TaskService
	invoices  InvoiceService
}

// NewCustomerHandler creates a new CustomerHandler
func NewCustomerHandler(customers CustomerService, tasks TaskService, invoices InvoiceService) *CustomerHandler {
	return &CustomerHandler{
		customers: customers,
		tasks:     tasks,
		invoices:  invoices,
	}
}

// Create godoc
// @ID           createCustomer
// @Summary      Create a customer
// @Description  Without an hourly rate the configured default rate applies
// @Tags         customers
// @Accept       json
// @Produce      json
// @Param        request body billingapp.CreateCustomerRequest true "Customer"
// @Success      201 {object} dto.Envelope[billingapp.CustomerResponse]
// @Failure      400 {object} dto.Response
// @Failure      422 {object} dto.Response
// @Router       /customers [post]
func (h *CustomerHandler) Create(c *gin.Context) {
	var req billingapp.CreateCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	customer, err := h.customers.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, customer)
}

// GetByID godoc
// @ID           getCustomer
// @Summary      Get a customer
// @Tags         customers
// @Produce      json
// @Param        id path string true "Customer ID" format(uuid)
// @Success      200 {object} dto.Envelope[billingapp.CustomerResponse]
// @Failure      404 {object} dto.Response
// @Router       /customers/{id} [get]
func (h *CustomerHandler) GetByID(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	customer, err := h.customers.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, customer)
}

// List godoc
// @ID           listCustomers
// @Summary      List customers
// @Description  Sorted by name unless order_by names another sortable field
// @Tags         customers
// @Produce      json
// @Param        search    query string false "Name contains"
// @Param        order_by  query string false "Sort field"
// @Param        order_dir query string false "asc or desc"
// @Param        page      query int    false "Page, all customers when omitted"
// @Param        page_size query int    false "Page size"
// @Success      200 {object} dto.Envelope[[]billingapp.CustomerResponse]
// @Router       /customers [get]
func (h *CustomerHandler) List(c *gin.Context) {
	var req dto.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BindError(c, err)
		return
	}

	customers, err := h.customers.List(c.Request.Context(), shared.Filter{
		Search:   req.Search,
		Page:     req.Page,
		PageSize: req.PageSize,
		OrderBy:  req.OrderBy,
		OrderDir: req.OrderDir,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, customers)
}

// Update godoc
// @ID           updateCustomer
// @Summary      Update a customer
// @Tags         customers
// @Accept       json
// @Produce      json
// @Param        id      path string true "Customer ID" format(uuid)
// @Param        request body billingapp.UpdateCustomerRequest true "Customer"
// @Success      200 {object} dto.Envelope[billingapp.CustomerResponse]
// @Failure      404 {object} dto.Response
// @Failure      409 {object} dto.Response
// @Router       /customers/{id} [put]
func (h *CustomerHandler) Update(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	var req billingapp.UpdateCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	customer, err := h.customers.Update(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, customer)
}

// Delete godoc
// @ID           deleteCustomer
// @Summary      Delete a customer
// @Description  Removes the customer with its unbilled tasks. Customers with invoices are kept.
// @Tags         customers
// @Param        id path string true "Customer ID" format(uuid)
// @Success      204
// @Failure      404 {object} dto.Response
// @Failure      409 {object} dto.Response
// @Router       /customers/{id} [delete]
func (h *CustomerHandler) Delete(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	if err := h.customers.Delete(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// CreateTask godoc
// @ID           createCustomerTask
// @Summary      Create a task for a customer
// @Tags         tasks
// @Accept       json
// @Produce      json
// @Param        id      path string true "Customer ID" format(uuid)
// @Param        request body billingapp.CreateTaskRequest true "Task"
// @Success      201 {object} dto.Envelope[billingapp.TaskResponse]
// @Router       /customers/{id}/tasks [post]
func (h *CustomerHandler) CreateTask(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	var req billingapp.CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	task, err := h.tasks.Create(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, task)
}

// ListTasks godoc
// @ID           listCustomerTasks
// @Summary      List a customer's tasks
// @Tags         tasks
// @Produce      json
// @Param        id     path  string true  "Customer ID" format(uuid)
// @Param        billed query bool   false "Only billed or only unbilled tasks"
// @Success      200 {object} dto.Envelope[[]billingapp.TaskResponse]
// @Router       /customers/{id}/tasks [get]
func (h *CustomerHandler) ListTasks(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	var filter billingapp.TaskListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BindError(c, err)
		return
	}

	tasks, err := h.tasks.ListByCustomer(c.Request.Context(), id, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, tasks)
}

// InvoiceSelection godoc
// @ID           getInvoiceSelection
// @Summary      Unbilled work available for a new invoice
// @Tags         invoices
// @Produce      json
// @Param        id path string true "Customer ID" format(uuid)
// @Success      200 {object} dto.Envelope[billingapp.InvoiceSelectionResponse]
// @Router       /customers/{id}/invoice-selection [get]
func (h *CustomerHandler) InvoiceSelection(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	selection, err := h.invoices.SelectionData(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, selection)
}
