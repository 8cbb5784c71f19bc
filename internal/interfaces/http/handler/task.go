package handler

import (
	"github.com/gin-gonic/gin"
	billingapp "github.com/stoptime/backend/internal/application/billing"
)

// TaskHandler handles task endpoints that are not scoped by customer
type TaskHandler struct {
	BaseHandler
	tasks TaskService
}

// NewTaskHandler creates a new TaskHandler
func NewTaskHandler(tasks TaskService) *TaskHandler {
	return &TaskHandler{tasks: tasks}
}

// GetByID godoc
// @ID           getTask
// @Summary      Get a task
// @Tags         tasks
// @Produce      json
// @Param        id path string true "Task ID" format(uuid)
// @Success      200 {object} dto.Envelope[billingapp.TaskResponse]
// @Failure      404 {object} dto.Response
// @Router       /tasks/{id} [get]
func (h *TaskHandler) GetByID(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	task, err := h.tasks.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, task)
}

// Update godoc
// @ID           updateTask
// @Summary      Update a task
// @Description  billed_warning is set when the task already belongs to an invoice
// @Tags         tasks
// @Accept       json
// @Produce      json
// @Param        id      path string true "Task ID" format(uuid)
// @Param        request body billingapp.UpdateTaskRequest true "Task"
// @Success      200 {object} dto.Envelope[billingapp.TaskMutationResponse]
// @Router       /tasks/{id} [put]
func (h *TaskHandler) Update(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	var req billingapp.UpdateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	task, err := h.tasks.Update(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, task)
}

// Delete godoc
// @ID           deleteTask
// @Summary      Delete a task and its time entries
// @Tags         tasks
// @Param        id    path  string true  "Task ID" format(uuid)
// @Param        force query bool   false "Delete even when billed"
// @Success      204
// @Failure      409 {object} dto.Response
// @Router       /tasks/{id} [delete]
func (h *TaskHandler) Delete(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	if err := h.tasks.Delete(c.Request.Context(), id, queryBool(c, "force")); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
