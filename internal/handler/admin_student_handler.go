package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/edulane/edulane-backend/internal/model"
	"github.com/edulane/edulane-backend/internal/response"
	"github.com/edulane/edulane-backend/internal/service"
	"github.com/edulane/edulane-backend/internal/validator"
)

// AdminStudentHandler handles admin-side student account management.
type AdminStudentHandler struct {
	studentService *service.StudentService
}

// NewAdminStudentHandler creates a new AdminStudentHandler.
func NewAdminStudentHandler(studentService *service.StudentService) *AdminStudentHandler {
	return &AdminStudentHandler{studentService: studentService}
}

// ListStudents godoc
// GET /api/v1/admin/students?page=1&per_page=50
func (h *AdminStudentHandler) ListStudents(c *gin.Context) {
	page, perPage := parsePagination(c)

	students, total, err := h.studentService.List(c.Request.Context(), page, perPage)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	if students == nil {
		students = []model.Student{}
	}
	response.SuccessWithPagination(c, http.StatusOK, gin.H{"students": students}, buildPagination(page, perPage, total))
}

// CreateStudent godoc
// POST /api/v1/admin/students
func (h *AdminStudentHandler) CreateStudent(c *gin.Context) {
	var req model.CreateStudentRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	student, err := h.studentService.Create(c.Request.Context(), &req)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusCreated, student)
}

// GetStudent godoc
// GET /api/v1/admin/students/:student_id
func (h *AdminStudentHandler) GetStudent(c *gin.Context) {
	studentID, err := strconv.Atoi(c.Param("student_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	student, err := h.studentService.Get(c.Request.Context(), studentID)
	if err != nil {
		h.failStudent(c, err)
		return
	}

	response.Success(c, http.StatusOK, student)
}

// UpdateStudent godoc
// PUT /api/v1/admin/students/:student_id
func (h *AdminStudentHandler) UpdateStudent(c *gin.Context) {
	studentID, err := strconv.Atoi(c.Param("student_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.UpdateStudentRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	student, err := h.studentService.Update(c.Request.Context(), studentID, &req)
	if err != nil {
		h.failStudent(c, err)
		return
	}

	response.Success(c, http.StatusOK, student)
}

// DeleteStudent godoc
// DELETE /api/v1/admin/students/:student_id
func (h *AdminStudentHandler) DeleteStudent(c *gin.Context) {
	studentID, err := strconv.Atoi(c.Param("student_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	if err := h.studentService.Delete(c.Request.Context(), studentID); err != nil {
		h.failStudent(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"status": "deleted"})
}

// ResetStudentSession godoc
// POST /api/v1/admin/students/:student_id/reset-session
// Clears the single-device login session so the student can sign in
// from a new device.
func (h *AdminStudentHandler) ResetStudentSession(c *gin.Context) {
	studentID, err := strconv.Atoi(c.Param("student_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	if err := h.studentService.ResetSession(c.Request.Context(), studentID); err != nil {
		h.failStudent(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"status": "session reset"})
}

func (h *AdminStudentHandler) failStudent(c *gin.Context, err error) {
	if errors.Is(err, service.ErrStudentNotFound) {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return
	}
	response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
}
