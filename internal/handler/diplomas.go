package handler

import (
	"net/http"
	"strconv"

	"evot/internal/apierror"
	"evot/internal/dto"
	"evot/internal/middleware"
	"evot/internal/service"

	"github.com/gin-gonic/gin"
)

type DiplomasHandler struct{ svc service.DiplomaService }

func NewDiplomasHandler(svc service.DiplomaService) *DiplomasHandler {
	return &DiplomasHandler{svc: svc}
}

// Crear godoc
// @Summary Registra un diploma
// @Tags diplomas
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param body body dto.CrearDiplomaRequest true "Diploma"
// @Success 201 {object} dto.DiplomaResponse
// @Failure 404 {object} apierror.APIError
// @Failure 409 {object} apierror.APIError
// @Router /v1/diplomas [post]
func (h *DiplomasHandler) Crear(c *gin.Context) {
	var req dto.CrearDiplomaRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Crear(c.Request.Context(), middleware.GetActor(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *DiplomasHandler) ListarTodos(c *gin.Context) {
	resp, err := h.svc.ListarTodos(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *DiplomasHandler) ListarPorInstitucion(c *gin.Context) {
	resp, err := h.svc.ListarPorInstitucion(c.Request.Context(), middleware.GetActor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ListarPorCedula godoc
// @Summary Verificación pública de diplomas por cédula
// @Tags diplomas
// @Produce json
// @Param cedula path int true "Cédula del graduado"
// @Success 200 {object} dto.VerificacionResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/diplomas/graduado/{cedula} [get]
func (h *DiplomasHandler) ListarPorCedula(c *gin.Context) {
	cedula, err := strconv.ParseInt(c.Param("cedula"), 10, 64)
	if err != nil || cedula <= 0 {
		c.JSON(http.StatusBadRequest, apierror.New("Cédula inválida"))
		return
	}
	resp, err := h.svc.ListarPorCedula(c.Request.Context(), cedula)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *DiplomasHandler) ObtenerPorID(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.ObtenerPorID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// DescargarPDF godoc
// @Summary Certificado PDF del diploma
// @Tags diplomas
// @Security BearerAuth
// @Produce application/pdf
// @Param id path string true "ID"
// @Success 200 {file} binary
// @Failure 403 {object} apierror.APIError
// @Router /v1/diplomas/{id}/pdf [get]
func (h *DiplomasHandler) DescargarPDF(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	pdf, nombre, err := h.svc.GenerarPDF(c.Request.Context(), middleware.GetActor(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+nombre+`"`)
	c.Data(http.StatusOK, "application/pdf", pdf)
}

func (h *DiplomasHandler) Actualizar(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req dto.ActualizarDiplomaRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Actualizar(c.Request.Context(), middleware.GetActor(c), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *DiplomasHandler) Eliminar(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Eliminar(c.Request.Context(), middleware.GetActor(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
