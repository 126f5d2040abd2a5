package handler

import (
	"net/http"

	"evot/internal/dto"
	"evot/internal/middleware"
	"evot/internal/service"

	"github.com/gin-gonic/gin"
)

type GraduadosHandler struct{ svc service.GraduadoService }

func NewGraduadosHandler(svc service.GraduadoService) *GraduadosHandler {
	return &GraduadosHandler{svc: svc}
}

// Crear godoc
// @Summary Registra un graduado o lo asocia a la institución
// @Description 201 cuando el graduado es nuevo; 200 cuando ya existía por cédula.
// @Tags graduados
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param body body dto.CrearGraduadoRequest true "Graduado"
// @Success 201 {object} dto.CrearGraduadoResponse
// @Success 200 {object} dto.CrearGraduadoResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/graduados [post]
func (h *GraduadosHandler) Crear(c *gin.Context) {
	var req dto.CrearGraduadoRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Crear(c.Request.Context(), middleware.GetActor(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	status := http.StatusOK
	if resp.Creado {
		status = http.StatusCreated
	}
	c.JSON(status, resp)
}

func (h *GraduadosHandler) Listar(c *gin.Context) {
	resp, err := h.svc.Listar(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ListarPorInstitucion godoc
// @Summary Graduados de la institución del usuario
// @Tags graduados
// @Security BearerAuth
// @Produce json
// @Param institucion query string false "ID de institución (solo ADMIN)"
// @Success 200 {array} dto.GraduadoResponse
// @Router /v1/graduados/institucion [get]
func (h *GraduadosHandler) ListarPorInstitucion(c *gin.Context) {
	var institucion *string
	if v, ok := c.GetQuery("institucion"); ok {
		institucion = &v
	}
	resp, err := h.svc.ListarPorInstitucion(c.Request.Context(), middleware.GetActor(c), institucion)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *GraduadosHandler) ObtenerPorID(c *gin.Context) {
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

func (h *GraduadosHandler) Actualizar(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req dto.ActualizarGraduadoRequest
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

// Eliminar godoc
// @Summary Elimina un graduado sin diplomas
// @Tags graduados
// @Security BearerAuth
// @Param id path string true "ID"
// @Success 204
// @Failure 409 {object} apierror.APIError
// @Router /v1/graduados/{id} [delete]
func (h *GraduadosHandler) Eliminar(c *gin.Context) {
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
