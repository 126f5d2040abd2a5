package handler

import (
	"net/http"

	"evot/internal/dto"
	"evot/internal/middleware"
	"evot/internal/service"

	"github.com/gin-gonic/gin"
)

type InstitucionesHandler struct{ svc service.InstitucionService }

func NewInstitucionesHandler(svc service.InstitucionService) *InstitucionesHandler {
	return &InstitucionesHandler{svc: svc}
}

// Crear godoc
// @Summary Registra una institución
// @Description ADMIN puede asignar el usuario dueño; cualquier otro usuario queda como dueño.
// @Tags instituciones
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param body body dto.CrearInstitucionRequest true "Institución"
// @Success 201 {object} dto.InstitucionResponse
// @Failure 409 {object} apierror.APIError
// @Router /v1/instituciones [post]
func (h *InstitucionesHandler) Crear(c *gin.Context) {
	var req dto.CrearInstitucionRequest
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

func (h *InstitucionesHandler) ListarTodas(c *gin.Context) {
	resp, err := h.svc.ListarTodas(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ListarActivas godoc
// @Summary Instituciones cuyo usuario dueño está activo
// @Tags instituciones
// @Security BearerAuth
// @Produce json
// @Success 200 {array} dto.InstitucionResponse
// @Router /v1/instituciones/activas [get]
func (h *InstitucionesHandler) ListarActivas(c *gin.Context) {
	resp, err := h.svc.ListarActivas(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *InstitucionesHandler) ObtenerPorID(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.ObtenerPorID(c.Request.Context(), middleware.GetActor(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Actualizar godoc
// @Summary Actualiza una institución (ADMIN o dueño)
// @Tags instituciones
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "ID"
// @Param body body dto.ActualizarInstitucionRequest true "Campos a modificar"
// @Success 200 {object} dto.InstitucionResponse
// @Failure 403 {object} apierror.APIError
// @Router /v1/instituciones/{id} [put]
func (h *InstitucionesHandler) Actualizar(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req dto.ActualizarInstitucionRequest
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

func (h *InstitucionesHandler) Activar(c *gin.Context)    { h.cambiarEstado(c, true) }
func (h *InstitucionesHandler) Desactivar(c *gin.Context) { h.cambiarEstado(c, false) }

func (h *InstitucionesHandler) cambiarEstado(c *gin.Context, estado bool) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.CambiarEstado(c.Request.Context(), id, estado)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
