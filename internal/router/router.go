package router

import (
	"time"

	"evot/internal/config"
	"evot/internal/handler"
	"evot/internal/infra"
	"evot/internal/middleware"
	"evot/internal/model"
	"evot/internal/repository"
	"evot/internal/service"
	"evot/internal/token"
	"evot/internal/worker"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS(cfg.CORSOrigins))
	r.Use(middleware.Metrics())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(cfg.RateLimitPerMinute, time.Minute))

	// ── Infrastructure ───────────────────────────────────────────────────────
	issuer := token.NewIssuer(cfg.JWTSecret,
		time.Duration(cfg.JWTAccessMinutes)*time.Minute,
		time.Duration(cfg.JWTRefreshHours)*time.Hour)

	// Notifications are only queued when someone can deliver them.
	var mailQueue service.EmailEnqueuer
	if infra.NewMailer(cfg).Configurado() {
		mailQueue = worker.NewDispatcher(rdb)
	}

	// ── Repositories ─────────────────────────────────────────────────────────
	usuarioRepo := repository.NewUsuarioRepository(db)
	institucionRepo := repository.NewInstitucionRepository(db)
	graduadoRepo := repository.NewGraduadoRepository(db)
	diplomaRepo := repository.NewDiplomaRepository(db)
	sesiones := repository.NewSesionStore(rdb)
	verificaciones := repository.NewVerificacionCache(rdb, time.Duration(cfg.CacheVerificacionMin)*time.Minute)

	// ── Services ─────────────────────────────────────────────────────────────
	identidades := service.NewIdentityResolver(usuarioRepo, cfg.IdentityCacheSize,
		time.Duration(cfg.IdentityCacheTTLSeconds)*time.Second)
	authSvc := service.NewAuthService(usuarioRepo, issuer, sesiones, identidades, mailQueue, cfg.BcryptCost)
	institucionSvc := service.NewInstitucionService(institucionRepo, usuarioRepo, diplomaRepo, verificaciones, identidades, mailQueue)
	graduadoSvc := service.NewGraduadoService(graduadoRepo, institucionRepo, diplomaRepo, verificaciones)
	diplomaSvc := service.NewDiplomaService(diplomaRepo, graduadoRepo, institucionRepo, verificaciones, mailQueue)

	// ── Handlers ─────────────────────────────────────────────────────────────
	authH := handler.NewAuthHandler(authSvc)
	usuariosH := handler.NewUsuariosHandler(authSvc)
	institucionesH := handler.NewInstitucionesHandler(institucionSvc)
	graduadosH := handler.NewGraduadosHandler(graduadoSvc)
	diplomasH := handler.NewDiplomasHandler(diplomaSvc)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	auth := r.Group("/v1/auth")
	{
		auth.POST("/login", middleware.LoginRateLimiter(cfg.LoginRateLimitPerMinute), authH.Login)
		auth.POST("/refresh", authH.Refresh)
	}

	// Public diploma verification
	r.GET("/v1/diplomas/graduado/:cedula", diplomasH.ListarPorCedula)

	// Protected routes
	jwtMW := middleware.JWTAuth(issuer, sesiones, identidades)
	admin := middleware.RequireRole(model.RolAdmin)
	v1 := r.Group("/v1", jwtMW)
	{
		v1.POST("/auth/logout", authH.Logout)
		v1.GET("/auth/sesion", authH.Sesion)
		v1.PUT("/auth/password", authH.ResetPassword)

		usuarios := v1.Group("/usuarios")
		{
			usuarios.POST("", admin, usuariosH.Registrar)
			usuarios.GET("", admin, usuariosH.Listar)
			usuarios.GET("/:id", usuariosH.ObtenerPorID)
			usuarios.PATCH("/:id/activar", admin, usuariosH.Activar)
			usuarios.PATCH("/:id/desactivar", admin, usuariosH.Desactivar)
		}

		inst := v1.Group("/instituciones")
		{
			inst.POST("", institucionesH.Crear)
			inst.GET("", admin, institucionesH.ListarTodas)
			inst.GET("/activas", institucionesH.ListarActivas)
			inst.GET("/:id", institucionesH.ObtenerPorID)
			inst.PUT("/:id", institucionesH.Actualizar)
			inst.PATCH("/:id/activar", admin, institucionesH.Activar)
			inst.PATCH("/:id/desactivar", admin, institucionesH.Desactivar)
		}

		grad := v1.Group("/graduados")
		{
			grad.POST("", graduadosH.Crear)
			grad.GET("", admin, graduadosH.Listar)
			grad.GET("/institucion", graduadosH.ListarPorInstitucion)
			grad.GET("/:id", graduadosH.ObtenerPorID)
			grad.PUT("/:id", graduadosH.Actualizar)
			grad.DELETE("/:id", graduadosH.Eliminar)
		}

		dip := v1.Group("/diplomas")
		{
			dip.POST("", diplomasH.Crear)
			dip.GET("", admin, diplomasH.ListarTodos)
			dip.GET("/institucion", diplomasH.ListarPorInstitucion)
			dip.GET("/:id", diplomasH.ObtenerPorID)
			dip.GET("/:id/pdf", diplomasH.DescargarPDF)
			dip.PUT("/:id", diplomasH.Actualizar)
			dip.DELETE("/:id", diplomasH.Eliminar)
		}
	}

	// Swagger UI, outside production only
	if !cfg.IsProduction() {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
