// Package router monta o roteador HTTP da API: injeta repositórios nos
// handlers de domínio e aplica a cadeia de middlewares.
package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/apoiaedu/api/internal/auth"
	"github.com/apoiaedu/api/internal/avaliacao"
	"github.com/apoiaedu/api/internal/config"
	"github.com/apoiaedu/api/internal/db"
	"github.com/apoiaedu/api/internal/dificuldade"
	"github.com/apoiaedu/api/internal/equipe"
	"github.com/apoiaedu/api/internal/estudante"
	internalhttp "github.com/apoiaedu/api/internal/http"
	httpmiddleware "github.com/apoiaedu/api/internal/http/middleware"
	"github.com/apoiaedu/api/internal/intervencao"
	"github.com/apoiaedu/api/internal/relatorio"
	"github.com/apoiaedu/api/internal/reuniao"
	"github.com/apoiaedu/api/internal/storage"
	"github.com/apoiaedu/api/internal/usuario"
)

// Handler guarda as dependências compartilhadas pelos endpoints montados
// diretamente no roteador (autenticação e sondas de saúde).
type Handler struct {
	pool        *pgxpool.Pool
	redis       *redis.Client
	authService *auth.Service
}

// New devolve o roteador configurado com todos os módulos.
func New(cfg *config.Config, pool *pgxpool.Pool, redisClient *redis.Client, authService *auth.Service) (http.Handler, error) {
	uow := db.NewUnitOfWork(pool)

	var uploader storage.Uploader = storage.NoopUploader{}
	if cfg.Storage.Enabled() {
		s3, err := storage.NewS3Uploader(storage.S3Config{
			Endpoint:     cfg.Storage.Endpoint,
			Region:       cfg.Storage.Region,
			Bucket:       cfg.Storage.Bucket,
			AccessKey:    cfg.Storage.AccessKey,
			SecretKey:    cfg.Storage.SecretKey,
			PublicDomain: cfg.Storage.PublicDomain,
		})
		if err != nil {
			return nil, err
		}
		uploader = s3
	}

	usuarioRepo := usuario.NewRepository(uow)
	estudanteRepo := estudante.NewRepository(uow)
	dificuldadeRepo := dificuldade.NewRepository(uow)
	equipeRepo := equipe.NewRepository(uow)
	intervencaoRepo := intervencao.NewRepository(uow)
	reuniaoRepo := reuniao.NewRepository(uow)
	relatorioRepo := relatorio.NewRepository(uow)
	avaliacaoRepo := avaliacao.NewRepository(uow)

	usuarioHandler := usuario.NewHandler(usuarioRepo, auth.Hash)
	estudanteHandler := estudante.NewHandler(estudanteRepo)
	dificuldadeHandler := dificuldade.NewHandler(dificuldadeRepo)
	equipeHandler := equipe.NewHandler(equipeRepo)
	intervencaoHandler := intervencao.NewHandler(intervencaoRepo)
	reuniaoHandler := reuniao.NewHandler(reuniaoRepo)
	relatorioHandler := relatorio.NewHandler(relatorioRepo, uploader)
	avaliacaoHandler := avaliacao.NewHandler(avaliacaoRepo)

	h := &Handler{pool: pool, redis: redisClient, authService: authService}

	publicLimiter := httpmiddleware.NewRateLimiter(cfg.RateLimitPublic.RequestsPerSecond, cfg.RateLimitPublic.Burst)
	authLimiter := httpmiddleware.NewRateLimiter(cfg.RateLimitAuth.RequestsPerSecond, cfg.RateLimitAuth.Burst)

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(httpmiddleware.Logging)
	r.Use(httpmiddleware.Recover)
	r.Use(httpmiddleware.CORS(cfg.AllowOrigins))

	r.Group(func(public chi.Router) {
		public.Use(httpmiddleware.IPRateLimit(publicLimiter))

		public.Get("/healthz", h.Healthz)

		public.Route("/auth", func(r chi.Router) {
			r.Post("/login", h.Login)
			r.Post("/refresh", h.Refresh)
			r.Post("/logout", h.Logout)
		})
	})

	r.Group(func(private chi.Router) {
		private.Use(httpmiddleware.Auth(authService.JWT()))
		private.Use(httpmiddleware.UserRateLimit(authLimiter))

		private.Get("/me", h.Me)

		estudanteHandler.RegisterRoutes(private)
		dificuldadeHandler.RegisterRoutes(private)
		equipeHandler.RegisterRoutes(private)
		intervencaoHandler.RegisterRoutes(private)
		reuniaoHandler.RegisterRoutes(private)
		relatorioHandler.RegisterRoutes(private)
		avaliacaoHandler.RegisterRoutes(private)

		private.Group(func(admin chi.Router) {
			admin.Use(httpmiddleware.RequireCargo("ADMINISTRADOR", "COORDENADOR", "DIRETOR"))
			usuarioHandler.RegisterRoutes(admin)
		})
	})

	return r, nil
}

// Healthz verifica conexão com o banco e o Redis.
func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := contextWithTimeout(r, 2*time.Second)
	defer cancel()

	if err := h.pool.Ping(ctx); err != nil {
		internalhttp.WriteError(w, http.StatusServiceUnavailable, "UNHEALTHY", "banco indisponível", nil)
		return
	}
	if err := h.redis.Ping(ctx).Err(); err != nil {
		internalhttp.WriteError(w, http.StatusServiceUnavailable, "UNHEALTHY", "redis indisponível", nil)
		return
	}

	internalhttp.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
