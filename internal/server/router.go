package server

import (
	"strings"
	"time"

	"github.com/kataras/iris/v12"

	"github.com/example/goshop/internal/auth"
	"github.com/example/goshop/internal/config"
	"github.com/example/goshop/internal/infra/mq"
	"github.com/example/goshop/internal/infra/redis"
	"github.com/example/goshop/internal/middleware"
	"github.com/example/goshop/internal/repository/mysql"
	redisrepo "github.com/example/goshop/internal/repository/redis"
	"github.com/example/goshop/internal/service"
)

// authRequired 校验 Bearer token，通过后把用户身份写入请求上下文。
// cache 为 nil 时跳过缓存，直接验签。
func authRequired(jwtCfg *config.JWTConfig, cache *auth.TokenCache) iris.Handler {
	return func(ctx iris.Context) {
		token := strings.TrimPrefix(ctx.GetHeader("Authorization"), "Bearer ")
		if token == "" {
			respondFail(ctx, iris.StatusUnauthorized, "missing token")
			return
		}
		var (
			claims *auth.Claims
			hit    bool
			err    error
		)
		if cache != nil {
			claims, hit, err = cache.Get(ctx.Request().Context(), token)
			if err != nil {
				service.GetMonitor().RecordRedisError()
			}
		}
		if !hit {
			claims, err = auth.ParseToken(jwtCfg, token)
			if err != nil {
				respondFail(ctx, iris.StatusUnauthorized, "invalid token")
				return
			}
			if cache != nil {
				if err := cache.Set(ctx.Request().Context(), token, claims); err != nil {
					service.GetMonitor().RecordRedisError()
				}
			}
		}
		ctx.Values().Set("user_id", claims.UserID)
		ctx.Values().Set("email", claims.Email)
		ctx.Next()
	}
}

// RegisterRoutes 注册前台（店面）HTTP 路由
func RegisterRoutes(app *iris.Application, cfg *config.Config) {
	// 初始化基础设施
	db := mysql.Init(&cfg.MySQL)
	redisClient := redis.Init(&cfg.Redis)
	mqConn := mq.Init(&cfg.RabbitMQ)

	// 仓储与服务
	userRepo := mysql.NewUserRepository(db)
	productRepo := mysql.NewProductRepository(db)
	orderRepo := mysql.NewOrderRepository(db)
	cartStore := redisrepo.NewCartStore(redisClient)
	publisher := mq.NewOrderPublisher(mqConn)

	userSvc := service.NewUserService(userRepo, &cfg.JWT)
	productSvc := service.NewProductService(productRepo)
	orderSvc := service.NewOrderService(db, orderRepo, publisher)
	cartSvc := service.NewCartService(cartStore, productRepo)
	checkoutSvc := service.NewCheckoutService(cartSvc, orderSvc, &cfg.Checkout)

	// token 解析结果走 Redis 缓存，减少重复验签
	ring := auth.NewConsistentHashRing(cfg.Auth.Nodes, cfg.Auth.HashReplicas)
	tokenCache := auth.NewTokenCache(redisClient, ring,
		time.Duration(cfg.Auth.TokenCacheTTLSeconds)*time.Second)

	api := app.Party("/api")

	// 健康检查
	api.Get("/health", func(ctx iris.Context) {
		respondOK(ctx, iris.Map{"status": "ok"})
	})

	// 用户注册/登录
	api.Post("/register", func(ctx iris.Context) {
		var req struct {
			Name     string `json:"name"`
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if err := ctx.ReadJSON(&req); err != nil {
			respondFail(ctx, iris.StatusBadRequest, err.Error())
			return
		}
		u, err := userSvc.Register(ctx.Request().Context(), req.Name, req.Email, req.Password)
		if err != nil {
			respondErr(ctx, err)
			return
		}
		respondCreated(ctx, u)
	})

	api.Post("/login", func(ctx iris.Context) {
		var req struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if err := ctx.ReadJSON(&req); err != nil {
			respondFail(ctx, iris.StatusBadRequest, err.Error())
			return
		}
		token, err := userSvc.Login(ctx.Request().Context(), req.Email, req.Password)
		if err != nil {
			respondErr(ctx, err)
			return
		}
		respondOK(ctx, iris.Map{"token": token})
	})

	// 需要登录的接口
	authAPI := api.Party("/", authRequired(&cfg.JWT, tokenCache))

	// ---------- 商品浏览 ----------

	// 商品列表（支持分类筛选 + 名称关键字搜索）
	authAPI.Get("/products", func(ctx iris.Context) {
		category := ctx.URLParam("category")
		keyword := ctx.URLParam("q")
		list, err := productSvc.Search(ctx.Request().Context(), category, keyword)
		if err != nil {
			respondErr(ctx, err)
			return
		}
		respondOK(ctx, list)
	})

	authAPI.Get("/products/{id:int64}", func(ctx iris.Context) {
		id, _ := ctx.Params().GetInt64("id")
		p, err := productSvc.GetByID(ctx.Request().Context(), id)
		if err != nil {
			respondErr(ctx, err)
			return
		}
		respondOK(ctx, p)
	})

	// slug 作为备用查找键
	authAPI.Get("/products/slug/{slug:string}", func(ctx iris.Context) {
		slug := ctx.Params().Get("slug")
		p, err := productSvc.GetBySlug(ctx.Request().Context(), slug)
		if err != nil {
			respondErr(ctx, err)
			return
		}
		respondOK(ctx, p)
	})

	// ---------- 购物车 ----------

	authAPI.Get("/cart", func(ctx iris.Context) {
		userID := ctx.Values().GetInt64Default("user_id", 0)
		view, err := cartSvc.Get(ctx.Request().Context(), userID)
		if err != nil {
			respondErr(ctx, err)
			return
		}
		respondOK(ctx, view)
	})

	authAPI.Post("/cart/items", func(ctx iris.Context) {
		userID := ctx.Values().GetInt64Default("user_id", 0)
		var req struct {
			ProductID int64 `json:"product_id"`
			Quantity  int64 `json:"quantity"`
		}
		if err := ctx.ReadJSON(&req); err != nil {
			respondFail(ctx, iris.StatusBadRequest, err.Error())
			return
		}
		if err := cartSvc.SetItem(ctx.Request().Context(), userID, req.ProductID, req.Quantity); err != nil {
			respondErr(ctx, err)
			return
		}
		view, err := cartSvc.Get(ctx.Request().Context(), userID)
		if err != nil {
			respondErr(ctx, err)
			return
		}
		respondOK(ctx, view)
	})

	authAPI.Delete("/cart/items/{productID:int64}", func(ctx iris.Context) {
		userID := ctx.Values().GetInt64Default("user_id", 0)
		pid, _ := ctx.Params().GetInt64("productID")
		if err := cartSvc.RemoveItem(ctx.Request().Context(), userID, pid); err != nil {
			respondErr(ctx, err)
			return
		}
		respondOK(ctx, iris.Map{"removed": pid})
	})

	authAPI.Delete("/cart", func(ctx iris.Context) {
		userID := ctx.Values().GetInt64Default("user_id", 0)
		if err := cartSvc.Clear(ctx.Request().Context(), userID); err != nil {
			respondErr(ctx, err)
			return
		}
		respondOK(ctx, iris.Map{"cleared": true})
	})

	// ---------- 结算（三步表单） ----------

	authAPI.Post("/checkout/start", func(ctx iris.Context) {
		userID := ctx.Values().GetInt64Default("user_id", 0)
		st, err := checkoutSvc.Start(ctx.Request().Context(), userID)
		if err != nil {
			respondErr(ctx, err)
			return
		}
		respondOK(ctx, st)
	})

	authAPI.Get("/checkout", func(ctx iris.Context) {
		userID := ctx.Values().GetInt64Default("user_id", 0)
		st, err := checkoutSvc.State(ctx.Request().Context(), userID)
		if err != nil {
			respondErr(ctx, err)
			return
		}
		respondOK(ctx, st)
	})

	authAPI.Post("/checkout/next", func(ctx iris.Context) {
		userID := ctx.Values().GetInt64Default("user_id", 0)
		var in service.StepInput
		if err := ctx.ReadJSON(&in); err != nil {
			respondFail(ctx, iris.StatusBadRequest, err.Error())
			return
		}
		st, err := checkoutSvc.Next(ctx.Request().Context(), userID, &in)
		if err != nil {
			respondErr(ctx, err)
			return
		}
		respondOK(ctx, st)
	})

	authAPI.Post("/checkout/back", func(ctx iris.Context) {
		userID := ctx.Values().GetInt64Default("user_id", 0)
		st, err := checkoutSvc.Back(ctx.Request().Context(), userID)
		if err != nil {
			respondErr(ctx, err)
			return
		}
		respondOK(ctx, st)
	})

	authAPI.Post("/checkout/submit",
		middleware.CheckoutSubmitRateLimit(cfg.Checkout.SubmitBurst, cfg.Checkout.SubmitPerSecond),
		func(ctx iris.Context) {
			userID := ctx.Values().GetInt64Default("user_id", 0)
			conf, err := checkoutSvc.Submit(ctx.Request().Context(), userID)
			if err != nil {
				respondErr(ctx, err)
				return
			}
			respondCreated(ctx, conf)
		})

	// ---------- 订单历史 ----------

	authAPI.Get("/orders", func(ctx iris.Context) {
		userID := ctx.Values().GetInt64Default("user_id", 0)
		list, err := orderSvc.ListByUser(ctx.Request().Context(), userID)
		if err != nil {
			respondErr(ctx, err)
			return
		}
		respondOK(ctx, list)
	})

	authAPI.Get("/orders/{id:int64}", func(ctx iris.Context) {
		userID := ctx.Values().GetInt64Default("user_id", 0)
		id, _ := ctx.Params().GetInt64("id")
		d, err := orderSvc.GetForUser(ctx.Request().Context(), userID, id)
		if err != nil {
			respondErr(ctx, err)
			return
		}
		respondOK(ctx, d)
	})
}
