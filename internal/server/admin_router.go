package server

import (
	"fmt"
	"strconv"

	"github.com/kataras/iris/v12"

	"github.com/example/goshop/internal/config"
	"github.com/example/goshop/internal/datamodels/product"
	"github.com/example/goshop/internal/infra/mq"
	"github.com/example/goshop/internal/repository/mysql"
	"github.com/example/goshop/internal/service"
)

// RegisterAdminRoutes 注册后台管理端的 HTTP 路由
// 端口通常是 8081，与前台 Web 服务分离。
func RegisterAdminRoutes(app *iris.Application, cfg *config.Config) {
	// 初始化基础设施
	db := mysql.Init(&cfg.MySQL)
	mqConn := mq.Init(&cfg.RabbitMQ)

	// 仓储与服务
	userRepo := mysql.NewUserRepository(db)
	productRepo := mysql.NewProductRepository(db)
	orderRepo := mysql.NewOrderRepository(db)
	publisher := mq.NewOrderPublisher(mqConn)

	userSvc := service.NewUserService(userRepo, &cfg.JWT)
	productSvc := service.NewProductService(productRepo)
	orderSvc := service.NewOrderService(db, orderRepo, publisher)
	setupSvc := service.NewSetupService(db, userSvc)

	api := app.Party("/api")

	// ---------- 初始化 ----------

	// 建表 + 种子数据，幂等
	api.Post("/setup/init", func(ctx iris.Context) {
		res, err := setupSvc.Init(ctx.Request().Context())
		if err != nil {
			respondErr(ctx, err)
			return
		}
		respondOK(ctx, res)
	})

	// 运行指标
	api.Get("/stats", func(ctx iris.Context) {
		respondOK(ctx, service.GetMonitor().GetStats())
	})

	// ---------- 用户管理 ----------

	api.Get("/users", func(ctx iris.Context) {
		list, err := userSvc.ListAll(ctx.Request().Context())
		if err != nil {
			respondErr(ctx, err)
			return
		}
		respondOK(ctx, list)
	})

	api.Post("/users", func(ctx iris.Context) {
		var req struct {
			Name     string `json:"name"`
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if err := ctx.ReadJSON(&req); err != nil {
			respondFail(ctx, iris.StatusBadRequest, err.Error())
			return
		}
		u, err := userSvc.Create(ctx.Request().Context(), req.Name, req.Email, req.Password)
		if err != nil {
			respondErr(ctx, err)
			return
		}
		respondCreated(ctx, u)
	})

	api.Get("/users/{id:int64}", func(ctx iris.Context) {
		id, _ := ctx.Params().GetInt64("id")
		u, err := userSvc.GetByID(ctx.Request().Context(), id)
		if err != nil {
			respondErr(ctx, err)
			return
		}
		respondOK(ctx, u)
	})

	api.Put("/users/{id:int64}", func(ctx iris.Context) {
		id, _ := ctx.Params().GetInt64("id")
		var req struct {
			Name     string `json:"name"`
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if err := ctx.ReadJSON(&req); err != nil {
			respondFail(ctx, iris.StatusBadRequest, err.Error())
			return
		}
		u, err := userSvc.Update(ctx.Request().Context(), id, req.Name, req.Email, req.Password)
		if err != nil {
			respondErr(ctx, err)
			return
		}
		respondOK(ctx, u)
	})

	api.Delete("/users/{id:int64}", func(ctx iris.Context) {
		id, _ := ctx.Params().GetInt64("id")
		if err := userSvc.Delete(ctx.Request().Context(), id); err != nil {
			respondErr(ctx, err)
			return
		}
		respondOK(ctx, iris.Map{"deleted": id})
	})

	// ---------- 商品管理 ----------

	// 商品列表（后台用：返回所有商品，含下线）
	api.Get("/products", func(ctx iris.Context) {
		list, err := productSvc.ListAll(ctx.Request().Context())
		if err != nil {
			respondErr(ctx, err)
			return
		}
		respondOK(ctx, list)
	})

	api.Post("/products", func(ctx iris.Context) {
		var req productRequest
		if err := ctx.ReadJSON(&req); err != nil {
			respondFail(ctx, iris.StatusBadRequest, err.Error())
			return
		}
		p := &product.Product{}
		if err := req.applyTo(p); err != nil {
			respondFail(ctx, iris.StatusBadRequest, err.Error())
			return
		}
		if err := productSvc.Create(ctx.Request().Context(), p); err != nil {
			respondErr(ctx, err)
			return
		}
		respondCreated(ctx, p)
	})

	api.Get("/products/{id:int64}", func(ctx iris.Context) {
		id, _ := ctx.Params().GetInt64("id")
		p, err := productSvc.GetByID(ctx.Request().Context(), id)
		if err != nil {
			respondErr(ctx, err)
			return
		}
		respondOK(ctx, p)
	})

	api.Put("/products/{id:int64}", func(ctx iris.Context) {
		id, _ := ctx.Params().GetInt64("id")
		p, err := productSvc.GetByID(ctx.Request().Context(), id)
		if err != nil {
			respondErr(ctx, err)
			return
		}
		var req productRequest
		if err := ctx.ReadJSON(&req); err != nil {
			respondFail(ctx, iris.StatusBadRequest, err.Error())
			return
		}
		if err := req.applyTo(p); err != nil {
			respondFail(ctx, iris.StatusBadRequest, err.Error())
			return
		}
		if err := productSvc.Update(ctx.Request().Context(), p); err != nil {
			respondErr(ctx, err)
			return
		}
		respondOK(ctx, p)
	})

	// 删除商品：其订单明细级联删除，订单主记录保留
	api.Delete("/products/{id:int64}", func(ctx iris.Context) {
		id, _ := ctx.Params().GetInt64("id")
		if err := productSvc.Delete(ctx.Request().Context(), id); err != nil {
			respondErr(ctx, err)
			return
		}
		respondOK(ctx, iris.Map{"deleted": id})
	})

	// ---------- 订单管理 ----------

	// 最近订单列表
	api.Get("/orders", func(ctx iris.Context) {
		limitStr := ctx.URLParamDefault("limit", "20")
		limit, err := strconv.Atoi(limitStr)
		if err != nil || limit <= 0 {
			limit = 20
		}
		list, err := orderSvc.ListRecent(ctx.Request().Context(), limit)
		if err != nil {
			respondErr(ctx, err)
			return
		}
		respondOK(ctx, list)
	})

	// 代客下单（与前台 checkout 共用同一套下单逻辑）
	api.Post("/orders", func(ctx iris.Context) {
		var in service.PlaceOrderInput
		if err := ctx.ReadJSON(&in); err != nil {
			respondFail(ctx, iris.StatusBadRequest, err.Error())
			return
		}
		d, err := orderSvc.PlaceOrder(ctx.Request().Context(), &in)
		if err != nil {
			respondErr(ctx, err)
			return
		}
		respondCreated(ctx, d)
	})

	api.Get("/orders/{id:int64}", func(ctx iris.Context) {
		id, _ := ctx.Params().GetInt64("id")
		d, err := orderSvc.GetByID(ctx.Request().Context(), id)
		if err != nil {
			respondErr(ctx, err)
			return
		}
		respondOK(ctx, d)
	})

	// 更新订单状态（pending / completed / cancelled）
	api.Put("/orders/{id:int64}/status", func(ctx iris.Context) {
		id, _ := ctx.Params().GetInt64("id")
		var req struct {
			Status string `json:"status"`
		}
		if err := ctx.ReadJSON(&req); err != nil {
			respondFail(ctx, iris.StatusBadRequest, err.Error())
			return
		}
		if err := orderSvc.UpdateStatus(ctx.Request().Context(), id, req.Status); err != nil {
			respondErr(ctx, err)
			return
		}
		respondOK(ctx, iris.Map{"id": id, "status": req.Status})
	})
}

// ---- 辅助结构与函数 ----

type productRequest struct {
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
	Price       int64  `json:"price"`
	Stock       int64  `json:"stock"`
	Category    string `json:"category"`
	Status      int    `json:"status"`
}

func (r *productRequest) applyTo(p *product.Product) error {
	if r.Name == "" {
		return fmt.Errorf("name is required")
	}
	p.Name = r.Name
	if r.Slug != "" {
		p.Slug = r.Slug
	}
	p.Description = r.Description
	p.Price = r.Price
	p.Stock = r.Stock
	if r.Category != "" {
		p.Category = r.Category
	}
	p.Status = r.Status
	return nil
}
