package server

import (
	"errors"
	"fmt"
	"testing"

	"github.com/kataras/iris/v12"
	"github.com/kataras/iris/v12/httptest"

	"github.com/example/goshop/internal/auth"
	"github.com/example/goshop/internal/config"
	"github.com/example/goshop/internal/middleware"
	"github.com/example/goshop/internal/service"
)

// newEnvelopeApp 每类业务错误各挂一条路由，直接打到 respondErr
func newEnvelopeApp() *iris.Application {
	app := iris.New()
	app.Get("/validation", func(ctx iris.Context) {
		respondErr(ctx, fmt.Errorf("%w: quantity must be positive", service.ErrValidation))
	})
	app.Get("/conflict", func(ctx iris.Context) {
		respondErr(ctx, fmt.Errorf("%w: slug already exists", service.ErrConflict))
	})
	app.Get("/notfound", func(ctx iris.Context) {
		respondErr(ctx, fmt.Errorf("%w: order not found", service.ErrNotFound))
	})
	app.Get("/unauthorized", func(ctx iris.Context) {
		respondErr(ctx, fmt.Errorf("%w: wrong password", service.ErrUnauthorized))
	})
	app.Get("/internal", func(ctx iris.Context) {
		respondErr(ctx, errors.New("dial tcp 127.0.0.1:3306: connect: connection refused"))
	})
	return app
}

func TestRespondErrStatusMapping(t *testing.T) {
	e := httptest.New(t, newEnvelopeApp())

	cases := []struct {
		path   string
		status int
	}{
		{"/validation", iris.StatusBadRequest},
		{"/conflict", iris.StatusBadRequest},
		{"/notfound", iris.StatusNotFound},
		{"/unauthorized", iris.StatusUnauthorized},
	}
	for _, c := range cases {
		obj := e.GET(c.path).Expect().Status(c.status).JSON().Object()
		obj.ValueEqual("success", false)
		obj.Value("error").String().NotEmpty()
	}
}

func TestRespondErrHidesInternalDetail(t *testing.T) {
	e := httptest.New(t, newEnvelopeApp())

	// 未分类错误返回统一文案，驱动报错细节不下发
	obj := e.GET("/internal").Expect().
		Status(iris.StatusInternalServerError).JSON().Object()
	obj.ValueEqual("success", false)
	obj.ValueEqual("error", "internal server error")
}

func TestAuthRequired(t *testing.T) {
	jwtCfg := &config.JWTConfig{Secret: "unit-test-secret"}

	app := iris.New()
	api := app.Party("/api")
	authAPI := api.Party("/", authRequired(jwtCfg, nil))
	authAPI.Get("/me", func(ctx iris.Context) {
		respondOK(ctx, iris.Map{
			"user_id": ctx.Values().GetInt64Default("user_id", 0),
			"email":   ctx.Values().GetString("email"),
		})
	})
	e := httptest.New(t, app)

	e.GET("/api/me").Expect().
		Status(iris.StatusUnauthorized).
		JSON().Object().ValueEqual("error", "missing token")

	e.GET("/api/me").WithHeader("Authorization", "Bearer not-a-jwt").Expect().
		Status(iris.StatusUnauthorized).
		JSON().Object().ValueEqual("error", "invalid token")

	token, err := auth.GenerateToken(jwtCfg, 42, "shopper@example.com")
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	data := e.GET("/api/me").WithHeader("Authorization", "Bearer "+token).Expect().
		Status(iris.StatusOK).JSON().Object().Value("data").Object()
	data.ValueEqual("user_id", 42)
	data.ValueEqual("email", "shopper@example.com")
}

func TestCheckoutSubmitRateLimitResponse(t *testing.T) {
	app := iris.New()
	app.Post("/submit",
		middleware.CheckoutSubmitRateLimit(2, 1),
		func(ctx iris.Context) {
			respondOK(ctx, iris.Map{"ok": true})
		})
	e := httptest.New(t, app)

	e.POST("/submit").Expect().Status(iris.StatusOK)
	e.POST("/submit").Expect().Status(iris.StatusOK)

	// 桶耗尽后按统一信封返回 429
	obj := e.POST("/submit").Expect().
		Status(iris.StatusTooManyRequests).JSON().Object()
	obj.ValueEqual("success", false)
	obj.Value("error").String().NotEmpty()
}
