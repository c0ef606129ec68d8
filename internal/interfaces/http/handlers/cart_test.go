package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mybai/storefront-backend/internal/config"
	"github.com/mybai/storefront-backend/internal/domain/cart"
	"github.com/mybai/storefront-backend/internal/domain/catalog"
	"github.com/mybai/storefront-backend/internal/domain/user"
	"github.com/mybai/storefront-backend/internal/interfaces/http/middleware"
	"github.com/mybai/storefront-backend/internal/pkg/auth"
)

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.App.Name = "mybai"
	cfg.JWT.Secret = "test-secret-key-that-is-long-enough!!"
	cfg.JWT.AccessTokenExpiry = time.Hour
	return cfg
}

func setupRouter(t *testing.T) (*gin.Engine, *gorm.DB, *config.Config) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&user.User{},
		&catalog.Category{}, &catalog.Brand{}, &catalog.Product{},
		&cart.Cart{}, &cart.CartItem{},
	))

	cfg := testConfig()
	cartHandler := NewCartHandler(db, cfg)

	router := gin.New()
	router.POST("/agregar_al_carrito/:product_id",
		middleware.AuthMiddleware(cfg), cartHandler.AddToCart)
	router.POST("/carrito/agregar/:product_id",
		middleware.AuthMiddleware(cfg), cartHandler.AddToCart)

	return router, db, cfg
}

func seedProduct(t *testing.T, db *gorm.DB, stock int) *catalog.Product {
	t.Helper()

	category := catalog.Category{Name: "Accesorios"}
	require.NoError(t, db.Create(&category).Error)
	brand := catalog.Brand{Name: "Logitech"}
	require.NoError(t, db.Create(&brand).Error)

	product := catalog.Product{
		Name:       "MX Master 3S",
		Price:      decimal.NewFromInt(420000),
		Stock:      stock,
		CategoryID: category.ID,
		BrandID:    brand.ID,
	}
	require.NoError(t, db.Create(&product).Error)
	return &product
}

func bearerToken(t *testing.T, cfg *config.Config, userID uint) string {
	t.Helper()
	token, err := auth.NewJWTManager(cfg).GenerateAccessToken(userID, "ana@example.com", false)
	require.NoError(t, err)
	return "Bearer " + token
}

func postAddToCart(router *gin.Engine, token string, productID uint, form url.Values, ajax bool) *httptest.ResponseRecorder {
	body := strings.NewReader(form.Encode())
	req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/agregar_al_carrito/%d", productID), body)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if token != "" {
		req.Header.Set("Authorization", token)
	}
	if ajax {
		req.Header.Set("X-Requested-With", "XMLHttpRequest")
	}

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	return recorder
}

func TestAddToCartRequiresAuth(t *testing.T) {
	router, db, _ := setupRouter(t)
	product := seedProduct(t, db, 10)

	recorder := postAddToCart(router, "", product.ID, url.Values{}, true)
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
}

func TestAddToCartAJAXResponse(t *testing.T) {
	router, db, cfg := setupRouter(t)
	product := seedProduct(t, db, 10)

	form := url.Values{"cantidad": {"2"}}
	recorder := postAddToCart(router, bearerToken(t, cfg, 1), product.ID, form, true)

	require.Equal(t, http.StatusOK, recorder.Code)

	var response struct {
		Success      bool   `json:"success"`
		Message      string `json:"message"`
		TotalItems   int    `json:"total_items"`
		CarritoTotal string `json:"carrito_total"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &response))

	assert.True(t, response.Success)
	assert.Contains(t, response.Message, "MX Master 3S")
	assert.Equal(t, 2, response.TotalItems)
	assert.Equal(t, "840000.00", response.CarritoTotal)
}

func TestAddToCartGroupPathAJAX(t *testing.T) {
	router, db, cfg := setupRouter(t)
	product := seedProduct(t, db, 10)

	body := strings.NewReader(url.Values{"cantidad": {"1"}}.Encode())
	req := httptest.NewRequest(http.MethodPost,
		fmt.Sprintf("/carrito/agregar/%d", product.ID), body)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", bearerToken(t, cfg, 1))
	req.Header.Set("X-Requested-With", "XMLHttpRequest")

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)

	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Contains(t, recorder.Body.String(), `"success":true`)
	assert.Contains(t, recorder.Body.String(), `"total_items":1`)
}

func TestAddToCartOutOfStockAJAX(t *testing.T) {
	router, db, cfg := setupRouter(t)
	product := seedProduct(t, db, 0)

	recorder := postAddToCart(router, bearerToken(t, cfg, 1), product.ID, url.Values{}, true)

	require.Equal(t, http.StatusBadRequest, recorder.Code)

	var response struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &response))
	assert.False(t, response.Success)
	assert.Equal(t, "Sin stock.", response.Message)
}

func TestAddToCartUnknownProductAJAX(t *testing.T) {
	router, _, cfg := setupRouter(t)

	recorder := postAddToCart(router, bearerToken(t, cfg, 1), 999, url.Values{}, true)
	assert.Equal(t, http.StatusNotFound, recorder.Code)
}

func TestAddToCartNonAJAXRedirects(t *testing.T) {
	router, db, cfg := setupRouter(t)
	product := seedProduct(t, db, 10)

	form := url.Values{"next": {"/api/v1/carrito"}}
	recorder := postAddToCart(router, bearerToken(t, cfg, 1), product.ID, form, false)

	assert.Equal(t, http.StatusSeeOther, recorder.Code)
	assert.Equal(t, "/api/v1/carrito", recorder.Header().Get("Location"))
}

func TestAddToCartMalformedQuantityDefaultsToOne(t *testing.T) {
	router, db, cfg := setupRouter(t)
	product := seedProduct(t, db, 10)

	form := url.Values{"cantidad": {"abc"}}
	recorder := postAddToCart(router, bearerToken(t, cfg, 1), product.ID, form, true)

	require.Equal(t, http.StatusOK, recorder.Code)

	var response struct {
		TotalItems int `json:"total_items"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &response))
	assert.Equal(t, 1, response.TotalItems)
}
