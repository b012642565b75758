// internal/interfaces/http/handlers/cart_test.go
package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/procurement-backend/internal/config"
	"github.com/your-org/procurement-backend/internal/domain/cart"
	"github.com/your-org/procurement-backend/internal/domain/contract"
	"github.com/your-org/procurement-backend/internal/domain/product"
	"github.com/your-org/procurement-backend/internal/domain/supplier"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newCartRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := "file:handlers_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&supplier.Supplier{}, &product.Product{},
		&contract.Contract{}, &contract.ContractLineBalance{}, &cart.CartItem{},
	))

	handler := NewCartHandler(db, &config.Config{})

	router := gin.New()
	// Stand-in for the JWT middleware: every request acts as user 7
	router.Use(func(c *gin.Context) {
		c.Set("user_id", uint(7))
		c.Next()
	})
	router.GET("/cart", handler.GetCart)
	router.POST("/cart/items", handler.AddItem)
	router.PUT("/cart/items/:product_id/:contract_id", handler.UpdateItem)
	router.DELETE("/cart/items/:product_id/:contract_id", handler.RemoveItem)
	router.DELETE("/cart", handler.ClearCart)
	return router, db
}

func seedCartOffer(t *testing.T, db *gorm.DB, total int, price int64) (*product.Product, *contract.Contract) {
	t.Helper()
	sup := &supplier.Supplier{Name: "Hortifruti Central", CNPJ: uuid.NewString()[:14], IsActive: true}
	require.NoError(t, db.Create(sup).Error)

	prod := &product.Product{Code: uuid.NewString()[:8], Name: "Arroz tipo 1", Unit: "kg", IsActive: true}
	require.NoError(t, db.Create(prod).Error)

	c := &contract.Contract{
		Number:     "CT-" + uuid.NewString()[:8],
		SupplierID: sup.ID,
		ValidFrom:  time.Now().Add(-24 * time.Hour),
		ValidUntil: time.Now().Add(30 * 24 * time.Hour),
		IsActive:   true,
	}
	require.NoError(t, db.Create(c).Error)
	require.NoError(t, db.Create(&contract.ContractLineBalance{
		ProductID:     prod.ID,
		ContractID:    c.ID,
		QuantityTotal: total,
		UnitPrice:     price,
	}).Error)
	return prod, c
}

func doJSON(router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestCartEndpointsRoundTrip(t *testing.T) {
	router, db := newCartRouter(t)
	prod, c := seedCartOffer(t, db, 100, 350)

	w := doJSON(router, http.MethodPost, "/cart/items", gin.H{
		"product_id":  prod.ID,
		"contract_id": c.ID,
		"quantity":    3,
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(router, http.MethodGet, "/cart", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data cart.CartResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data.Groups, 1)
	assert.Equal(t, "Hortifruti Central", resp.Data.Groups[0].SupplierName)
	assert.Equal(t, int64(1050), resp.Data.GrandTotal)
}

func TestCartAddItemValidation(t *testing.T) {
	router, _ := newCartRouter(t)

	// Missing quantity fails binding
	w := doJSON(router, http.MethodPost, "/cart/items", gin.H{
		"product_id":  1,
		"contract_id": 1,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Unknown product is a 404
	w = doJSON(router, http.MethodPost, "/cart/items", gin.H{
		"product_id":  99,
		"contract_id": 1,
		"quantity":    1,
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCartInsufficientAvailabilityPayload(t *testing.T) {
	router, db := newCartRouter(t)
	prod, c := seedCartOffer(t, db, 5, 350)

	w := doJSON(router, http.MethodPost, "/cart/items", gin.H{
		"product_id":  prod.ID,
		"contract_id": c.ID,
		"quantity":    6,
	})
	require.Equal(t, http.StatusConflict, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "INSUFFICIENT_AVAILABILITY", resp["code"])
	assert.Equal(t, float64(5), resp["quantidade_disponivel"])
}

func TestCartRemoveAndClear(t *testing.T) {
	router, db := newCartRouter(t)
	prod, c := seedCartOffer(t, db, 100, 350)

	w := doJSON(router, http.MethodPost, "/cart/items", gin.H{
		"product_id":  prod.ID,
		"contract_id": c.ID,
		"quantity":    2,
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(router, http.MethodDelete,
		"/cart/items/"+itoa(prod.ID)+"/"+itoa(c.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)

	// Removing again still succeeds
	w = doJSON(router, http.MethodDelete,
		"/cart/items/"+itoa(prod.ID)+"/"+itoa(c.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(router, http.MethodDelete, "/cart", nil)
	require.Equal(t, http.StatusOK, w.Code)
}

func itoa(v uint) string {
	return strconv.FormatUint(uint64(v), 10)
}
