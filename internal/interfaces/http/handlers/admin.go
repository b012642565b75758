// internal/interfaces/http/handlers/admin.go
package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/your-org/procurement-backend/internal/config"
	"github.com/your-org/procurement-backend/internal/domain/contract"
	"github.com/your-org/procurement-backend/internal/domain/product"
	"github.com/your-org/procurement-backend/internal/domain/supplier"
	"gorm.io/gorm"
)

// AdminHandler handles contract administration endpoints
type AdminHandler struct {
	supplierService *supplier.Service
	productService  *product.Service
	contractService *contract.Service
	config          *config.Config
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(db *gorm.DB, cfg *config.Config) *AdminHandler {
	return &AdminHandler{
		supplierService: supplier.NewService(db, cfg),
		productService:  product.NewService(db, cfg),
		contractService: contract.NewService(db, cfg),
		config:          cfg,
	}
}

// SUPPLIERS

// CreateSupplier handles POST /admin/suppliers
func (h *AdminHandler) CreateSupplier(c *gin.Context) {
	var req supplier.CreateSupplierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	sup, err := h.supplierService.CreateSupplier(&req)
	if err != nil {
		c.JSON(http.StatusConflict, gin.H{
			"error": err.Error(),
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Supplier created successfully",
		"data":    sup,
	})
}

// GetSuppliers handles GET /admin/suppliers
func (h *AdminHandler) GetSuppliers(c *gin.Context) {
	suppliers, err := h.supplierService.GetSuppliers()
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Suppliers retrieved successfully",
		"data":    suppliers,
	})
}

// DeactivateSupplier handles DELETE /admin/suppliers/:id
func (h *AdminHandler) DeactivateSupplier(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	if err := h.supplierService.DeactivateSupplier(id); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Supplier deactivated successfully",
	})
}

// PRODUCTS

// CreateProduct handles POST /admin/products
func (h *AdminHandler) CreateProduct(c *gin.Context) {
	var req product.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	prod, err := h.productService.CreateProduct(&req)
	if err != nil {
		c.JSON(http.StatusConflict, gin.H{
			"error": err.Error(),
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Product created successfully",
		"data":    prod,
	})
}

// GetProducts handles GET /admin/products
func (h *AdminHandler) GetProducts(c *gin.Context) {
	products, err := h.productService.GetProducts(c.Query("category"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Products retrieved successfully",
		"data":    products,
	})
}

// DeactivateProduct handles DELETE /admin/products/:id
func (h *AdminHandler) DeactivateProduct(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	if err := h.productService.DeactivateProduct(id); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Product deactivated successfully",
	})
}

// CONTRACTS

// CreateContract handles POST /admin/contracts
func (h *AdminHandler) CreateContract(c *gin.Context) {
	var req contract.CreateContractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	created, err := h.contractService.CreateContract(&req)
	if err != nil {
		c.JSON(http.StatusConflict, gin.H{
			"error": err.Error(),
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Contract created successfully",
		"data":    created,
	})
}

// GetContracts handles GET /admin/contracts
func (h *AdminHandler) GetContracts(c *gin.Context) {
	var supplierID *uint
	if param := c.Query("supplier_id"); param != "" {
		if id, err := strconv.ParseUint(param, 10, 32); err == nil {
			idUint := uint(id)
			supplierID = &idUint
		}
	}

	contracts, err := h.contractService.GetContracts(supplierID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Contracts retrieved successfully",
		"data":    contracts,
	})
}

// GetContract handles GET /admin/contracts/:id
func (h *AdminHandler) GetContract(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	found, err := h.contractService.GetContract(id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Contract retrieved successfully",
		"data":    found,
	})
}

// AddContractLine handles POST /admin/contracts/:id/lines
func (h *AdminHandler) AddContractLine(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	var req contract.ContractLineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	line, err := h.contractService.AddLine(id, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Contract line created successfully",
		"data":    line,
	})
}

// AdjustContractLine handles PUT /admin/contracts/:id/lines/:product_id
func (h *AdminHandler) AdjustContractLine(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	productID, err := strconv.ParseUint(c.Param("product_id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid product ID",
		})
		return
	}

	var req contract.AdjustLineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	line, err := h.contractService.AdjustLineTotal(uint(productID), id, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Contract line updated successfully",
		"data":    line,
	})
}

// DeactivateContract handles DELETE /admin/contracts/:id
func (h *AdminHandler) DeactivateContract(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	if err := h.contractService.DeactivateContract(id); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Contract deactivated successfully",
	})
}

func parseIDParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid ID",
		})
		return 0, false
	}
	return uint(id), true
}
