// internal/domain/catalog/service.go
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/your-org/procurement-backend/internal/config"
	"github.com/your-org/procurement-backend/internal/domain/contract"
	"github.com/your-org/procurement-backend/internal/domain/product"
	"github.com/your-org/procurement-backend/internal/domain/supplier"
	"gorm.io/gorm"
)

// Service handles catalog queries. The catalog is a read-only projection of
// products joined with their purchasable contract lines.
type Service struct {
	db          *gorm.DB
	redisClient *redis.Client
	config      *config.Config
}

// NewService creates a new catalog service
func NewService(db *gorm.DB, redisClient *redis.Client, cfg *config.Config) *Service {
	return &Service{
		db:          db,
		redisClient: redisClient,
		config:      cfg,
	}
}

// Offer represents one purchasable contract line for a product
type Offer struct {
	ContractID   uint   `json:"contract_id"`
	SupplierID   uint   `json:"supplier_id"`
	SupplierName string `json:"supplier_name"`
	UnitPrice    int64  `json:"unit_price"`
	Available    int    `json:"quantidade_disponivel"`
}

// Entry represents a product with its current offers
type Entry struct {
	Product product.Product `json:"product"`
	Offers  []Offer         `json:"offers"`
}

// ListResponse represents a paginated catalog listing
type ListResponse struct {
	Entries    []Entry `json:"entries"`
	Total      int64   `json:"total"`
	Page       int     `json:"page"`
	Limit      int     `json:"limit"`
	TotalPages int     `json:"total_pages"`
}

// ListRequest represents catalog query parameters
type ListRequest struct {
	Category string `form:"category"`
	Search   string `form:"search"`
	Page     int    `form:"page,default=1"`
	Limit    int    `form:"limit,default=20"`
}

// List retrieves catalog entries with availability per contract. Results are
// cached briefly; availability shown here is informational and re-checked on
// every cart mutation anyway.
func (s *Service) List(req *ListRequest) (*ListResponse, error) {
	if req.Page < 1 {
		req.Page = 1
	}
	maxLimit := s.config.Catalog.PageSizeLimit
	if maxLimit <= 0 {
		maxLimit = 100
	}
	if req.Limit < 1 || req.Limit > maxLimit {
		req.Limit = 20
	}

	cacheKey := fmt.Sprintf("catalog:list:%s:%s:%d:%d", req.Category, req.Search, req.Page, req.Limit)
	if cached, ok := s.fromCache(cacheKey); ok {
		return cached, nil
	}

	query := s.db.Model(&product.Product{}).Where("is_active = ?", true)
	if req.Category != "" {
		query = query.Where("category = ?", req.Category)
	}
	if req.Search != "" {
		query = query.Where("name LIKE ?", "%"+req.Search+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count products: %w", err)
	}

	var products []product.Product
	err := query.Order("name ASC").
		Offset((req.Page - 1) * req.Limit).
		Limit(req.Limit).
		Find(&products).Error
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve products: %w", err)
	}

	entries := make([]Entry, len(products))
	for i, prod := range products {
		offers, err := s.offersFor(prod.ID)
		if err != nil {
			return nil, err
		}
		entries[i] = Entry{Product: prod, Offers: offers}
	}

	totalPages := int((total + int64(req.Limit) - 1) / int64(req.Limit))
	response := &ListResponse{
		Entries:    entries,
		Total:      total,
		Page:       req.Page,
		Limit:      req.Limit,
		TotalPages: totalPages,
	}

	s.toCache(cacheKey, response)
	return response, nil
}

// GetEntry retrieves one product with its offers, uncached
func (s *Service) GetEntry(productID uint) (*Entry, error) {
	var prod product.Product
	if err := s.db.Where("id = ? AND is_active = ?", productID, true).First(&prod).Error; err != nil {
		return nil, fmt.Errorf("product not found")
	}

	offers, err := s.offersFor(productID)
	if err != nil {
		return nil, err
	}
	return &Entry{Product: prod, Offers: offers}, nil
}

// offersFor collects the purchasable lines for a product. Only lines on
// active, in-validity contracts appear, and exhausted lines are shown with
// zero availability rather than hidden.
func (s *Service) offersFor(productID uint) ([]Offer, error) {
	now := time.Now()

	var lines []contract.ContractLineBalance
	err := s.db.Preload("Contract").
		Where("product_id = ?", productID).
		Find(&lines).Error
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve contract lines: %w", err)
	}

	offers := []Offer{}
	for _, line := range lines {
		if !line.Contract.IsActive || !line.Contract.IsWithinValidity(now) {
			continue
		}

		offer := Offer{
			ContractID: line.ContractID,
			SupplierID: line.Contract.SupplierID,
			UnitPrice:  line.UnitPrice,
			Available:  line.Available(),
		}
		var sup supplier.Supplier
		if err := s.db.First(&sup, line.Contract.SupplierID).Error; err == nil {
			offer.SupplierName = sup.Name
		} else {
			offer.SupplierName = supplier.UnknownName
		}
		offers = append(offers, offer)
	}
	return offers, nil
}

func (s *Service) fromCache(key string) (*ListResponse, bool) {
	if s.redisClient == nil {
		return nil, false
	}

	ctx := context.Background()
	data, err := s.redisClient.Get(ctx, key).Result()
	if err != nil {
		return nil, false
	}

	var response ListResponse
	if err := json.Unmarshal([]byte(data), &response); err != nil {
		return nil, false
	}
	return &response, true
}

func (s *Service) toCache(key string, response *ListResponse) {
	if s.redisClient == nil {
		return
	}

	data, err := json.Marshal(response)
	if err != nil {
		return
	}

	ttl := s.config.Catalog.CacheTTL
	if ttl <= 0 {
		ttl = 30 * time.Second
	}

	ctx := context.Background()
	s.redisClient.Set(ctx, key, data, ttl)
}
