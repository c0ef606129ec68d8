// internal/domain/catalog/service.go
package catalog

import (
	"errors"
	"fmt"

	"github.com/mybai/storefront-backend/internal/config"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ErrProductNotFound is returned when a product lookup misses
var ErrProductNotFound = errors.New("product not found")

// SortOption enumerates the supported catalog orderings. Raw query values
// are validated at the boundary via ParseSortOption; anything unknown falls
// back to the default id ordering.
type SortOption string

const (
	SortDefault   SortOption = "id"
	SortPriceAsc  SortOption = "precio_asc"
	SortPriceDesc SortOption = "precio_desc"
)

// ParseSortOption maps a raw query value onto a SortOption
func ParseSortOption(raw string) SortOption {
	switch SortOption(raw) {
	case SortPriceAsc:
		return SortPriceAsc
	case SortPriceDesc:
		return SortPriceDesc
	default:
		return SortDefault
	}
}

func (o SortOption) orderClause() string {
	switch o {
	case SortPriceAsc:
		return "price ASC, id ASC"
	case SortPriceDesc:
		return "price DESC, id ASC"
	default:
		return "id ASC"
	}
}

// Service handles catalog business logic
type Service struct {
	db     *gorm.DB
	config *config.Config
}

// NewService creates a new catalog service
func NewService(db *gorm.DB, cfg *config.Config) *Service {
	return &Service{
		db:     db,
		config: cfg,
	}
}

// ProductListRequest represents product list query parameters
type ProductListRequest struct {
	Page       int        `form:"page,default=1"`
	Limit      int        `form:"limit"`
	CategoryID uint       `form:"categoria"`
	BrandID    uint       `form:"marca"`
	OnOffer    *bool      `form:"oferta"`
	Sort       SortOption `form:"-"`
}

// ProductCreateRequest represents product creation data
type ProductCreateRequest struct {
	Name        string          `json:"name" binding:"required"`
	Description string          `json:"description"`
	Specs       string          `json:"specs"`
	Price       decimal.Decimal `json:"price" binding:"required"`
	Stock       int             `json:"stock"`
	ImageURL    string          `json:"image_url"`
	CategoryID  uint            `json:"category_id" binding:"required"`
	BrandID     uint            `json:"brand_id" binding:"required"`
	OnOffer     bool            `json:"on_offer"`
}

// ProductUpdateRequest represents product update data
type ProductUpdateRequest struct {
	Name        *string          `json:"name"`
	Description *string          `json:"description"`
	Specs       *string          `json:"specs"`
	Price       *decimal.Decimal `json:"price"`
	Stock       *int             `json:"stock"`
	ImageURL    *string          `json:"image_url"`
	CategoryID  *uint            `json:"category_id"`
	BrandID     *uint            `json:"brand_id"`
	OnOffer     *bool            `json:"on_offer"`
}

// ProductListResponse represents product response with pagination
type ProductListResponse struct {
	Products   []Product  `json:"products"`
	Pagination Pagination `json:"pagination"`
}

// Pagination represents pagination information
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
	HasPrev    bool  `json:"has_prev"`
}

// ListProducts retrieves products with filtering, sorting and pagination
func (s *Service) ListProducts(req *ProductListRequest) (*ProductListResponse, error) {
	var products []Product
	var total int64

	if req.Page < 1 {
		req.Page = 1
	}
	if req.Limit < 1 {
		req.Limit = s.config.Store.PageSize
	}

	query := s.db.Model(&Product{}).
		Preload("Category").
		Preload("Brand")

	if req.CategoryID > 0 {
		query = query.Where("category_id = ?", req.CategoryID)
	}

	if req.BrandID > 0 {
		query = query.Where("brand_id = ?", req.BrandID)
	}

	if req.OnOffer != nil {
		query = query.Where("on_offer = ?", *req.OnOffer)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count products: %w", err)
	}

	query = query.Order(req.Sort.orderClause())

	offset := (req.Page - 1) * req.Limit
	if err := query.Offset(offset).Limit(req.Limit).Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve products: %w", err)
	}

	totalPages := int((total + int64(req.Limit) - 1) / int64(req.Limit))
	pagination := Pagination{
		Page:       req.Page,
		Limit:      req.Limit,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    req.Page < totalPages,
		HasPrev:    req.Page > 1,
	}

	return &ProductListResponse{
		Products:   products,
		Pagination: pagination,
	}, nil
}

// GetProduct retrieves a single product by ID
func (s *Service) GetProduct(id uint) (*Product, error) {
	var product Product
	result := s.db.
		Preload("Category").
		Preload("Brand").
		Where("id = ?", id).
		First(&product)

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to retrieve product: %w", result.Error)
	}

	return &product, nil
}

// ListFeatured returns products flagged as on offer, capped at limit
func (s *Service) ListFeatured(limit int) ([]Product, error) {
	var products []Product
	err := s.db.
		Preload("Category").
		Preload("Brand").
		Where("on_offer = ?", true).
		Order("id ASC").
		Limit(limit).
		Find(&products).Error
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve featured products: %w", err)
	}
	return products, nil
}

// ListCategories returns all categories
func (s *Service) ListCategories() ([]Category, error) {
	var categories []Category
	if err := s.db.Order("name ASC").Find(&categories).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve categories: %w", err)
	}
	return categories, nil
}

// ListBrands returns all brands
func (s *Service) ListBrands() ([]Brand, error) {
	var brands []Brand
	if err := s.db.Order("name ASC").Find(&brands).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve brands: %w", err)
	}
	return brands, nil
}

// CreateProduct creates a new product
func (s *Service) CreateProduct(req *ProductCreateRequest) (*Product, error) {
	if req.Price.IsNegative() {
		return nil, fmt.Errorf("price cannot be negative")
	}
	if req.Stock < 0 {
		return nil, fmt.Errorf("stock cannot be negative")
	}

	product := Product{
		Name:        req.Name,
		Description: req.Description,
		Specs:       req.Specs,
		Price:       req.Price,
		Stock:       req.Stock,
		ImageURL:    req.ImageURL,
		CategoryID:  req.CategoryID,
		BrandID:     req.BrandID,
		OnOffer:     req.OnOffer,
	}

	if err := s.db.Create(&product).Error; err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	s.db.Preload("Category").Preload("Brand").First(&product, product.ID)

	return &product, nil
}

// UpdateProduct updates an existing product
func (s *Service) UpdateProduct(id uint, req *ProductUpdateRequest) (*Product, error) {
	var product Product
	result := s.db.Where("id = ?", id).First(&product)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to find product: %w", result.Error)
	}

	updates := make(map[string]interface{})

	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Specs != nil {
		updates["specs"] = *req.Specs
	}
	if req.Price != nil {
		if req.Price.IsNegative() {
			return nil, fmt.Errorf("price cannot be negative")
		}
		updates["price"] = *req.Price
	}
	if req.Stock != nil {
		if *req.Stock < 0 {
			return nil, fmt.Errorf("stock cannot be negative")
		}
		updates["stock"] = *req.Stock
	}
	if req.ImageURL != nil {
		updates["image_url"] = *req.ImageURL
	}
	if req.CategoryID != nil {
		updates["category_id"] = *req.CategoryID
	}
	if req.BrandID != nil {
		updates["brand_id"] = *req.BrandID
	}
	if req.OnOffer != nil {
		updates["on_offer"] = *req.OnOffer
	}

	if err := s.db.Model(&product).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to update product: %w", err)
	}

	s.db.Preload("Category").Preload("Brand").First(&product, product.ID)

	return &product, nil
}

// DeleteProduct soft deletes a product. Historical order lines are immune:
// they snapshot name and price at checkout time.
func (s *Service) DeleteProduct(id uint) error {
	result := s.db.Where("id = ?", id).Delete(&Product{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete product: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrProductNotFound
	}
	return nil
}

// SetStock sets the absolute stock level for a product
func (s *Service) SetStock(productID uint, stock int) error {
	if stock < 0 {
		return fmt.Errorf("stock cannot be negative")
	}

	result := s.db.Model(&Product{}).
		Where("id = ?", productID).
		Update("stock", stock)

	if result.Error != nil {
		return fmt.Errorf("failed to update stock: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrProductNotFound
	}
	return nil
}
