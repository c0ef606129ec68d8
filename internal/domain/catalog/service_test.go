package catalog

import (
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mybai/storefront-backend/internal/config"
)

func newTestService(t *testing.T) *Service {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(&Category{}, &Brand{}, &Product{}))

	cfg := &config.Config{}
	cfg.Store.PageSize = 8
	return NewService(db, cfg)
}

func seedCatalog(t *testing.T, svc *Service) (Category, Category, Brand, Brand) {
	t.Helper()

	computadores := Category{Name: "Computadores"}
	celulares := Category{Name: "Celulares"}
	asus := Brand{Name: "Asus"}
	samsung := Brand{Name: "Samsung"}
	require.NoError(t, svc.db.Create(&computadores).Error)
	require.NoError(t, svc.db.Create(&celulares).Error)
	require.NoError(t, svc.db.Create(&asus).Error)
	require.NoError(t, svc.db.Create(&samsung).Error)

	products := []Product{
		{Name: "Vivobook", Price: decimal.NewFromInt(2450000), Stock: 5, CategoryID: computadores.ID, BrandID: asus.ID},
		{Name: "Zenbook", Price: decimal.NewFromInt(4200000), Stock: 2, CategoryID: computadores.ID, BrandID: asus.ID, OnOffer: true},
		{Name: "Galaxy A55", Price: decimal.NewFromInt(1680000), Stock: 9, CategoryID: celulares.ID, BrandID: samsung.ID, OnOffer: true},
	}
	for i := range products {
		require.NoError(t, svc.db.Create(&products[i]).Error)
	}

	return computadores, celulares, asus, samsung
}

func TestParseSortOption(t *testing.T) {
	assert.Equal(t, SortPriceAsc, ParseSortOption("precio_asc"))
	assert.Equal(t, SortPriceDesc, ParseSortOption("precio_desc"))
	assert.Equal(t, SortDefault, ParseSortOption(""))
	assert.Equal(t, SortDefault, ParseSortOption("precio_asc; DROP TABLE products"))
	assert.Equal(t, SortDefault, ParseSortOption("nombre"))
}

func TestListProductsFilters(t *testing.T) {
	svc := newTestService(t)
	computadores, _, _, samsung := seedCatalog(t, svc)

	byCategory, err := svc.ListProducts(&ProductListRequest{CategoryID: computadores.ID})
	require.NoError(t, err)
	assert.Len(t, byCategory.Products, 2)

	byBrand, err := svc.ListProducts(&ProductListRequest{BrandID: samsung.ID})
	require.NoError(t, err)
	require.Len(t, byBrand.Products, 1)
	assert.Equal(t, "Galaxy A55", byBrand.Products[0].Name)

	onOffer := true
	byOffer, err := svc.ListProducts(&ProductListRequest{OnOffer: &onOffer})
	require.NoError(t, err)
	assert.Len(t, byOffer.Products, 2)
}

func TestListProductsSorting(t *testing.T) {
	svc := newTestService(t)
	seedCatalog(t, svc)

	asc, err := svc.ListProducts(&ProductListRequest{Sort: SortPriceAsc})
	require.NoError(t, err)
	require.Len(t, asc.Products, 3)
	assert.Equal(t, "Galaxy A55", asc.Products[0].Name)
	assert.Equal(t, "Zenbook", asc.Products[2].Name)

	desc, err := svc.ListProducts(&ProductListRequest{Sort: SortPriceDesc})
	require.NoError(t, err)
	assert.Equal(t, "Zenbook", desc.Products[0].Name)
}

func TestListProductsPagination(t *testing.T) {
	svc := newTestService(t)
	seedCatalog(t, svc)

	page1, err := svc.ListProducts(&ProductListRequest{Page: 1, Limit: 2})
	require.NoError(t, err)
	assert.Len(t, page1.Products, 2)
	assert.EqualValues(t, 3, page1.Pagination.Total)
	assert.Equal(t, 2, page1.Pagination.TotalPages)
	assert.True(t, page1.Pagination.HasNext)
	assert.False(t, page1.Pagination.HasPrev)

	page2, err := svc.ListProducts(&ProductListRequest{Page: 2, Limit: 2})
	require.NoError(t, err)
	assert.Len(t, page2.Products, 1)
	assert.False(t, page2.Pagination.HasNext)
	assert.True(t, page2.Pagination.HasPrev)
}

func TestListProductsDefaultsPageSize(t *testing.T) {
	svc := newTestService(t)
	seedCatalog(t, svc)

	response, err := svc.ListProducts(&ProductListRequest{})
	require.NoError(t, err)
	assert.Equal(t, 8, response.Pagination.Limit)
	assert.Equal(t, 1, response.Pagination.Page)
}

func TestListFeaturedCapped(t *testing.T) {
	svc := newTestService(t)
	seedCatalog(t, svc)

	featured, err := svc.ListFeatured(1)
	require.NoError(t, err)
	require.Len(t, featured, 1)
	assert.True(t, featured[0].OnOffer)
}

func TestGetProductNotFound(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.GetProduct(404)
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestCreateAndUpdateProduct(t *testing.T) {
	svc := newTestService(t)
	computadores, _, asus, _ := seedCatalog(t, svc)

	created, err := svc.CreateProduct(&ProductCreateRequest{
		Name:       "ROG Ally",
		Price:      decimal.NewFromInt(3100000),
		Stock:      4,
		CategoryID: computadores.ID,
		BrandID:    asus.ID,
	})
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.Equal(t, "Computadores", created.Category.Name)

	newPrice := decimal.NewFromInt(2900000)
	updated, err := svc.UpdateProduct(created.ID, &ProductUpdateRequest{Price: &newPrice})
	require.NoError(t, err)
	assert.True(t, updated.Price.Equal(newPrice))
	assert.Equal(t, "ROG Ally", updated.Name)
}

func TestUpdateProductRejectsNegativeValues(t *testing.T) {
	svc := newTestService(t)
	computadores, _, asus, _ := seedCatalog(t, svc)

	created, err := svc.CreateProduct(&ProductCreateRequest{
		Name:       "ROG Ally",
		Price:      decimal.NewFromInt(3100000),
		CategoryID: computadores.ID,
		BrandID:    asus.ID,
	})
	require.NoError(t, err)

	negativePrice := decimal.NewFromInt(-1)
	_, err = svc.UpdateProduct(created.ID, &ProductUpdateRequest{Price: &negativePrice})
	assert.Error(t, err)

	negativeStock := -3
	_, err = svc.UpdateProduct(created.ID, &ProductUpdateRequest{Stock: &negativeStock})
	assert.Error(t, err)
}

func TestDeleteProductIsSoft(t *testing.T) {
	svc := newTestService(t)
	computadores, _, asus, _ := seedCatalog(t, svc)

	created, err := svc.CreateProduct(&ProductCreateRequest{
		Name:       "ROG Ally",
		Price:      decimal.NewFromInt(3100000),
		CategoryID: computadores.ID,
		BrandID:    asus.ID,
	})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteProduct(created.ID))

	_, err = svc.GetProduct(created.ID)
	assert.ErrorIs(t, err, ErrProductNotFound)

	// The row is retained for historical reference
	var raw Product
	require.NoError(t, svc.db.Unscoped().First(&raw, created.ID).Error)
	assert.True(t, raw.DeletedAt.Valid)

	assert.ErrorIs(t, svc.DeleteProduct(created.ID), ErrProductNotFound)
}

func TestSetStock(t *testing.T) {
	svc := newTestService(t)
	computadores, _, asus, _ := seedCatalog(t, svc)

	created, err := svc.CreateProduct(&ProductCreateRequest{
		Name:       "ROG Ally",
		Price:      decimal.NewFromInt(3100000),
		CategoryID: computadores.ID,
		BrandID:    asus.ID,
	})
	require.NoError(t, err)

	require.NoError(t, svc.SetStock(created.ID, 12))

	reloaded, err := svc.GetProduct(created.ID)
	require.NoError(t, err)
	assert.Equal(t, 12, reloaded.Stock)

	assert.Error(t, svc.SetStock(created.ID, -1))
	assert.ErrorIs(t, svc.SetStock(9999, 5), ErrProductNotFound)
}
