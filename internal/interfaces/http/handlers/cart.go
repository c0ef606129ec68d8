// internal/interfaces/http/handlers/cart.go
package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/mybai/storefront-backend/internal/config"
	"github.com/mybai/storefront-backend/internal/domain/cart"
	"github.com/mybai/storefront-backend/internal/domain/catalog"
	"github.com/mybai/storefront-backend/internal/interfaces/http/middleware"
	"gorm.io/gorm"
)

// CartHandler handles cart endpoints
type CartHandler struct {
	cartService *cart.Service
	config      *config.Config
}

// NewCartHandler creates a new cart handler
func NewCartHandler(db *gorm.DB, cfg *config.Config) *CartHandler {
	return &CartHandler{
		cartService: cart.NewService(db, cfg),
		config:      cfg,
	}
}

// GetCart handles GET /carrito
func (h *CartHandler) GetCart(c *gin.Context) {
	userID, _ := middleware.GetUserIDFromContext(c)

	cartResponse, err := h.cartService.GetCart(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to retrieve cart",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Cart retrieved successfully",
		"data":    cartResponse,
	})
}

// AddToCart handles POST /agregar_al_carrito/:product_id. The storefront
// calls it via AJAX; plain form posts get a redirect back instead of JSON.
func (h *CartHandler) AddToCart(c *gin.Context) {
	userID, _ := middleware.GetUserIDFromContext(c)

	productID, err := strconv.ParseUint(c.Param("product_id"), 10, 32)
	if err != nil {
		h.addToCartError(c, http.StatusBadRequest, "Producto inválido")
		return
	}

	// Malformed quantities fall back to 1, same as an absent field
	quantity := 1
	if raw := c.PostForm("cantidad"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			quantity = parsed
		}
	}

	result, err := h.cartService.AddItem(userID, uint(productID), quantity)
	if err != nil {
		switch {
		case errors.Is(err, catalog.ErrProductNotFound):
			h.addToCartError(c, http.StatusNotFound, "Producto no encontrado")
		case errors.Is(err, cart.ErrProductOutOfStock):
			h.addToCartError(c, http.StatusBadRequest, "Sin stock.")
		default:
			h.addToCartError(c, http.StatusInternalServerError, "Error al añadir producto.")
		}
		return
	}

	cartResponse, err := h.cartService.GetCart(userID)
	if err != nil {
		h.addToCartError(c, http.StatusInternalServerError, "Error al añadir producto.")
		return
	}

	if isAJAX(c) {
		c.JSON(http.StatusOK, gin.H{
			"success":       true,
			"message":       fmt.Sprintf("✓ %s añadido al carrito", result.Item.Product.Name),
			"total_items":   cartResponse.Totals.TotalQuantity,
			"carrito_total": cartResponse.Totals.Total.StringFixed(2),
		})
		return
	}

	c.Redirect(http.StatusSeeOther, redirectTarget(c))
}

// DecrementItem handles POST /carrito/items/:id/disminuir
func (h *CartHandler) DecrementItem(c *gin.Context) {
	userID, _ := middleware.GetUserIDFromContext(c)

	itemID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid item ID",
		})
		return
	}

	if err := h.cartService.DecrementItem(userID, uint(itemID)); err != nil {
		if errors.Is(err, cart.ErrItemNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Item no encontrado",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to update cart item",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Cart item updated successfully",
	})
}

// RemoveItem handles DELETE /carrito/items/:id
func (h *CartHandler) RemoveItem(c *gin.Context) {
	userID, _ := middleware.GetUserIDFromContext(c)

	itemID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid item ID",
		})
		return
	}

	if err := h.cartService.RemoveItem(userID, uint(itemID)); err != nil {
		if errors.Is(err, cart.ErrItemNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Item no encontrado",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to remove cart item",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Cart item removed successfully",
	})
}

// addToCartError answers in JSON for AJAX calls and redirects otherwise
func (h *CartHandler) addToCartError(c *gin.Context, status int, message string) {
	if isAJAX(c) {
		c.JSON(status, gin.H{
			"success": false,
			"message": message,
		})
		return
	}
	c.Redirect(http.StatusSeeOther, redirectTarget(c))
}

// isAJAX reports whether the request came from the storefront's JS
func isAJAX(c *gin.Context) bool {
	return c.GetHeader("X-Requested-With") == "XMLHttpRequest"
}

// redirectTarget picks the post-action destination for non-JS clients
func redirectTarget(c *gin.Context) string {
	if next := c.PostForm("next"); next != "" {
		return next
	}
	if referer := c.GetHeader("Referer"); referer != "" {
		return referer
	}
	return "/api/v1/productos"
}
