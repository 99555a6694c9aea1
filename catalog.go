package main

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// CatalogItem is the wire shape of a catalog entry.
type CatalogItem struct {
	ID    uint    `json:"id"`
	Brand string  `json:"brand"`
	Model string  `json:"model"`
	Price float64 `json:"price"`
}

// Catalog is the external catalog storage collaborator. This service only
// gates access to it; persistence lives elsewhere and is plugged in at boot.
type Catalog interface {
	List(ctx context.Context) ([]CatalogItem, error)
	Get(ctx context.Context, id uint) (*CatalogItem, error)
	Create(ctx context.Context, item *CatalogItem) error
	Update(ctx context.Context, item *CatalogItem) error
	Delete(ctx context.Context, id uint) error
}

// registerCatalogRoutes mounts thin pass-through handlers over a Catalog.
// Role enforcement comes entirely from the policy middleware; the handlers
// assume the request was already allowed through.
func registerCatalogRoutes(r *gin.Engine, cat Catalog) {
	g := r.Group("/api/laptops")
	g.GET("", func(c *gin.Context) {
		items, err := cat.List(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
			return
		}
		c.JSON(http.StatusOK, items)
	})
	g.GET("/:id", func(c *gin.Context) {
		id, err := strconv.ParseUint(c.Param("id"), 10, 32)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
			return
		}
		item, err := cat.Get(c.Request.Context(), uint(id))
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		c.JSON(http.StatusOK, item)
	})
	g.POST("", func(c *gin.Context) {
		var item CatalogItem
		if err := c.ShouldBindJSON(&item); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if err := cat.Create(c.Request.Context(), &item); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "create failed"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": item.ID})
	})
	g.PUT("/:id", func(c *gin.Context) {
		id, err := strconv.ParseUint(c.Param("id"), 10, 32)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
			return
		}
		var item CatalogItem
		if err := c.ShouldBindJSON(&item); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		item.ID = uint(id)
		if err := cat.Update(c.Request.Context(), &item); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": item.ID})
	})
	g.DELETE("/:id", func(c *gin.Context) {
		id, err := strconv.ParseUint(c.Param("id"), 10, 32)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
			return
		}
		if err := cat.Delete(c.Request.Context(), uint(id)); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "delete failed"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "deleted"})
	})
}
