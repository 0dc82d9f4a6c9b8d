package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/renatond/dbi-replenishment/internal/suppliers"
)

type SupplierHandler struct {
	store *suppliers.Store
}

func NewSupplierHandler(store *suppliers.Store) *SupplierHandler {
	return &SupplierHandler{store: store}
}

// ListExcluded returns the current exclusion list.
func (h *SupplierHandler) ListExcluded(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"suppliers": h.store.List(),
		"count":     h.store.Len(),
	})
}

type supplierRequest struct {
	Name string `json:"name" binding:"required"`
}

// AddExcluded puts a supplier on the exclusion list.
func (h *SupplierHandler) AddExcluded(c *gin.Context) {
	var req supplierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}
	if err := h.store.Add(req.Name); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"suppliers": h.store.List()})
}

// RemoveExcluded takes a supplier off the exclusion list.
func (h *SupplierHandler) RemoveExcluded(c *gin.Context) {
	name := c.Param("name")
	removed, err := h.store.Remove(name)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if !removed {
		c.JSON(http.StatusNotFound, gin.H{"error": "supplier not on exclusion list"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"suppliers": h.store.List()})
}

type replaceSuppliersRequest struct {
	Suppliers []string `json:"suppliers"`
}

// ReplaceExcluded swaps the whole exclusion list.
func (h *SupplierHandler) ReplaceExcluded(c *gin.Context) {
	var req replaceSuppliersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := h.store.Replace(req.Suppliers); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"suppliers": h.store.List()})
}
