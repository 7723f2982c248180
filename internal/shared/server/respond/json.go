package respond

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// JSON writes a JSON response with the given status.
func JSON(c *gin.Context, status int, payload any) {
	c.JSON(status, payload)
}

// OK writes a 200 OK JSON response.
func OK(c *gin.Context, payload any) {
	JSON(c, http.StatusOK, payload)
}

// Created writes a 201 JSON response and points Location at the new resource.
func Created(c *gin.Context, location string, payload any) {
	if location != "" {
		c.Header("Location", location)
	}
	JSON(c, http.StatusCreated, payload)
}

// NoContent finishes the request with 204 and no body.
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
