package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/njchilds90/gotensor"
	"github.com/njchilds90/gotensor/internal/metrics"
)

const maxBodyBytes = 1 << 20 // 1 MiB

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the tools over HTTP",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !cfg.Logging.Development {
			gin.SetMode(gin.ReleaseMode)
		}
		router := newRouter(newToolbox(), metrics.New(), logger.Logger)

		addr := cfg.Server.Addr()
		logger.Info("gotensor MCP server listening", zap.String("addr", addr))

		srv := &http.Server{
			Addr:              addr,
			Handler:           router,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      60 * time.Second,
			IdleTimeout:       60 * time.Second,
		}
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	},
}

// toolHandler serves tool calls and records their metrics.
type toolHandler struct {
	tb      *gotensor.Toolbox
	metrics *metrics.Metrics
	logger  *zap.Logger
}

func newRouter(tb *gotensor.Toolbox, m *metrics.Metrics, logger *zap.Logger) *gin.Engine {
	h := &toolHandler{tb: tb, metrics: m, logger: logger}

	router := gin.New()
	router.Use(gin.Recovery())

	router.POST("/tool", h.Tool)
	router.GET("/schema", h.Schema)
	router.GET("/health", h.Health)
	router.GET("/metrics", gin.WrapH(m.Handler()))
	return router
}

// Tool executes one tool call.
func (h *toolHandler) Tool(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes)

	dec := json.NewDecoder(c.Request.Body)
	dec.DisallowUnknownFields()

	var req gotensor.ToolRequest
	if err := dec.Decode(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if dec.More() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON: trailing data"})
		return
	}

	start := time.Now()
	resp := h.tb.Handle(req)
	elapsed := time.Since(start)

	h.metrics.RecordTool(req.Tool, resp.Error != "", elapsed, termCount(resp))
	h.logger.Debug("tool call",
		zap.String("tool", req.Tool),
		zap.Duration("duration", elapsed),
		zap.Bool("failed", resp.Error != ""))

	c.JSON(http.StatusOK, resp)
}

// Schema returns the tool schema for agent registration.
func (h *toolHandler) Schema(c *gin.Context) {
	c.Data(http.StatusOK, "application/json", []byte(gotensor.MCPToolSpec()))
}

// Health is a liveness check.
func (h *toolHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// termCount returns the number of top-level terms in an expression result.
func termCount(resp gotensor.ToolResponse) int {
	m, ok := resp.Result.(map[string]interface{})
	if !ok {
		return 0
	}
	switch m["type"] {
	case "sum":
		if terms, ok := m["terms"].([]map[string]interface{}); ok {
			return len(terms)
		}
	case nil:
		if terms, ok := m["terms"].([]map[string]interface{}); ok {
			return len(terms)
		}
		return 0
	}
	return 1
}

func prettyJSON(v interface{}) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return "", fmt.Errorf("encode response: %w", err)
	}
	return buf.String(), nil
}
