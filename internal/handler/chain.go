package handler

import (
	"net/http"
	"strconv"

	"github.com/credentia/degreechain/internal/ledger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ChainHandler exposes read-only HTTP endpoints over the degree ledger.
type ChainHandler struct {
	chain  *ledger.Chain
	logger *zap.Logger
}

// NewChainHandler creates a ChainHandler.
func NewChainHandler(chain *ledger.Chain, logger *zap.Logger) *ChainHandler {
	return &ChainHandler{chain: chain, logger: logger}
}

// Register mounts the chain routes on the given router group.
func (h *ChainHandler) Register(rg *gin.RouterGroup) {
	ch := rg.Group("/chain")
	{
		ch.GET("", h.Overview)
		ch.GET("/blocks", h.ListBlocks)
		ch.GET("/blocks/:idx", h.GetBlock)
		ch.GET("/audit", h.Audit)
	}
}

// Overview handles GET /chain: block count, pending count, and the tip hash.
func (h *ChainHandler) Overview(c *gin.Context) {
	tip, err := h.chain.Latest()
	if err != nil {
		h.logger.Error("chain tip", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read chain"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"blocks":  h.chain.Len(),
		"pending": h.chain.PendingCount(),
		"tip":     tip.Hash,
	})
}

// ListBlocks handles GET /chain/blocks: the full ordered block sequence.
func (h *ChainHandler) ListBlocks(c *gin.Context) {
	c.JSON(http.StatusOK, h.chain.Blocks())
}

// GetBlock handles GET /chain/blocks/:idx: a single block by its 1-based index.
func (h *ChainHandler) GetBlock(c *gin.Context) {
	idx, err := strconv.Atoi(c.Param("idx"))
	if err != nil || idx < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "idx must be a positive integer"})
		return
	}

	blocks := h.chain.Blocks()
	if idx > len(blocks) {
		c.JSON(http.StatusNotFound, gin.H{"error": "block not found"})
		return
	}
	c.JSON(http.StatusOK, blocks[idx-1])
}

// Audit handles GET /chain/audit: recomputes every hash and reports
// integrity issues. Post-seal verifications show up here as stale hashes.
func (h *ChainHandler) Audit(c *gin.Context) {
	issues := h.chain.Audit()
	if len(issues) > 0 {
		h.logger.Warn("chain audit found issues", zap.Int("count", len(issues)))
	}
	c.JSON(http.StatusOK, gin.H{
		"intact": len(issues) == 0,
		"issues": issues,
	})
}
