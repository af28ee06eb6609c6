package handler

import (
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/credentia/degreechain/internal/auth"
	"github.com/credentia/degreechain/internal/degree"
	"github.com/credentia/degreechain/internal/ledger"
	"github.com/credentia/degreechain/internal/qr"
	"github.com/credentia/degreechain/internal/verifier"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// DegreeHandler handles HTTP requests for degree submission, lookup, and
// verification.
type DegreeHandler struct {
	svc    *degree.Service
	tokens *auth.TokenIssuer // nil = open mode, no authority auth enforced
	logger *zap.Logger
}

// NewDegreeHandler creates a DegreeHandler. tokens may be nil to disable
// authority auth on the verify route.
func NewDegreeHandler(svc *degree.Service, tokens *auth.TokenIssuer, logger *zap.Logger) *DegreeHandler {
	return &DegreeHandler{svc: svc, tokens: tokens, logger: logger}
}

// Register mounts the degree routes on the given router group.
func (h *DegreeHandler) Register(rg *gin.RouterGroup) {
	d := rg.Group("/degrees")
	{
		d.POST("", h.SubmitDegree)
		d.GET("/:id", h.GetDegree)
		d.GET("/:id/qr", h.GetQR)
		d.GET("/:id/document", h.GetDocument)
		d.POST("/:id/check", h.CheckDocument)
		d.POST("/:id/verify", auth.RequireAuthority(h.tokens), h.VerifyDegree)
	}
}

// SubmitDegree handles POST /degrees: a multipart form carrying the
// issuance fields and the degree document (PDF or image).
func (h *DegreeHandler) SubmitDegree(c *gin.Context) {
	fileHeader, err := c.FormFile("document")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "degree document file is required"})
		return
	}
	f, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot open uploaded document"})
		return
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot read uploaded document"})
		return
	}

	req := degree.SubmitRequest{
		StudentName:   strings.TrimSpace(c.PostForm("student_name")),
		DegreeTitle:   strings.TrimSpace(c.PostForm("degree_title")),
		Institution:   strings.TrimSpace(c.PostForm("institution")),
		IssueDate:     strings.TrimSpace(c.PostForm("issue_date")),
		Document:      data,
		FileExtension: strings.ToLower(strings.TrimPrefix(filepath.Ext(fileHeader.Filename), ".")),
	}

	rec, err := h.svc.Submit(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, ledger.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.logger.Error("submit degree", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to record degree"})
		return
	}

	RecordSubmission()
	c.JSON(http.StatusCreated, rec)
}

// GetDegree handles GET /degrees/:id.
func (h *DegreeHandler) GetDegree(c *gin.Context) {
	rec, err := h.svc.Lookup(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "degree not found"})
		return
	}
	c.JSON(http.StatusOK, rec)
}

// verifyRequest is the body of POST /degrees/:id/verify.
type verifyRequest struct {
	Decision string `json:"decision" binding:"required"`
	Verifier string `json:"verifier" binding:"required"`
}

// VerifyDegree handles POST /degrees/:id/verify: an authority approves or
// rejects a record. A later call overwrites an earlier outcome.
func (h *DegreeHandler) VerifyDegree(c *gin.Context) {
	var req verifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "decision and verifier are required"})
		return
	}

	// When auth is enforced, the token must belong to the acting authority.
	if claims := auth.ClaimsFrom(c); claims != nil && claims.AuthorityCode != req.Verifier {
		c.JSON(http.StatusForbidden, gin.H{"error": "token does not belong to this authority"})
		return
	}

	var decision degree.Decision
	switch strings.ToLower(req.Decision) {
	case "approve":
		decision = degree.DecisionApprove
	case "reject":
		decision = degree.DecisionReject
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "decision must be Approve or Reject"})
		return
	}

	rec, err := h.svc.Verify(c.Request.Context(), c.Param("id"), decision, req.Verifier)
	switch {
	case errors.Is(err, verifier.ErrUnknownVerifier):
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown verifier code"})
		return
	case errors.Is(err, ledger.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "degree not found"})
		return
	case err != nil:
		h.logger.Error("verify degree", zap.String("degree_id", c.Param("id")), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "verification failed"})
		return
	}

	RecordVerification(string(rec.Status))
	c.JSON(http.StatusOK, rec)
}

// CheckDocument handles POST /degrees/:id/check: the employer flow:
// upload a document and compare its digest with the one on the ledger.
func (h *DegreeHandler) CheckDocument(c *gin.Context) {
	fileHeader, err := c.FormFile("document")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "document file is required"})
		return
	}
	f, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot open uploaded document"})
		return
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot read uploaded document"})
		return
	}

	id := c.Param("id")
	match, err := h.svc.MatchDocument(c.Request.Context(), id, data)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "degree not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"degree_id": id, "match": match})
}

// GetDocument handles GET /degrees/:id/document: serves the cached
// original document bytes.
func (h *DegreeHandler) GetDocument(c *gin.Context) {
	d, err := h.svc.Document(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "document not available"})
		return
	}
	c.Data(http.StatusOK, contentTypeFor(d.FileExtension), d.DocumentData)
}

// GetQR handles GET /degrees/:id/qr: a PNG QR code reflecting the
// record's current verification state.
func (h *DegreeHandler) GetQR(c *gin.Context) {
	rec, err := h.svc.Lookup(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "degree not found"})
		return
	}
	png, err := qr.ForRecord(rec)
	if err != nil {
		h.logger.Error("render qr", zap.String("degree_id", rec.ID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to render qr code"})
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}

func contentTypeFor(ext string) string {
	switch ext {
	case "png":
		return "image/png"
	case "jpg", "jpeg":
		return "image/jpeg"
	case "pdf":
		return "application/pdf"
	default:
		return "application/octet-stream"
	}
}
