// Package client is the Go SDK for the degreechain ledger service: submit
// degree records, look them up, apply verification decisions, and inspect
// the chain over the HTTP API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
)

// ErrNotFound is returned when the service reports no record for an ID.
var ErrNotFound = errors.New("degree not found")

// DegreeRecord mirrors the record JSON returned by the service.
type DegreeRecord struct {
	ID               string     `json:"degree_id"`
	StudentName      string     `json:"student_name"`
	DegreeTitle      string     `json:"degree_title"`
	Institution      string     `json:"institution"`
	IssueDate        string     `json:"issue_date"`
	DocumentHash     string     `json:"document_hash"`
	Status           string     `json:"status"`
	VerifiedBy       string     `json:"verified_by,omitempty"`
	VerificationDate *time.Time `json:"verification_date,omitempty"`
}

// Block mirrors one sealed ledger block.
type Block struct {
	Index        int            `json:"index"`
	Timestamp    time.Time      `json:"timestamp"`
	Records      []DegreeRecord `json:"degrees"`
	PreviousHash string         `json:"previous_hash"`
	Hash         string         `json:"hash"`
}

// ChainOverview is the response of GET /api/v1/chain.
type ChainOverview struct {
	Blocks  int    `json:"blocks"`
	Pending int    `json:"pending"`
	Tip     string `json:"tip"`
}

// AuditIssue is one integrity violation reported by Audit.
type AuditIssue struct {
	Index  int    `json:"index"`
	Reason string `json:"reason"`
}

// AuditResult is the response of GET /api/v1/chain/audit.
type AuditResult struct {
	Intact bool         `json:"intact"`
	Issues []AuditIssue `json:"issues"`
}

// SubmitRequest is the payload for Submit.
type SubmitRequest struct {
	StudentName string
	DegreeTitle string
	Institution string
	IssueDate   string // YYYY-MM-DD
	Document    []byte
	Filename    string
}

// Client talks to a degreechain service.
type Client struct {
	base        string
	httpClient  *http.Client
	bearerToken string
}

// Option is a functional option for configuring a Client.
type Option func(*Client)

// WithHTTPClient sets a custom http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithToken sets an authority bearer token used on verify calls.
func WithToken(token string) Option {
	return func(c *Client) { c.bearerToken = token }
}

// New creates a Client for the service at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		base:       strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Submit uploads a degree record with its document and returns the sealed
// record, including the derived degree ID.
func (c *Client) Submit(ctx context.Context, req SubmitRequest) (*DegreeRecord, error) {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	fields := map[string]string{
		"student_name": req.StudentName,
		"degree_title": req.DegreeTitle,
		"institution":  req.Institution,
		"issue_date":   req.IssueDate,
	}
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			return nil, fmt.Errorf("write form field %s: %w", k, err)
		}
	}
	filename := req.Filename
	if filename == "" {
		filename = "degree.pdf"
	}
	fw, err := w.CreateFormFile("document", filename)
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := fw.Write(req.Document); err != nil {
		return nil, fmt.Errorf("write document: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("finalise form: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/api/v1/degrees", &body)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", w.FormDataContentType())

	rec := &DegreeRecord{}
	if err := c.do(httpReq, http.StatusCreated, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// Lookup fetches a degree record by ID.
func (c *Client) Lookup(ctx context.Context, id string) (*DegreeRecord, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/api/v1/degrees/"+id, nil)
	if err != nil {
		return nil, err
	}
	rec := &DegreeRecord{}
	if err := c.do(httpReq, http.StatusOK, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// Verify applies an authority decision ("Approve" or "Reject") to a record.
func (c *Client) Verify(ctx context.Context, id, decision, verifierCode string) (*DegreeRecord, error) {
	payload, err := json.Marshal(map[string]string{
		"decision": decision,
		"verifier": verifierCode,
	})
	if err != nil {
		return nil, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.base+"/api/v1/degrees/"+id+"/verify", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	rec := &DegreeRecord{}
	if err := c.do(httpReq, http.StatusOK, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// Login exchanges authority credentials for a bearer token and stores it
// on the client for subsequent Verify calls.
func (c *Client) Login(ctx context.Context, verifierCode, password string) error {
	payload, err := json.Marshal(map[string]string{
		"verifier": verifierCode,
		"password": password,
	})
	if err != nil {
		return err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.base+"/api/v1/auth/login", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	var resp struct {
		Token string `json:"token"`
	}
	if err := c.do(httpReq, http.StatusOK, &resp); err != nil {
		return err
	}
	c.bearerToken = resp.Token
	return nil
}

// Chain fetches the chain overview.
func (c *Client) Chain(ctx context.Context) (*ChainOverview, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/api/v1/chain", nil)
	if err != nil {
		return nil, err
	}
	ov := &ChainOverview{}
	if err := c.do(httpReq, http.StatusOK, ov); err != nil {
		return nil, err
	}
	return ov, nil
}

// Blocks fetches the full block sequence.
func (c *Client) Blocks(ctx context.Context) ([]Block, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/api/v1/chain/blocks", nil)
	if err != nil {
		return nil, err
	}
	var blocks []Block
	if err := c.do(httpReq, http.StatusOK, &blocks); err != nil {
		return nil, err
	}
	return blocks, nil
}

// Audit runs the server-side chain audit.
func (c *Client) Audit(ctx context.Context) (*AuditResult, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/api/v1/chain/audit", nil)
	if err != nil {
		return nil, err
	}
	res := &AuditResult{}
	if err := c.do(httpReq, http.StatusOK, res); err != nil {
		return nil, err
	}
	return res, nil
}

func (c *Client) do(req *http.Request, wantStatus int, out any) error {
	if c.bearerToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.bearerToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("call %s: %w", req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode != wantStatus {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("%s: %s (status %d)", req.URL.Path, apiErr.Error, resp.StatusCode)
		}
		return fmt.Errorf("%s: unexpected status %d", req.URL.Path, resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
