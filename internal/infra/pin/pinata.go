package pin

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"time"

	"github.com/shambhavip19/CyberHope/internal/domain/evidence"
)

const defaultGateway = "https://gateway.pinata.cloud/ipfs/"

// PinataClient pins blobs through a Pinata-compatible HTTP API.
type PinataClient struct {
	baseURL    string
	apiKey     string
	secretKey  string
	gatewayURL string
	httpClient *http.Client
}

type PinataOption func(*PinataClient)

func WithHTTPClient(c *http.Client) PinataOption {
	return func(p *PinataClient) { p.httpClient = c }
}

func WithGateway(gateway string) PinataOption {
	return func(p *PinataClient) { p.gatewayURL = gateway }
}

func NewPinataClient(baseURL, apiKey, secretKey string, timeout time.Duration, opts ...PinataOption) *PinataClient {
	p := &PinataClient{
		baseURL:    baseURL,
		apiKey:     apiKey,
		secretKey:  secretKey,
		gatewayURL: defaultGateway,
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

type pinResponse struct {
	IpfsHash  string `json:"IpfsHash"`
	PinSize   int64  `json:"PinSize"`
	Timestamp string `json:"Timestamp"`
}

type pinListRow struct {
	IpfsPinHash string `json:"ipfs_pin_hash"`
	Size        int64  `json:"size"`
	DatePinned  string `json:"date_pinned"`
	Metadata    struct {
		Name      string          `json:"name"`
		Keyvalues json.RawMessage `json:"keyvalues"`
	} `json:"metadata"`
}

type pinListResponse struct {
	Count int          `json:"count"`
	Rows  []pinListRow `json:"rows"`
}

func (p *PinataClient) PinFile(ctx context.Context, payload []byte, meta Metadata) (string, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", meta.OriginalFileName)
	if err != nil {
		return "", err
	}
	if _, err := part.Write(payload); err != nil {
		return "", err
	}

	pinataMetadata, err := json.Marshal(map[string]any{
		"name":      meta.Name,
		"keyvalues": meta,
	})
	if err != nil {
		return "", err
	}
	if err := writer.WriteField("pinataMetadata", string(pinataMetadata)); err != nil {
		return "", err
	}
	// The original client pins with CID v0.
	if err := writer.WriteField("pinataOptions", `{"cidVersion":0}`); err != nil {
		return "", err
	}
	if err := writer.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/pinning/pinFileToIPFS", &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	p.authorize(req)

	var resp pinResponse
	if err := p.do(req, &resp); err != nil {
		return "", err
	}
	return resp.IpfsHash, nil
}

func (p *PinataClient) PinJSON(ctx context.Context, value any, name string) (string, error) {
	payload, err := json.Marshal(map[string]any{
		"pinataContent":  value,
		"pinataMetadata": map[string]any{"name": name},
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/pinning/pinJSONToIPFS", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	p.authorize(req)

	var resp pinResponse
	if err := p.do(req, &resp); err != nil {
		return "", err
	}
	return resp.IpfsHash, nil
}

func (p *PinataClient) GetMetadata(ctx context.Context, address string) (Entry, error) {
	query := url.Values{}
	query.Set("status", "pinned")
	query.Set("hashContains", address)

	rows, err := p.pinList(ctx, query)
	if err != nil {
		return Entry{}, err
	}
	if len(rows) == 0 {
		return Entry{}, evidence.ErrNotFound
	}
	return rowToEntry(rows[0]), nil
}

func (p *PinataClient) ListByOwner(ctx context.Context, owner string) ([]Entry, error) {
	filter, err := json.Marshal(map[string]any{
		"victimAddress": map[string]string{"value": owner, "op": "eq"},
	})
	if err != nil {
		return nil, err
	}
	query := url.Values{}
	query.Set("status", "pinned")
	query.Set("metadata[keyvalues]", string(filter))

	rows, err := p.pinList(ctx, query)
	if err != nil {
		return nil, err
	}
	entries := make([]Entry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, rowToEntry(row))
	}
	return entries, nil
}

func (p *PinataClient) Unpin(ctx context.Context, address string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, p.baseURL+"/pinning/unpin/"+address, nil)
	if err != nil {
		return err
	}
	p.authorize(req)
	return p.do(req, nil)
}

func (p *PinataClient) GatewayURL(address string) string {
	return p.gatewayURL + address
}

func (p *PinataClient) pinList(ctx context.Context, query url.Values) ([]pinListRow, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/data/pinList?"+query.Encode(), nil)
	if err != nil {
		return nil, err
	}
	p.authorize(req)

	var resp pinListResponse
	if err := p.do(req, &resp); err != nil {
		return nil, err
	}
	return resp.Rows, nil
}

func (p *PinataClient) authorize(req *http.Request) {
	req.Header.Set("pinata_api_key", p.apiKey)
	req.Header.Set("pinata_secret_api_key", p.secretKey)
}

func (p *PinataClient) do(req *http.Request, out any) error {
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", evidence.ErrUpstream, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: %s returned %d: %s", evidence.ErrUpstream, req.URL.Path, resp.StatusCode, snippet)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode response: %v", evidence.ErrUpstream, err)
	}
	return nil
}

func rowToEntry(row pinListRow) Entry {
	entry := Entry{
		ContentAddress: row.IpfsPinHash,
		Size:           row.Size,
		DatePinned:     row.DatePinned,
	}
	if len(row.Metadata.Keyvalues) > 0 {
		_ = json.Unmarshal(row.Metadata.Keyvalues, &entry.Metadata)
	}
	if entry.Metadata.Name == "" {
		entry.Metadata.Name = row.Metadata.Name
	}
	return entry
}
