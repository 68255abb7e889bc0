package specs

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"battwatch/internal/models"
)

// HTTPDoer defines http.Client interface subset.
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// APIProbe queries a battery-spec lookup service over HTTP.
type APIProbe struct {
	baseURL string
	client  HTTPDoer
}

type apiResponse struct {
	CapacityMAH int     `json:"capacity_mah"`
	DeviceName  string  `json:"device_name"`
	Confidence  float64 `json:"confidence"`
	Verified    bool    `json:"verified"`
}

// NewAPIProbe builds the probe. A nil client gets a default with timeout.
func NewAPIProbe(baseURL string, client HTTPDoer) *APIProbe {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &APIProbe{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
	}
}

// Name identifies the probe.
func (p *APIProbe) Name() string { return models.SpecSourceAPI }

// Lookup queries the remote service. 404 means no match; other non-200
// statuses and transport failures are errors the resolver falls through.
func (p *APIProbe) Lookup(ctx context.Context, device models.DeviceInfo) (*models.DeviceSpec, error) {
	if p.baseURL == "" {
		return nil, nil
	}

	endpoint := fmt.Sprintf("%s/v1/batteries?model=%s", p.baseURL, url.QueryEscape(device.Model))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("spec api returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	var payload apiResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, err
	}
	if payload.CapacityMAH <= 0 {
		return nil, nil
	}

	confidence := payload.Confidence
	if confidence <= 0 {
		confidence = 0.7
	}
	return &models.DeviceSpec{
		DeviceModel: device.Model,
		CapacityMAH: payload.CapacityMAH,
		Source:      models.SpecSourceAPI,
		Confidence:  confidence,
		DeviceName:  payload.DeviceName,
		Verified:    payload.Verified,
	}, nil
}
