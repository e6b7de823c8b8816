package geo

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/guwenlab/insight/internal/util"
	"github.com/guwenlab/insight/pkg/logger"

	"github.com/tidwall/gjson"
)

const (
	geocoderPath     = "/ws/geocoder/v1/"
	geocoderMaxTries = 2
)

// TencentClient is a Client backed by the Tencent Location Service WebService
// geocoder. When a SecretKey is configured, requests carry the sig parameter
// computed over the sorted query string.
type TencentClient struct {
	key       string
	secretKey string
	baseURL   string

	httpClient *http.Client
}

// NewTencentClientParams configures a TencentClient. BaseURL is only
// overridden in tests; empty means the production endpoint.
type NewTencentClientParams struct {
	Key       string
	SecretKey string
	BaseURL   string
	Timeout   time.Duration
}

// NewTencentClient creates a geocode client for the Tencent WebService API.
func NewTencentClient(params NewTencentClientParams) *TencentClient {
	baseURL := params.BaseURL
	if baseURL == "" {
		baseURL = "https://apis.map.qq.com"
	}
	timeout := params.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	return &TencentClient{
		key:       params.Key,
		secretKey: params.SecretKey,
		baseURL:   strings.TrimSuffix(baseURL, "/"),

		httpClient: &http.Client{Timeout: timeout},
	}
}

// Geocode resolves a single address. A client without a configured key
// reports absence immediately so the caller's fallback chain still runs in
// unconfigured environments.
func (c *TencentClient) Geocode(ctx context.Context, address string) (float64, float64, bool) {
	address = strings.TrimSpace(address)
	if address == "" || c.key == "" {
		return 0, 0, false
	}

	params := map[string]string{
		"address": address,
		"key":     c.key,
	}
	if c.secretKey != "" {
		params["sig"] = sign(geocoderPath, params, c.secretKey)
	}

	query := url.Values{}
	for k, v := range params {
		query.Set(k, v)
	}

	requestURL := c.baseURL + geocoderPath + "?" + query.Encode()

	body, err := util.RetryWithContext(ctx, geocoderMaxTries, func(ctx context.Context) ([]byte, error) {
		return c.fetch(ctx, requestURL)
	})
	if err != nil {
		logger.Warn("geocode request failed", "address", address, "error", err)
		return 0, 0, false
	}

	payload := gjson.ParseBytes(body)
	if payload.Get("status").Int() != 0 {
		logger.Debug("geocode miss",
			"address", address,
			"status", payload.Get("status").Int(),
			"message", payload.Get("message").String(),
		)
		return 0, 0, false
	}

	location := payload.Get("result.location")
	if !location.Exists() {
		return 0, 0, false
	}

	return location.Get("lat").Float(), location.Get("lng").Float(), true
}

// fetch performs one HTTP round trip. Transport errors and non-200 responses
// are returned as errors so the caller can retry them.
func (c *TencentClient) fetch(ctx context.Context, requestURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geocoder returned status %d", resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}

// sign computes the WebService API signature: MD5 over the request path, the
// parameters sorted by key, and the secret key appended.
func sign(path string, params map[string]string, secretKey string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+params[k])
	}

	sum := md5.Sum([]byte(path + "?" + strings.Join(pairs, "&") + secretKey))
	return hex.EncodeToString(sum[:])
}
