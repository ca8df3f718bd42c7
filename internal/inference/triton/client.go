// Package triton scores texts with sequence-classification models served
// by a Triton (KServe v2) inference server.
package triton

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/nguyentantai21042004/recall-scorer/internal/config"
)

// Tensor is a KServe v2 input or output tensor.
type Tensor struct {
	Name     string      `json:"name"`
	Shape    []int       `json:"shape"`
	DataType string      `json:"datatype"`
	Data     interface{} `json:"data,omitempty"`
}

type inferRequest struct {
	Inputs  []Tensor       `json:"inputs"`
	Outputs []outputSelect `json:"outputs,omitempty"`
}

type outputSelect struct {
	Name string `json:"name"`
}

type inferResponse struct {
	ModelName    string   `json:"model_name"`
	ModelVersion string   `json:"model_version"`
	Outputs      []Output `json:"outputs"`
}

// Output is a KServe v2 output tensor.
type Output struct {
	Name     string    `json:"name"`
	Shape    []int     `json:"shape"`
	DataType string    `json:"datatype"`
	Data     []float64 `json:"data"`
}

type loadRequest struct {
	Parameters map[string]string `json:"parameters,omitempty"`
}

// Client talks to the Triton HTTP endpoint.
type Client struct {
	cfg  config.TritonConfig
	http *http.Client
}

// NewClient creates a Client from config.
func NewClient(cfg config.TritonConfig) *Client {
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
	}
}

// Ready reports whether the server accepts requests.
func (c *Client) Ready(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/v2/health/ready", nil, nil)
}

// LoadModel asks the server to load model onto device.
func (c *Client) LoadModel(ctx context.Context, model, device string) error {
	kind := "KIND_CPU"
	if device == config.DeviceCUDA {
		kind = "KIND_GPU"
	}
	body := loadRequest{Parameters: map[string]string{
		"config": fmt.Sprintf(`{"instance_group":[{"kind":%q}]}`, kind),
	}}
	if err := c.do(ctx, http.MethodPost, "/v2/repository/models/"+model+"/load", body, nil); err != nil {
		return fmt.Errorf("load model %s: %w", model, err)
	}
	return nil
}

// UnloadModel releases model on the server.
func (c *Client) UnloadModel(ctx context.Context, model string) error {
	if err := c.do(ctx, http.MethodPost, "/v2/repository/models/"+model+"/unload", struct{}{}, nil); err != nil {
		return fmt.Errorf("unload model %s: %w", model, err)
	}
	return nil
}

// Infer runs model on inputs and returns the requested output tensor.
func (c *Client) Infer(ctx context.Context, model string, inputs []Tensor, output string) (*Output, error) {
	req := inferRequest{Inputs: inputs, Outputs: []outputSelect{{Name: output}}}

	var resp inferResponse
	if err := c.do(ctx, http.MethodPost, "/v2/models/"+model+"/infer", req, &resp); err != nil {
		return nil, fmt.Errorf("infer %s: %w", model, err)
	}
	for i := range resp.Outputs {
		if resp.Outputs[i].Name == output {
			return &resp.Outputs[i], nil
		}
	}
	return nil, fmt.Errorf("infer %s: output %q missing from response", model, output)
}

func (c *Client) do(ctx context.Context, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	// Cloudflare Access headers when the server sits behind a tunnel
	if c.cfg.CFAccessClientID != "" && c.cfg.CFAccessSecret != "" {
		req.Header.Set("CF-Access-Client-Id", c.cfg.CFAccessClientID)
		req.Header.Set("CF-Access-Client-Secret", c.cfg.CFAccessSecret)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("triton error %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
