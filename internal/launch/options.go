// Package launch starts and supervises the external inference server. The
// server is an OpenAI-compatible process (vllm serve by default); this
// package builds its argv, streams its output, and waits for readiness.
package launch

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// DefaultBinary is the inference server executable.
const DefaultBinary = "vllm"

// RopeScaling is the positional-embedding scaling override. Emit it only
// when game contexts exceed the model's native window.
type RopeScaling struct {
	Type                          string  `json:"rope_type"`
	Factor                        float64 `json:"factor"`
	OriginalMaxPositionEmbeddings int     `json:"original_max_position_embeddings"`
}

// ServerOptions describes one inference server invocation.
type ServerOptions struct {
	Binary             string
	Model              string
	ReasoningParser    string
	Dtype              string
	Host               string
	Port               int
	TensorParallelSize int
	DataParallelSize   int
	RopeScaling        *RopeScaling
	ServedModelName    string
	ExtraArgs          []string
}

// Args maps the options to the server's argv, omitting unset flags.
func (o ServerOptions) Args() ([]string, error) {
	if o.Model == "" {
		return nil, fmt.Errorf("model is required")
	}
	args := []string{"serve", o.Model}
	if o.ReasoningParser != "" {
		args = append(args, "--reasoning-parser", o.ReasoningParser)
	}
	if o.Dtype != "" {
		args = append(args, "--dtype", o.Dtype)
	}
	if o.Host != "" {
		args = append(args, "--host", o.Host)
	}
	if o.Port != 0 {
		args = append(args, "--port", strconv.Itoa(o.Port))
	}
	if o.TensorParallelSize > 0 {
		args = append(args, "--tensor-parallel-size", strconv.Itoa(o.TensorParallelSize))
	}
	if o.DataParallelSize > 0 {
		args = append(args, "--data-parallel-size", strconv.Itoa(o.DataParallelSize))
	}
	if o.RopeScaling != nil {
		b, err := json.Marshal(o.RopeScaling)
		if err != nil {
			return nil, fmt.Errorf("marshal rope scaling: %w", err)
		}
		args = append(args, "--rope-scaling", string(b))
	}
	if o.ServedModelName != "" {
		args = append(args, "--served-model-name", o.ServedModelName)
	}
	args = append(args, o.ExtraArgs...)
	return args, nil
}

// BaseURL is the API root the launched server will answer on.
func (o ServerOptions) BaseURL() string {
	host := o.Host
	if host == "" || host == "0.0.0.0" {
		host = "127.0.0.1"
	}
	port := o.Port
	if port == 0 {
		port = 8000
	}
	return fmt.Sprintf("http://%s:%d/v1", host, port)
}

func (o ServerOptions) binary() string {
	if o.Binary != "" {
		return o.Binary
	}
	return DefaultBinary
}

// ParseRopeScaling decodes the --rope-scaling JSON flag value. Empty input
// means no override.
func ParseRopeScaling(s string) (*RopeScaling, error) {
	if s == "" {
		return nil, nil
	}
	var rs RopeScaling
	if err := json.Unmarshal([]byte(s), &rs); err != nil {
		return nil, fmt.Errorf("invalid rope-scaling JSON: %w", err)
	}
	if rs.Type == "" {
		return nil, fmt.Errorf("rope-scaling needs a rope_type")
	}
	return &rs, nil
}
