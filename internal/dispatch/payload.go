package dispatch

import (
	"encoding/base64"
	"errors"
	"fmt"
)

// DefaultFormat is the container format requested when none is given.
const DefaultFormat = "msgpack"

// Request is the payload of an estimate event.
type Request struct {
	SimulationID string
	Script       string
	Format       string
}

func (r Request) payload() map[string]any {
	format := r.Format
	if format == "" {
		format = DefaultFormat
	}
	return map[string]any{
		"simulation_id": r.SimulationID,
		"script":        r.Script,
		"format":        format,
	}
}

// Response is the payload of a result event.
type Response struct {
	SimulationID string
	Format       string
	Container    []byte
}

// decodeResponse reads {simulation_id, format, container}. The container
// arrives as a binary attachment or, from text-only workers, base64.
func decodeResponse(data []any) (*Response, error) {
	if len(data) == 0 {
		return nil, errors.New("empty result event")
	}
	m, ok := data[0].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("unexpected result payload of type %T", data[0])
	}

	resp := &Response{Format: DefaultFormat}
	if v, ok := m["simulation_id"].(string); ok {
		resp.SimulationID = v
	}
	if v, ok := m["format"].(string); ok && v != "" {
		resp.Format = v
	}

	switch c := m["container"].(type) {
	case []byte:
		resp.Container = c
	case string:
		b, err := base64.StdEncoding.DecodeString(c)
		if err != nil {
			return nil, fmt.Errorf("decoding base64 container: %w", err)
		}
		resp.Container = b
	case nil:
		return nil, errors.New("result event carries no container")
	default:
		return nil, fmt.Errorf("unexpected container of type %T", c)
	}
	return resp, nil
}

// decodeWorkerError turns an error event into an error.
func decodeWorkerError(data []any) error {
	if len(data) == 0 {
		return errors.New("worker reported an error")
	}
	switch v := data[0].(type) {
	case string:
		return fmt.Errorf("worker error: %s", v)
	case map[string]any:
		if msg, ok := v["message"].(string); ok {
			return fmt.Errorf("worker error: %s", msg)
		}
	case error:
		return fmt.Errorf("worker error: %w", v)
	}
	return fmt.Errorf("worker error: %v", data[0])
}
