package classifier

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

type errorBody struct {
	Error         json.RawMessage `json:"error"`
	EstimatedTime float64         `json:"estimated_time"`
}

// parseResponse turns a provider response into ranked predictions or an error.
func parseResponse(status int, body []byte) ([]Prediction, error) {
	trimmed := bytes.TrimSpace(body)

	if status >= 200 && status < 300 && len(trimmed) > 0 && trimmed[0] == '[' {
		preds, err := decodePredictions(trimmed)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
		}
		sort.SliceStable(preds, func(i, j int) bool { return preds[i].Score > preds[j].Score })
		return preds, nil
	}

	var eb errorBody
	if len(trimmed) > 0 && trimmed[0] == '{' && json.Unmarshal(trimmed, &eb) == nil {
		if msg := errorMessage(eb.Error); msg != "" {
			return nil, &APIError{StatusCode: status, Message: msg, EstimatedTime: eb.EstimatedTime}
		}
	}

	if status < 200 || status >= 300 {
		msg := strings.TrimSpace(string(trimmed))
		if msg == "" || len(msg) > 200 {
			msg = http.StatusText(status)
		}
		return nil, &APIError{StatusCode: status, Message: msg}
	}
	return nil, fmt.Errorf("%w: expected a label array", ErrMalformedResponse)
}

// decodePredictions accepts a flat label array, or the nested [[...]] form
// some pipelines return for a single input.
func decodePredictions(raw []byte) ([]Prediction, error) {
	var flat []Prediction
	if err := json.Unmarshal(raw, &flat); err == nil {
		return validPredictions(flat), nil
	}
	var nested [][]Prediction
	if err := json.Unmarshal(raw, &nested); err != nil {
		return nil, err
	}
	if len(nested) == 0 {
		return []Prediction{}, nil
	}
	return validPredictions(nested[0]), nil
}

func validPredictions(in []Prediction) []Prediction {
	out := make([]Prediction, 0, len(in))
	for _, p := range in {
		if p.Label == "" || p.Score < 0 || p.Score > 1 {
			continue
		}
		out = append(out, p)
	}
	return out
}

// errorMessage reads the "error" field, which is a string or a list of strings.
func errorMessage(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return s
	}
	var list []string
	if json.Unmarshal(raw, &list) == nil {
		return strings.Join(list, "; ")
	}
	return string(raw)
}
