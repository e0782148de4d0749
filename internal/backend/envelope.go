package backend

import (
	"bytes"
	"encoding/json"
)

type envelope struct {
	payload json.RawMessage
	message string
}

// parseEnvelope терпимо разбирает ответ: {"data":{"body":...}}, {"body":...}, {"data":...} или голое значение.
func parseEnvelope(raw []byte) envelope {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return envelope{}
	}
	if trimmed[0] != '{' {
		return envelope{payload: trimmed}
	}

	var outer struct {
		Data    json.RawMessage `json:"data"`
		Body    json.RawMessage `json:"body"`
		Message string          `json:"message"`
	}
	if err := json.Unmarshal(trimmed, &outer); err != nil {
		return envelope{payload: trimmed}
	}

	switch {
	case len(outer.Body) > 0:
		return envelope{payload: outer.Body, message: outer.Message}
	case len(outer.Data) > 0:
		inner := parseEnvelope(outer.Data)
		if inner.message == "" {
			inner.message = outer.Message
		}
		return inner
	}
	return envelope{payload: trimmed, message: outer.Message}
}
