package admin

import (
	"encoding/json"
	"fmt"

	"github.com/AltairaLabs/codegen-suggest/internal/queue"
	"github.com/AltairaLabs/codegen-suggest/internal/suggest"
)

// Queue is the administrative view of the admission queue
type Queue interface {
	Stats() queue.Stats
	Clear() int
}

// ConfigSource reports the suggestion client configuration
type ConfigSource interface {
	Info() suggest.Info
}

// ConfigView is the wire form of the suggestion configuration
type ConfigView struct {
	Configured     bool   `json:"configured"`
	Model          string `json:"model"`
	MaxRetries     int    `json:"maxRetries"`
	TimeoutMS      int64  `json:"timeout"`
	MaxInputLength int    `json:"maxInputLength"`
}

func configView(info suggest.Info) ConfigView {
	return ConfigView{
		Configured:     info.Configured,
		Model:          info.Model,
		MaxRetries:     info.MaxRetries,
		TimeoutMS:      info.Timeout.Milliseconds(),
		MaxInputLength: info.MaxInputLength,
	}
}

// toMap converts v to a generic map through its JSON form
func toMap(v any) (map[string]any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %T: %w", v, err)
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to decode %T: %w", v, err)
	}
	return out, nil
}
