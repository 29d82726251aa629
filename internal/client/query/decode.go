package query

import (
	"encoding/json"
	"fmt"

	"github.com/reichert621/instachat/internal/client/models"
	"github.com/reichert621/instachat/internal/protocol"
)

// decodeInto maps the JSON-compatible tree v onto out.
func decodeInto(v any, out any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, out)
}

func DecodeChannels(r protocol.Result) (models.ChannelDirectory, error) {
	raw, ok := r["channels"]
	if !ok {
		return models.ChannelDirectory{}, fmt.Errorf("result has no channels")
	}
	var d models.ChannelDirectory
	if err := decodeInto(map[string]any{"channels": raw}, &d); err != nil {
		return models.ChannelDirectory{}, fmt.Errorf("decode channels: %w", err)
	}
	return d, nil
}

func DecodeUsers(r protocol.Result) (models.UserDirectory, error) {
	raw, ok := r["users"]
	if !ok {
		return models.UserDirectory{}, fmt.Errorf("result has no users")
	}
	var d models.UserDirectory
	if err := decodeInto(map[string]any{"users": raw}, &d); err != nil {
		return models.UserDirectory{}, fmt.Errorf("decode users: %w", err)
	}
	return d, nil
}

// DecodeActiveChannel treats a missing channel, null, or a list whose length
// is not exactly one as "no active channel".
func DecodeActiveChannel(r protocol.Result) (models.ActiveChannel, error) {
	raw := r["channel"]
	if list, ok := raw.([]any); ok {
		if len(list) != 1 {
			return models.ActiveChannel{}, nil
		}
		raw = list[0]
	}
	if raw == nil {
		return models.ActiveChannel{}, nil
	}

	var ch models.Channel
	if err := decodeInto(raw, &ch); err != nil {
		return models.ActiveChannel{}, fmt.Errorf("decode channel: %w", err)
	}
	return models.ActiveChannel{Channel: &ch}, nil
}
