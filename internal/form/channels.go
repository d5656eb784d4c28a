package form

import (
	"strings"

	"github.com/0xPuncker/cron-console/pkg/types"
)

// ChannelOptions lists the delivery channels offered by the channel select:
// "last" first, then the known channels in order, then the current value if it
// is not among them. Empty ids and duplicates are dropped.
func ChannelOptions(channels []string, current string) []string {
	seen := map[string]bool{types.LastChannel: true}
	options := []string{types.LastChannel}

	add := func(id string) {
		if id == "" || seen[id] {
			return
		}
		seen[id] = true
		options = append(options, id)
	}

	for _, id := range channels {
		add(id)
	}
	add(strings.TrimSpace(current))

	return options
}

// ChannelLabel resolves the display label of a channel.
func ChannelLabel(channel string, meta []types.ChannelMeta, labels map[string]string) string {
	if channel == types.LastChannel {
		return types.LastChannel
	}
	for _, m := range meta {
		if m.ID == channel && m.Label != "" {
			return m.Label
		}
	}
	if label, ok := labels[channel]; ok {
		return label
	}
	return channel
}
