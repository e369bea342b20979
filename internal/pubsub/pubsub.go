// Package pubsub delivers live stats updates to subscribers of a region
// channel, locally over websockets and across instances through Redis.
package pubsub

import (
	"context"
	"encoding/json"
	"strings"
	"time"
)

const ChannelPrefix = "mood-updates:"

// ChannelName is the channel for a standardized region name or the
// global literal.
func ChannelName(name string) string {
	return ChannelPrefix + name
}

type Publisher interface {
	Publish(ctx context.Context, channel string, payload any) error
}

// Message is the frame sent to websocket clients.
type Message struct {
	Type      string          `json:"type"`
	Channel   string          `json:"channel"`
	Data      json.RawMessage `json:"data"`
	Timestamp time.Time       `json:"timestamp"`
}

const MsgStatsUpdate = "stats.update"

func regionOf(channel string) string {
	return strings.TrimPrefix(channel, ChannelPrefix)
}
