package models

import "encoding/json"

// Feed frame type discriminators
const (
	FrameTypeKline       = "KLINE"
	FrameTypeTrade       = "TRADE"
	FrameTypeSubscribe   = "SUBSCRIBE"
	FrameTypeUnsubscribe = "UNSUBSCRIBE"
)

// MControlMessage is the outbound subscribe/unsubscribe wire message.
type MControlMessage struct {
	Type     string `json:"type"`
	BaseMint string `json:"base_mint"`
}

// MDataFrame is the envelope of an inbound data frame.
type MDataFrame struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// MSubscribeCommand is what browser clients send to the /ws bridge.
type MSubscribeCommand struct {
	Command string   `json:"command"`
	Topics  []string `json:"topics"`
}
