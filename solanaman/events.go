package solanaman

import (
	"bytes"
	"encoding/base64"
	"strings"
	"unicode/utf8"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

// LogDataPrefix marks a log line carrying an anchor event payload.
const LogDataPrefix = "Program data: "

const (
	EventMint = "MintEvent"
	EventBurn = "BurnEvent"
)

var (
	mintEventDiscriminator = anchorDiscriminator("event", EventMint)
	burnEventDiscriminator = anchorDiscriminator("event", EventBurn)
)

// BridgeEvent is either a *MintEvent or a *BurnEvent.
type BridgeEvent interface {
	EventName() string
}

type MintEvent struct {
	To    string // base58
	Value uint64
}

type BurnEvent struct {
	From       string // base58
	BtcAddr    string
	Value      uint64
	OperatorID uint64
}

func (*MintEvent) EventName() string { return EventMint }
func (*BurnEvent) EventName() string { return EventBurn }

// on-chain layouts
type mintEventData struct {
	To    solana.PublicKey
	Value uint64
}

type burnEventData struct {
	From       solana.PublicKey
	BtcAddr    string
	Value      uint64
	OperatorID uint64
}

// DecodeEvent returns the first bridge event found in logs, or nil.
// Lines that fail to decode are skipped.
func DecodeEvent(logs []string) BridgeEvent {
	for _, line := range logs {
		if ev := decodeLogLine(line); ev != nil {
			return ev
		}
	}
	return nil
}

// DecodeEvents returns every bridge event found in logs, in log order.
func DecodeEvents(logs []string) []BridgeEvent {
	var evs []BridgeEvent
	for _, line := range logs {
		if ev := decodeLogLine(line); ev != nil {
			evs = append(evs, ev)
		}
	}
	return evs
}

func decodeLogLine(line string) BridgeEvent {
	encoded, ok := strings.CutPrefix(line, LogDataPrefix)
	if !ok {
		return nil
	}
	payload, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil || len(payload) < DiscriminatorLen {
		return nil
	}

	disc, body := payload[:DiscriminatorLen], payload[DiscriminatorLen:]
	switch {
	case bytes.Equal(disc, mintEventDiscriminator[:]):
		var data mintEventData
		if !decodeExact(body, &data) {
			return nil
		}
		return &MintEvent{To: data.To.String(), Value: data.Value}
	case bytes.Equal(disc, burnEventDiscriminator[:]):
		var data burnEventData
		if !decodeExact(body, &data) || !utf8.ValidString(data.BtcAddr) {
			return nil
		}
		return &BurnEvent{
			From:       data.From.String(),
			BtcAddr:    data.BtcAddr,
			Value:      data.Value,
			OperatorID: data.OperatorID,
		}
	}
	return nil
}

// decodeExact fails unless the payload is consumed entirely.
func decodeExact(body []byte, v interface{}) bool {
	dec := bin.NewBorshDecoder(body)
	if err := dec.Decode(v); err != nil {
		return false
	}
	return dec.Remaining() == 0
}

// EncodeEventLog renders ev as the log line the bridge program emits.
func EncodeEventLog(ev BridgeEvent) (string, error) {
	var (
		disc [DiscriminatorLen]byte
		data interface{}
	)
	switch e := ev.(type) {
	case *MintEvent:
		to, err := solana.PublicKeyFromBase58(e.To)
		if err != nil {
			return "", ErrInvalidAddress(e.To, err)
		}
		disc, data = mintEventDiscriminator, mintEventData{To: to, Value: e.Value}
	case *BurnEvent:
		from, err := solana.PublicKeyFromBase58(e.From)
		if err != nil {
			return "", ErrInvalidAddress(e.From, err)
		}
		disc, data = burnEventDiscriminator, burnEventData{
			From:       from,
			BtcAddr:    e.BtcAddr,
			Value:      e.Value,
			OperatorID: e.OperatorID,
		}
	default:
		return "", ErrMalformedInput
	}

	buf := bytes.NewBuffer(disc[:])
	if err := bin.NewBorshEncoder(buf).Encode(data); err != nil {
		return "", err
	}
	return LogDataPrefix + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
