package bridgedb

type MintRecord struct {
	Signature  string `json:"signature"`
	EventIndex int    `json:"event_index"`
	Slot       uint64 `json:"slot"`
	Receiver   string `json:"receiver"`
	Amount     uint64 `json:"amount"`
}

type BurnRecord struct {
	Signature  string `json:"signature"`
	EventIndex int    `json:"event_index"`
	Slot       uint64 `json:"slot"`
	Sender     string `json:"sender"`
	BtcAddr    string `json:"btc_addr"`
	Amount     uint64 `json:"amount"`
	OperatorID uint64 `json:"operator_id"`
}
