package domain

import "time"

const (
	DefaultBlocksBehind  = 3
	DefaultExpireSeconds = 30
)

// Authorization names the actor and permission signing an action.
type Authorization struct {
	Actor      string `json:"actor"`
	Permission string `json:"permission"`
}

// TransferData is the payload of an eosio.token transfer action.
type TransferData struct {
	From     string `json:"from"`
	To       string `json:"to"`
	Quantity string `json:"quantity"`
	Memo     string `json:"memo"`
}

type Action struct {
	Account       string          `json:"account"`
	Name          string          `json:"name"`
	Authorization []Authorization `json:"authorization"`
	Data          TransferData    `json:"data"`
}

// Transaction is built per purchase and never stored.
type Transaction struct {
	Actions []Action `json:"actions"`
}

type TransactOptions struct {
	BlocksBehind  int `json:"blocksBehind"`
	ExpireSeconds int `json:"expireSeconds"`
}

// TransactResult is what a wallet reports after broadcasting.
type TransactResult struct {
	TransactionID string
	Processed     map[string]any
}

// Purchase is the ledger entry written after a successful payment.
type Purchase struct {
	ID            int64
	Account       string
	Action        string
	Quantity      string
	TransactionID string
	Method        AuthMethod
	CreatedAt     time.Time
}
