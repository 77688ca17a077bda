package public

import (
	"errors"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/meowchain/meowchain/business/sys/validate"
	"github.com/meowchain/meowchain/foundation/blockchain/database"
	"github.com/meowchain/meowchain/foundation/blockchain/state"
)

// walletTx is the raw signed transaction submitted by a wallet, hex encoded
// in its binary wire form.
type walletTx struct {
	Tx hexutil.Bytes `json:"tx" validate:"required"`
}

// Validate checks the submission carries the required fields.
func (wtx walletTx) Validate() error {
	return validate.Check(wtx)
}

// tx is the view model for a transaction in API responses.
type tx struct {
	From     common.Address  `json:"from"`
	FromName string          `json:"from_name"`
	To       *common.Address `json:"to"`
	ToName   string          `json:"to_name,omitempty"`
	Nonce    uint64          `json:"nonce"`
	Value    string          `json:"value"`
	Tip      string          `json:"tip"`
	Data     hexutil.Bytes   `json:"data,omitempty"`
	Gas      uint64          `json:"gas"`
	Hash     common.Hash     `json:"hash"`
}

// newTx constructs a tx view model from a block transaction.
func (h Handlers) newTx(btx database.BlockTx) tx {
	t := tx{
		From:     btx.From,
		FromName: h.NS.Lookup(btx.From),
		To:       btx.Tx.To(),
		Nonce:    btx.Nonce(),
		Value:    btx.Tx.Value().String(),
		Tip:      strconv.FormatUint(btx.Tip(), 10),
		Data:     btx.Tx.Data(),
		Gas:      btx.Tx.Gas(),
		Hash:     btx.Hash(),
	}

	if t.To != nil {
		t.ToName = h.NS.Lookup(*t.To)
	}

	return t
}

// block is the view model for a block in API responses.
type block struct {
	Number       uint64        `json:"number"`
	Hash         common.Hash   `json:"hash"`
	ParentHash   common.Hash   `json:"parent_hash"`
	Producer     common.Address `json:"producer"`
	TimeStamp    uint64        `json:"timestamp"`
	GasUsed      uint64        `json:"gas_used"`
	ExtraData    hexutil.Bytes `json:"extra_data"`
	Transactions []tx          `json:"transactions"`
}

// info is the view model for an account in API responses.
type info struct {
	Account common.Address `json:"account"`
	Name    string         `json:"name"`
	Balance uint64         `json:"balance"`
	Nonce   uint64         `json:"nonce"`
}

// actInfo is the top level view model for the accounts API.
type actInfo struct {
	LatestBlock common.Hash `json:"latest_block"`
	Uncommitted int         `json:"uncommitted"`
	Accounts    []info      `json:"accounts"`
}

// blockRange resolves the from/to parameters for a block list query. The
// literal "latest" or an empty value resolves to the latest block number.
func blockRange(st *state.State, fromStr string, toStr string) (uint64, uint64, error) {
	latest := st.LatestBlock().Number()

	resolve := func(s string) (uint64, error) {
		if s == "latest" || s == "" {
			return latest, nil
		}
		return strconv.ParseUint(s, 10, 64)
	}

	from, err := resolve(fromStr)
	if err != nil {
		return 0, 0, err
	}
	to, err := resolve(toStr)
	if err != nil {
		return 0, 0, err
	}

	if from > to {
		return 0, 0, errors.New("from greater than to")
	}

	return from, to, nil
}
