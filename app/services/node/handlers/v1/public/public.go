// Package public maintains the group of handlers for public access.
package public

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/meowchain/meowchain/business/web/errs"
	"github.com/meowchain/meowchain/foundation/blockchain/seal"
	"github.com/meowchain/meowchain/foundation/blockchain/state"
	"github.com/meowchain/meowchain/foundation/events"
	"github.com/meowchain/meowchain/foundation/nameservice"
	"github.com/meowchain/meowchain/foundation/web"
)

// Handlers manages the set of public endpoints.
type Handlers struct {
	Log   *zap.SugaredLogger
	State *state.State
	NS    *nameservice.NameService
	WS    websocket.Upgrader
	Evts  *events.Events
}

// Events handles a web socket to provide events to a client.
func (h Handlers) Events(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	h.WS.CheckOrigin = func(r *http.Request) bool { return true }

	c, err := h.WS.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	defer c.Close()

	ch := h.Evts.Acquire(v.TraceID)
	defer h.Evts.Release(v.TraceID)

	ticker := time.NewTicker(time.Second)

	for {
		select {
		case msg, wd := <-ch:
			if !wd {
				return nil
			}

			if err := c.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
				return err
			}

		case <-ticker.C:
			if err := c.WriteMessage(websocket.PingMessage, []byte("ping")); err != nil {
				return nil
			}
		}
	}
}

// SubmitWalletTransaction adds a new signed transaction to the mempool.
func (h Handlers) SubmitWalletTransaction(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var wtx walletTx
	if err := web.Decode(r, &wtx); err != nil {
		return fmt.Errorf("unable to decode payload: %w", err)
	}

	var tx types.Transaction
	if err := tx.UnmarshalBinary(wtx.Tx); err != nil {
		return errs.NewTrusted(fmt.Errorf("unable to decode transaction: %w", err), http.StatusBadRequest)
	}

	h.Log.Infow("add user tran", "traceid", v.TraceID, "tx", tx.Hash(), "to", tx.To(), "value", tx.Value(), "tip", tx.GasTipCap())
	if err := h.State.SubmitTransaction(&tx); err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	resp := struct {
		Status string `json:"status"`
	}{
		Status: "transaction added to mempool",
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Genesis returns the genesis information.
func (h Handlers) Genesis(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	gen := h.State.Genesis()
	return web.Respond(ctx, w, gen, http.StatusOK)
}

// Mempool returns the set of uncommitted transactions.
func (h Handlers) Mempool(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	acct := web.Param(r, "account")

	mempool := h.State.Mempool()

	trans := []tx{}
	for _, tran := range mempool {
		if acct != "" && acct != tran.From.String() && (tran.Tx.To() == nil || acct != tran.Tx.To().String()) {
			continue
		}

		trans = append(trans, h.newTx(tran))
	}

	return web.Respond(ctx, w, trans, http.StatusOK)
}

// Accounts returns the current account states.
func (h Handlers) Accounts(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	account := web.Param(r, "account")

	var acts []info
	switch account {
	case "":
		for _, acct := range h.State.Accounts() {
			acts = append(acts, info{
				Account: acct.Address,
				Name:    h.NS.Lookup(acct.Address),
				Balance: acct.Balance,
				Nonce:   acct.Nonce,
			})
		}

	default:
		if !common.IsHexAddress(account) {
			return errs.NewTrusted(fmt.Errorf("invalid address %q", account), http.StatusBadRequest)
		}
		address := common.HexToAddress(account)

		acct, err := h.State.QueryAccount(address)
		if err != nil {
			return errs.NewTrusted(err, http.StatusNotFound)
		}

		acts = append(acts, info{
			Account: acct.Address,
			Name:    h.NS.Lookup(acct.Address),
			Balance: acct.Balance,
			Nonce:   acct.Nonce,
		})
	}

	ai := actInfo{
		LatestBlock: h.State.LatestBlock().Hash(),
		Uncommitted: h.State.MempoolLength(),
		Accounts:    acts,
	}

	return web.Respond(ctx, w, ai, http.StatusOK)
}

// BlocksByNumber returns the blocks for the specified range.
func (h Handlers) BlocksByNumber(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	from, to, err := blockRange(h.State, web.Param(r, "from"), web.Param(r, "to"))
	if err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	dbBlocks := h.State.QueryBlocksByNumber(from, to)
	if len(dbBlocks) == 0 {
		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}

	blocks := make([]block, len(dbBlocks))
	for i, blk := range dbBlocks {
		trans := make([]tx, len(blk.Trans))
		for j, tran := range blk.Trans {
			trans[j] = h.newTx(tran)
		}

		producer, err := seal.Verify(blk.Header)
		if err != nil {
			return err
		}

		blocks[i] = block{
			Number:       blk.Number(),
			Hash:         blk.Hash(),
			ParentHash:   blk.Header.ParentHash,
			Producer:     producer,
			TimeStamp:    blk.Header.Time,
			GasUsed:      blk.Header.GasUsed,
			ExtraData:    blk.Header.Extra,
			Transactions: trans,
		}
	}

	return web.Respond(ctx, w, blocks, http.StatusOK)
}

// LastSchedule returns how the last committed block's transactions were
// grouped for concurrent execution.
func (h Handlers) LastSchedule(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	stats := h.State.LastSchedule()

	resp := struct {
		TxCount      int     `json:"tx_count"`
		BatchCount   int     `json:"batch_count"`
		AvgBatchSize float64 `json:"avg_batch_size"`
	}{
		TxCount:      stats.TxCount,
		BatchCount:   stats.BatchCount,
		AvgBatchSize: stats.AvgBatchSize,
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}
