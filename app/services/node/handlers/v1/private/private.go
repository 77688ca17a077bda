// Package private maintains the group of handlers for node to node access.
package private

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	beacon "github.com/ethereum/go-ethereum/beacon/engine"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/meowchain/meowchain/business/sys/validate"
	"github.com/meowchain/meowchain/business/web/errs"
	"github.com/meowchain/meowchain/foundation/blockchain/database"
	"github.com/meowchain/meowchain/foundation/blockchain/engine"
	"github.com/meowchain/meowchain/foundation/blockchain/state"
	"github.com/meowchain/meowchain/foundation/web"
)

// Handlers manages the set of node to node endpoints.
type Handlers struct {
	Log   *zap.SugaredLogger
	State *state.State
}

// SubmitPayload takes an execution payload received from a peer, validates
// it and if that passes, adds the block to the local blockchain.
func (h Handlers) SubmitPayload(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var data beacon.ExecutableData
	if err := web.Decode(r, &data); err != nil {
		return fmt.Errorf("unable to decode payload: %w", err)
	}

	if err := h.State.ProcessPayload(ctx, data); err != nil {
		var bhme engine.BlockHashMismatchError
		switch {
		case errors.As(err, &bhme):
			return errs.NewTrusted(err, http.StatusNotAcceptable)
		case errors.Is(err, database.ErrChainForked):
			return errs.NewTrusted(err, http.StatusConflict)
		}

		return errs.NewTrusted(errors.New("block not accepted"), http.StatusNotAcceptable)
	}

	resp := struct {
		Status string `json:"status"`
	}{
		Status: "accepted",
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Status returns the current status of the node.
func (h Handlers) Status(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	latestBlock := h.State.LatestBlock()

	resp := struct {
		LatestBlockHash   common.Hash `json:"latest_block_hash"`
		LatestBlockNumber uint64      `json:"latest_block_number"`
		MempoolLength     int         `json:"mempool_length"`
	}{
		LatestBlockHash:   latestBlock.Hash(),
		LatestBlockNumber: latestBlock.Number(),
		MempoolLength:     h.State.MempoolLength(),
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// BlocksByNumber returns the blocks in the specified range as execution
// payloads another node can replay.
func (h Handlers) BlocksByNumber(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	fromStr := web.Param(r, "from")
	if fromStr == "latest" || fromStr == "" {
		fromStr = strconv.FormatUint(h.State.LatestBlock().Number(), 10)
	}

	toStr := web.Param(r, "to")
	if toStr == "latest" || toStr == "" {
		toStr = strconv.FormatUint(h.State.LatestBlock().Number(), 10)
	}

	from, err := strconv.ParseUint(fromStr, 10, 64)
	if err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}
	to, err := strconv.ParseUint(toStr, 10, 64)
	if err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	if from > to {
		return errs.NewTrusted(errors.New("from greater than to"), http.StatusBadRequest)
	}

	blocks := h.State.QueryBlocksByNumber(from, to)
	if len(blocks) == 0 {
		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}

	payloads := make([]beacon.ExecutableData, len(blocks))
	for i, block := range blocks {
		payloads[i] = engine.BlockToPayload(block.ToEthBlock())
	}

	return web.Respond(ctx, w, payloads, http.StatusOK)
}

// =============================================================================

// addSignerRequest carries the hex encoded private key to hold.
type addSignerRequest struct {
	PrivateKey string `json:"private_key" validate:"required"`
}

// Validate checks the request carries the required fields.
func (req addSignerRequest) Validate() error {
	return validate.Check(req)
}

// Signers returns the set of addresses this node holds production keys for.
func (h Handlers) Signers(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	resp := struct {
		Signers []common.Address `json:"signers"`
	}{
		Signers: h.State.Signers(),
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// AddSigner adds a production key to this node's key store.
func (h Handlers) AddSigner(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var req addSignerRequest
	if err := web.Decode(r, &req); err != nil {
		return fmt.Errorf("unable to decode payload: %w", err)
	}

	address, err := h.State.AddSigner(req.PrivateKey)
	if err != nil {
		return errs.NewTrusted(err, http.StatusBadRequest)
	}

	h.Log.Infow("add signer", "traceid", v.TraceID, "address", address)

	resp := struct {
		Address common.Address `json:"address"`
	}{
		Address: address,
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// RemoveSigner deletes the production key held for the specified address.
func (h Handlers) RemoveSigner(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	addressStr := web.Param(r, "address")
	if !common.IsHexAddress(addressStr) {
		return errs.NewTrusted(fmt.Errorf("invalid address %q", addressStr), http.StatusBadRequest)
	}

	removed := h.State.RemoveSigner(common.HexToAddress(addressStr))
	if !removed {
		return errs.NewTrusted(errors.New("no key held for address"), http.StatusNotFound)
	}

	resp := struct {
		Status string `json:"status"`
	}{
		Status: "removed",
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}
