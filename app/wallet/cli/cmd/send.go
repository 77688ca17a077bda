package cmd

import (
	"bytes"
	"crypto/ecdsa"
	"encoding/json"
	"fmt"
	"log"
	"math/big"
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/spf13/cobra"
)

var (
	url     string
	nonce   uint64
	to      string
	value   uint64
	tip     uint64
	gas     uint64
	chainID uint64
	data    []byte
)

// sendCmd represents the send command
var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Send transaction",
	Run: func(cmd *cobra.Command, args []string) {
		privateKey, err := crypto.LoadECDSA(getPrivateKeyPath())
		if err != nil {
			log.Fatal(err)
		}

		sendWithDetails(privateKey)
	},
}

func sendWithDetails(privateKey *ecdsa.PrivateKey) {
	if !common.IsHexAddress(to) {
		log.Fatalf("invalid to address %q", to)
	}
	toAddress := common.HexToAddress(to)

	signedTx, err := types.SignNewTx(privateKey, types.LatestSignerForChainID(new(big.Int).SetUint64(chainID)), &types.LegacyTx{
		Nonce:    nonce,
		To:       &toAddress,
		Value:    new(big.Int).SetUint64(value),
		Gas:      gas,
		GasPrice: new(big.Int).SetUint64(tip),
		Data:     data,
	})
	if err != nil {
		log.Fatal(err)
	}

	bin, err := signedTx.MarshalBinary()
	if err != nil {
		log.Fatal(err)
	}

	payload, err := json.Marshal(struct {
		Tx hexutil.Bytes `json:"tx"`
	}{
		Tx: bin,
	})
	if err != nil {
		log.Fatal(err)
	}

	resp, err := http.Post(fmt.Sprintf("%s/v1/tx/submit", url), "application/json", bytes.NewBuffer(payload))
	if err != nil {
		log.Fatal(err)
	}
	defer resp.Body.Close()

	fmt.Println("status:", resp.Status)
}

func init() {
	rootCmd.AddCommand(sendCmd)
	sendCmd.Flags().StringVarP(&url, "url", "u", "http://localhost:8080", "Url of the node.")
	sendCmd.Flags().Uint64VarP(&nonce, "nonce", "n", 0, "Nonce for the transaction.")
	sendCmd.Flags().StringVarP(&to, "to", "t", "", "Address to send to.")
	sendCmd.Flags().Uint64VarP(&value, "value", "v", 0, "Value to send.")
	sendCmd.Flags().Uint64VarP(&tip, "tip", "c", 1, "Gas price to offer.")
	sendCmd.Flags().Uint64VarP(&gas, "gas", "g", 21000, "Gas limit for the transaction.")
	sendCmd.Flags().Uint64VarP(&chainID, "chain", "i", 9323310, "Chain id to sign for.")
	sendCmd.Flags().BytesHexVarP(&data, "data", "d", nil, "Data to send.")
}
