package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/spf13/cobra"

	"github.com/mathledger/mathledger/foundation/ledger/engines"
	"github.com/mathledger/mathledger/foundation/ledger/router"
	"github.com/mathledger/mathledger/foundation/ledger/work"
)

var (
	workType   string
	difficulty int
)

var submitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Compute a unit of work locally, sign it and submit it to the node.",
	RunE:  submitRun,
}

func init() {
	rootCmd.AddCommand(submitCmd)
	submitCmd.Flags().StringVarP(&workType, "type", "t", string(work.TypeGoldbach), "Work type to compute.")
	submitCmd.Flags().IntVarP(&difficulty, "difficulty", "d", 10, "Difficulty of the work.")
}

func submitRun(cmd *cobra.Command, args []string) error {
	privateKey, err := crypto.LoadECDSA(getPrivateKeyPath())
	if err != nil {
		return fmt.Errorf("unable to load private key: %w", err)
	}

	rtr := router.New(router.Config{
		Catalog: engines.New(engines.DefaultBudget),
	})

	env := rtr.Compute(context.Background(), work.Type(workType), difficulty)

	uw := work.UserWork{
		Type:         work.Type(workType),
		Difficulty:   difficulty,
		Result:       env,
		Verification: work.NewVerification("worker_recompute", env),
		Cost:         int(env.ComputeSeconds * 1000),
		Efficiency:   env.Confidence,
	}

	sw, err := uw.Sign(privateKey)
	if err != nil {
		return fmt.Errorf("unable to sign work: %w", err)
	}

	req := struct {
		Type         string            `json:"type"`
		Difficulty   int               `json:"difficulty"`
		Result       work.Envelope     `json:"result"`
		Verification work.Verification `json:"verification"`
		Cost         int               `json:"computational_cost"`
		Efficiency   float64           `json:"energy_efficiency"`
		Signature    string            `json:"signature"`
	}{
		Type:         string(uw.Type),
		Difficulty:   uw.Difficulty,
		Result:       uw.Result,
		Verification: uw.Verification,
		Cost:         uw.Cost,
		Efficiency:   uw.Efficiency,
		Signature:    sw.SignatureString(),
	}

	return postJSON(fmt.Sprintf("%s/v1/work/submit", nodeURL), req)
}

// postJSON sends the document to the node and prints the response body.
func postJSON(url string, doc any) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}

	resp, err := http.Post(url, "application/json", bytes.NewBuffer(data))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	fmt.Println(resp.Status)
	fmt.Println(string(body))

	return nil
}
