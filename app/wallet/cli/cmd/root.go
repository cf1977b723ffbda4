// Package cmd contains the worker wallet app.
package cmd

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

var (
	accountName string
	accountPath string
	nodeURL     string
)

const keyExtension = ".ecdsa"

func init() {
	rootCmd.PersistentFlags().StringVarP(&accountName, "account", "a", "worker.ecdsa", "Path to the private key.")
	rootCmd.PersistentFlags().StringVarP(&accountPath, "account-path", "p", "zledger/accounts/", "Path to the directory with private keys.")
	rootCmd.PersistentFlags().StringVarP(&nodeURL, "url", "u", "http://localhost:8080", "Url of the node.")
}

var rootCmd = &cobra.Command{
	Use:   "wallet",
	Short: "Worker wallet for signing and submitting mathematical work",
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func getPrivateKeyPath() string {
	if !strings.HasSuffix(accountName, keyExtension) {
		accountName += keyExtension
	}

	return filepath.Join(accountPath, accountName)
}
