// covenantctl is the operator CLI: mint a standalone keypair, inspect a
// contract on disk, or force-run the integrity sweep once.
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"covenant/pkg/covenant"
	"covenant/pkg/keyregistry"
	"covenant/pkg/signature"
	"covenant/pkg/store"
)

func main() {
	root := &cobra.Command{
		Use:   "covenantctl",
		Short: "Operator tooling for the covenant contract coordination service",
	}
	root.AddCommand(mintKeyCmd(), inspectCmd(), sweepCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func mintKeyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mint-key",
		Short: "Generate a standalone secp256k1 keypair (not bound to a contract)",
		RunE: func(cmd *cobra.Command, args []string) error {
			kp, err := signature.GenerateKeyPair()
			if err != nil {
				return err
			}
			return json.NewEncoder(os.Stdout).Encode(kp)
		},
	}
}

func inspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect [contract-uuid]",
		Short: "Print a contract's stored document and progress",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			layout := store.MustDataDir()
			var c covenant.Contract
			if err := store.ReadJSON(layout.ContractFile(args[0]), &c); err != nil {
				return err
			}
			out := map[string]any{
				"contract": c,
				"progress": c.Progress(),
			}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		},
	}
}

func sweepCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Run the key-binding integrity sweep once and print any broken bindings",
		RunE: func(cmd *cobra.Command, args []string) error {
			layout := store.MustDataDir()
			keys := keyregistry.New(layout)
			broken := keys.Sweep()
			if len(broken) == 0 {
				fmt.Println("ok: every contract has a bound key")
				return nil
			}
			fmt.Println("contracts with a missing bound key:")
			for _, uuid := range broken {
				fmt.Println(" -", uuid)
			}
			return nil
		},
	}
}
