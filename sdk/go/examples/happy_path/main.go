// happy_path demonstrates the Go SDK client against a running covenant
// service: it creates a two-party, one-step contract and prints the
// created contract. It does not sign the step.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"covenant/pkg/signature"
	covenantsdk "covenant/sdk/go/covenant"
)

type localSigner struct {
	kp signature.KeyPair
}

func (s localSigner) PubKey() string { return s.kp.PublicKeyHex }

func (s localSigner) Sign(message string) (string, error) {
	return signature.Sign(s.kp, message)
}

func main() {
	baseURL := os.Getenv("COVENANT_URL")
	if baseURL == "" {
		baseURL = "http://localhost:3011"
	}

	alice, err := signature.GenerateKeyPair()
	must(err)
	bob, err := signature.GenerateKeyPair()
	must(err)

	client := covenantsdk.New(baseURL, localSigner{kp: alice})
	ctx := context.Background()

	contract, err := client.CreateContract(ctx, covenantsdk.CreateContractInput{
		Title:        "shared lesson booking",
		Participants: []string{alice.PublicKeyHex, bob.PublicKeyHex},
		Steps: []covenantsdk.StepInput{
			{Description: "both sides confirm the schedule"},
		},
	})
	must(err)

	out, err := json.MarshalIndent(contract, "", "  ")
	must(err)
	fmt.Println(string(out))
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}
