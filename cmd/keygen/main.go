// Command keygen prints fresh base64 key material for the three secrets
// authd needs: two HS256 signing secrets and the AES-256 OTP master key.
package main

import (
	"fmt"
	"log"

	"github.com/legionkimitri/authd/pkg/cryptox"
)

func main() {
	access, err := cryptox.GenerateEncodedKey(32)
	if err != nil {
		log.Fatalf("failed to generate access secret: %v", err)
	}
	refresh, err := cryptox.GenerateEncodedKey(32)
	if err != nil {
		log.Fatalf("failed to generate refresh secret: %v", err)
	}
	master, err := cryptox.GenerateEncodedKey(32)
	if err != nil {
		log.Fatalf("failed to generate OTP master key: %v", err)
	}

	fmt.Printf("AUTHD_ACCESS_SECRET=%s\n", access)
	fmt.Printf("AUTHD_REFRESH_SECRET=%s\n", refresh)
	fmt.Printf("AUTHD_OTP_MASTER_KEY=%s\n", master)
}
