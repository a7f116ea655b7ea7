// Package main is a development utility for generating a random JWT signing
// secret. It prints the secret and a ready-to-use environment export so
// developers can quickly configure CBZ_JWT_SECRET for a local server without
// inventing one by hand. Do not reuse generated secrets across environments;
// rotating the secret invalidates every outstanding token.
package main

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"log"
)

func main() {
	// Generate random bytes
	randomBytes := make([]byte, 48)
	_, err := rand.Read(randomBytes)
	if err != nil {
		log.Fatal(err)
	}

	// Encode to base64
	secret := base64.RawURLEncoding.EncodeToString(randomBytes)

	fmt.Println("==========================================================")
	fmt.Println("JWT Secret Generated")
	fmt.Println("==========================================================")
	fmt.Printf("\nSecret: %s\n", secret)
	fmt.Println("\n==========================================================")
	fmt.Println("Shell export:")
	fmt.Println("==========================================================")
	fmt.Printf("\nexport CBZ_JWT_SECRET='%s'\n", secret)
	fmt.Println("\n==========================================================")
}
