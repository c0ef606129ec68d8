// scripts/generate_password.go
//
// Hashes a password with the same bcrypt cost the API uses, for seeding
// admin accounts by hand:
//
//	go run scripts/generate_password.go <password>
package main

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"golang.org/x/crypto/bcrypt"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal("Usage: go run scripts/generate_password.go <password>")
	}

	password := os.Args[1]

	cost := 12
	if raw := os.Getenv("BCRYPT_COST"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			cost = parsed
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		log.Fatal("Error generating hash:", err)
	}

	if err := bcrypt.CompareHashAndPassword(hash, []byte(password)); err != nil {
		log.Fatal("Hash verification failed:", err)
	}

	fmt.Println(string(hash))
}
