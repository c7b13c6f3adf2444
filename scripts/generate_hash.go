//go:build ignore

// generate_hash.go prints an Argon2id hash for the admin password.
// Run: go run scripts/generate_hash.go <password>
//
// Put the result into .env as ADMIN_PASSWORD_HASH.
package main

import (
	"fmt"
	"os"

	"serotonyl.ru/activity-bot/internal/features/admin"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: go run scripts/generate_hash.go <password>")
		os.Exit(1)
	}

	hash, err := admin.HashPassword(os.Args[1])
	if err != nil {
		fmt.Printf("Failed to hash password: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Password hash (put into .env as ADMIN_PASSWORD_HASH):")
	fmt.Println(hash)
}
