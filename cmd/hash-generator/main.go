// Command hash-generator prints password hashes in the form stored under
// the password preference, for seeding preference stores by hand.
//
//	hash-generator -algorithm sha1 secret other-secret
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/phrazzld/tracktoid/internal/config"
	"github.com/phrazzld/tracktoid/internal/service/auth"
)

func main() {
	algorithm := flag.String("algorithm", config.HashSHA1, "hash algorithm: sha1 or bcrypt")
	cost := flag.Int("cost", 0, "bcrypt cost (0 selects the default)")
	flag.Parse()

	passwords := flag.Args()
	if len(passwords) == 0 {
		fmt.Fprintln(os.Stderr, "usage: hash-generator [-algorithm sha1|bcrypt] [-cost n] password...")
		os.Exit(2)
	}

	hasher, err := auth.NewPasswordHasher(*algorithm, *cost)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	failed := false
	for _, password := range passwords {
		hash, err := hasher.Hash(password)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error generating hash for %s: %v\n", password, err)
			failed = true
			continue
		}
		fmt.Printf("Password: %s\nHash: %s\n\n", password, hash)
	}

	if failed {
		os.Exit(1)
	}
}
