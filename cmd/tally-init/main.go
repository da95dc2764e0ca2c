// Command tally-init writes a starter .env for local development with a
// freshly generated session secret, so nobody boots the server on the
// built-in placeholder.
package main

import (
	"crypto/rand"
	"encoding/hex"
	"flag"
	"fmt"
	"log"
	"os"
)

func main() {
	path := flag.String("o", ".env", "where to write the environment file")
	force := flag.Bool("force", false, "overwrite an existing file")
	flag.Parse()

	if _, err := os.Stat(*path); err == nil && !*force {
		log.Fatalf("%s already exists; re-run with -force to overwrite", *path)
	}

	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		log.Fatalf("generate session secret: %v", err)
	}

	env := fmt.Sprintf(`PORT=8080
DATABASE_URL=./data/tally.db
SESSION_SECRET=%s
SESSION_TTL=24h
BCRYPT_COST=10
AUTH_RATE_PER_MINUTE=10
LOG_LEVEL=info
`, hex.EncodeToString(secret))

	if err := os.WriteFile(*path, []byte(env), 0600); err != nil {
		log.Fatalf("write %s: %v", *path, err)
	}
	fmt.Printf("Wrote %s with a generated session secret.\n", *path)
}
