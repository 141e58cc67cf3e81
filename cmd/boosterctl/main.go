// Command boosterctl is the operator's sidekick for working with signing
// keys. "encrypt-key" wraps a raw secp256k1 key in a password-protected
// keyfile; "sign" loads a key and emits the signature headers for one
// bettor API request, which is handy for curl sessions and smoke tests.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/FightFi/booster/internal/auth"
	"github.com/FightFi/booster/internal/server/middleware"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "encrypt-key":
		err = encryptKey(os.Args[2:])
	case "sign":
		err = sign(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "boosterctl: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: boosterctl <command> [flags]

commands:
  encrypt-key   encrypt a raw private key into a keyfile
  sign          produce the signature headers for one API request

The private key is read from BOOSTER_PRIVATE_KEY and the keyfile password
from BOOSTER_KEY_PASSWORD, so neither lands in shell history.`)
}

// encryptKey reads the raw key and password from the environment and writes
// the encrypted keyfile.
func encryptKey(args []string) error {
	fs := flag.NewFlagSet("encrypt-key", flag.ExitOnError)
	out := fs.String("out", "booster.key.json", "output path for the encrypted keyfile")
	fs.Parse(args)

	raw := os.Getenv("BOOSTER_PRIVATE_KEY")
	if raw == "" {
		return fmt.Errorf("BOOSTER_PRIVATE_KEY is not set")
	}
	password := os.Getenv("BOOSTER_KEY_PASSWORD")
	if password == "" {
		return fmt.Errorf("BOOSTER_KEY_PASSWORD is not set")
	}

	blob, err := auth.EncryptKey(raw, password)
	if err != nil {
		return err
	}
	if err := os.WriteFile(*out, blob, 0o600); err != nil {
		return fmt.Errorf("writing keyfile: %w", err)
	}

	signer, err := auth.NewSigner(raw)
	if err != nil {
		return err
	}
	fmt.Printf("wrote %s for address %s\n", *out, signer.Address().Hex())
	return nil
}

// sign resolves a key, signs the canonical request message for the given
// method, path, and body, and prints the three headers the API expects.
func sign(args []string) error {
	fs := flag.NewFlagSet("sign", flag.ExitOnError)
	keyfile := fs.String("keyfile", "", "path to an encrypted keyfile (default: raw key from BOOSTER_PRIVATE_KEY)")
	method := fs.String("method", "GET", "HTTP method of the request")
	path := fs.String("path", "", "request path, for example /api/events/UFC-300/boosts")
	body := fs.String("body", "", "request body, empty for GET")
	fs.Parse(args)

	if *path == "" {
		return fmt.Errorf("-path is required")
	}

	keyCfg := auth.KeyConfig{
		EncryptedKeyPath: *keyfile,
		KeyPassword:      os.Getenv("BOOSTER_KEY_PASSWORD"),
	}
	if *keyfile == "" {
		keyCfg.RawPrivateKey = os.Getenv("BOOSTER_PRIVATE_KEY")
	}
	keyHex, err := auth.LoadKey(keyCfg)
	if err != nil {
		return err
	}
	signer, err := auth.NewSigner(keyHex)
	if err != nil {
		return err
	}

	ts := time.Now().Unix()
	sig, err := signer.SignRequest(*method, *path, []byte(*body), ts)
	if err != nil {
		return err
	}

	fmt.Printf("%s: %s\n", middleware.HeaderAddress, signer.Address().Hex())
	fmt.Printf("%s: %d\n", middleware.HeaderTimestamp, ts)
	fmt.Printf("%s: %s\n", middleware.HeaderSignature, sig)
	return nil
}
