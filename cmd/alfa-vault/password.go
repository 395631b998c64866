package main

import (
	"bufio"
	"fmt"
	"os"
)

// readPassword returns ALFA_VAULT_PASSWORD if set, otherwise prompts
// on stdin. The pack's example repos carry no terminal-masking
// dependency (golang.org/x/term appears only in a standalone
// reference file, not in any example's go.mod), so this stays on
// bufio.Scanner rather than introducing one for a single CLI prompt.
func readPassword(prompt string) (string, error) {
	if pw := os.Getenv("ALFA_VAULT_PASSWORD"); pw != "" {
		return pw, nil
	}
	fmt.Fprint(os.Stderr, prompt)
	scanner := bufio.NewScanner(os.Stdin)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return "", fmt.Errorf("read password: unexpected EOF")
	}
	return scanner.Text(), nil
}
