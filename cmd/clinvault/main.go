// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Clinvault Authors

package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"syscall"

	"golang.org/x/term"

	"github.com/clinvault/clinvault/internal/adapter"
	"github.com/clinvault/clinvault/internal/app"
	"github.com/clinvault/clinvault/internal/clipboard"
	"github.com/clinvault/clinvault/internal/config"
	"github.com/clinvault/clinvault/internal/crypto"
	"github.com/clinvault/clinvault/internal/logger"
	"github.com/clinvault/clinvault/internal/store"
	"github.com/clinvault/clinvault/internal/workers"
)

var (
	buildVersion string
	buildDate    string
	buildCommit  string
)

func main() {
	printBuildInfo()

	log := logger.NewLogger("clinvault")
	cfg, err := config.GetStructuredConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("error getting configs")
	}

	// Per the PHI rule, the data directory path itself stays out of logs.
	log.Info().Msg("starting clinvault")

	vault := store.NewVault(cfg.Storage.DataDir, crypto.NewKeyService(), crypto.NewOSKeychain(), log)

	var llm adapter.LLM
	if client, err := adapter.NewOllamaClient(); err != nil {
		log.Warn().Err(err).Msg("llm adapter unavailable")
	} else {
		llm = client
	}

	cb := clipboard.NewManager(clipboard.Policy{
		AutoClearSeconds: cfg.Clipboard.AutoClearSeconds,
		MaxContentLength: cfg.Clipboard.MaxContentLength,
	}, log)

	orchestrator := app.New(vault, app.Options{LLM: llm, Clipboard: cb}, log)

	background := workers.NewWorkers(
		workers.NewChainVerifier(orchestrator, cfg.Workers.ChainVerifyInterval, log),
	)
	background.Run()
	defer background.Stop()

	if err := repl(orchestrator); err != nil {
		log.Fatal().Err(err).Msg("repl error")
	}
	orchestrator.Lock()
}

// repl is a minimal line-oriented front end for vault lifecycle operations.
// The desktop shell talks to the same orchestrator API over IPC; this loop
// exists for headless administration and smoke testing.
func repl(o *app.Orchestrator) error {
	scanner := bufio.NewScanner(os.Stdin)

	fmt.Println("commands: status | create | unlock | lock | verify | clients | search <q> | quit")
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		cmd, rest, _ := strings.Cut(line, " ")

		switch cmd {
		case "":
			continue
		case "quit", "exit":
			return nil
		case "status":
			state := o.State()
			fmt.Printf("state: %s — %s\n", state.State, state.Message)
		case "create":
			pass, err := readPassphrase("new passphrase: ")
			if err != nil {
				return err
			}
			if err := o.CreateVault(pass); err != nil {
				fmt.Printf("create failed: %v\n", err)
				continue
			}
			fmt.Println("vault created and unlocked")
		case "unlock":
			pass, err := readPassphrase("passphrase: ")
			if err != nil {
				return err
			}
			if err := o.Unlock(pass); err != nil {
				fmt.Printf("unlock failed: %v\n", err)
				continue
			}
			fmt.Println("vault unlocked")
		case "lock":
			o.Lock()
			fmt.Println("vault locked")
		case "verify":
			if err := o.VerifyAuditChain(); err != nil {
				fmt.Printf("audit chain: %v\n", err)
				continue
			}
			fmt.Println("audit chain intact")
		case "clients":
			clients, err := o.ListClients()
			if err != nil {
				fmt.Printf("list failed: %v\n", err)
				continue
			}
			for _, c := range clients {
				fmt.Printf("%s  %s (%d sessions)\n", c.ID, c.DisplayName, c.SessionCount)
			}
		case "search":
			results, err := o.SearchClients(rest)
			if err != nil {
				fmt.Printf("search failed: %v\n", err)
				continue
			}
			for _, r := range results {
				fmt.Printf("%s  %s  matched=%v\n", r.Client.ID, r.Client.DisplayName, r.MatchedFields)
			}
		default:
			fmt.Printf("unknown command %q\n", cmd)
		}
	}
}

func printBuildInfo() {
	if buildVersion == "" {
		buildVersion = "N/A"
	}
	if buildDate == "" {
		buildDate = "N/A"
	}
	if buildCommit == "" {
		buildCommit = "N/A"
	}

	fmt.Printf("Build version: %s\n", buildVersion)
	fmt.Printf("Build date: %s\n", buildDate)
	fmt.Printf("Build commit: %s\n", buildCommit)
}

// readPassphrase reads a passphrase without echo when stdin is a terminal.
func readPassphrase(prompt string) (string, error) {
	fmt.Print(prompt)
	if data, err := term.ReadPassword(int(syscall.Stdin)); err == nil {
		fmt.Println()
		return string(data), nil
	}
	// Not a terminal: fall back to a plain line read.
	scanner := bufio.NewScanner(os.Stdin)
	if !scanner.Scan() {
		return "", scanner.Err()
	}
	return scanner.Text(), nil
}
