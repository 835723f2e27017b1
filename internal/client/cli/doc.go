// Package cli provides the interactive idkeeper command-line client.
//
// It wires configuration, the HTTP API client and a REPL. The bearer token
// obtained by login lives in memory only and is dropped on logout or exit.
// A background watcher probes /healthz and shows online/offline status in
// the prompt.
//
// Commands: register, login, whoami, users, logout, help, exit.
package cli
