package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

// execIface is the command surface the REPL dispatches to. App satisfies
// it; tests provide a stub.
type execIface interface {
	isLoggedIn() bool
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Whoami(ctx context.Context) error
	Users(ctx context.Context) error
	Logout(ctx context.Context) error
}

// runREPL reads commands line by line from reader and dispatches them to a.
// It returns on EOF, on "exit"/"quit" or when ctx is done. Handler errors
// are already reported to the user by the handlers themselves.
//
//	Not logged in: help, register, login, exit
//	Logged in:     help, whoami, users, logout, exit
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader, w io.Writer) {
	for {
		if ctx.Err() != nil {
			return
		}

		fmt.Fprintf(w, "idk %s> ", statusFn())
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			return
		}

		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd := parts[0]

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				fmt.Fprintln(w, "Available commands: whoami, users, logout, exit")
			} else {
				fmt.Fprintln(w, "Available commands: register, login, exit")
			}

		case "register":
			_ = a.Register(ctx)

		case "login":
			_ = a.Login(ctx)

		case "whoami", "users", "logout":
			if !a.isLoggedIn() {
				fmt.Fprintln(w, "Not logged in, use 'login' first")
				continue
			}
			switch cmd {
			case "whoami":
				_ = a.Whoami(ctx)
			case "users":
				_ = a.Users(ctx)
			case "logout":
				_ = a.Logout(ctx)
			}

		case "exit", "quit":
			fmt.Fprintln(w, "Bye!")
			return

		default:
			fmt.Fprintln(w, "Unknown command:", cmd)
		}
	}
}
