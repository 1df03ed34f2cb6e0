// Command notesctl is a small client for notesd.
//
// Usage:
//
//	notesctl [-server URL] [-token ACCESS] <command> [args]
//
// Commands:
//
//	register <email>             password is read from the terminal or stdin
//	login <email>                prints the token pair
//	refresh <refresh_token>      prints the rotated token pair
//	logout <refresh_token>
//	me
//	list
//	get <note_id>
//	create [-date YYYY-MM-DD] <text>
//	update <note_id> <text>
//	delete <note_id>
//
// NOTES_SERVER and NOTES_TOKEN provide defaults for -server and -token.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"strings"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "notesctl: %v\n", err)
		var usage *usageError
		if errors.As(err, &usage) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

type usageError struct{ msg string }

func (e *usageError) Error() string { return e.msg }

func usagef(format string, args ...any) error {
	return &usageError{msg: fmt.Sprintf(format, args...)}
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("notesctl", flag.ContinueOnError)
	fs.SetOutput(stderr)
	server := fs.String("server", envOr("NOTES_SERVER", "http://localhost:8000"), "notesd base URL")
	token := fs.String("token", os.Getenv("NOTES_TOKEN"), "access token for protected commands")
	if err := fs.Parse(args); err != nil {
		return &usageError{msg: err.Error()}
	}
	rest := fs.Args()
	if len(rest) == 0 {
		return usagef("missing command")
	}

	c := newClient(*server, *token)
	cmd, rest := rest[0], rest[1:]

	var (
		out []byte
		err error
	)
	switch cmd {
	case "register", "login":
		if len(rest) != 1 {
			return usagef("%s <email>", cmd)
		}
		pw, perr := getPassword(stdin, stderr)
		if perr != nil {
			return perr
		}
		out, err = c.do(ctx, http.MethodPost, "/api/v2/auth/"+cmd, map[string]string{
			"email":    rest[0],
			"password": pw,
		})
	case "refresh", "logout":
		if len(rest) != 1 {
			return usagef("%s <refresh_token>", cmd)
		}
		out, err = c.do(ctx, http.MethodPost, "/api/v2/auth/"+cmd, map[string]string{"refresh_token": rest[0]})
	case "me":
		out, err = c.do(ctx, http.MethodGet, "/api/v2/auth/me", nil)
	case "list":
		out, err = c.do(ctx, http.MethodGet, "/api/v2/notes", nil)
	case "get", "delete":
		if len(rest) != 1 {
			return usagef("%s <note_id>", cmd)
		}
		path, perr := notePath(rest[0])
		if perr != nil {
			return perr
		}
		method := http.MethodGet
		if cmd == "delete" {
			method = http.MethodDelete
		}
		out, err = c.do(ctx, method, path, nil)
	case "create":
		cf := flag.NewFlagSet("create", flag.ContinueOnError)
		cf.SetOutput(stderr)
		date := cf.String("date", "", "note date (YYYY-MM-DD); empty means today")
		if perr := cf.Parse(rest); perr != nil {
			return &usageError{msg: perr.Error()}
		}
		if cf.NArg() == 0 {
			return usagef("create [-date YYYY-MM-DD] <text>")
		}
		out, err = c.do(ctx, http.MethodPost, "/api/v2/create", map[string]string{
			"note_text": strings.Join(cf.Args(), " "),
			"note_date": *date,
		})
	case "update":
		if len(rest) < 2 {
			return usagef("update <note_id> <text>")
		}
		path, perr := notePath(rest[0])
		if perr != nil {
			return perr
		}
		out, err = c.do(ctx, http.MethodPut, path, map[string]string{"note_text": strings.Join(rest[1:], " ")})
	default:
		return usagef("unknown command %q", cmd)
	}
	if err != nil {
		return err
	}
	return printJSON(stdout, out)
}

func notePath(raw string) (string, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return "", usagef("note id must be a positive integer, got %q", raw)
	}
	return "/api/v2/" + url.PathEscape(strconv.FormatInt(id, 10)), nil
}

func printJSON(w io.Writer, data []byte) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, data, "", "  "); err != nil {
		_, err = w.Write(data)
		return err
	}
	buf.WriteByte('\n')
	_, err := buf.WriteTo(w)
	return err
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}
