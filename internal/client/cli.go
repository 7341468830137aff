package client

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"

	"github.com/dmitrijs2005/taskkeeper/internal/common"
)

const DefaultAddress = "localhost:8080"

const usage = `usage: client [-a address] <command> [args]

commands:
  register <email>                  create an account (password prompted)
  login <email>                     start a session (password prompted)
  refresh <refresh-token>           exchange a refresh token for a new pair
  me <access-token>                 show the current user
  logout <access-token> [refresh]   end the session
`

var ErrUsage = errors.New("invalid usage")

// CLI runs one command per invocation and prints the JSON result.
type CLI struct {
	out io.Writer
	in  *bufio.Reader
}

func NewCLI(out io.Writer, in io.Reader) *CLI {
	return &CLI{out: out, in: bufio.NewReader(in)}
}

func (c *CLI) Run(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("client", flag.ContinueOnError)
	fs.SetOutput(c.out)
	fs.Usage = func() { fmt.Fprint(c.out, usage) }
	addr := fs.String("a", DefaultAddress, "server HTTP address")
	if err := fs.Parse(args); err != nil {
		return ErrUsage
	}

	rest := fs.Args()
	if len(rest) < 2 {
		fs.Usage()
		return ErrUsage
	}
	api := New(*addr, nil)
	cmd, arg := rest[0], rest[1]

	switch cmd {
	case "register", "login":
		password, err := GetPassword(c.out, c.in)
		if err != nil {
			return err
		}
		defer common.WipeByteArray(password)

		var s *Session
		if cmd == "register" {
			s, err = api.Register(ctx, arg, string(password))
		} else {
			s, err = api.Login(ctx, arg, string(password))
		}
		if err != nil {
			return err
		}
		return c.print(s)

	case "refresh":
		s, err := api.Refresh(ctx, arg)
		if err != nil {
			return err
		}
		return c.print(s)

	case "me":
		u, err := api.Me(ctx, arg)
		if err != nil {
			return err
		}
		return c.print(u)

	case "logout":
		var refresh string
		if len(rest) > 2 {
			refresh = rest[2]
		}
		if err := api.Logout(ctx, arg, refresh); err != nil {
			return err
		}
		fmt.Fprintln(c.out, "Logged out")
		return nil
	}

	fs.Usage()
	return ErrUsage
}

func (c *CLI) print(v any) error {
	enc := json.NewEncoder(c.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
