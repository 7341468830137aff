package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/dmitrijs2005/taskkeeper/internal/client"
)

func main() {

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err := client.NewCLI(os.Stdout, os.Stdin).Run(ctx, os.Args[1:])
	if err != nil {
		if !errors.Is(err, client.ErrUsage) {
			fmt.Fprintln(os.Stderr, err)
		}
		stop()
		os.Exit(1)
	}

}
