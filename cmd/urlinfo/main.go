package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/MrSnakeDoc/urlinfo/internal/cli"
	"github.com/MrSnakeDoc/urlinfo/internal/version"
)

func main() {
	if err := cli.NewRoot(version.String()).ExecuteContext(context.Background()); err != nil {
		var ee *cli.ExitError
		if errors.As(err, &ee) {
			if msg := ee.Message(); msg != "" {
				fmt.Fprintln(os.Stderr, msg)
			}
			os.Exit(ee.Code())
		}
		fmt.Fprintf(os.Stderr, "urlinfo: %v\n", err)
		os.Exit(1)
	}
}
