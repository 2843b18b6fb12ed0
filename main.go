package main

import (
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/nxneeraj/phishwatch/pkg/cli"
)

var version = "dev"

func main() {
	if len(os.Args) < 2 || os.Args[1] == "serve" {
		fmt.Fprintln(os.Stderr, `
    phishwatch - Phishing URL Checker
    ---------------------------------
    `)
	}

	if err := cli.NewRoot(version).Execute(); err != nil {
		var exit *cli.ExitError
		if errors.As(err, &exit) {
			os.Exit(exit.Code)
		}
		log.Fatalf("[-] %v", err)
	}
}
