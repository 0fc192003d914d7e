package main

import (
	"context"
	"fmt"
	"os"

	"github.com/krisalay/operation-cache/internal/command"
	mylog "github.com/krisalay/operation-cache/internal/log"
)

func main() {
	os.Exit(realMain())
}

func realMain() int {
	mylog.InitLogger("info")

	args := os.Args
	if len(args) < 2 {
		fmt.Fprintln(os.Stderr, "No command specified.")
		args = append(args, "--help")
	}

	app := command.InitApp(os.Stdout)
	if err := app.Run(context.Background(), args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}
