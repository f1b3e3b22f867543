package main

import (
	"os"

	"github.com/quillhq/expenseflow/cmd/expenseflow/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
