package main

import (
	"github.com/seatbelt-tracker/seatbelt-admin/internal/cli"
)

func main() {
	cli.Execute()
}
