package main

import (
	"fmt"
	"os"

	"github.com/oseayemenre/bookshelf/cmd"
)

//	@title						Bookshelf API
//	@version					1.0
//	@description				Personal library tracker: books, reading status and shelves.
//	@host						localhost:3001
//	@BasePath					/api/v1
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
func main() {
	if err := cmd.Run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
