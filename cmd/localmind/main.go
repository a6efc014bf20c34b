package main

// @title           Localmind API
// @version         1.0
// @description     Personal knowledge retrieval. Captures pages and notes, embeds them locally and serves semantic search.

// @host      127.0.0.1:3000
// @BasePath  /
// @schemes   http

import (
	"os"

	"github.com/custodia-labs/localmind-core/cmd/localmind/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
