package main

import "github.com/maltedev/catalog-crawler/cmd/catalog-crawler/cmd"

func main() {
	cmd.Execute()
}
