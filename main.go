package main

import "github.com/chiro2001/financial-frontend/cmd"

func main() {
	cmd.Execute()
}
