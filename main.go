package main

import "github.com/kunal-varma/pagemark/cmd"

func main() {
	cmd.Execute()
}
