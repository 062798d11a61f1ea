package main

import "telros.ru/usersvc/cmd/server/commands"

func main() {
	commands.Execute()
}
