package main

import (
	"boilerroom-backend/cmd/boilerroom/commands"
	"boilerroom-backend/lib/serviceutil"
)

func main() {
	commands.ExecuteContext(serviceutil.SignalContext())
}
