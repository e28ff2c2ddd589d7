package main

import "brems/internal/app/server"

func main() {
	server.Run()
}
