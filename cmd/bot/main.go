package main

import "github.com/nguyentranbao-ct/torrent-bot/cmd"

func main() {
	cmd.Execute()
}
