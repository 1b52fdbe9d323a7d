package main

import (
	"news-bot/bot"
	"news-bot/handlers"
)

func main() {
	bot.Run(handlers.Register)
}
