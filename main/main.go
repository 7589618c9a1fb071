package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/jonathanwall/brobot"
	"github.com/jonathanwall/brobot/extensions"
)

var (
	configFile = flag.String("c", "config.ini", "Path to TOML configuration file for the bot.")
	textsFile  = flag.String("t", "texts.ini", "Path to TOML configuration file with the bot texts.")
)

func init() {
	flag.Parse()
}

// Entry point.
func main() {
	// Secrets can live in a .env file instead of the config.
	godotenv.Load()

	bot, err := brobot.New(*configFile, *textsFile)
	if err != nil {
		println("Can't create the bot:", err.Error())
		os.Exit(1)
	}

	// Add all built-in extensions.
	extensions.RegisterBuiltinExtensions(bot)

	// Shut down cleanly on an interrupt.
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-signals
		bot.Stop()
	}()

	if err := bot.Run(); err != nil {
		bot.Log.Fatalf("Bot exited with an error: %s", err)
	}
}
