package extensions

import (
	"os/exec"
	"strings"

	"github.com/jonathanwall/brobot"
	"github.com/jonathanwall/brobot/events"
)

// ExtensionSpeedtest - runs a network speed test on the bot's host. Owner only,
// the test hammers the connection for a good while.
type ExtensionSpeedtest struct {
	Extension
	running bool
}

func (ext *ExtensionSpeedtest) Init(bot *brobot.Bot) error {
	bot.RegisterCommand(&brobot.BotCommand{
		CommandNames:    []string{"speedtest"},
		Private:         false,
		Owner:           true,
		Admin:           false,
		HelpParams:      "",
		HelpDescription: "Run a speed test on the bot's connection.",
		CommandFunc:     ext.commandSpeedtest})
	return nil
}

func (ext *ExtensionSpeedtest) commandSpeedtest(bot *brobot.Bot, sourceEvent *events.EventMessage, params []string) {
	if ext.running {
		bot.SendMessage(sourceEvent, "A speed test is already running.")
		return
	}
	ext.running = true
	bot.SendMessage(sourceEvent, "Running the speed test, this will take a minute...")

	// The command handler shouldn't hold other commands hostage for the duration.
	go func() {
		defer func() { ext.running = false }()
		cmd := exec.Command("speedtest-cli", "--simple")
		output, err := cmd.Output()
		if err != nil {
			bot.Log.Warningf("Speed test failed: %s", err)
			bot.SendMessage(sourceEvent, "Speed test failed. Is speedtest-cli installed?")
			return
		}
		// Output is three lines: ping, download, upload.
		bot.SendMessage(sourceEvent, strings.ReplaceAll(strings.TrimSpace(string(output)), "\n", " | "))
	}()
}
