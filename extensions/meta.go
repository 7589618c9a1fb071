package extensions

import (
	"fmt"
	"time"

	"github.com/jonathanwall/brobot"
	"github.com/jonathanwall/brobot/events"
)

// ExtensionMeta - information about the bot itself.
type ExtensionMeta struct {
	Extension
}

func (ext *ExtensionMeta) Init(bot *brobot.Bot) error {
	bot.RegisterCommand(&brobot.BotCommand{
		CommandNames:    []string{"ping"},
		Private:         false,
		Owner:           false,
		Admin:           false,
		HelpParams:      "",
		HelpDescription: "Check whether the bot is alive.",
		CommandFunc:     commandPing})
	bot.RegisterCommand(&brobot.BotCommand{
		CommandNames:    []string{"uptime"},
		Private:         false,
		Owner:           false,
		Admin:           false,
		HelpParams:      "",
		HelpDescription: "Show how long the bot has been running.",
		CommandFunc:     commandUptime})
	bot.RegisterCommand(&brobot.BotCommand{
		CommandNames:    []string{"version"},
		Private:         false,
		Owner:           false,
		Admin:           false,
		HelpParams:      "",
		HelpDescription: "Show the bot's version.",
		CommandFunc:     commandVersion})
	return nil
}

func commandPing(bot *brobot.Bot, sourceEvent *events.EventMessage, params []string) {
	bot.SendMessage(sourceEvent, "pong")
}

func commandUptime(bot *brobot.Bot, sourceEvent *events.EventMessage, params []string) {
	bot.SendMessage(sourceEvent, fmt.Sprintf("I have been up for %s.", bot.Uptime().Round(time.Second)))
}

func commandVersion(bot *brobot.Bot, sourceEvent *events.EventMessage, params []string) {
	bot.SendMessage(sourceEvent, fmt.Sprintf("%s, version %s.", bot.Config.Name, brobot.Version))
}
