package extensions

import (
	"fmt"
	"math/rand"
	"strconv"
	"strings"

	"github.com/jonathanwall/brobot"
	"github.com/jonathanwall/brobot/events"
)

// ExtensionFun - dice, coin flips and fortune telling.
type ExtensionFun struct {
	Extension
	answers []string
}

func (ext *ExtensionFun) Init(bot *brobot.Bot) error {
	ext.answers = []string{
		"It is certain.", "Without a doubt.", "Yes, definitely.", "Most likely.", "Outlook good.",
		"Reply hazy, try again.", "Ask again later.", "Better not tell you now.",
		"Don't count on it.", "My reply is no.", "My sources say no.", "Very doubtful.",
	}
	bot.RegisterCommand(&brobot.BotCommand{
		CommandNames:    []string{"8ball"},
		Private:         false,
		Owner:           false,
		Admin:           false,
		HelpParams:      "<question>",
		HelpDescription: "Consult the magic 8 ball.",
		CommandFunc:     ext.commandEightBall})
	bot.RegisterCommand(&brobot.BotCommand{
		CommandNames:    []string{"roll"},
		Private:         false,
		Owner:           false,
		Admin:           false,
		HelpParams:      "[sides]",
		HelpDescription: "Roll a die, 6 sides by default.",
		CommandFunc:     ext.commandRoll})
	bot.RegisterCommand(&brobot.BotCommand{
		CommandNames:    []string{"flip"},
		Private:         false,
		Owner:           false,
		Admin:           false,
		HelpParams:      "",
		HelpDescription: "Flip a coin.",
		CommandFunc:     ext.commandFlip})
	return nil
}

func (ext *ExtensionFun) commandEightBall(bot *brobot.Bot, sourceEvent *events.EventMessage, params []string) {
	if strings.TrimSpace(strings.Join(params, "")) == "" {
		bot.SendMessage(sourceEvent, "You have to ask a question.")
		return
	}
	bot.SendMessage(sourceEvent, fmt.Sprintf(
		"%s, %s", sourceEvent.Nick, ext.answers[rand.Intn(len(ext.answers))]))
}

func (ext *ExtensionFun) commandRoll(bot *brobot.Bot, sourceEvent *events.EventMessage, params []string) {
	sides := 6
	if len(params) > 0 {
		n, err := strconv.Atoi(params[0])
		if err != nil || n < 2 {
			bot.SendMessage(sourceEvent, "That's not a die I can roll.")
			return
		}
		sides = n
	}
	bot.SendMessage(sourceEvent, fmt.Sprintf("%s rolled %d (1-%d).", sourceEvent.Nick, rand.Intn(sides)+1, sides))
}

func (ext *ExtensionFun) commandFlip(bot *brobot.Bot, sourceEvent *events.EventMessage, params []string) {
	result := "heads"
	if rand.Intn(2) == 1 {
		result = "tails"
	}
	bot.SendMessage(sourceEvent, fmt.Sprintf("%s flipped a coin: %s.", sourceEvent.Nick, result))
}
