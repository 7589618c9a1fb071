package extensions

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"strconv"

	"github.com/jonathanwall/brobot"
	"github.com/jonathanwall/brobot/events"
)

// ExtensionXkcd - fetches xkcd comics.
type ExtensionXkcd struct {
	Extension
	bot *brobot.Bot
}

type xkcdComic struct {
	Num   int    `json:"num"`
	Title string `json:"safe_title"`
	Img   string `json:"img"`
	Alt   string `json:"alt"`
}

func (ext *ExtensionXkcd) Init(bot *brobot.Bot) error {
	ext.bot = bot
	bot.RegisterCommand(&brobot.BotCommand{
		CommandNames:    []string{"xkcd"},
		Private:         false,
		Owner:           false,
		Admin:           false,
		HelpParams:      "[number | random]",
		HelpDescription: "Show the latest xkcd comic, a random one, or the given one.",
		CommandFunc:     ext.commandXkcd})
	return nil
}

// fetch grabs comic info. Pass 0 for the latest comic.
func (ext *ExtensionXkcd) fetch(number int) (*xkcdComic, error) {
	address := "https://xkcd.com/info.0.json"
	if number > 0 {
		address = fmt.Sprintf("https://xkcd.com/%d/info.0.json", number)
	}
	_, body, err := ext.bot.GetPageBody(address, nil)
	if err != nil {
		return nil, err
	}
	comic := &xkcdComic{}
	if err := json.Unmarshal(body, comic); err != nil {
		return nil, err
	}
	return comic, nil
}

func (ext *ExtensionXkcd) commandXkcd(bot *brobot.Bot, sourceEvent *events.EventMessage, params []string) {
	number := 0
	if len(params) > 0 && params[0] == "random" {
		// A random comic needs the latest number for the upper bound.
		latest, err := ext.fetch(0)
		if err != nil {
			bot.Log.Warningf("Error getting xkcd comic: %s", err)
			bot.SendMessage(sourceEvent, "Couldn't reach xkcd.")
			return
		}
		number = rand.Intn(latest.Num) + 1
	} else if len(params) > 0 {
		n, err := strconv.Atoi(params[0])
		if err != nil || n < 1 {
			bot.SendMessage(sourceEvent, "That's not a comic number.")
			return
		}
		number = n
	}
	comic, err := ext.fetch(number)
	if err != nil {
		bot.Log.Warningf("Error getting xkcd comic: %s", err)
		bot.SendMessage(sourceEvent, "Couldn't reach xkcd.")
		return
	}
	bot.SendMessage(sourceEvent, fmt.Sprintf("xkcd #%d: %s - %s", comic.Num, comic.Title, comic.Img))
	if comic.Alt != "" {
		bot.SendNotice(sourceEvent, comic.Alt)
	}
}
