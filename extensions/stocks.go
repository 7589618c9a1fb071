package extensions

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/jonathanwall/brobot"
	"github.com/jonathanwall/brobot/events"
)

// ExtensionStocks - stock quotes from the Stooq CSV API.
type ExtensionStocks struct {
	Extension
	bot *brobot.Bot
}

func (ext *ExtensionStocks) Init(bot *brobot.Bot) error {
	ext.bot = bot
	bot.RegisterCommand(&brobot.BotCommand{
		CommandNames:    []string{"stock", "stonk"},
		Private:         false,
		Owner:           false,
		Admin:           false,
		HelpParams:      "<symbol>",
		HelpDescription: "Show a quote for the given stock symbol.",
		CommandFunc:     ext.commandStock})
	return nil
}

// fetchQuote pulls one symbol's quote line from Stooq.
// Columns are: symbol, date, time, open, high, low, close, volume.
func (ext *ExtensionStocks) fetchQuote(symbol string) ([]string, error) {
	address := fmt.Sprintf(
		"https://stooq.com/q/l/?s=%s&f=sd2t2ohlcv&h&e=csv", url.QueryEscape(strings.ToLower(symbol)))
	_, body, err := ext.bot.GetPageBody(address, nil)
	if err != nil {
		return nil, err
	}
	records, err := csv.NewReader(bytes.NewReader(body)).ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 || len(records[1]) < 8 {
		return nil, fmt.Errorf("no quote for %s", symbol)
	}
	return records[1], nil
}

func (ext *ExtensionStocks) commandStock(bot *brobot.Bot, sourceEvent *events.EventMessage, params []string) {
	if len(params) != 1 {
		return
	}
	symbol := params[0]
	record, err := ext.fetchQuote(symbol)
	if err != nil {
		bot.Log.Warningf("Error getting stock data for %s: %s", symbol, err)
		bot.SendMessage(sourceEvent, fmt.Sprintf("Couldn't get a quote for %s.", symbol))
		return
	}
	closePrice, err := strconv.ParseFloat(record[6], 64)
	if err != nil { // Unknown symbols come back with "N/D" columns.
		bot.SendMessage(sourceEvent, fmt.Sprintf("Couldn't get a quote for %s.", symbol))
		return
	}
	openPrice, _ := strconv.ParseFloat(record[3], 64)
	direction := "⬆"
	if closePrice < openPrice {
		direction = "⬇"
	}
	bot.SendMessage(sourceEvent, fmt.Sprintf(
		"%s: %.2f %s (open %.2f, high %s, low %s) as of %s %s",
		strings.ToUpper(record[0]), closePrice, direction, openPrice, record[4], record[5], record[1], record[2]))
}
