// Extensions for brobot.
package extensions

import "github.com/jonathanwall/brobot"

// Extensions should embed this struct and override any methods necessary.
type Extension struct{}

// Will be run on bot's init or when extension is registered after bot's init.
func (ext *Extension) Init(bot *brobot.Bot) error { return nil }

// RegisterBuiltinExtensions will do exactly what you think it will do.
func RegisterBuiltinExtensions(bot *brobot.Bot) {
	bot.RegisterExtension(new(ExtensionReminders))
	bot.RegisterExtension(new(ExtensionMeta))
	bot.RegisterExtension(new(ExtensionBtc))
	bot.RegisterExtension(new(ExtensionStocks))
	bot.RegisterExtension(new(ExtensionXkcd))
	bot.RegisterExtension(new(ExtensionApod))
	bot.RegisterExtension(new(ExtensionFun))
	bot.RegisterExtension(new(ExtensionSpeedtest))
}
