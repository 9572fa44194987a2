package telegram

import "pravo-monitor/internal/infra/notifier"

// Keyboard button labels; routing matches on exact text.
const (
	buttonSearch       = "🔍 Поиск документов"
	buttonStats        = "📊 Статистика"
	buttonRefresh      = "🔄 Обновить базу"
	buttonHelp         = "ℹ️ Помощь"
	buttonSubscription = "🔔 Управление подпиской"
)

// mainKeyboard is the persistent reply keyboard attached to every reply.
func mainKeyboard() *notifier.ReplyKeyboard {
	return &notifier.ReplyKeyboard{
		Keyboard: [][]notifier.KeyboardButton{
			{{Text: buttonSearch}},
			{{Text: buttonStats}, {Text: buttonRefresh}},
			{{Text: buttonHelp}, {Text: buttonSubscription}},
		},
		ResizeKeyboard: true,
	}
}
