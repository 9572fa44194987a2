// Package telegram implements the interactive bot: a long-poll update loop
// routing commands and keyboard actions to the document store, the
// subscription list and the discovery service.
package telegram

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"pravo-monitor/internal/domain/entity"
	"pravo-monitor/internal/infra/notifier"
	"pravo-monitor/internal/observability/metrics"
	"pravo-monitor/internal/repository"
	"pravo-monitor/internal/usecase/discover"
	"pravo-monitor/internal/utils/text"
)

const (
	// pollTimeout is the server-side getUpdates long-poll window.
	pollTimeout = 30 * time.Second

	// pollErrorCooldown is the pause after a failed getUpdates call.
	pollErrorCooldown = 5 * time.Second

	// minQueryLength is the minimum free-text search query length, in runes.
	minQueryLength = 2

	// maxSearchResults caps rendered search result cards.
	maxSearchResults = 5

	// maxRefreshResults caps document cards sent after a manual refresh.
	maxRefreshResults = 3

	// handlerPoolSize bounds concurrent message handlers, so a slow handler
	// (a manual refresh crawls every source) never stalls the poll loop.
	handlerPoolSize = 5
)

// BotAPI is the slice of the Telegram transport the handler needs.
type BotAPI interface {
	GetUpdates(ctx context.Context, offset int64, timeout time.Duration) ([]notifier.Update, error)
	SendWithKeyboard(ctx context.Context, chatID, text string, markup any) error
}

// Refresher triggers an on-demand discovery cycle.
// Implemented by discover.Service.
type Refresher interface {
	RunCycle(ctx context.Context) (*discover.CycleStats, error)
}

// Bot routes inbound Telegram messages to handlers.
type Bot struct {
	API         BotAPI
	Docs        repository.DocumentRepository
	Subscribers repository.SubscriberRepository
	Refresher   Refresher
}

// Run polls for updates until the context is canceled. Messages are handled
// on a bounded pool of goroutines so blocking work (a manual refresh runs a
// full discovery cycle) never stalls polling; in-flight handlers are drained
// before Run returns. A handler panic is recovered and answered with a
// generic error so one bad update cannot kill the loop.
func (b *Bot) Run(ctx context.Context) error {
	slog.Info("bot update loop started")
	var offset int64

	slots := make(chan struct{}, handlerPoolSize)
	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		select {
		case <-ctx.Done():
			slog.Info("bot update loop stopped")
			return ctx.Err()
		default:
		}

		updates, err := b.API.GetUpdates(ctx, offset, pollTimeout)
		if err != nil {
			if ctx.Err() != nil {
				slog.Info("bot update loop stopped")
				return ctx.Err()
			}
			slog.Error("getUpdates failed", slog.Any("error", err))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(pollErrorCooldown):
			}
			continue
		}

		for _, update := range updates {
			if update.UpdateID >= offset {
				offset = update.UpdateID + 1
			}
			if update.Message == nil || update.Message.Text == "" {
				continue
			}
			msg := update.Message
			wg.Add(1)
			go func() {
				defer wg.Done()
				select {
				case slots <- struct{}{}:
					defer func() { <-slots }()
				case <-ctx.Done():
					return
				}
				b.handleMessage(ctx, msg)
			}()
		}
	}
}

// handleMessage dispatches one inbound message.
func (b *Bot) handleMessage(ctx context.Context, msg *notifier.Message) {
	chatID := fmt.Sprintf("%d", msg.Chat.ID)
	text := strings.TrimSpace(msg.Text)

	defer func() {
		if r := recover(); r != nil {
			slog.Error("panic while handling message",
				slog.String("chat_id", chatID),
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())))
			b.reply(ctx, chatID, "❌ Произошла ошибка. Попробуйте позже.")
		}
	}()

	switch text {
	case "/start", "/help":
		metrics.RecordBotCommand("/start")
		b.handleStart(ctx, chatID)
	case "/stop":
		metrics.RecordBotCommand("/stop")
		b.handleStop(ctx, chatID)
	case buttonSearch:
		metrics.RecordBotCommand("search_prompt")
		b.reply(ctx, chatID, "🔍 Введите поисковый запрос (например: 'приказ образование'):")
	case buttonStats:
		metrics.RecordBotCommand("stats")
		b.handleStats(ctx, chatID)
	case buttonRefresh:
		metrics.RecordBotCommand("refresh")
		b.handleRefresh(ctx, chatID)
	case buttonHelp:
		metrics.RecordBotCommand("help")
		b.reply(ctx, chatID, helpText())
	case buttonSubscription:
		metrics.RecordBotCommand("subscription")
		b.handleSubscription(ctx, chatID)
	default:
		if strings.HasPrefix(text, "/") {
			b.reply(ctx, chatID, "❌ Неизвестная команда. Отправьте /help для справки.")
			return
		}
		metrics.RecordBotCommand("search")
		b.handleSearch(ctx, chatID, text)
	}
}

// handleStart greets the chat, shows the store state, subscribes new chats
// and shows them the freshest document per tracked organization.
func (b *Bot) handleStart(ctx context.Context, chatID string) {
	subscribed, err := b.isSubscribed(ctx, chatID)
	if err != nil {
		slog.Error("subscription lookup failed",
			slog.String("chat_id", chatID),
			slog.Any("error", err))
		b.reply(ctx, chatID, "❌ Произошла ошибка. Попробуйте позже.")
		return
	}

	total, _ := b.Docs.Count(ctx)
	lastUpdate, _ := b.Docs.LastUpdate(ctx)
	b.reply(ctx, chatID, welcomeText(total, lastUpdate))

	if !subscribed {
		b.sendNewestPerOrganization(ctx, chatID)

		if err := b.Subscribers.Add(ctx, chatID); err != nil {
			slog.Error("subscribing chat failed",
				slog.String("chat_id", chatID),
				slog.Any("error", err))
		} else if count, err := b.Subscribers.Count(ctx); err == nil {
			metrics.UpdateSubscribersTotal(count)
		}
	}

	b.reply(ctx, chatID, "Готов к работе. Выберите действие:")
}

// sendNewestPerOrganization sends the freshest document card for each
// tracked organization that has any documents.
func (b *Bot) sendNewestPerOrganization(ctx context.Context, chatID string) {
	newest := b.newestPerOrganization(ctx)
	if len(newest) == 0 {
		b.reply(ctx, chatID, "📭 В базе пока нет документов")
		return
	}

	b.reply(ctx, chatID, "📌 <b>Самые свежие документы по каждому ведомству:</b>")
	for _, doc := range newest {
		b.reply(ctx, chatID, documentCard(doc))
	}
	b.reply(ctx, chatID, fmt.Sprintf("📋 Показаны самые свежие документы от %d ведомств", len(newest)))
}

func (b *Bot) handleStop(ctx context.Context, chatID string) {
	if err := b.Subscribers.Remove(ctx, chatID); err != nil {
		slog.Error("unsubscribing chat failed",
			slog.String("chat_id", chatID),
			slog.Any("error", err))
		b.reply(ctx, chatID, "❌ Произошла ошибка. Попробуйте позже.")
		return
	}
	if count, err := b.Subscribers.Count(ctx); err == nil {
		metrics.UpdateSubscribersTotal(count)
	}
	b.reply(ctx, chatID, "🔔 Вы отписались от уведомлений.\nЧтобы снова подписаться, отправьте /start")
}

func (b *Bot) handleStats(ctx context.Context, chatID string) {
	total, err := b.Docs.Count(ctx)
	if err != nil {
		slog.Error("stats lookup failed", slog.String("chat_id", chatID), slog.Any("error", err))
		b.reply(ctx, chatID, "❌ Не удалось получить статистику")
		return
	}
	lastUpdate, _ := b.Docs.LastUpdate(ctx)
	integrity, _ := b.Docs.CheckIntegrity(ctx)

	rows := make([]statsRow, 0, len(trackedOrganizations))
	for _, org := range trackedOrganizations {
		docs, err := b.Docs.List(ctx, org.Organization)
		if err != nil {
			continue
		}
		row := statsRow{Label: org.Label, Count: len(docs)}
		if latest, err := b.Docs.Latest(ctx, org.Organization, 1); err == nil && len(latest) > 0 {
			row.LatestDate = latest[0].PublishDate
		}
		rows = append(rows, row)
	}

	b.reply(ctx, chatID, statsText(total, rows, lastUpdate, integrity.CreatedAt))
}

// handleRefresh runs a discovery cycle on demand and shows the requester
// what it found: the added count, cards for the first few documents and a
// tail line for the rest. Subscribers still get the regular announcement.
func (b *Bot) handleRefresh(ctx context.Context, chatID string) {
	b.reply(ctx, chatID, "🔄 Запуск принудительного обновления базы...")

	stats, err := b.Refresher.RunCycle(ctx)
	if err != nil {
		slog.Error("manual refresh failed", slog.String("chat_id", chatID), slog.Any("error", err))
		b.reply(ctx, chatID, "❌ Ошибка при обновлении базы")
		return
	}
	if stats.Added == 0 {
		b.reply(ctx, chatID, "✅ Новых документов не найдено")
		return
	}

	b.reply(ctx, chatID, fmt.Sprintf("✅ Добавлено <b>%d</b> новых документов", stats.Added))
	for i, doc := range stats.Documents {
		if i >= maxRefreshResults {
			break
		}
		b.reply(ctx, chatID, documentCard(doc))
	}
	if remaining := stats.Added - maxRefreshResults; remaining > 0 {
		b.reply(ctx, chatID, fmt.Sprintf(
			"📋 И еще <b>%d</b> документов. Нажмите «🔍 Поиск документов» чтобы найти нужный.", remaining))
	}
}

func (b *Bot) handleSubscription(ctx context.Context, chatID string) {
	subscribed, err := b.isSubscribed(ctx, chatID)
	if err != nil {
		slog.Error("subscription lookup failed",
			slog.String("chat_id", chatID),
			slog.Any("error", err))
		b.reply(ctx, chatID, "❌ Произошла ошибка. Попробуйте позже.")
		return
	}
	b.reply(ctx, chatID, subscriptionText(subscribed))
}

func (b *Bot) handleSearch(ctx context.Context, chatID, query string) {
	if text.CountRunes(query) < minQueryLength {
		b.reply(ctx, chatID, "❌ Введите поисковый запрос (минимум 2 символа)")
		return
	}

	b.reply(ctx, chatID, fmt.Sprintf("🔍 Ищу документы по запросу: <b>%s</b>", html.EscapeString(query)))

	results, err := b.Docs.Search(ctx, query, 10)
	if err != nil {
		slog.Error("search failed",
			slog.String("chat_id", chatID),
			slog.String("query", query),
			slog.Any("error", err))
		b.reply(ctx, chatID, "❌ Произошла ошибка при поиске. Попробуйте позже.")
		return
	}
	if len(results) == 0 {
		b.reply(ctx, chatID, "❌ По вашему запросу ничего не найдено. Попробуйте другие ключевые слова.")
		return
	}

	b.reply(ctx, chatID, fmt.Sprintf("✅ Найдено документов: <b>%d</b>", len(results)))
	for i, doc := range results {
		if i >= maxSearchResults {
			break
		}
		b.reply(ctx, chatID, documentCard(doc))
	}
	if remaining := len(results) - maxSearchResults; remaining > 0 {
		b.reply(ctx, chatID, fmt.Sprintf(
			"📋 И еще <b>%d</b> документов. Уточните запрос для более точного поиска.", remaining))
	}
}

func (b *Bot) isSubscribed(ctx context.Context, chatID string) (bool, error) {
	subs, err := b.Subscribers.List(ctx)
	if err != nil {
		return false, err
	}
	for _, id := range subs {
		if id == chatID {
			return true, nil
		}
	}
	return false, nil
}

// newestPerOrganization returns the freshest document per organization,
// ordered newest first.
func (b *Bot) newestPerOrganization(ctx context.Context) []entity.Document {
	var newest []entity.Document
	for _, org := range trackedOrganizations {
		latest, err := b.Docs.Latest(ctx, org.Organization, 1)
		if err != nil || len(latest) == 0 {
			continue
		}
		newest = append(newest, latest[0])
	}
	entity.SortByDateDesc(newest)
	return newest
}

// reply sends a message with the main keyboard attached. Send failures are
// logged; there is nothing else to do with them in a chat handler.
func (b *Bot) reply(ctx context.Context, chatID, text string) {
	if err := b.API.SendWithKeyboard(ctx, chatID, text, mainKeyboard()); err != nil {
		slog.Warn("reply failed",
			slog.String("chat_id", chatID),
			slog.Any("error", err))
	}
}
