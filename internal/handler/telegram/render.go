package telegram

import (
	"fmt"
	"html"
	"strings"
	"time"

	"pravo-monitor/internal/domain/entity"
)

const cardTitleLimit = 100

// organizationLabel pairs a tracked organization with its short display name.
type organizationLabel struct {
	Organization string
	Label        string
}

// trackedOrganizations drives per-organization displays, in a fixed order.
var trackedOrganizations = []organizationLabel{
	{Organization: "Министерство просвещения Российской Федерации", Label: "Минпросвещения РФ"},
	{Organization: "Министерство образования и науки Республики Саха (Якутия)", Label: "Минобрнауки Якутии"},
	{Organization: "Федеральная служба по надзору в сфере образования и науки", Label: "Рособрнадзор"},
}

// statsRow is one organization's line in the statistics message.
type statsRow struct {
	Label      string
	Count      int
	LatestDate string
}

// documentCard renders one document as an HTML card with a link. Scraped
// values are escaped so a stray < in a title cannot break the Bot API's
// entity parsing for the whole message.
func documentCard(doc entity.Document) string {
	return fmt.Sprintf(
		"<b>%s</b>\n📅 %s\n<i>%s</i>\n<a href='%s'>📄 Открыть документ</a>",
		html.EscapeString(doc.Organization),
		html.EscapeString(doc.PublishDate),
		html.EscapeString(entity.TruncateTitle(doc.Title, cardTitleLimit)),
		html.EscapeString(doc.URL))
}

func welcomeText(total int, lastUpdate time.Time) string {
	return fmt.Sprintf(
		"👋 <b>Добро пожаловать в бот правовых актов!</b>\n\n"+
			"Я отслеживаю документы трёх ведомств:\n"+
			"• Минпросвещения России\n"+
			"• Минобрнауки Якутии\n"+
			"• Рособрнадзор\n\n"+
			"📊 <b>Текущее состояние:</b>\n"+
			"• Документов в базе: %d\n"+
			"• Последнее обновление: %s",
		total, formatUpdateTime(lastUpdate))
}

func statsText(total int, rows []statsRow, lastUpdate time.Time, createdAt string) string {
	var sb strings.Builder
	sb.WriteString("📊 <b>Статистика базы данных</b>\n\n")
	fmt.Fprintf(&sb, "• Всего документов: <b>%d</b>\n\n", total)
	sb.WriteString("<b>По ведомствам:</b>\n")
	for _, row := range rows {
		latest := row.LatestDate
		if latest == "" {
			latest = "нет документов"
		}
		fmt.Fprintf(&sb, "• %s: <b>%d</b> (последний: %s)\n", row.Label, row.Count, latest)
	}
	fmt.Fprintf(&sb, "\n• Последнее обновление: %s\n", formatUpdateTime(lastUpdate))
	if createdAt == "" {
		createdAt = "неизвестно"
	}
	fmt.Fprintf(&sb, "• База создана: %s", createdAt)
	return sb.String()
}

func helpText() string {
	return "ℹ️ <b>Справка по боту</b>\n\n" +
		"📋 <b>Основные команды:</b>\n" +
		"• <b>🔍 Поиск документов</b> - найти документы по ключевым словам\n" +
		"• <b>📊 Статистика</b> - информация о базе данных\n" +
		"• <b>🔄 Обновить базу</b> - принудительная проверка новых документов\n\n" +
		"🔔 <b>Автоматические уведомления:</b>\n" +
		"Бот автоматически проверяет новые документы каждый час и присылает уведомления.\n\n" +
		"📚 <b>Отслеживаемые источники:</b>\n" +
		"• Минпросвещения России\n" +
		"• Минобрнауки Якутии\n" +
		"• Рособрнадзор"
}

func subscriptionText(subscribed bool) string {
	if subscribed {
		return "🔔 <b>Управление подпиской</b>\n\n" +
			"Вы <b>подписаны</b> на уведомления о новых документах.\n\n" +
			"Чтобы отписаться, отправьте команду /stop"
	}
	return "🔔 <b>Управление подпиской</b>\n\n" +
		"Вы <b>не подписаны</b> на уведомления.\n\n" +
		"Чтобы подписаться, отправьте команду /start"
}

func formatUpdateTime(t time.Time) string {
	if t.IsZero() {
		return "никогда"
	}
	return t.Format("02.01.2006 15:04")
}
