package notify

import (
	"fmt"
	"html"
	"time"

	"pravo-monitor/internal/domain/entity"
)

const (
	// maxDetailMessages bounds the per-document messages sent after the
	// summary; the rest are folded into a single tail line.
	maxDetailMessages = 3

	// detailTitleLimit truncates long document titles in detail messages.
	detailTitleLimit = 100
)

// summaryMessage announces a batch of new documents: how many were added,
// the database total after the add, and the local update time.
func summaryMessage(added, total int, now time.Time) string {
	return fmt.Sprintf(
		"📢 <b>Обнаружены новые документы!</b>\n\n"+
			"• Добавлено: <b>%d</b> документов\n"+
			"• Всего в базе: <b>%d</b>\n"+
			"• Время обновления: %s",
		added, total, now.Format("15:04"))
}

// detailMessage renders one document as an HTML card with a link. Scraped
// values are escaped: a stray < in a title would otherwise make the Bot API
// reject the whole message with "can't parse entities".
func detailMessage(doc entity.Document) string {
	return fmt.Sprintf(
		"<b>%s</b>\n📅 %s\n<i>%s</i>\n<a href='%s'>📄 Открыть документ</a>",
		html.EscapeString(doc.Organization),
		html.EscapeString(doc.PublishDate),
		html.EscapeString(entity.TruncateTitle(doc.Title, detailTitleLimit)),
		html.EscapeString(doc.URL))
}

// tailMessage points at the documents that did not get their own card.
func tailMessage(remaining int) string {
	return fmt.Sprintf(
		"📋 И еще <b>%d</b> документов. Нажмите «🔍 Поиск документов» чтобы найти нужный.",
		remaining)
}
