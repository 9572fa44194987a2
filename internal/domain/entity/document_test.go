package entity

import (
	"testing"
	"time"
)

func TestParsePublishDate(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  time.Time
	}{
		{"valid date", "15.03.2024", time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)},
		{"valid with spaces", " 01.01.2020 ", time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)},
		{"empty", "", time.Time{}},
		{"sentinel", NoDate, time.Time{}},
		{"wrong layout", "2024-03-15", time.Time{}},
		{"garbage", "скоро", time.Time{}},
		{"impossible day", "32.01.2024", time.Time{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParsePublishDate(tt.input)
			if !got.Equal(tt.want) {
				t.Errorf("ParsePublishDate(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestDocumentValidate(t *testing.T) {
	valid := Document{
		Organization: "Министерство просвещения Российской Федерации",
		Title:        "Приказ об утверждении порядка",
		PublishDate:  "10.01.2024",
		URL:          "http://publication.pravo.gov.ru/document/0001202401100001",
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("Validate() on complete document: %v", err)
	}

	// unknown organizations must not be rejected
	unknown := valid
	unknown.Organization = "Неизвестное ведомство"
	if err := unknown.Validate(); err != nil {
		t.Errorf("Validate() rejected unknown organization: %v", err)
	}

	for _, field := range []string{"url", "organization", "documentTitle", "publishDate"} {
		doc := valid
		switch field {
		case "url":
			doc.URL = ""
		case "organization":
			doc.Organization = ""
		case "documentTitle":
			doc.Title = ""
		case "publishDate":
			doc.PublishDate = ""
		}
		if err := doc.Validate(); err == nil {
			t.Errorf("Validate() accepted document with empty %s", field)
		}
	}
}

func TestSortByDateDesc(t *testing.T) {
	docs := []Document{
		{URL: "a", PublishDate: "09.01.2024"},
		{URL: "b", PublishDate: "11.01.2024"},
		{URL: "c", PublishDate: NoDate},
		{URL: "d", PublishDate: "10.01.2024"},
	}
	SortByDateDesc(docs)

	wantOrder := []string{"b", "d", "a", "c"}
	for i, url := range wantOrder {
		if docs[i].URL != url {
			t.Fatalf("position %d = %q, want %q (full order: %v)", i, docs[i].URL, url, docs)
		}
	}
}

func TestSortByDateDescStableTies(t *testing.T) {
	docs := []Document{
		{URL: "first", PublishDate: "10.01.2024"},
		{URL: "second", PublishDate: "10.01.2024"},
		{URL: "third", PublishDate: "10.01.2024"},
	}
	SortByDateDesc(docs)
	for i, url := range []string{"first", "second", "third"} {
		if docs[i].URL != url {
			t.Errorf("tie order not preserved: position %d = %q", i, docs[i].URL)
		}
	}
}

func TestTruncateTitle(t *testing.T) {
	if got := TruncateTitle("короткий", 100); got != "короткий" {
		t.Errorf("short title modified: %q", got)
	}
	long := "Приказ Министерства просвещения Российской Федерации об утверждении федеральной образовательной программы дошкольного образования"
	got := TruncateTitle(long, 100)
	if runes := []rune(got); len(runes) != 103 { // 100 + "..."
		t.Errorf("truncated length = %d runes, want 103", len(runes))
	}
}

func TestSourceCatalog(t *testing.T) {
	sources := DefaultSources()
	if len(sources) != 3 {
		t.Fatalf("DefaultSources() returned %d sources, want 3", len(sources))
	}
	keys := SourceKeys()
	for i, src := range sources {
		if src.Key != keys[i] {
			t.Errorf("source %d key = %q, want %q", i, src.Key, keys[i])
		}
		if err := src.Validate(); err != nil {
			t.Errorf("source %q failed validation: %v", src.Key, err)
		}
	}
	if IsSourceKey("oblast") {
		t.Error("IsSourceKey accepted unknown key")
	}
}
