package testutil

import (
	"fmt"
	"time"

	"github.com/nhle/wtldr/internal/model"
)

// NewsletterSender is the From header used by newsletter fixtures.
const NewsletterSender = "TLDR <dan@tldrnewsletter.com>"

// NewsletterBody is a two-article newsletter body with its link table.
const NewsletterBody = "Title One (5 minute read) [1]\r\n\r\nPara one.\r\n\r\n" +
	"Title Two (3 minute read) [2]\r\n\r\nPara two.\r\n\r\n" +
	"Links:\r\n------\r\n[1] http://a.com\r\n[2] http://b.com"

// NewMessage returns an unprocessed newsletter message with the given ID.
func NewMessage(id int64) model.Message {
	return model.Message{
		ID:      id,
		Sender:  NewsletterSender,
		Subject: fmt.Sprintf("TLDR issue %d", id),
		Body:    NewsletterBody,
		SentAt:  time.Date(2024, time.May, 14, 10, 26, 0, 0, time.UTC),
	}
}

// RawNewsletter renders a fetched RFC 822 newsletter with the given
// sender, date and body.
func RawNewsletter(sender, date, body string) []byte {
	return []byte("From: " + sender + "\r\n" +
		"Subject: =?utf-8?q?GPT-4o_crushes_leaderboard?=\r\n" +
		"Date: " + date + "\r\n" +
		"Content-Type: text/plain; charset=utf-8\r\n" +
		"\r\n" +
		body)
}
