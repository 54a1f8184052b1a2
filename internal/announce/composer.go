// Package announce renders the chat announcement for a newly detected release.
package announce

import (
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"git.home.luguber.info/inful/releasebot/internal/chat"
	"git.home.luguber.info/inful/releasebot/internal/release"
)

// Announcement is a rendered message ready for the chat transport. Text is
// escaped for ParseMode, and the transport must be asked for that same mode.
type Announcement struct {
	Text      string
	ParseMode chat.ParseMode
}

// Options configures a Composer.
type Options struct {
	// ProductName is shown in the headline, e.g. "Factorio".
	ProductName string
	// ReleaseURL is the download page linked from the message.
	ReleaseURL string
	// Language selects the template language ("ru", "en").
	Language  string
	ParseMode chat.ParseMode
}

// Composer builds announcement text from a fixed template.
type Composer struct {
	product   string
	link      string
	linkLabel string
	mode      chat.ParseMode
	lang      language.Tag
	printer   *message.Printer
}

// NewComposer validates opts and prepares a Composer.
func NewComposer(opts Options) (*Composer, error) {
	mode := opts.ParseMode
	if mode == "" {
		mode = chat.ParseModeMarkdownV2
	}
	if mode != chat.ParseModeMarkdownV2 && mode != chat.ParseModeHTML {
		return nil, fmt.Errorf("unsupported parse mode %q", mode)
	}
	u, err := url.Parse(opts.ReleaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid release url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("release url must be http(s), got %q", opts.ReleaseURL)
	}
	product := opts.ProductName
	if product == "" {
		product = release.DefaultProduct
	}
	tag := MatchLanguage(opts.Language)
	return &Composer{
		product:   product,
		link:      u.String(),
		linkLabel: strings.TrimPrefix(u.Hostname(), "www."),
		mode:      mode,
		lang:      tag,
		printer:   newPrinter(tag),
	}, nil
}

// Language reports the template language in use.
func (c *Composer) Language() language.Tag { return c.lang }

// ParseMode reports the markup dialect Compose renders.
func (c *Composer) ParseMode() chat.ParseMode { return c.mode }

// Compose renders the announcement for v. Every plain-text fragment is
// escaped exactly once for the composer's parse mode.
func (c *Composer) Compose(v release.Version) Announcement {
	headline := c.printer.Sprintf(keyHeadline, c.product)
	linkPrefix := c.printer.Sprintf(keyLink)
	versionPrefix := c.printer.Sprintf(keyVersion)
	esc := func(s string) string { return Escape(c.mode, s) }

	var b strings.Builder
	switch c.mode {
	case chat.ParseModeHTML:
		fmt.Fprintf(&b, "<b>%s</b>\n", esc(headline))
		fmt.Fprintf(&b, "%s<a href=\"%s\">%s</a>\n", esc(linkPrefix), esc(c.link), esc(c.linkLabel))
		fmt.Fprintf(&b, "%s<b>%s</b>", esc(versionPrefix), esc(v.String()))
	default:
		fmt.Fprintf(&b, "*%s*\n", esc(headline))
		fmt.Fprintf(&b, "%s[%s](%s)\n", esc(linkPrefix), esc(c.linkLabel), escapeMarkdownV2URL(c.link))
		fmt.Fprintf(&b, "%s*%s*", esc(versionPrefix), esc(v.String()))
	}
	return Announcement{Text: b.String(), ParseMode: c.mode}
}
