package announce

import (
	"sync"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Message keys. The English text doubles as the key.
const (
	keyHeadline = "🚀 New %s release is out!"
	keyLink     = "Download: "
	keyVersion  = "Version: "
)

var supportedLanguages = []language.Tag{language.Russian, language.English}

var languageMatcher = language.NewMatcher(supportedLanguages)

var loadCatalog = sync.OnceValue(func() catalog.Catalog {
	b := catalog.NewBuilder(catalog.Fallback(language.English))
	entries := map[language.Tag]map[string]string{
		language.English: {
			keyHeadline: "🚀 New %s release is out!",
			keyLink:     "Download: ",
			keyVersion:  "Version: ",
		},
		language.Russian: {
			keyHeadline: "🚀 Вышла новая версия %s!",
			keyLink:     "Ссылка на обновление: ",
			keyVersion:  "Версия: ",
		},
	}
	for tag, msgs := range entries {
		for key, msg := range msgs {
			if err := b.SetString(tag, key, msg); err != nil {
				panic(err)
			}
		}
	}
	return b
})

// MatchLanguage resolves a user supplied language name to the closest
// supported announcement language. Unknown input falls back to Russian,
// the first supported language.
func MatchLanguage(name string) language.Tag {
	tag, err := language.Parse(name)
	if err != nil {
		return supportedLanguages[0]
	}
	_, idx, conf := languageMatcher.Match(tag)
	if conf == language.No {
		return supportedLanguages[0]
	}
	return supportedLanguages[idx]
}

func newPrinter(tag language.Tag) *message.Printer {
	return message.NewPrinter(tag, message.Catalog(loadCatalog()))
}
