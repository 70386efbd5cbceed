package dategroup

import (
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Supported display locales.
var (
	English = language.English
	Spanish = language.Spanish
	French  = language.French
)

var (
	supported = []language.Tag{English, Spanish, French}
	matcher   = language.NewMatcher(supported)
	labels    = buildCatalog()
)

// dayPattern is also the English rendering: weekday, month, day of month.
const dayPattern = "%[1]s, %[2]s %[3]d"

func buildCatalog() *catalog.Builder {
	b := catalog.NewBuilder(catalog.Fallback(English))

	_ = b.SetString(Spanish, dayPattern, "%[1]s, %[3]d de %[2]s")
	_ = b.SetString(French, dayPattern, "%[1]s %[3]d %[2]s")

	weekdays := map[language.Tag][7]string{
		Spanish: {"domingo", "lunes", "martes", "miércoles", "jueves", "viernes", "sábado"},
		French:  {"dimanche", "lundi", "mardi", "mercredi", "jeudi", "vendredi", "samedi"},
	}
	months := map[language.Tag][12]string{
		Spanish: {"enero", "febrero", "marzo", "abril", "mayo", "junio", "julio", "agosto", "septiembre", "octubre", "noviembre", "diciembre"},
		French:  {"janvier", "février", "mars", "avril", "mai", "juin", "juillet", "août", "septembre", "octobre", "novembre", "décembre"},
	}
	for tag, names := range weekdays {
		for i, name := range names {
			_ = b.SetString(tag, time.Weekday(i).String(), name)
		}
	}
	for tag, names := range months {
		for i, name := range names {
			_ = b.SetString(tag, time.Month(i+1).String(), name)
		}
	}
	return b
}

// Formatter renders day and time labels for one locale.
type Formatter struct {
	tag     language.Tag
	printer *message.Printer
	clock   string
}

// NewFormatter returns a formatter for the closest supported locale.
func NewFormatter(tag language.Tag) *Formatter {
	_, idx, _ := matcher.Match(tag)
	base := supported[idx]

	clock := "3:04 PM"
	if base != English {
		clock = "15:04"
	}
	return &Formatter{
		tag:     base,
		printer: message.NewPrinter(base, message.Catalog(labels)),
		clock:   clock,
	}
}

// Tag returns the locale the formatter resolved to.
func (f *Formatter) Tag() language.Tag {
	return f.tag
}

// Day renders a calendar date, e.g. "Friday, March 14".
func (f *Formatter) Day(t time.Time) string {
	weekday := f.printer.Sprintf(t.Weekday().String())
	month := f.printer.Sprintf(t.Month().String())
	return f.printer.Sprintf(dayPattern, weekday, month, t.Day())
}

// Clock renders a time of day, e.g. "7:30 PM".
func (f *Formatter) Clock(t time.Time) string {
	return t.Format(f.clock)
}

// ResolveLocale picks a locale from an explicit language value, falling
// back to an Accept-Language header, then English.
func ResolveLocale(explicit, acceptLanguage string) language.Tag {
	if explicit = strings.TrimSpace(explicit); explicit != "" {
		if tag, err := language.Parse(explicit); err == nil {
			return tag
		}
	}
	if acceptLanguage = strings.TrimSpace(acceptLanguage); acceptLanguage != "" {
		if tags, _, err := language.ParseAcceptLanguage(acceptLanguage); err == nil && len(tags) > 0 {
			tag, _, _ := matcher.Match(tags...)
			return tag
		}
	}
	return English
}
