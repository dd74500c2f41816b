// Package templates holds the HTML components of the presentation hand-off:
// the page layout, the year slice table and the error alert that replaces
// the content when a run fails.
package templates

import (
	"context"
	"fmt"
	"io"
	"net/url"

	"github.com/a-h/templ"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// printer renders numbers with Japanese digit grouping.
var printer = message.NewPrinter(language.Japanese)

// FormatNumber renders v with thousands separators and up to three
// fractional digits.
func FormatNumber(v float64) string {
	return printer.Sprint(number.Decimal(v, number.MaxFractionDigits(3)))
}

// Row is one age of the selected year.
type Row struct {
	AgeLabel string
	Age      int
	Value    float64
	HasValue bool
}

// VariantLink is an entry of the variant selector.
type VariantLink struct {
	Key      string
	Label    string
	Selected bool
}

// SliceData is everything the slice page shows.
type SliceData struct {
	RunID    string
	Variant  string
	Variants []VariantLink
	Year     string
	Years    []string
	Rows     []Row
}

// Page wraps body in the document layout.
func Page(title string, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := fmt.Fprintf(w, `<!DOCTYPE html><html lang="ja"><head><meta charset="utf-8"><title>%s</title></head><body><main>`,
			templ.EscapeString(title)); err != nil {
			return err
		}
		if err := body.Render(ctx, w); err != nil {
			return err
		}
		_, err := io.WriteString(w, `</main></body></html>`)
		return err
	})
}

// ErrorAlert renders a single descriptive failure message.
func ErrorAlert(message, action, code string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := fmt.Fprintf(w,
			`<div class="alert alert-error" role="alert"><p class="alert-message">%s</p><p class="alert-action">%s</p><p class="alert-code">Code: %s</p></div>`,
			templ.EscapeString(message), templ.EscapeString(action), templ.EscapeString(code))
		return err
	})
}

// SliceView renders the variant and year selectors followed by the table.
func SliceView(d SliceData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, `<nav class="variants">`); err != nil {
			return err
		}
		for _, v := range d.Variants {
			class := ""
			if v.Selected {
				class = ` class="selected"`
			}
			if _, err := fmt.Fprintf(w, `<a href="%s"%s>%s</a>`,
				sliceHref(v.Key, ""), class, templ.EscapeString(v.Label)); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(w, `</nav><nav class="years">`); err != nil {
			return err
		}
		for _, y := range d.Years {
			class := ""
			if y == d.Year {
				class = ` class="selected"`
			}
			if _, err := fmt.Fprintf(w, `<a href="%s"%s>%s</a>`,
				sliceHref(d.Variant, y), class, templ.EscapeString(y)); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(w, `</nav>`); err != nil {
			return err
		}
		if err := SliceTable(d).Render(ctx, w); err != nil {
			return err
		}
		_, err := fmt.Fprintf(w, `<p class="download"><a href="%s">CSV</a></p>`,
			templ.EscapeString("/api/slice.csv?"+sliceQuery(d.Variant, d.Year).Encode()))
		return err
	})
}

// SliceTable renders the age/value table of one year, or a no-data notice.
func SliceTable(d SliceData) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if len(d.Rows) == 0 {
			_, err := fmt.Fprintf(w, `<p class="no-data">%s: データがありません</p>`, templ.EscapeString(d.Year))
			return err
		}
		if _, err := fmt.Fprintf(w,
			`<table class="slice" data-run-id="%s"><caption>%s 年齢別人口</caption><thead><tr><th>年齢</th><th>人口</th></tr></thead><tbody>`,
			templ.EscapeString(d.RunID), templ.EscapeString(d.Year)); err != nil {
			return err
		}
		for _, r := range d.Rows {
			value := "-"
			if r.HasValue {
				value = FormatNumber(r.Value)
			}
			if _, err := fmt.Fprintf(w, `<tr data-age="%d"><td>%s</td><td class="num">%s</td></tr>`,
				r.Age, templ.EscapeString(r.AgeLabel), templ.EscapeString(value)); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, `</tbody></table>`)
		return err
	})
}

func sliceQuery(variant, year string) url.Values {
	q := url.Values{}
	if variant != "" {
		q.Set("variant", variant)
	}
	if year != "" {
		q.Set("year", year)
	}
	return q
}

func sliceHref(variant, year string) string {
	return templ.EscapeString("/slice?" + sliceQuery(variant, year).Encode())
}
