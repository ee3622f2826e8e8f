// Package renderer renders stockfolio reports as markdown.
package renderer

import (
	"embed"
	"fmt"
	"io/fs"
	"strings"
	"text/template"

	"github.com/etnz/stockfolio"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

//go:embed templates/*.md
var embedded embed.FS

// templates holds the markdown templates, by file name.
var templates, _ = fs.Sub(embedded, "templates")

// DefaultCurrency is used to format amounts when no currency is given.
const DefaultCurrency = "USD"

var printer = message.NewPrinter(language.English)

var funcs = template.FuncMap{
	"money": formatMoney,
	"qty":   formatQuantity,
	"stars": func(n int) string { return strings.Repeat("*", n) },
}

func formatMoney(m stockfolio.Money, currency string) string {
	if currency == "" {
		currency = DefaultCurrency
	}
	return m.Format(currency)
}

// formatQuantity writes q with thousands separators.
func formatQuantity(q stockfolio.Quantity) string {
	return printer.Sprint(number.Decimal(q.Decimal().InexactFloat64(), number.MaxFractionDigits(8)))
}

// RenderPortfolios renders the list of portfolios.
func RenderPortfolios(p *Portfolios) string {
	return renderTemplate("portfolios", "portfolios.md", nil, p)
}

// RenderComposition renders the quantities held in a portfolio.
func RenderComposition(c *Composition) string {
	partials := map[string]string{
		"portfolio_title": "portfolio_title.md",
	}
	return renderTemplate("composition", "composition.md", partials, c)
}

// RenderDistribution renders the value of each holding of a portfolio.
func RenderDistribution(d *Distribution) string {
	partials := map[string]string{
		"portfolio_title": "portfolio_title.md",
	}
	return renderTemplate("distribution", "distribution.md", partials, d)
}

// RenderValue renders the total value of a portfolio.
func RenderValue(v *Value) string {
	partials := map[string]string{
		"portfolio_title": "portfolio_title.md",
	}
	return renderTemplate("value", "value.md", partials, v)
}

// RenderRebalance renders the trades of a rebalance.
func RenderRebalance(r *Rebalance) string {
	partials := map[string]string{
		"portfolio_title": "portfolio_title.md",
	}
	return renderTemplate("rebalance", "rebalance.md", partials, r)
}

// RenderPlot renders a performance plot.
func RenderPlot(p *Plot) string {
	partials := map[string]string{
		"plot_bars": "plot_bars.md",
	}
	return renderTemplate("plot", "plot.md", partials, p)
}

// RenderStock renders the analytics of a stock.
func RenderStock(s *Stock) string {
	partials := map[string]string{
		"stock_gain":       "stock_gain.md",
		"stock_average":    "stock_average.md",
		"stock_crossovers": "stock_crossovers.md",
	}
	// Unset sections render to nothing.
	if s.Gain == nil {
		partials["stock_gain"] = ""
	}
	if s.Average == nil {
		partials["stock_average"] = ""
	}
	if s.Crossovers == nil {
		partials["stock_crossovers"] = ""
	}
	return renderTemplate("stock", "stock.md", partials, s)
}

// renderTemplate is a generic utility to render a main template that depends on several partials.
func renderTemplate(templateName, mainFile string, partials map[string]string, data any) string {
	mainContent, err := fs.ReadFile(templates, mainFile)
	if err != nil {
		return fmt.Sprintf("error reading main template %q: %v", mainFile, err)
	}

	tmpl, err := template.New(templateName).Funcs(funcs).Parse(string(mainContent))
	if err != nil {
		return fmt.Sprintf("error parsing main template %q: %v", mainFile, err)
	}

	for name, file := range partials {
		var content []byte
		// An empty file name is a valid case, resulting in an empty template.
		if file != "" {
			var readErr error
			content, readErr = fs.ReadFile(templates, file)
			if readErr != nil {
				return fmt.Sprintf("error reading partial template %q: %v", file, readErr)
			}
		}
		if _, err := tmpl.New(name).Parse(string(content)); err != nil {
			return fmt.Sprintf("error parsing partial template %q for %q: %v", file, name, err)
		}
	}

	var b strings.Builder
	if err := tmpl.ExecuteTemplate(&b, templateName, data); err != nil {
		return fmt.Sprintf("error executing template %q: %v", templateName, err)
	}
	return b.String()
}
