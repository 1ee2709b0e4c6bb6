// Package textsafe prepares free-form text for a typesetting backend.
// The renderer picks the Sanitizer; the schedule pipeline applies it to the
// fields that end up in the document.
package textsafe

import (
	"fmt"
	"strings"
)

// Sanitizer makes a string safe for the output format.
type Sanitizer interface {
	Sanitize(s string) string
}

// Func adapts a plain function to Sanitizer.
type Func func(string) string

// Sanitize implements Sanitizer.
func (f Func) Sanitize(s string) string { return f(s) }

// Ampersand escapes "&", the table column separator in LaTeX. It is the
// only character the export templates cannot take verbatim.
var Ampersand Sanitizer = Func(func(s string) string {
	return strings.ReplaceAll(s, "&", `\&`)
})

// latexReplacer escapes every LaTeX special character in a single pass, so
// inserted backslashes are never escaped twice.
var latexReplacer = strings.NewReplacer(
	`\`, `\textbackslash{}`,
	`&`, `\&`,
	`%`, `\%`,
	`$`, `\$`,
	`#`, `\#`,
	`_`, `\_`,
	`{`, `\{`,
	`}`, `\}`,
	`~`, `\textasciitilde{}`,
	`^`, `\textasciicircum{}`,
)

// LaTeX escapes all LaTeX special characters.
var LaTeX Sanitizer = Func(latexReplacer.Replace)

// Identity leaves text unchanged.
var Identity Sanitizer = Func(func(s string) string { return s })

// Und replaces "&" with the word "und" so meal names read naturally in
// headings where an escaped ampersand would look out of place.
func Und(s string) string {
	return strings.ReplaceAll(s, "&", " und ")
}

// Chain applies sanitizers in order.
func Chain(sanitizers ...Sanitizer) Sanitizer {
	return Func(func(s string) string {
		for _, san := range sanitizers {
			s = san.Sanitize(s)
		}
		return s
	})
}

var named = map[string]Sanitizer{
	"ampersand": Ampersand,
	"latex":     LaTeX,
	"und":       Func(Und),
	"none":      Identity,
}

// Named resolves a comma separated list of sanitizer names ("ampersand",
// "latex", "und", "none") into one Sanitizer applying them in order.
func Named(names string) (Sanitizer, error) {
	var chain []Sanitizer
	for _, name := range strings.Split(names, ",") {
		name = strings.ToLower(strings.TrimSpace(name))
		san, ok := named[name]
		if !ok {
			return nil, fmt.Errorf("unknown escaper %q", name)
		}
		chain = append(chain, san)
	}
	if len(chain) == 1 {
		return chain[0], nil
	}
	return Chain(chain...), nil
}
