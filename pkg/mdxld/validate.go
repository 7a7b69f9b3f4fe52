package mdxld

import (
	"errors"
	"fmt"
	"net/url"

	"golang.org/x/text/language"
)

// Validate performs optional structural checks on the reserved properties.
// It never inspects Data: documents are schemaless.
func Validate(doc Document) error {
	var errs []error

	checkURI := func(p Property, v string) {
		if v == "" {
			return
		}
		u, err := url.Parse(v)
		if err != nil || !u.IsAbs() {
			errs = append(errs, fmt.Errorf("%s: %q is not an absolute URI", p, v))
		}
	}
	checkURI(PropBase, doc.Base)
	checkURI(PropVocab, doc.Vocab)
	if s, ok := doc.Context.(string); ok {
		checkURI(PropContext, s)
	}

	if doc.Context != nil {
		switch doc.Context.(type) {
		case string, map[string]any, []any:
		default:
			errs = append(errs, fmt.Errorf("%s: unsupported value of type %T", PropContext, doc.Context))
		}
	}

	if doc.Language != "" && !isLanguageTag(doc.Language) {
		errs = append(errs, fmt.Errorf("%s: %q is not a language tag", PropLanguage, doc.Language))
	}

	return errors.Join(errs...)
}

// isLanguageTag reports whether s is a well-formed BCP 47 tag with known
// subtags.
func isLanguageTag(s string) bool {
	_, err := language.Parse(s)
	return err == nil
}
