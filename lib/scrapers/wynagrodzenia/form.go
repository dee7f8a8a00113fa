package wynagrodzenia

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

type form struct {
	action *url.URL
	method string
	token  string
	values url.Values
}

// parseForm finds the calculator form and collects what a browser would
// submit by default: named inputs, checked checkboxes and radios, selected
// options and textareas. Submit buttons are left out.
func parseForm(doc *goquery.Document, pageUrl *url.URL) (form, bool) {
	sel := doc.Find("form[name=" + FormName + "]").First()
	if sel.Length() == 0 {
		return form{}, false
	}

	token, ok := sel.Find(`input[name="` + TokenField + `"]`).Attr("value")
	if !ok || token == "" {
		return form{}, false
	}

	action := pageUrl
	if rawAction := strings.TrimSpace(sel.AttrOr("action", "")); rawAction != "" {
		parsed, err := url.Parse(rawAction)
		if err != nil {
			return form{}, false
		}
		action = pageUrl.ResolveReference(parsed)
	}

	method := strings.ToUpper(sel.AttrOr("method", http.MethodPost))
	if method != http.MethodGet {
		method = http.MethodPost
	}

	values := url.Values{}
	sel.Find("input[name]").Each(func(_ int, input *goquery.Selection) {
		name := input.AttrOr("name", "")
		switch strings.ToLower(input.AttrOr("type", "text")) {
		case "submit", "button", "image", "reset", "file":
			return
		case "checkbox", "radio":
			if _, checked := input.Attr("checked"); !checked {
				return
			}
			values.Add(name, input.AttrOr("value", "on"))
		default:
			values.Add(name, input.AttrOr("value", ""))
		}
	})
	sel.Find("select[name]").Each(func(_ int, selectSel *goquery.Selection) {
		name := selectSel.AttrOr("name", "")
		option := selectSel.Find("option[selected]").First()
		if option.Length() == 0 {
			option = selectSel.Find("option").First()
		}
		if option.Length() == 0 {
			return
		}
		value, ok := option.Attr("value")
		if !ok {
			value = strings.TrimSpace(option.Text())
		}
		values.Add(name, value)
	})
	sel.Find("textarea[name]").Each(func(_ int, textarea *goquery.Selection) {
		values.Add(textarea.AttrOr("name", ""), textarea.Text())
	})

	return form{
		action: action,
		method: method,
		token:  token,
		values: values,
	}, true
}

// merge overrides the form's default values with every key in `overrides`.
func merge(defaults url.Values, overrides ...url.Values) url.Values {
	out := url.Values{}
	for k, v := range defaults {
		out[k] = append([]string(nil), v...)
	}
	for _, o := range overrides {
		for k, v := range o {
			out[k] = append([]string(nil), v...)
		}
	}
	return out
}
