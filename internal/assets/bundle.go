package assets

import "fmt"

// Bundle groups the three assets that make up a page: the html/template
// source and the stylesheet and script inlined into it.
type Bundle struct {
	Name     string
	Template string
	Style    string
	Script   string
}

// LoadBundle loads the template, style and script sharing the given name.
// All three must resolve; the first failure is returned.
func LoadBundle(loader AssetLoader, name string) (*Bundle, error) {
	tmpl, err := loader.LoadTemplate(name)
	if err != nil {
		return nil, fmt.Errorf("loading %s template: %w", name, err)
	}
	style, err := loader.LoadStyle(name)
	if err != nil {
		return nil, fmt.Errorf("loading %s style: %w", name, err)
	}
	script, err := loader.LoadScript(name)
	if err != nil {
		return nil, fmt.Errorf("loading %s script: %w", name, err)
	}

	return &Bundle{Name: name, Template: tmpl, Style: style, Script: script}, nil
}
