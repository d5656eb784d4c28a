package view

import "strings"

type ControlKind string

const (
	ControlText          ControlKind = "text"
	ControlNumber        ControlKind = "number"
	ControlCheckbox      ControlKind = "checkbox"
	ControlSelect        ControlKind = "select"
	ControlTextarea      ControlKind = "textarea"
	ControlDateTimeLocal ControlKind = "datetime-local"
)

type Option struct {
	Value    string
	Label    string
	Selected bool
}

// Control describes the input element inside a Field.
type Control struct {
	Kind        ControlKind
	Name        string
	Value       string
	Checked     bool
	Options     []Option
	Placeholder string
	Rows        int
	Min         string
	// Caption is the inline label next to a checkbox.
	Caption string
	// List names a datalist rendered after the input with ListOptions.
	List        string
	ListOptions []Option
}

// Field is a labelled form control with an optional error and hint. When an
// error is present the hint is not shown.
type Field struct {
	Label     string
	Required  bool
	Error     string
	Hint      string
	HintURL   string
	FullWidth bool
	Control   Control
}

func (f Field) ID() string {
	return "field-" + slug(f.Control.Name)
}

func (f Field) ErrorID() string {
	return f.ID() + "-error"
}

func (f Field) HintID() string {
	return f.ID() + "-hint"
}

func (f Field) ShowHint() bool {
	return f.Error == "" && f.Hint != ""
}

// DescribedBy is the value of aria-describedby: the error when there is one,
// otherwise the hint.
func (f Field) DescribedBy() string {
	switch {
	case f.Error != "":
		return f.ErrorID()
	case f.Hint != "":
		return f.HintID()
	default:
		return ""
	}
}

func slug(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'A' && r <= 'Z':
			if b.Len() > 0 {
				b.WriteByte('-')
			}
			b.WriteRune(r + ('a' - 'A'))
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteByte('-')
		}
	}
	return b.String()
}

func selectOptions(values []string, selected string, label func(string) string) []Option {
	options := make([]Option, 0, len(values))
	for _, v := range values {
		options = append(options, Option{Value: v, Label: label(v), Selected: v == selected})
	}
	return options
}
