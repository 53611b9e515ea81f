package domain

// Choice is one button of a toggle or single-choice row.
type Choice struct {
	Label    string
	Data     string
	Selected bool
}

// Decorate prefixes label with onIcon or offIcon depending on on.
// An empty icon leaves the label unchanged.
func Decorate(label string, on bool, onIcon, offIcon string) string {
	icon := offIcon
	if on {
		icon = onIcon
	}
	if icon == "" {
		return label
	}
	return icon + " " + label
}

// ChoiceRow renders choices as one keyboard row, marking the selected ones.
func ChoiceRow(choices []Choice, selectedIcon, unselectedIcon string) []Button {
	row := make([]Button, 0, len(choices))
	for _, c := range choices {
		row = append(row, CallbackButton(Decorate(c.Label, c.Selected, selectedIcon, unselectedIcon), c.Data))
	}
	return row
}

// BackButton is a single-button keyboard, typically pointing at CallbackBack.
func BackButton(text, data string) *Markup {
	return NewMarkup(Row(CallbackButton(text, data)))
}
