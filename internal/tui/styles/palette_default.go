package styles

// DefaultTheme is the baseline dark palette for the board TUI.
var DefaultTheme = Theme{
	Name:        "default",
	BorderStyle: "rounded",
	Base: BaseColors{
		Background: "234",
		Foreground: "252",
		Muted:      "245",
		Accent:     "75",
		Border:     "240",
	},
	Card: CardColors{
		Normal:   "252",
		Selected: "215",
		Dragging: "81",
		Ghost:    "243",
	},
	Chrome: ChromeColors{
		Header:       "111",
		Footer:       "110",
		SelectedItem: "75",
		Error:        "203",
		Warning:      "220",
	},
	Borders: BorderColors{
		ActiveColumn:   "75",
		InactiveColumn: "240",
		DropTarget:     "41",
	},
}
