package styles

// HighContrastTheme favors legibility on low-quality terminals.
var HighContrastTheme = Theme{
	Name:        "high-contrast",
	BorderStyle: "sharp",
	Base: BaseColors{
		Background: "16",
		Foreground: "231",
		Muted:      "250",
		Accent:     "51",
		Border:     "231",
	},
	Card: CardColors{
		Normal:   "231",
		Selected: "226",
		Dragging: "87",
		Ghost:    "250",
	},
	Chrome: ChromeColors{
		Header:       "117",
		Footer:       "159",
		SelectedItem: "51",
		Error:        "196",
		Warning:      "226",
	},
	Borders: BorderColors{
		ActiveColumn:   "231",
		InactiveColumn: "250",
		DropTarget:     "46",
	},
}
