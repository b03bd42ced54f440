package visualizer

// Palette is assigned by record position, never by label or value.
var Palette = []string{
	"#0088FE",
	"#00C49F",
	"#FFBB28",
	"#FF8042",
	"#8884D8",
	"#82CA9D",
	"#FFC658",
	"#FF6B6B",
}

// ColorAt returns the palette entry for the record at index i.
func ColorAt(i int) string {
	if i < 0 {
		i = -i
	}
	return Palette[i%len(Palette)]
}
