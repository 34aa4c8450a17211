package render

// Page geometry in points, landscape A4.
const (
	marginLeft   = 36.0
	marginRight  = 36.0
	marginTop    = 110.0
	marginBottom = 60.0

	cellPadding  = 8.0
	minRowHeight = 30.0
	lineHeight   = 11.0

	bodyFontSize   = 9.0
	headerFontSize = 10.0
)

var (
	columnTitles = []string{"Normal Time", "Source Name", "Ack State", "Message Text", "Alarm Class", "Alarm Time"}
	columnRatios = []float64{5, 5, 3, 5, 3, 5}
)

// columnWidths splits the content width by the fixed column ratios.
func columnWidths(contentWidth float64) []float64 {
	var total float64
	for _, r := range columnRatios {
		total += r
	}
	widths := make([]float64, len(columnRatios))
	for i, r := range columnRatios {
		widths[i] = contentWidth * r / total
	}
	return widths
}

// paginate packs rows into pages in order. A row that does not fit in the space
// left on the current page starts a new page; a row taller than a whole page is
// placed alone. No input yields a single empty page.
func paginate(heights []float64, capacity float64) [][]int {
	pages := [][]int{}
	current := []int{}
	used := 0.0
	for i, h := range heights {
		if len(current) > 0 && used+h > capacity {
			pages = append(pages, current)
			current = []int{}
			used = 0
		}
		current = append(current, i)
		used += h
	}
	return append(pages, current)
}
