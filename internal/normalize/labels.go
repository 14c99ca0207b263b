package normalize

import (
	"strings"
	"unicode"
)

// labelTable resolves categorical values to a fixed canonical label.
type labelTable struct {
	index map[string]string
}

// newLabelTable indexes every canonical label under its own lookup key and
// under the key of each alias.
func newLabelTable(labels map[string][]string) labelTable {
	t := labelTable{index: make(map[string]string)}
	for label, aliases := range labels {
		t.index[lookupKey(label)] = label
		for _, alias := range aliases {
			t.index[lookupKey(alias)] = label
		}
	}
	return t
}

func (t labelTable) canonical(clean string) string {
	if label, ok := t.index[lookupKey(clean)]; ok {
		return label
	}
	return Title(clean)
}

// lookupKey lower-cases s and drops everything but letters and digits.
func lookupKey(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(stripMarks(s)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

var brandLabels = newLabelTable(map[string][]string{
	"Acer":      nil,
	"Apple":     {"apple inc"},
	"ASUS":      {"asustek"},
	"Dell":      {"dell technologies"},
	"Google":    nil,
	"HP":        {"hewlett packard", "hp inc"},
	"Huawei":    nil,
	"Lenovo":    nil,
	"LG":        {"lg electronics"},
	"Microsoft": nil,
	"MSI":       {"micro star", "micro-star international"},
	"Nothing":   nil,
	"OnePlus":   {"one plus"},
	"Realme":    nil,
	"Samsung":   {"samsung electronics"},
	"Sony":      nil,
	"Vivo":      nil,
	"Xiaomi":    {"mi", "redmi"},
})

var chipsetLabels = newLabelTable(map[string][]string{
	"Intel Core i3":           {"i3", "core i3"},
	"Intel Core i5":           {"i5", "core i5"},
	"Intel Core i7":           {"i7", "core i7"},
	"Intel Core i9":           {"i9", "core i9"},
	"Intel Core Ultra 5":      {"core ultra 5", "ultra 5"},
	"Intel Core Ultra 7":      {"core ultra 7", "ultra 7"},
	"Intel Core Ultra 9":      {"core ultra 9", "ultra 9"},
	"Intel Celeron":           {"celeron"},
	"Intel Pentium":           {"pentium"},
	"AMD Ryzen 3":             {"ryzen 3"},
	"AMD Ryzen 5":             {"ryzen 5"},
	"AMD Ryzen 7":             {"ryzen 7"},
	"AMD Ryzen 9":             {"ryzen 9"},
	"Apple M1":                {"m1"},
	"Apple M2":                {"m2"},
	"Apple M3":                {"m3"},
	"Apple M4":                {"m4"},
	"Snapdragon 8 Gen 2":      {"qualcomm snapdragon 8 gen 2", "sd 8 gen 2"},
	"Snapdragon 8 Gen 3":      {"qualcomm snapdragon 8 gen 3", "sd 8 gen 3"},
	"Snapdragon X Elite":      {"qualcomm snapdragon x elite"},
	"MediaTek Dimensity 9300": {"dimensity 9300"},
	"Google Tensor G3":        {"tensor g3"},
})

var memoryTypeLabels = newLabelTable(map[string][]string{
	"DDR4":           {"ddr 4"},
	"DDR5":           {"ddr 5"},
	"LPDDR4X":        {"lpddr 4x"},
	"LPDDR5":         {"lpddr 5"},
	"LPDDR5X":        {"lpddr 5x"},
	"Unified Memory": {"unified"},
})

var seriesLabels = newLabelTable(map[string][]string{
	"ThinkPad":    nil,
	"IdeaPad":     nil,
	"Legion":      nil,
	"Yoga":        nil,
	"MacBook Air": nil,
	"MacBook Pro": nil,
	"ZenBook":     nil,
	"VivoBook":    nil,
	"ROG":         {"republic of gamers"},
	"TUF":         {"tuf gaming"},
	"XPS":         nil,
	"Inspiron":    nil,
	"Latitude":    nil,
	"Pavilion":    nil,
	"Victus":      nil,
	"Omen":        nil,
	"Spectre":     nil,
	"Envy":        nil,
	"Aspire":      nil,
	"Nitro":       nil,
	"Predator":    nil,
	"Galaxy Book": nil,
})

var resolutionLabels = newLabelTable(map[string][]string{
	"HD":      {"720p", "1366x768", "1280x720"},
	"Full HD": {"fhd", "1080p", "1920x1080", "fhd+", "full hd+", "1920x1200", "wuxga"},
	"QHD":     {"2k", "1440p", "2560x1440", "wqhd", "2560x1600", "qhd+"},
	"3K":      {"2880x1800", "3k oled"},
	"4K UHD":  {"4k", "uhd", "2160p", "3840x2160", "ultra hd"},
	"Retina":  {"retina display", "liquid retina"},
})
