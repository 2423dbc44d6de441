package query

// dictionary is the embedded bidirectional EN<->ZH term table used as the
// translator of last resort (spec.md §4.3: "platform API first, dictionary
// fallback"). Matching is case-insensitive on the EN side. translate looks
// up each whitespace-separated term on its own; multi-word EN phrases are
// not matched as a unit.
var enToZh = map[string]string{
	"beach":    "海滩",
	"sunset":   "日落",
	"sunrise":  "日出",
	"forest":   "森林",
	"mountain": "山",
	"ocean":    "海洋",
	"city":     "城市",
	"night":    "夜晚",
	"rain":     "雨",
	"snow":     "雪",
	"dog":      "狗",
	"cat":      "猫",
	"car":      "汽车",
	"river":    "河流",
	"bridge":   "桥",
	"wedding":  "婚礼",
	"birthday": "生日",
	"concert":  "音乐会",
}

var zhToEn map[string]string

func init() {
	zhToEn = make(map[string]string, len(enToZh))
	for en, zh := range enToZh {
		zhToEn[zh] = en
	}
}

// dictionaryWords lists every dictionary entry (both scripts) in map
// order; segmentCJK sorts them longest first for greedy longest-match
// segmentation.
func dictionaryWords() []string {
	words := make([]string, 0, len(enToZh)+len(zhToEn))
	for en := range enToZh {
		words = append(words, en)
	}
	for zh := range zhToEn {
		words = append(words, zh)
	}
	return words
}
