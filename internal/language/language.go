package language

import (
	"strings"

	xlanguage "golang.org/x/text/language"
)

// Undetermined is reported when no language could be identified.
const Undetermined = "und"

type entry struct {
	code2 string   // ISO 639-1 (2-letter)
	code3 string   // ISO 639-2 primary (3-letter)
	alt3  string   // ISO 639-2 alternate (e.g. "fre" vs "fra")
	words []string // Full word forms (e.g. "english")
}

var languages = []entry{
	{"en", "eng", "", []string{"english"}},
	{"es", "spa", "", []string{"spanish"}},
	{"fr", "fra", "fre", []string{"french"}},
	{"de", "deu", "ger", []string{"german"}},
	{"it", "ita", "", []string{"italian"}},
	{"pt", "por", "", []string{"portuguese"}},
	{"ja", "jpn", "", []string{"japanese"}},
	{"ko", "kor", "", []string{"korean"}},
	{"zh", "zho", "chi", []string{"chinese"}},
	{"ru", "rus", "", []string{"russian"}},
	{"ar", "ara", "", []string{"arabic"}},
	{"hi", "hin", "", []string{"hindi"}},
	{"nl", "nld", "dut", []string{"dutch"}},
	{"pl", "pol", "", []string{"polish"}},
	{"sv", "swe", "", []string{"swedish"}},
	{"da", "dan", "", []string{"danish"}},
	{"no", "nor", "", []string{"norwegian"}},
	{"fi", "fin", "", []string{"finnish"}},
	{"uk", "ukr", "", []string{"ukrainian"}},
	{"tr", "tur", "", []string{"turkish"}},
	{"el", "ell", "gre", []string{"greek"}},
	{"cs", "ces", "cze", []string{"czech"}},
	{"he", "heb", "", []string{"hebrew"}},
	{"id", "ind", "", []string{"indonesian"}},
	{"vi", "vie", "", []string{"vietnamese"}},
	{"th", "tha", "", []string{"thai"}},
}

// Index maps built at init time.
var (
	byCode2 map[string]*entry
	byCode3 map[string]*entry
	byWord  map[string]*entry
)

func init() {
	byCode2 = make(map[string]*entry, len(languages))
	byCode3 = make(map[string]*entry, len(languages)*2)
	byWord = make(map[string]*entry, len(languages))
	for i := range languages {
		e := &languages[i]
		byCode2[e.code2] = e
		byCode3[e.code3] = e
		if e.alt3 != "" {
			byCode3[e.alt3] = e
		}
		for _, w := range e.words {
			byWord[w] = e
		}
	}
}

func lookup(code string) *entry {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		return nil
	}
	if e, ok := byCode2[code]; ok {
		return e
	}
	if e, ok := byCode3[code]; ok {
		return e
	}
	if e, ok := byWord[code]; ok {
		return e
	}
	return nil
}

// ToISO2 converts any recognized language code, tag, or word to ISO 639-1.
// Returns empty string for unrecognized input.
// If the input is already a 2-letter code (even if unknown), it passes through.
func ToISO2(code string) string {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		return ""
	}
	if e := lookup(code); e != nil {
		return e.code2
	}
	if base := parseBase(code); base != "" {
		return base
	}
	if len(code) == 2 {
		return code
	}
	return ""
}

// parseBase resolves BCP 47 tags (e.g. "pt-BR", "zh_Hant", "ukr") to a
// two-letter base language. Bases without a two-letter form yield "".
func parseBase(code string) string {
	tag, err := xlanguage.Parse(strings.ReplaceAll(code, "_", "-"))
	if err != nil {
		return ""
	}
	base, confidence := tag.Base()
	if confidence != xlanguage.Exact {
		return ""
	}
	value := base.String()
	if len(value) != 2 {
		return ""
	}
	return value
}

// Hint normalizes a caller-supplied language hint. Empty input means "detect";
// ok is false when a non-empty hint cannot be mapped to a language.
func Hint(code string) (string, bool) {
	if strings.TrimSpace(code) == "" {
		return "", true
	}
	iso := ToISO2(code)
	if iso == "" {
		return "", false
	}
	return iso, true
}

// Detected normalizes an engine-reported language, falling back to the hint
// and then to Undetermined so callers always have a value to report.
func Detected(reported, hint string) string {
	if iso := ToISO2(reported); iso != "" {
		return iso
	}
	if iso := ToISO2(hint); iso != "" {
		return iso
	}
	return Undetermined
}
