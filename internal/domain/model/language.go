package model

type Language string

const (
	LanguageJava Language = "java"
	LanguageCpp  Language = "cpp"
)

// LanguageInfo describes a supported language for clients and external executors.
type LanguageInfo struct {
	ID       Language `json:"id"`
	Name     string   `json:"name"`
	Judge0ID int      `json:"judge0Id"`
}

var SupportedLanguages = []LanguageInfo{
	{ID: LanguageJava, Name: "Java", Judge0ID: 62},
	{ID: LanguageCpp, Name: "C++", Judge0ID: 54},
}

// ParseLanguage accepts only the exact tags "java" and "cpp".
func ParseLanguage(s string) (Language, bool) {
	for _, l := range SupportedLanguages {
		if string(l.ID) == s {
			return l.ID, true
		}
	}
	return "", false
}

func (l Language) Info() (LanguageInfo, bool) {
	for _, info := range SupportedLanguages {
		if info.ID == l {
			return info, true
		}
	}
	return LanguageInfo{}, false
}
