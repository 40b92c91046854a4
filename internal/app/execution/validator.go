package execution

import (
	"code_assessment/internal/domain/model"
	"strings"
)

// ValidateCode applies the pre-execution shape checks for lang. Checks are
// plain substring tests on the submitted text.
func ValidateCode(code string, lang model.Language) error {
	if strings.TrimSpace(code) == "" {
		return compilationError("Code cannot be empty")
	}

	switch lang {
	case model.LanguageJava:
		if !strings.Contains(code, "public class") && !strings.Contains(code, "class") {
			return compilationError("Java code must contain a class definition")
		}
		if !strings.Contains(code, "public static void main") {
			return compilationError("Java code must contain a main method")
		}
		if strings.Contains(code, "System.exit") || strings.Contains(code, "Runtime.getRuntime") {
			return compilationError("System operations are not allowed")
		}
	case model.LanguageCpp:
		if !strings.Contains(code, "#include") {
			return compilationError("C++ code must include necessary headers")
		}
		if !strings.Contains(code, "int main") {
			return compilationError("C++ code must contain a main function")
		}
		if strings.Contains(code, "system(") || strings.Contains(code, "exec") {
			return compilationError("System operations are not allowed")
		}
	}
	return nil
}
