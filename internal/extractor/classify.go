package extractor

import (
	"path/filepath"
	"strings"
)

// textExtensions routes a file to the in-process reader instead of the
// conversion backend. Classification is by extension only, never content
// sniffing.
var textExtensions = map[string]string{
	".txt":      "",
	".text":     "",
	".log":      "",
	".csv":      "",
	".tsv":      "",
	".md":       "markdown",
	".markdown": "markdown",
	".rst":      "restructuredtext",
	".org":      "org",
	".tex":      "latex",
	".html":     "html",
	".htm":      "html",
	".xml":      "xml",
	".json":     "json",
	".yaml":     "yaml",
	".yml":      "yaml",
	".toml":     "toml",
	".ini":      "ini",
	".cfg":      "ini",
	".conf":     "ini",
	".go":       "go",
	".py":       "python",
	".rb":       "ruby",
	".js":       "javascript",
	".ts":       "typescript",
	".java":     "java",
	".c":        "c",
	".h":        "c",
	".cpp":      "cpp",
	".rs":       "rust",
	".sh":       "shell",
	".bash":     "shell",
	".sql":      "sql",
	".css":      "css",
}

// codeLanguages marks which detected languages count as source code for
// embedding preparation purposes.
var codeLanguages = map[string]bool{
	"go": true, "python": true, "ruby": true, "javascript": true,
	"typescript": true, "java": true, "c": true, "cpp": true,
	"rust": true, "shell": true, "sql": true,
}

// IsTextLike reports whether a path should be read in-process.
func IsTextLike(path string) bool {
	_, ok := textExtensions[strings.ToLower(filepath.Ext(path))]
	return ok
}

// DetectLanguage returns the language hint for a path, or "" when unknown.
func DetectLanguage(path string) string {
	return textExtensions[strings.ToLower(filepath.Ext(path))]
}

// IsCodeLanguage reports whether a language hint denotes source code.
func IsCodeLanguage(language string) bool {
	return codeLanguages[language]
}
