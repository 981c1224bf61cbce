package roles

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/roleaudit/internal/content"
	"github.com/temirov/roleaudit/internal/filesystem"
	"github.com/temirov/roleaudit/internal/findings"
)

const (
	placeholderMatchTemplateConstant       = "%s contains '%s'"
	emptyFileTemplateConstant              = "%s (empty)"
	keywordAlternationConstant             = "|"
	caseInsensitivePatternTemplateConstant = "(?i)(?:%s)"
	placeholderReadSkippedMessageConstant  = "placeholder scan skipped unreadable file"
)

// DefaultPlaceholderKeywords lists the default incomplete-work markers.
func DefaultPlaceholderKeywords() []string {
	return []string{"TODO", "REPLACE_ME"}
}

// PlaceholderScanner flags role files containing placeholder keywords or no content.
type PlaceholderScanner struct {
	fileSystem filesystem.FileSystem
	reader     *content.Reader
	logger     *zap.Logger
	keywords   []string
	pattern    *regexp.Regexp
}

// NewPlaceholderScanner constructs a PlaceholderScanner matching keywords case-insensitively.
// Blank keywords are ignored; with no keywords only empty files are flagged.
func NewPlaceholderScanner(fileSystem filesystem.FileSystem, logger *zap.Logger, keywords []string) *PlaceholderScanner {
	if fileSystem == nil {
		fileSystem = filesystem.NewOSFileSystem()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	var usableKeywords []string
	var quotedKeywords []string
	for _, keyword := range keywords {
		if len(strings.TrimSpace(keyword)) == 0 {
			continue
		}
		usableKeywords = append(usableKeywords, keyword)
		quotedKeywords = append(quotedKeywords, regexp.QuoteMeta(keyword))
	}

	var pattern *regexp.Regexp
	if len(quotedKeywords) > 0 {
		pattern = regexp.MustCompile(fmt.Sprintf(caseInsensitivePatternTemplateConstant, strings.Join(quotedKeywords, keywordAlternationConstant)))
	}

	return &PlaceholderScanner{
		fileSystem: fileSystem,
		reader:     content.NewReader(fileSystem),
		logger:     logger,
		keywords:   usableKeywords,
		pattern:    pattern,
	}
}

// Scan walks every file of role and returns one placeholder finding per flagged file.
func (scanner *PlaceholderScanner) Scan(role Role) *findings.Set {
	findingSet := findings.NewSet()

	walkError := scanner.fileSystem.WalkDir(role.Path, func(path string, entry fs.DirEntry, entryError error) error {
		if entryError != nil {
			if path == role.Path {
				return entryError
			}
			if entry != nil && entry.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !entry.Type().IsRegular() {
			return nil
		}

		readResult := scanner.reader.Read(path)
		if !readResult.Succeeded() {
			scanner.logger.Warn(placeholderReadSkippedMessageConstant, zap.String(pathLogFieldConstant, path), zap.Error(readResult.Failure))
			return nil
		}

		displayPath := role.DisplayPath(path)
		if readResult.Blank() {
			findingSet.Add(findings.CategoryPlaceholders, fmt.Sprintf(emptyFileTemplateConstant, displayPath))
			return nil
		}
		if keyword, matched := scanner.match(readResult.Text); matched {
			findingSet.Add(findings.CategoryPlaceholders, fmt.Sprintf(placeholderMatchTemplateConstant, displayPath, keyword))
		}
		return nil
	})
	if walkError != nil {
		scanner.logger.Warn(unwalkableEntryMessageConstant, zap.String(pathLogFieldConstant, role.Path), zap.Error(walkError))
	}

	return findingSet
}

// match returns the configured spelling of the first keyword found in text.
func (scanner *PlaceholderScanner) match(text string) (string, bool) {
	if scanner.pattern == nil {
		return "", false
	}
	matchedText := scanner.pattern.FindString(text)
	if len(matchedText) == 0 {
		return "", false
	}
	for _, keyword := range scanner.keywords {
		if strings.EqualFold(keyword, matchedText) {
			return keyword, true
		}
	}
	return matchedText, true
}
