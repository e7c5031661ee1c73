package sandbox

import (
	"regexp"
	"strings"
)

// BlockedKeywords 出现在 FROM 之前即拒绝
var BlockedKeywords = []string{
	"INSERT", "UPDATE", "DELETE", "DROP", "ALTER",
	"TRUNCATE", "CREATE", "GRANT", "REVOKE",
}

var (
	leadingKeywordRegex = regexp.MustCompile(`(?i)^(SELECT|WITH)\b`)
	fromKeywordRegex    = regexp.MustCompile(`(?i)\bFROM\b`)
	blockedRegexes      = compileBlocked(BlockedKeywords)
)

func compileBlocked(keywords []string) []*regexp.Regexp {
	regexes := make([]*regexp.Regexp, 0, len(keywords))
	for _, kw := range keywords {
		regexes = append(regexes, regexp.MustCompile(`(?i)\b`+kw+`\b`))
	}
	return regexes
}

// Validate 关键字黑名单只是启发式检查，真正的只读保证来自 READ ONLY 事务。
// 返回去掉首尾空白后的语句。
func Validate(sql string) (string, error) {
	trimmed := strings.TrimSpace(sql)
	body := stripLeadingComments(trimmed)

	if !leadingKeywordRegex.MatchString(body) {
		return "", &RejectedQueryError{Reason: "only SELECT/WITH queries are allowed, no mutations"}
	}

	head := body
	if loc := fromKeywordRegex.FindStringIndex(body); loc != nil {
		head = body[:loc[0]]
	}

	for i, re := range blockedRegexes {
		if re.MatchString(head) {
			return "", &RejectedQueryError{Keyword: BlockedKeywords[i]}
		}
	}

	return trimmed, nil
}

// stripLeadingComments 去掉语句开头的 "--" 行注释和 "/* */" 块注释
func stripLeadingComments(s string) string {
	for {
		s = strings.TrimSpace(s)
		switch {
		case strings.HasPrefix(s, "--"):
			idx := strings.IndexByte(s, '\n')
			if idx == -1 {
				return ""
			}
			s = s[idx+1:]
		case strings.HasPrefix(s, "/*"):
			idx := strings.Index(s, "*/")
			if idx == -1 {
				return ""
			}
			s = s[idx+2:]
		default:
			return s
		}
	}
}
