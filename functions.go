package httpflow

import (
	"encoding/base64"
	"fmt"
	"math/rand"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Word banks for the random-value functions. Grounded on the teacher's
// faker.go tables, trimmed to what the function table actually needs.
var (
	firstNames = []string{
		"James", "Mary", "John", "Patricia", "Robert", "Jennifer", "Michael", "Linda", "William", "Elizabeth",
		"David", "Barbara", "Richard", "Susan", "Joseph", "Jessica", "Thomas", "Sarah", "Christopher", "Karen",
	}
	lastNames = []string{
		"Smith", "Johnson", "Williams", "Brown", "Jones", "Garcia", "Miller", "Davis", "Rodriguez", "Martinez",
		"Hernandez", "Lopez", "Gonzalez", "Wilson", "Anderson", "Thomas", "Taylor", "Moore", "Jackson", "Martin",
	}
	jobTitles = []string{
		"Software Engineer", "Product Manager", "Data Scientist", "UX Designer", "DevOps Engineer",
		"Marketing Manager", "Sales Representative", "Project Manager", "Business Analyst", "QA Engineer",
	}
	streetNames = []string{
		"Main St", "Oak Ave", "Pine St", "Maple Ave", "Cedar St", "Elm St", "Washington Ave", "Park Ave",
	}
	emailDomains = []string{"example.com", "test.org", "mail.dev", "example.net"}

	loremIpsumWords = strings.Fields(
		"lorem ipsum dolor sit amet consectetur adipiscing elit sed do eiusmod tempor incididunt ut labore " +
			"et dolore magna aliqua enim ad minim veniam quis nostrud exercitation ullamco laboris nisi " +
			"aliquip ex ea commodo consequat duis aute irure in reprehenderit voluptate velit esse cillum " +
			"fugiat nulla pariatur excepteur sint occaecat cupidatat non proident sunt culpa qui officia " +
			"deserunt")

	alphanumericCharset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// functionCall is one recognized zero/one-arg function invocation found in text.
type functionCall struct {
	regex   *regexp.Regexp
	replace func(args string) string
}

// literalArgRegex matches "<name>('literal')" allowing \-escaped characters
// inside the single-quoted literal, mirroring the original implementation's
// base64_encode/upper/lower argument grammar.
func literalArgRegex(name string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)\b` + name + `\(\s*'((?:[^'\\]|\\.)*)'\s*\)`)
}

func numericArgRegex(name string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)\b` + name + `\(\s*(\d+)\s*\)`)
}

func noArgRegex(name string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)\b` + name + `\(\)`)
}

func pick(words []string) string {
	if len(words) == 0 {
		return ""
	}
	return words[rand.Intn(len(words))]
}

// randomGUID returns 32 lowercase hex digits encoding a version-4 UUID
// (positions 13 and 17 carry the version/variant nibbles), the form the
// guid() function contract requires with no separating dashes.
func randomGUID() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")
}

func randomAlphanumeric(n int) string {
	out := make([]byte, n)
	for i := range out {
		out[i] = alphanumericCharset[rand.Intn(len(alphanumericCharset))]
	}
	return string(out)
}

func normalizeForEmail(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func functionTable() []functionCall {
	return []functionCall{
		{noArgRegex("guid"), func(string) string { return randomGUID() }},
		{noArgRegex("string"), func(string) string { return randomAlphanumeric(20) }},
		{noArgRegex("number"), func(string) string { return strconv.Itoa(rand.Intn(101)) }},
		{noArgRegex("first_name"), func(string) string { return pick(firstNames) }},
		{noArgRegex("last_name"), func(string) string { return pick(lastNames) }},
		{noArgRegex("name"), func(string) string { return pick(firstNames) + " " + pick(lastNames) }},
		{noArgRegex("address"), func(string) string {
			return fmt.Sprintf("%d %s", rand.Intn(9999)+1, pick(streetNames))
		}},
		{noArgRegex("job_title"), func(string) string { return pick(jobTitles) }},
		{noArgRegex("email"), func(string) string {
			first := normalizeForEmail(pick(firstNames))
			last := normalizeForEmail(pick(lastNames))
			return fmt.Sprintf("%s.%s@%s", first, last, pick(emailDomains))
		}},
		{literalArgRegex("base64_encode"), func(args string) string {
			return base64.StdEncoding.EncodeToString([]byte(unescapeLiteral(args)))
		}},
		{literalArgRegex("upper"), func(args string) string { return strings.ToUpper(unescapeLiteral(args)) }},
		{literalArgRegex("lower"), func(args string) string { return strings.ToLower(unescapeLiteral(args)) }},
		{numericArgRegex("lorem_ipsum"), func(args string) string {
			n, err := strconv.Atoi(args)
			if err != nil || n <= 0 {
				return ""
			}
			words := make([]string, n)
			for i := 0; i < n; i++ {
				words[i] = loremIpsumWords[i%len(loremIpsumWords)]
			}
			return strings.Join(words, " ")
		}},
		{noArgRegex("getdate"), func(string) string { return time.Now().Format("2006-01-02") }},
		{noArgRegex("gettime"), func(string) string { return time.Now().Format("15:04:05") }},
		{noArgRegex("getdatetime"), func(string) string { return time.Now().Format("2006-01-02 15:04:05") }},
		{noArgRegex("getutcdatetime"), func(string) string { return time.Now().UTC().Format("2006-01-02 15:04:05") }},
	}
}

func unescapeLiteral(s string) string {
	var b strings.Builder
	escaped := false
	for _, r := range s {
		if escaped {
			b.WriteRune(r)
			escaped = false
			continue
		}
		if r == '\\' {
			escaped = true
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// applyFunctions performs one rewrite pass substituting every recognized
// function call in text with its generated value.
func applyFunctions(text string) string {
	for _, fn := range functionTable() {
		text = fn.regex.ReplaceAllStringFunc(text, func(match string) string {
			sub := fn.regex.FindStringSubmatch(match)
			args := ""
			if len(sub) > 1 {
				args = sub[1]
			}
			return fn.replace(args)
		})
	}
	return text
}
