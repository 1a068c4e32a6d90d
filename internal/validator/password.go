package validator

import (
	"strings"
	"unicode"
)

const minPasswordLength = 8

// commonPasswords is a short deny-list of the most frequently leaked passwords.
var commonPasswords = map[string]struct{}{}

func init() {
	for _, p := range strings.Fields(`
		123456 123456789 12345678 password qwerty123 qwerty 1234567890 1234567
		111111 123123 abc123 password1 iloveyou 000000 1q2w3e4r qwertyuiop
		123321 654321 666666 987654321 123qwe 1qaz2wsx 7777777 121212 zaq12wsx
		dragon sunshine princess letmein monkey football baseball welcome
		welcome1 admin admin123 passw0rd master shadow superman trustno1
		michael jennifer charlie starwars whatever freedom hello123 login
		changeme secret asdfghjkl asdfgh zxcvbnm 11111111 88888888 aa123456
		password123 qwerty12 qwerty1 1q2w3e 1qaz2wsx3edc letmein1 football1`) {
		commonPasswords[p] = struct{}{}
	}
}

// PasswordProblems returns the human readable reasons password is too weak.
// attrs are user attributes (username, email) the password must not resemble.
func PasswordProblems(password string, attrs ...string) []string {
	var problems []string
	if len(password) < minPasswordLength {
		problems = append(problems, "This password is too short. It must contain at least 8 characters.")
	}
	if _, ok := commonPasswords[strings.ToLower(strings.TrimSpace(password))]; ok {
		problems = append(problems, "This password is too common.")
	}
	if password != "" && isNumeric(password) {
		problems = append(problems, "This password is entirely numeric.")
	}
	if similarToAny(password, attrs) {
		problems = append(problems, "The password is too similar to your user details.")
	}
	return problems
}

func isNumeric(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// similarToAny reports whether the password contains, or is contained in, a
// user attribute or any of its parts (an email splits on "@" and ".").
func similarToAny(password string, attrs []string) bool {
	pw := strings.ToLower(password)
	if len(pw) == 0 {
		return false
	}
	for _, attr := range attrs {
		attr = strings.ToLower(strings.TrimSpace(attr))
		if attr == "" {
			continue
		}
		parts := append([]string{attr}, strings.FieldsFunc(attr, func(r rune) bool {
			return r == '@' || r == '.' || r == '_' || r == '-'
		})...)
		for _, part := range parts {
			if len(part) < 3 {
				continue
			}
			if strings.Contains(pw, part) || strings.Contains(part, pw) {
				return true
			}
		}
	}
	return false
}
