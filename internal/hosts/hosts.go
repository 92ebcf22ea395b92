// Package hosts validates probe targets and loads them from flags or files.
package hosts

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/hashicorp/go-multierror"
)

// Pattern accepts http(s) and ftp(s) URLs with a dotted hostname ending in a
// 2-6 letter TLD. An optional port and path may follow the TLD.
const Pattern = `^(?:http|ftp)s?://(?:[A-Za-z0-9-]+\.)+[A-Za-z]{2,6}(?::\d{1,5})?(?:[/?#]\S*)?$`

// ErrNoHosts is returned when a host list or file yields no entries.
var ErrNoHosts = errors.New("no hosts provided")

// Validator checks host URLs. Build it once with NewValidator and share it.
type Validator struct {
	re *regexp.Regexp
}

func NewValidator() *Validator {
	return &Validator{re: regexp.MustCompile(Pattern)}
}

// Valid reports whether host is an acceptable probe target.
func (v *Validator) Valid(host string) bool {
	return v.re.MatchString(host)
}

// Validate checks every host and reports all invalid ones at once.
func (v *Validator) Validate(hosts []string) error {
	if len(hosts) == 0 {
		return ErrNoHosts
	}
	var result *multierror.Error
	for _, h := range hosts {
		if !v.Valid(h) {
			result = multierror.Append(result, fmt.Errorf("invalid host %q", h))
		}
	}
	return result.ErrorOrNil()
}

// ParseList splits comma separated entries, trimming blanks.
func ParseList(values ...string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// LoadFile reads one host per line. Blank lines are skipped.
func LoadFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open hosts file: %w", err)
	}
	defer f.Close()

	var out []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			out = append(out, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read hosts file: %w", err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%s: %w", path, ErrNoHosts)
	}
	return out, nil
}

// Resolve returns the validated host list. An explicit list takes precedence;
// file is read only when the list is empty.
func Resolve(v *Validator, list []string, file string) ([]string, error) {
	targets := ParseList(list...)
	if len(targets) == 0 && strings.TrimSpace(file) != "" {
		var err error
		targets, err = LoadFile(file)
		if err != nil {
			return nil, err
		}
	}
	if err := v.Validate(targets); err != nil {
		return nil, err
	}
	return targets, nil
}
