package repo

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrInvalidURL is returned for strings that do not look like git remotes.
var ErrInvalidURL = errors.New("invalid git repository URL")

// urlPatterns accept http(s) remotes with or without a .git suffix and
// scp-style SSH remotes (git@host:owner/repo.git).
var urlPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^https?://[^\s/$.?#]\S*$`),
	regexp.MustCompile(`^ssh://[^\s/$.?#]\S*$`),
	regexp.MustCompile(`^git@[^\s/$.?#]\S*:\S+\.git$`),
	regexp.MustCompile(`^git@[^\s/$.?#]\S*\.git$`),
}

// ValidateURL reports whether url is an acceptable remote for acquisition.
func ValidateURL(url string) error {
	for _, p := range urlPatterns {
		if p.MatchString(url) {
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrInvalidURL, url)
}

// NameFromURL returns the repository name: the last path segment without a
// trailing ".git".
func NameFromURL(url string) string {
	url = strings.TrimRight(url, "/")
	url = strings.TrimSuffix(url, ".git")
	if i := strings.LastIndexAny(url, "/:"); i >= 0 {
		url = url[i+1:]
	}
	return url
}

// isSSHURL returns true if the URL looks like an SSH git URL.
func isSSHURL(url string) bool {
	return strings.HasPrefix(url, "git@") || strings.HasPrefix(url, "ssh://")
}
