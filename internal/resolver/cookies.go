package resolver

import (
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"strings"

	"github.com/mengzhuo/cookiestxt"
)

// LoadCookieJar parses a Netscape cookies.txt file into a cookie jar keyed by
// each cookie's declared domain. Returns (nil, nil) when the file does not
// exist; running without cookies is the normal unauthenticated mode. The
// daemon shares the jar between the metadata client and the stream client so
// authenticated sessions cover both.
func LoadCookieJar(path string) (http.CookieJar, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening cookies file: %w", err)
	}
	defer file.Close()

	cookies, err := cookiestxt.Parse(file)
	if err != nil {
		return nil, fmt.Errorf("parsing cookies file %s: %w", path, err)
	}
	if len(cookies) == 0 {
		return nil, nil
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("creating cookie jar: %w", err)
	}
	byDomain := make(map[string][]*http.Cookie)
	for _, cookie := range cookies {
		domain := strings.TrimPrefix(cookie.Domain, ".")
		if domain == "" || cookie.Name == "" {
			continue
		}
		byDomain[domain] = append(byDomain[domain], cookie)
	}
	for domain, group := range byDomain {
		target := &url.URL{Scheme: "https", Host: domain, Path: "/"}
		jar.SetCookies(target, group)
	}
	return jar, nil
}
