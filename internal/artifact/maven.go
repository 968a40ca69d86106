package artifact

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/net/html"

	"github.com/ariel-frischer/openapi-diagram/internal/version"
)

// DefaultBaseURL is the Maven Central directory of openapi-to-plantuml.
const DefaultBaseURL = "https://repo1.maven.org/maven2/com/github/davidmoten/openapi-to-plantuml"

const (
	jarSuffix    = "with-dependencies.jar"
	checksumExt  = ".md5"
	metadataFile = "maven-metadata.xml"
)

// Doer sends HTTP requests. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

func (c *Cache) get(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("User-Agent", version.UserAgent())

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{URL: rawURL, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", rawURL, err)
	}
	return body, nil
}

func (c *Cache) releaseURL(version string) string {
	return c.baseURL + "/" + version
}

// DownloadURL finds the jar link on the release index page of version.
func (c *Cache) DownloadURL(ctx context.Context, version string) (string, error) {
	if err := checkVersion(version); err != nil {
		return "", err
	}
	release := c.releaseURL(version)
	body, err := c.get(ctx, release)
	if err != nil {
		return "", err
	}

	href, ok := findJarLink(body)
	if !ok {
		return "", &LinkNotFoundError{URL: release, Body: string(body)}
	}

	base, err := url.Parse(release + "/")
	if err != nil {
		return "", fmt.Errorf("parsing release URL: %w", err)
	}
	ref, err := url.Parse(href)
	if err != nil {
		return "", fmt.Errorf("parsing download link %q: %w", href, err)
	}
	return base.ResolveReference(ref).String(), nil
}

// findJarLink returns the href of the first anchor pointing at the
// self-contained jar.
func findJarLink(page []byte) (string, bool) {
	z := html.NewTokenizer(bytes.NewReader(page))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return "", false
		case html.StartTagToken, html.SelfClosingTagToken:
			name, hasAttr := z.TagName()
			if string(name) != "a" || !hasAttr {
				continue
			}
			for {
				key, val, more := z.TagAttr()
				if string(key) == "href" && strings.HasSuffix(string(val), jarSuffix) {
					return string(val), true
				}
				if !more {
					break
				}
			}
		}
	}
}

// LatestVersion returns the newest release listed in maven-metadata.xml.
func (c *Cache) LatestVersion(ctx context.Context) (string, error) {
	body, err := c.get(ctx, c.baseURL+"/"+metadataFile)
	if err != nil {
		return "", err
	}

	latest, ok := findLatest(body)
	if !ok {
		return "", &VersionNotFoundError{Body: string(body)}
	}
	return latest, nil
}

// findLatest returns the text of the first <latest> element in the document.
func findLatest(data []byte) (string, bool) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.Strict = false
	for {
		tok, err := dec.Token()
		if err != nil {
			return "", false
		}
		start, ok := tok.(xml.StartElement)
		if !ok || start.Name.Local != "latest" {
			continue
		}
		var value string
		if err := dec.DecodeElement(&value, &start); err != nil {
			return "", false
		}
		value = strings.TrimSpace(value)
		return value, value != ""
	}
}
