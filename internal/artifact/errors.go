package artifact

import (
	"errors"
	"fmt"
)

var (
	// ErrArtifactLinkNotFound is matched by LinkNotFoundError.
	ErrArtifactLinkNotFound = errors.New("renderer download link not found")
	// ErrVersionNotFound is matched by VersionNotFoundError.
	ErrVersionNotFound = errors.New("renderer version not found")
	// ErrDownloadVerification is matched by VerificationError.
	ErrDownloadVerification = errors.New("renderer download failed verification")
	// ErrNotCached is returned when removing a version that is not in the cache.
	ErrNotCached = errors.New("version not cached")
	// ErrInvalidVersion is returned for version strings that cannot name a cache file.
	ErrInvalidVersion = errors.New("invalid renderer version")
)

// LinkNotFoundError reports a release index page without a
// "with-dependencies.jar" link.
type LinkNotFoundError struct {
	URL  string
	Body string
}

func (e *LinkNotFoundError) Error() string {
	return "Could not find openapi-to-plantuml download link in:\n" + e.Body
}

// Is makes errors.Is(err, ErrArtifactLinkNotFound) succeed.
func (e *LinkNotFoundError) Is(target error) bool { return target == ErrArtifactLinkNotFound }

// VersionNotFoundError reports a maven-metadata.xml without a <latest> element.
type VersionNotFoundError struct {
	Body string
}

func (e *VersionNotFoundError) Error() string {
	return "Could not find openapi-to-plantuml version in 'maven-metadata.xml':\n" + e.Body
}

// Is makes errors.Is(err, ErrVersionNotFound) succeed.
func (e *VersionNotFoundError) Is(target error) bool { return target == ErrVersionNotFound }

// VerificationError reports a downloaded jar whose md5 does not match the
// published checksum.
type VerificationError struct {
	URL      string
	Expected string
	Actual   string
}

func (e *VerificationError) Error() string {
	return "Downloaded openapi-to-plantuml jar has invalid hash."
}

// Is makes errors.Is(err, ErrDownloadVerification) succeed.
func (e *VerificationError) Is(target error) bool { return target == ErrDownloadVerification }

// StatusError is returned for a non-200 response from the repository.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: unexpected status %d", e.URL, e.StatusCode)
}
