// Package source downloads OpenSSL release tarballs.
package source

import (
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/ooni/build-libssl/internal/buildmodel"
	"github.com/ooni/build-libssl/internal/fsx"
	"github.com/ooni/build-libssl/internal/model"
	"github.com/ooni/build-libssl/internal/shellx"
	"github.com/pkg/errors"
)

// DefaultBaseURL is the default URL from which we fetch releases.
const DefaultBaseURL = "https://www.openssl.org/source"

// Fetcher fetches OpenSSL sources using curl. The zero value is
// invalid; please, initialize the MANDATORY fields.
type Fetcher struct {
	// BaseURL is the MANDATORY base URL of the releases directory.
	BaseURL string

	// CurlOptions contains OPTIONAL extra options for curl.
	CurlOptions []string

	// Logger is the MANDATORY logger to use.
	Logger model.Logger
}

// NewFetcher creates a [*Fetcher] using [DefaultBaseURL].
func NewFetcher(logger model.Logger, curlOptions []string) *Fetcher {
	return &Fetcher{
		BaseURL:     DefaultBaseURL,
		CurlOptions: curlOptions,
		Logger:      model.ValidLoggerOrDefault(logger),
	}
}

// ArchiveName returns the name of the tarball of the given version.
func ArchiveName(version string) string {
	return "openssl-" + version + ".tar.gz"
}

// versionPrefixRegexp matches the MAJOR.MINOR.PATCH part of a version.
var versionPrefixRegexp = regexp.MustCompile(`^[0-9]+\.[0-9]+\.[0-9]+`)

// PrimaryURL returns the URL where current releases live.
func (f *Fetcher) PrimaryURL(version string) string {
	return f.BaseURL + "/" + ArchiveName(version)
}

// OldReleasesURL returns the URL where superseded releases live.
func (f *Fetcher) OldReleasesURL(version string) string {
	prefix := versionPrefixRegexp.FindString(version)
	return f.BaseURL + "/old/" + prefix + "/" + ArchiveName(version)
}

// Acquire ensures that the tarball of the given version exists inside
// the root directory and returns its path. When the tarball already
// exists we do not touch the network. On failure, this function
// returns a [*buildmodel.DownloadError].
func (f *Fetcher) Acquire(root, version string) (string, error) {
	archive := filepath.Join(root, ArchiveName(version))
	if fsx.RegularFileExists(archive) {
		f.Logger.Infof("using existing %s", archive)
		return archive, nil
	}

	URL := f.PrimaryURL(version)
	if err := f.exists(URL); err != nil {
		f.Logger.Warnf("%s: %s", URL, err.Error())
		URL = f.OldReleasesURL(version)
		if err := f.exists(URL); err != nil {
			return "", &buildmodel.DownloadError{
				URL: URL,
				Reason: "cannot find the sources for OpenSSL " + version +
					"; please, verify the version and check your internet connection",
				Err: err,
			}
		}
	}

	f.Logger.Infof("downloading %s", URL)
	if err := os.MkdirAll(root, 0755); err != nil {
		return "", errors.Wrap(err, "cannot create the root directory")
	}
	if err := f.download(root, URL); err != nil {
		return "", &buildmodel.DownloadError{URL: URL, Reason: "download failed", Err: err}
	}
	if !fsx.RegularFileExists(archive) {
		return "", &buildmodel.DownloadError{
			URL:    URL,
			Reason: "the server did not provide " + ArchiveName(version),
		}
	}
	return archive, nil
}

// LatestInBranch returns the most recent release of the given branch
// (e.g., "1.1.1") according to the releases directory listing.
func (f *Fetcher) LatestInBranch(branch string) (string, error) {
	URL := f.BaseURL + "/"
	listing, err := f.list(URL)
	if err != nil {
		return "", &buildmodel.DownloadError{URL: URL, Reason: "cannot list releases", Err: err}
	}
	version, found := LatestVersion(ParseListing(listing), branch)
	if !found {
		return "", &buildmodel.DownloadError{
			URL:    URL,
			Reason: "no release found for branch " + branch,
		}
	}
	f.Logger.Infof("latest version of branch %s is %s", branch, version)
	return version, nil
}

// exists checks whether the given URL exists without downloading it.
func (f *Fetcher) exists(URL string) error {
	return f.curl(&shellx.Config{Logger: f.Logger}, "-fsIL", "-o", os.DevNull, URL)
}

// download downloads URL into dir using the server-provided filename.
func (f *Fetcher) download(dir, URL string) error {
	config := &shellx.Config{
		Dir:    dir,
		Logger: f.Logger,
		Flags:  shellx.FlagShowStdoutStderr,
	}
	return f.curl(config, "-fLJO", URL)
}

// curl runs curl with the user-provided options and the given arguments.
func (f *Fetcher) curl(config *shellx.Config, args ...string) error {
	argv, err := shellx.NewArgv("curl", f.CurlOptions...)
	if err != nil {
		return errors.Wrap(err, "cannot find curl")
	}
	argv.Append(args...)
	return shellx.RunEx(config, argv, &shellx.Envp{})
}

// list returns the body of the given URL.
func (f *Fetcher) list(URL string) (string, error) {
	argv, err := shellx.NewArgv("curl", f.CurlOptions...)
	if err != nil {
		return "", errors.Wrap(err, "cannot find curl")
	}
	argv.Append("-fsSL", URL)
	data, err := shellx.OutputEx(&shellx.Config{Logger: f.Logger}, argv, &shellx.Envp{})
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// listingRegexp matches release tarballs inside a directory listing.
var listingRegexp = regexp.MustCompile(`openssl-([0-9]+\.[0-9]+\.[0-9]+[a-z]*)\.tar\.gz`)

// ParseListing returns the sorted and deduplicated versions of
// all the release tarballs mentioned in a directory listing.
func ParseListing(listing string) []string {
	uniq := make(map[string]bool)
	for _, match := range listingRegexp.FindAllStringSubmatch(listing, -1) {
		uniq[match[1]] = true
	}
	out := []string{}
	for version := range uniq {
		out = append(out, version)
	}
	sort.Strings(out)
	return out
}

// LatestVersion returns the lexicographically last version belonging
// to the given branch, where a version belongs to the branch when it
// is the branch optionally followed by letters.
func LatestVersion(versions []string, branch string) (string, bool) {
	var latest string
	for _, version := range versions {
		rest, found := strings.CutPrefix(version, branch)
		if !found || strings.TrimLeft(rest, "abcdefghijklmnopqrstuvwxyz") != "" {
			continue
		}
		if version > latest {
			latest = version
		}
	}
	return latest, latest != ""
}
