// Package download fetches the server JARs and helper binaries used by the
// embedded-rc: and sauce-ondemand: providers.
package download

import (
	"context"
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/blang/semver"
	"github.com/golang/glog"
	"github.com/google/go-github/v27/github"
	"golang.org/x/sync/errgroup"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// File describes how to download a file from the Web.
type File struct {
	URL  string
	Name string
	// Hash is checked after download when set. HashType is "md5", "sha1" or
	// "sha256", the default.
	Hash     string
	HashType string
	// Rename, if it has two entries, renames the first to the second after
	// the archive is unpacked.
	Rename []string

	// The directory in which to store the file.
	directory string
}

// Path returns where the file is stored.
func (f File) Path() string {
	if f.directory != "" {
		return filepath.Join(f.directory, f.Name)
	}
	return f.Name
}

var (
	// SeleniumServerFile is the pinned Selenium standalone server. The
	// embedded provider looks for it as vendor/selenium-server.jar.
	SeleniumServerFile = File{
		URL:  "https://selenium-release.storage.googleapis.com/3.141/selenium-server-standalone-3.141.59.jar",
		Name: "selenium-server.jar",
		Hash: "acf71b77d1b66b55db6fb0bed6d8bae2bbd481311bcbedfeff472c0d15e8f3cb",
	}

	// SauceConnectFile is the Sauce Connect tunnel binary started when the
	// sauce_connect_path property is set.
	SauceConnectFile = File{
		URL:    "https://saucelabs.com/downloads/sc-4.5.4-linux.tar.gz",
		Name:   "sauce-connect.tar.gz",
		Rename: []string{"sc-4.5.4-linux", "sauce-connect"},
	}
)

const (
	seleniumBucket    = "selenium-release"
	seleniumServerJar = "selenium-server.jar"

	htmlUnitOwner = "SeleniumHQ"
	htmlUnitRepo  = "htmlunit-driver"
	htmlUnitAsset = `^htmlunit-driver-.*-jar-with-dependencies\.jar$`
	htmlUnitJar   = "htmlunit-driver.jar"
)

// Options selects what Files returns.
type Options struct {
	// Latest looks up the newest Selenium server in its bucket instead of
	// the pinned version.
	Latest bool
	// HTMLUnit adds the newest HtmlUnit driver JAR from GitHub.
	HTMLUnit bool
	// SauceConnect adds the Sauce Connect binary.
	SauceConnect bool

	// Storage and GitHub are used for lookups; they are created on demand
	// when nil.
	Storage *storage.Client
	GitHub  *github.Client
}

// Files returns the files selected by opts.
func Files(ctx context.Context, opts Options) ([]File, error) {
	server := SeleniumServerFile
	if opts.Latest {
		client := opts.Storage
		if client == nil {
			var err error
			client, err = storage.NewClient(ctx, option.WithHTTPClient(http.DefaultClient))
			if err != nil {
				return nil, fmt.Errorf("cannot create a storage client for %s: %v", seleniumBucket, err)
			}
			defer client.Close()
		}
		var err error
		if server, err = LatestSeleniumServer(ctx, client); err != nil {
			return nil, err
		}
	}
	files := []File{server}

	if opts.HTMLUnit {
		gh := opts.GitHub
		if gh == nil {
			gh = github.NewClient(nil)
		}
		f, err := LatestGitHubRelease(ctx, gh, htmlUnitOwner, htmlUnitRepo, htmlUnitAsset, htmlUnitJar)
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	if opts.SauceConnect {
		files = append(files, SauceConnectFile)
	}
	return files, nil
}

var serverObjectRE = regexp.MustCompile(`^[^/]+/selenium-server(?:-standalone)?-(\d+\.\d+\.\d+)\.jar$`)

// LatestSeleniumServer finds the newest standalone server JAR in the
// selenium-release bucket.
func LatestSeleniumServer(ctx context.Context, client *storage.Client) (File, error) {
	gcsPath := fmt.Sprintf("gs://%s/", seleniumBucket)
	bkt := client.Bucket(seleniumBucket)
	var names []string
	it := bkt.Objects(ctx, nil)
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return File{}, fmt.Errorf("cannot list %s: %v", gcsPath, err)
		}
		names = append(names, attrs.Name)
	}
	name, _, err := latestServerObject(names)
	if err != nil {
		return File{}, fmt.Errorf("%s: %v", gcsPath, err)
	}
	attrs, err := bkt.Object(name).Attrs(ctx)
	if err != nil {
		return File{}, fmt.Errorf("cannot get %s%s attrs: %v", gcsPath, name, err)
	}
	return File{
		URL:      attrs.MediaLink,
		Name:     seleniumServerJar,
		Hash:     hex.EncodeToString(attrs.MD5),
		HashType: "md5",
	}, nil
}

// latestServerObject picks the object name carrying the highest release
// version. Pre-release JARs are ignored.
func latestServerObject(names []string) (string, semver.Version, error) {
	var (
		best    string
		bestVer semver.Version
	)
	for _, n := range names {
		m := serverObjectRE.FindStringSubmatch(n)
		if m == nil {
			continue
		}
		v, err := semver.Parse(m[1])
		if err != nil {
			continue
		}
		if best == "" || v.GT(bestVer) {
			best, bestVer = n, v
		}
	}
	if best == "" {
		return "", semver.Version{}, fmt.Errorf("no selenium server release found")
	}
	return best, bestVer, nil
}

// LatestGitHubRelease describes the first asset of the latest release of
// owner/repo whose name matches assetName. It is stored as localFileName.
func LatestGitHubRelease(ctx context.Context, client *github.Client, owner, repo, assetName, localFileName string) (File, error) {
	assetNameRE, err := regexp.Compile(assetName)
	if err != nil {
		return File{}, fmt.Errorf("invalid asset name regular expression %q: %v", assetName, err)
	}
	rel, _, err := client.Repositories.GetLatestRelease(ctx, owner, repo)
	if err != nil {
		return File{}, err
	}
	for _, a := range rel.Assets {
		if !assetNameRE.MatchString(a.GetName()) {
			continue
		}
		u := a.GetBrowserDownloadURL()
		if u == "" {
			return File{}, fmt.Errorf("%s does not have a download URL", a.GetName())
		}
		return File{URL: u, Name: localFileName}, nil
	}
	return File{}, fmt.Errorf("release for %s not found at https://github.com/%s/%s/releases", assetName, owner, repo)
}

// Download fetches file into directory unless a copy with the expected hash
// is already there. Archives are unpacked next to it.
func Download(ctx context.Context, client *http.Client, file File, directory string) error {
	file.directory = directory

	if file.Hash != "" && fileSameHash(file) {
		glog.Infof("Skipping file %q which has already been downloaded.", file.Name)
	} else {
		glog.Infof("Downloading %q from %q", file.Name, file.URL)
		if err := downloadFile(ctx, client, file); err != nil {
			return err
		}
	}

	if err := unpackArchive(file); err != nil {
		return err
	}

	if rename := file.Rename; len(rename) == 2 {
		from := filepath.Join(file.directory, rename[0])
		to := filepath.Join(file.directory, rename[1])
		glog.Infof("Renaming %q to %q", from, to)
		os.RemoveAll(to) // Ignore error.
		if err := os.Rename(from, to); err != nil {
			glog.Warningf("Error renaming %q to %q: %v", from, to, err)
		}
	}
	return nil
}

// DownloadAll fetches files concurrently into directory.
func DownloadAll(ctx context.Context, client *http.Client, files []File, directory string) error {
	if directory != "" {
		if err := os.MkdirAll(directory, 0755); err != nil {
			return err
		}
	}
	g, ctx := errgroup.WithContext(ctx)
	for _, file := range files {
		file := file
		g.Go(func() error {
			if err := Download(ctx, client, file, directory); err != nil {
				return fmt.Errorf("error handling %s: %v", file.Name, err)
			}
			return nil
		})
	}
	return g.Wait()
}

func newHash(hashType string) hash.Hash {
	switch strings.ToLower(hashType) {
	case "md5":
		return md5.New()
	case "sha1":
		return sha1.New()
	}
	return sha256.New()
}

func downloadFile(ctx context.Context, client *http.Client, file File) (err error) {
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, file.URL, nil)
	if err != nil {
		return fmt.Errorf("%s: %v", file.Name, err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%s: error downloading %q: %v", file.Name, file.URL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s: error downloading %q: %s", file.Name, file.URL, resp.Status)
	}

	f, err := os.Create(file.Path())
	if err != nil {
		return fmt.Errorf("error creating %q: %v", file.Path(), err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("error closing %q: %v", file.Path(), closeErr)
		}
	}()

	if file.Hash == "" {
		if _, err := io.Copy(f, resp.Body); err != nil {
			return fmt.Errorf("%s: error downloading %q: %v", file.Name, file.URL, err)
		}
		return nil
	}
	h := newHash(file.HashType)
	if _, err := io.Copy(io.MultiWriter(f, h), resp.Body); err != nil {
		return fmt.Errorf("%s: error downloading %q: %v", file.Name, file.URL, err)
	}
	if sum := hex.EncodeToString(h.Sum(nil)); sum != file.Hash {
		return fmt.Errorf("%s: got %s hash %q, want %q", file.Name, file.HashType, sum, file.Hash)
	}
	return nil
}

func fileSameHash(file File) bool {
	f, err := os.Open(file.Path())
	if err != nil {
		return false
	}
	defer f.Close()

	h := newHash(file.HashType)
	if _, err := io.Copy(h, f); err != nil {
		return false
	}
	if sum := hex.EncodeToString(h.Sum(nil)); sum != file.Hash {
		glog.Warningf("File %q: got hash %q, expect hash %q", file.Name, sum, file.Hash)
		return false
	}
	return true
}

func unpackArchive(file File) error {
	dir := "."
	if file.directory != "" {
		dir = file.directory
	}

	var cmd []string
	switch path.Ext(file.Name) {
	case ".zip":
		cmd = []string{"unzip", "-d", dir, "-o", file.Path()}
	case ".gz":
		cmd = []string{"tar", "-xzf", file.Path(), "-C", dir}
	case ".bz2":
		cmd = []string{"tar", "-xjf", file.Path(), "-C", dir}
	default:
		return nil
	}

	glog.Infof("Unpacking %q", file.Path())
	if err := exec.Command(cmd[0], cmd[1:]...).Run(); err != nil {
		return fmt.Errorf("error unpacking %q: %v", file.Name, err)
	}
	return nil
}
