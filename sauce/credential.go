package sauce

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	factory "github.com/wanmail/selenium-client-factory"
)

// CredentialFileName is the file under the home directory holding the
// default credential.
const CredentialFileName = ".sauce-ondemand"

// Credential authenticates against Sauce Labs.
type Credential struct {
	Username  string
	AccessKey string
}

// String hides the access key.
func (c Credential) String() string {
	return c.Username + ":********"
}

// DefaultCredentialFile returns ~/.sauce-ondemand.
func DefaultCredentialFile() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, CredentialFileName), nil
}

// LoadCredential reads a credential from a key=value file with entries
// username and key.
func LoadCredential(path string) (Credential, error) {
	m, err := godotenv.Read(path)
	if err != nil {
		return Credential{}, err
	}
	c := Credential{Username: m["username"], AccessKey: m["key"]}
	switch {
	case c.Username == "":
		return Credential{}, errors.New("no username entry")
	case c.AccessKey == "":
		return Credential{}, errors.New("no key entry")
	}
	return c, nil
}

// ResolveCredential returns the credential given by the username and
// access-key parameters. When both are absent it is loaded from path, or from
// DefaultCredentialFile if path is empty, and written back into p. Values
// already in p are never replaced.
func ResolveCredential(p factory.Params, path string) (Credential, error) {
	hasUser, hasKey := p.Has(ParamUsername), p.Has(ParamAccessKey)
	switch {
	case hasUser && hasKey:
		return Credential{Username: p.Get(ParamUsername), AccessKey: p.Get(ParamAccessKey)}, nil
	case hasUser:
		return Credential{}, fmt.Errorf("parameter %s given without %s", ParamUsername, ParamAccessKey)
	case hasKey:
		return Credential{}, fmt.Errorf("parameter %s given without %s", ParamAccessKey, ParamUsername)
	}

	if path == "" {
		var err error
		if path, err = DefaultCredentialFile(); err != nil {
			return Credential{}, &factory.CredentialFileError{Path: "~/" + CredentialFileName, Err: err}
		}
	}
	c, err := LoadCredential(path)
	if err != nil {
		return Credential{}, &factory.CredentialFileError{Path: path, Err: err}
	}
	p.Set(ParamUsername, c.Username)
	p.Set(ParamAccessKey, c.AccessKey)
	return c, nil
}
