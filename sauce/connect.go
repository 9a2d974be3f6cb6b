package sauce

import (
	"errors"
	"fmt"
	"io/ioutil"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/golang/glog"
)

// Connect runs a Sauce Connect Proxy so Sauce Labs browsers can reach HTTP
// endpoints on the local machine through a tunnel.
type Connect struct {
	// Path is the Sauce Connect Proxy binary.
	Path       string
	Credential Credential
	// SeleniumPort is where the proxy accepts WebDriver connections.
	SeleniumPort int
	LogFile      string
	Verbose      bool
	// Args are passed to the binary before the generated flags.
	Args []string
	// ReadyTimeout bounds the wait for the tunnel. Zero means one minute.
	ReadyTimeout time.Duration

	mu  sync.Mutex
	cmd *exec.Cmd
}

// Start launches the proxy and waits until it reports being ready.
func (c *Connect) Start() error {
	dir, err := ioutil.TempDir("", "selenium-sauce-connect")
	if err != nil {
		return err
	}
	defer os.RemoveAll(dir)

	// The proxy touches readyPath once it accepts connections.
	readyPath := filepath.Join(dir, "ready")
	cmd := exec.Command(c.Path, c.Args...)
	cmd.Args = append(cmd.Args,
		"--user", c.Credential.Username,
		"--api-key", c.Credential.AccessKey,
		"--readyfile", readyPath,
		"--pidfile", filepath.Join(dir, "pid"),
	)
	if c.SeleniumPort > 0 {
		cmd.Args = append(cmd.Args, "--se-port", strconv.Itoa(c.SeleniumPort))
	}
	if c.LogFile != "" {
		cmd.Args = append(cmd.Args, "--logfile", c.LogFile)
	}
	if c.Verbose {
		cmd.Args = append(cmd.Args, "-v")
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
	}
	if err := cmd.Start(); err != nil {
		return err
	}
	c.mu.Lock()
	c.cmd = cmd
	c.mu.Unlock()
	glog.Infof("started Sauce Connect (pid %d) on port %d", cmd.Process.Pid, c.SeleniumPort)

	timeout := c.ReadyTimeout
	if timeout == 0 {
		timeout = time.Minute
	}
	for deadline := time.Now().Add(timeout); time.Now().Before(deadline); time.Sleep(time.Second) {
		if _, err := os.Stat(readyPath); err == nil {
			return nil
		}
	}
	c.Stop() // ignore error.
	return fmt.Errorf("sauce connect did not become ready within %s", timeout)
}

// Addr returns the WebDriver endpoint served through the tunnel.
func (c *Connect) Addr() string {
	return Addr("localhost", c.SeleniumPort, c.Credential)
}

// Stop terminates the proxy. Calling it again is a no-op.
func (c *Connect) Stop() error {
	c.mu.Lock()
	cmd := c.cmd
	c.cmd = nil
	c.mu.Unlock()
	if cmd == nil {
		return nil
	}
	if err := cmd.Process.Kill(); err != nil {
		return err
	}
	if err := cmd.Wait(); err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return err
		}
	}
	return nil
}
