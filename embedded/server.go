package embedded

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"strconv"
	"sync"
	"time"

	"github.com/blang/semver"
	"github.com/golang/glog"
	"github.com/tebeka/selenium"
)

// ServerOption configures a Server.
type ServerOption func(*Server) error

// JavaPath sets the java binary. The default is "java" from PATH.
func JavaPath(path string) ServerOption {
	return func(s *Server) error {
		s.javaPath = path
		return nil
	}
}

// Args appends arguments to the server command line.
func Args(args ...string) ServerOption {
	return func(s *Server) error {
		s.args = append(s.args, args...)
		return nil
	}
}

// Output sends the server's stdout and stderr to w.
func Output(w io.Writer) ServerOption {
	return func(s *Server) error {
		s.output = w
		return nil
	}
}

// Version tells the server which command line its JAR expects. Selenium 4
// and later use the "standalone" subcommand.
func Version(v semver.Version) ServerOption {
	return func(s *Server) error {
		s.version = &v
		return nil
	}
}

// StartFrameBuffer starts an X virtual frame buffer for the server's browsers.
// It is stopped with the server.
func StartFrameBuffer() ServerOption {
	return func(s *Server) error {
		if s.xvfb != nil {
			return errors.New("frame buffer already started")
		}
		fb, err := selenium.NewFrameBuffer()
		if err != nil {
			return fmt.Errorf("error starting frame buffer: %v", err)
		}
		s.xvfb = fb
		s.displayEnv = []string{"DISPLAY=:" + fb.Display, "XAUTHORITY=" + fb.AuthPath}
		return nil
	}
}

// StartTimeout bounds the wait for the server to answer. The default is 30
// seconds.
func StartTimeout(d time.Duration) ServerOption {
	return func(s *Server) error {
		s.startTimeout = d
		return nil
	}
}

// stopper is satisfied by *selenium.FrameBuffer.
type stopper interface {
	Stop() error
}

// Server is a Selenium server running as a child process.
type Server struct {
	port         int
	javaPath     string
	args         []string
	output       io.Writer
	version      *semver.Version
	xvfb         stopper
	displayEnv   []string
	startTimeout time.Duration

	mu  sync.Mutex
	cmd *exec.Cmd
}

var standaloneSince = semver.MustParse("4.0.0")

// StartServer runs the Selenium server JAR at jarPath on port and waits
// until it answers status requests.
func StartServer(jarPath string, port int, opts ...ServerOption) (*Server, error) {
	s := &Server{port: port, javaPath: "java", startTimeout: 30 * time.Second}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			s.stopFrameBuffer()
			return nil, err
		}
	}

	cmd := exec.Command(s.javaPath, s.commandLine(jarPath)...)
	cmd.Stdout = s.output
	cmd.Stderr = s.output
	cmd.Env = os.Environ()
	cmd.Env = append(cmd.Env, s.displayEnv...)
	if err := cmd.Start(); err != nil {
		s.stopFrameBuffer()
		return nil, err
	}
	s.cmd = cmd
	glog.Infof("started Selenium server (pid %d) on port %d", cmd.Process.Pid, port)

	if err := s.waitReady(); err != nil {
		s.Stop() // ignore error.
		return nil, err
	}
	return s, nil
}

func (s *Server) standalone() bool {
	return s.version != nil && s.version.GE(standaloneSince)
}

func (s *Server) commandLine(jarPath string) []string {
	args := []string{"-jar", jarPath}
	if s.standalone() {
		args = append(args, "standalone", "--port", strconv.Itoa(s.port))
	} else {
		args = append(args, "-port", strconv.Itoa(s.port))
	}
	return append(args, s.args...)
}

func (s *Server) statusURL() string {
	if s.standalone() {
		return fmt.Sprintf("http://localhost:%d/status", s.port)
	}
	return fmt.Sprintf("http://localhost:%d/wd/hub/status", s.port)
}

func (s *Server) waitReady() error {
	for deadline := time.Now().Add(s.startTimeout); time.Now().Before(deadline); {
		time.Sleep(time.Second)
		resp, err := http.Get(s.statusURL())
		if err != nil {
			continue
		}
		resp.Body.Close()
		switch resp.StatusCode {
		// Selenium <3 returned Forbidden and BadRequest. Selenium 3 and later
		// return OK.
		case http.StatusForbidden, http.StatusBadRequest, http.StatusOK:
			return nil
		}
	}
	return fmt.Errorf("server did not respond on port %d", s.port)
}

// Port returns the port the server listens on.
func (s *Server) Port() int { return s.port }

// Stop kills the server and stops its frame buffer. Calling it again is a
// no-op.
func (s *Server) Stop() (err error) {
	s.mu.Lock()
	cmd := s.cmd
	s.cmd = nil
	s.mu.Unlock()
	if cmd == nil {
		return nil
	}
	defer func() {
		if fbErr := s.stopFrameBuffer(); fbErr != nil && err == nil {
			err = fbErr
		}
	}()
	if err := cmd.Process.Kill(); err != nil {
		return err
	}
	if err := cmd.Wait(); err != nil && err.Error() != "signal: killed" {
		return err
	}
	glog.Infof("stopped Selenium server on port %d", s.port)
	return nil
}

func (s *Server) stopFrameBuffer() error {
	if s.xvfb == nil {
		return nil
	}
	fb := s.xvfb
	s.xvfb = nil
	return fb.Stop()
}
