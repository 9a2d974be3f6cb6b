package sauce

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/tebeka/selenium"

	"github.com/wanmail/selenium-client-factory/rc"
)

// Job is the Sauce Labs job behind a driver. It reports the outcome and
// fetches the recorded results of the driver's most recent session.
type Job struct {
	client *Client
	out    io.Writer

	mu            sync.Mutex
	name          string
	lastSessionID string
}

func newJob(client *Client, name string, out io.Writer) *Job {
	return &Job{client: client, name: name, out: out}
}

// record remembers id as the job's session and announces it on the job's
// writer, where CI plugins pick it up.
func (j *Job) record(id string) {
	if id == "" {
		return
	}
	j.mu.Lock()
	j.lastSessionID = id
	name := j.name
	j.mu.Unlock()
	if j.out != nil {
		fmt.Fprintf(j.out, "SauceOnDemandSessionID=%s job-name=%s\n", id, name)
	}
}

// Credential returns the credential used for the job.
func (j *Job) Credential() Credential { return j.client.Credential }

// Client returns the REST client used for the job.
func (j *Job) Client() *Client { return j.client }

// JobName returns the job's name.
func (j *Job) JobName() string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.name
}

// LastSessionID returns the ID of the most recent session. It stays
// available after the session has ended.
func (j *Job) LastSessionID() string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.lastSessionID
}

// ServerLogURL returns the URL of the Selenium server log.
func (j *Job) ServerLogURL() string { return j.client.ResultURL(j.LastSessionID(), ServerLogFile) }

// VideoURL returns the URL of the recorded video.
func (j *Job) VideoURL() string { return j.client.ResultURL(j.LastSessionID(), VideoFile) }

// OpenServerLog opens the Selenium server log. The caller must close it.
func (j *Job) OpenServerLog(ctx context.Context) (io.ReadCloser, error) {
	return j.client.OpenResult(ctx, j.LastSessionID(), ServerLogFile)
}

// OpenVideo opens the recorded video. The caller must close it.
func (j *Job) OpenVideo(ctx context.Context) (io.ReadCloser, error) {
	return j.client.OpenResult(ctx, j.LastSessionID(), VideoFile)
}

// JobPassed marks the job as passed.
func (j *Job) JobPassed(ctx context.Context) error {
	passed := true
	return j.client.UpdateJob(ctx, j.LastSessionID(), JobUpdate{Passed: &passed})
}

// JobFailed marks the job as failed.
func (j *Job) JobFailed(ctx context.Context) error {
	passed := false
	return j.client.UpdateJob(ctx, j.LastSessionID(), JobUpdate{Passed: &passed})
}

// SetBuildNumber associates the job with a build.
func (j *Job) SetBuildNumber(ctx context.Context, build string) error {
	return j.client.UpdateJob(ctx, j.LastSessionID(), JobUpdate{Build: build})
}

// SetJobName renames the job.
func (j *Job) SetJobName(ctx context.Context, name string) error {
	if err := j.client.UpdateJob(ctx, j.LastSessionID(), JobUpdate{Name: name}); err != nil {
		return err
	}
	j.mu.Lock()
	j.name = name
	j.mu.Unlock()
	return nil
}

// Selenium is a classic RC driver running as a Sauce Labs job.
type Selenium struct {
	rc.Selenium
	*Job
}

// Start opens the session and records its ID on the job.
func (s *Selenium) Start() error {
	if err := s.Selenium.Start(); err != nil {
		return err
	}
	s.record(s.Selenium.SessionID())
	return nil
}

// WebDriver is a WebDriver session running as a Sauce Labs job.
type WebDriver struct {
	selenium.WebDriver
	*Job

	tunnel *Connect
}

// Quit ends the session and stops the Sauce Connect tunnel, if one was
// started for it.
func (w *WebDriver) Quit() (err error) {
	if w.tunnel != nil {
		defer func() {
			if terr := w.tunnel.Stop(); err == nil {
				err = terr
			}
		}()
	}
	return w.WebDriver.Quit()
}

// NewSession opens a further session and records its ID on the job.
func (w *WebDriver) NewSession() (string, error) {
	id, err := w.WebDriver.NewSession()
	if err == nil {
		w.record(id)
	}
	return id, err
}
