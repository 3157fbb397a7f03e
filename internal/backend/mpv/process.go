package mpv

import (
	"os/exec"
)

// process is a spawned player. Done is closed once the process has exited.
type process interface {
	Pid() int
	Done() <-chan struct{}
	Kill() error
}

type execProcess struct {
	cmd  *exec.Cmd
	done chan struct{}
}

// startProcess launches name with args and reaps it in the background so it
// never lingers as a zombie.
func startProcess(name string, args []string) (process, error) {
	cmd := exec.Command(name, args...)
	cmd.Stdin = nil
	cmd.Stdout = nil
	cmd.Stderr = nil
	if err := cmd.Start(); err != nil {
		return nil, err
	}

	p := &execProcess{cmd: cmd, done: make(chan struct{})}
	go func() {
		_ = cmd.Wait()
		close(p.done)
	}()
	return p, nil
}

func (p *execProcess) Pid() int {
	return p.cmd.Process.Pid
}

func (p *execProcess) Done() <-chan struct{} {
	return p.done
}

func (p *execProcess) Kill() error {
	return p.cmd.Process.Kill()
}

func exited(p process) bool {
	select {
	case <-p.Done():
		return true
	default:
		return false
	}
}
