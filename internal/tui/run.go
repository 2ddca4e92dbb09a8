package tui

import (
	"context"
	"io"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// RunWithWork creates a bubbletea program, launches workFn in a goroutine
// and blocks until both the program and workFn have returned. workFn
// receives a send callback that wraps tea.Program.Send with a small yield
// so the renderer can draw between updates. Cancelling ctx marks the view
// as interrupted; signals are left to the caller.
func RunWithWork(ctx context.Context, out io.Writer, model ProgressModel, workFn func(send func(tea.Msg)), opts ...tea.ProgramOption) (ProgressModel, error) {
	opts = append([]tea.ProgramOption{tea.WithOutput(out), tea.WithoutSignalHandler()}, opts...)
	p := tea.NewProgram(model, opts...)

	done := make(chan struct{})
	go func() {
		defer close(done)
		// Let bubbletea start its event loop and render the initial frame.
		time.Sleep(50 * time.Millisecond)

		workFn(func(msg tea.Msg) {
			p.Send(msg)
			time.Sleep(5 * time.Millisecond)
		})

		p.Send(WorkDoneMsg{})
	}()
	go func() {
		select {
		case <-ctx.Done():
			p.Send(InterruptMsg{})
		case <-done:
		}
	}()

	finalModel, err := p.Run()
	if err != nil {
		// The view is gone; stop the work and wait so nothing outlives the call.
		model.interrupt()
		<-done
		return model, err
	}
	<-done
	m, ok := finalModel.(ProgressModel)
	if !ok {
		return model, nil
	}
	return m, nil
}
