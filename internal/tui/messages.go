package tui

// RowUpdateMsg updates a tool row's fields by column name.
type RowUpdateMsg struct {
	Tool   string
	Fields map[string]string
}

// WorkDoneMsg signals that orchestration has finished.
type WorkDoneMsg struct{}

// InterruptMsg asks the view to stop the work, as ctrl+c does.
type InterruptMsg struct{}
