package tools

// Verdict is the outcome of the version gate.
type Verdict struct {
	Satisfied bool
	// Ambiguous is set when the comparison fell back to string ordering.
	Ambiguous bool
}

// Gate decides whether the installed version already satisfies desired. An
// absent tool is the empty string, which never satisfies a non-empty desired
// version. Force only disables the short-circuit.
func Gate(installed, desired string, force bool) Verdict {
	o, ambiguous := CompareDetail(installed, desired)
	return Verdict{Satisfied: !force && o != Less, Ambiguous: ambiguous}
}
