package domain

// Environment identifies the execution environment the worker is launched
// under. Two environments are the same exactly when their interpreter paths
// match; a switch to an equal environment is a no-op.
type Environment struct {
	// Name is the configuration key the caller selects by.
	Name string
	// Interpreter is the Python interpreter path the worker is spawned with.
	Interpreter string
}

// Equal reports whether two environments launch the same worker.
func (e Environment) Equal(other Environment) bool {
	return e.Interpreter == other.Interpreter
}

// IsZero reports whether the environment is unset.
func (e Environment) IsZero() bool {
	return e.Interpreter == ""
}
